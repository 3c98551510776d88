package approval

import "errors"

var (
	// ErrNotFound is returned when no approval with the requested id exists.
	ErrNotFound = errors.New("approval: not found")

	// ErrInvalidRequest indicates a rejected request: empty reason, missing
	// requestor or malformed subject identifier. Validation happens before
	// any mutation or side effect.
	ErrInvalidRequest = errors.New("approval: invalid request")

	// ErrUnauthorized is returned by CheckAccess when the approval does not
	// satisfy the quorum rule.
	ErrUnauthorized = errors.New("approval: unauthorized")

	// ErrTransient marks store conflicts, timeouts and failing delegated
	// authorization checks that are safe to retry as a whole, since all
	// mutations are atomic.
	ErrTransient = errors.New("approval: transient failure")
)
