package approval

import (
	"context"
)

// Store persists approval records. Implementations must never alias the
// approver set with callers: Put/Get/Query operate on copies, and the only
// way to change the approver set is the compare-and-swap operation, which
// guarantees a grant is applied against a consistent snapshot.
type Store interface {
	// Put stores a new approval record.
	Put(ctx context.Context, a *Approval) error

	// Get returns the approval with the given id, or dao.ErrNotFound.
	Get(ctx context.Context, id string) (*Approval, error)

	// Query returns approvals ordered newest-created first, ties broken by
	// reverse insertion order, optionally narrowed to a subject. A negative
	// count returns all items from offset; a negative offset reads as zero.
	Query(ctx context.Context, subject *Subject, offset, count int) ([]*Approval, error)

	// CompareAndSwapApprovers replaces the approver set only when the stored
	// set still equals expected, returning dao.ErrConflict otherwise and
	// dao.ErrNotFound when the approval does not exist.
	CompareAndSwapApprovers(ctx context.Context, id string, expected, updated []string) error
}
