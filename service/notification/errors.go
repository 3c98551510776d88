package notification

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a curated global notification type is not
// present in the pending catalog. Unlike per-user timestamps, a missing type
// is a caller error, not a race.
var ErrNotFound = errors.New("notification: not found")

// UniqueKeyError reports that a deletion key matched more than one pending
// notification. The condition is a consistency fault and is never silently
// resolved by picking one candidate.
type UniqueKeyError struct {
	Key     string
	Matches int
}

func (e *UniqueKeyError) Error() string {
	return fmt.Sprintf("notification: key %q matched %d pending entries", e.Key, e.Matches)
}

// IsUniqueKey reports whether err is a uniqueness violation.
func IsUniqueKey(err error) bool {
	var uniqueKey *UniqueKeyError
	return errors.As(err, &uniqueKey)
}
