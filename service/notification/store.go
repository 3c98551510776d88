package notification

import (
	"context"
	"time"
)

// Store persists per-user pending/shown notification sets and the global
// catalog. Implementations must apply each operation atomically so that the
// zero/one/many deletion rule is evaluated against a consistent snapshot.
type Store interface {
	// AppendPending adds a notification to the user's pending set.
	AppendPending(ctx context.Context, userID string, n *Notification) error

	// ListPending returns the user's pending notifications in append order.
	ListPending(ctx context.Context, userID string) ([]*Notification, error)

	// PopPendingByTimestamp returns every pending notification whose
	// timestamp equals ts. The match is removed from the pending set only
	// when it is unique: with zero or multiple matches the set is left
	// untouched, letting the caller apply the zero/one/many rule without any
	// mutation having taken place.
	PopPendingByTimestamp(ctx context.Context, userID string, ts time.Time) ([]*Notification, error)

	// AppendShown adds a notification to the user's shown set.
	AppendShown(ctx context.Context, userID string, n *Notification) error

	// ListShown returns the user's shown notifications in append order.
	ListShown(ctx context.Context, userID string) ([]*Notification, error)

	// PublishGlobal adds an entry to the cross-user catalog.
	PublishGlobal(ctx context.Context, n *GlobalNotification) error

	// ListGlobal returns the full catalog in publish order.
	ListGlobal(ctx context.Context) ([]*GlobalNotification, error)

	// ListShownGlobal returns the catalog entries the user has acknowledged.
	ListShownGlobal(ctx context.Context, userID string) ([]*GlobalNotification, error)

	// PopGlobalPendingByType mirrors PopPendingByTimestamp keyed by type:
	// it returns the user's pending catalog entries of the given type and
	// marks the entry shown only when the match is unique.
	PopGlobalPendingByType(ctx context.Context, userID string, t GlobalType) ([]*GlobalNotification, error)
}
