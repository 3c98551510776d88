package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/quorum/internal/clock"
	"github.com/viant/quorum/tracing"
)

// Service manages the pending/shown lifecycle of user and global
// notifications. State lives in the supplied Store; the service only applies
// the transition rules.
type Service struct {
	store  Store
	logger zerolog.Logger
}

// Option customises the service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a notification lifecycle service backed by store.
func New(store Store, options ...Option) *Service {
	ret := &Service{
		store:  store,
		logger: zerolog.Nop(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Notify appends a notification to the user's pending set. The timestamp is
// assigned from the clock unless the caller supplied one, and acts as the
// notification's identity within the pending set.
func (s *Service) Notify(ctx context.Context, userID string, n *Notification) error {
	if userID == "" {
		return fmt.Errorf("notification: empty user id")
	}
	if n == nil {
		return fmt.Errorf("notification: nil notification")
	}
	ctx, span := tracing.StartSpan(ctx, "notification.notify")
	defer span.End()

	pending := *n
	if pending.Timestamp.IsZero() {
		pending.Timestamp = clock.Now()
	}
	err := s.store.AppendPending(ctx, userID, &pending)
	span.SetStatus(err)
	if err == nil {
		s.logger.Debug().
			Str("user", userID).
			Str("type", pending.Type).
			Str("subject", pending.Subject).
			Msg("notification appended")
	}
	return err
}

// Pending returns the user's pending notifications paired with their
// resolved references.
func (s *Service) Pending(ctx context.Context, userID string) ([]*Resolved, error) {
	items, err := s.store.ListPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	return resolveAll(items), nil
}

// Shown returns the user's acknowledged notifications paired with their
// resolved references.
func (s *Service) Shown(ctx context.Context, userID string) ([]*Resolved, error) {
	items, err := s.store.ListShown(ctx, userID)
	if err != nil {
		return nil, err
	}
	return resolveAll(items), nil
}

func resolveAll(items []*Notification) []*Resolved {
	out := make([]*Resolved, 0, len(items))
	for _, item := range items {
		out = append(out, &Resolved{Notification: item, Reference: ResolveNotification(item)})
	}
	return out
}

// DeletePending acknowledges the pending notification with the given
// timestamp, moving it to the shown set.
//
// Zero matches is a silent success: the client may be acting on cached
// state. More than one match is a consistency fault surfaced as a
// UniqueKeyError with no mutation applied.
func (s *Service) DeletePending(ctx context.Context, userID string, timestamp time.Time) error {
	ctx, span := tracing.StartSpan(ctx, "notification.deletePending")
	defer span.End()

	matches, err := s.store.PopPendingByTimestamp(ctx, userID, timestamp)
	if err != nil {
		span.SetStatus(err)
		return err
	}
	switch len(matches) {
	case 0:
		return nil
	case 1:
		err := s.store.AppendShown(ctx, userID, matches[0])
		span.SetStatus(err)
		return err
	}
	err = &UniqueKeyError{Key: timestamp.UTC().Format(time.RFC3339Nano), Matches: len(matches)}
	span.SetStatus(err)
	return err
}

// PublishGlobal adds an announcement to the cross-user catalog.
func (s *Service) PublishGlobal(ctx context.Context, n *GlobalNotification) error {
	if n == nil {
		return fmt.Errorf("notification: nil notification")
	}
	published := *n
	if published.CreatedAt.IsZero() {
		published.CreatedAt = clock.Now()
	}
	return s.store.PublishGlobal(ctx, &published)
}

// PendingGlobal returns the catalog entries the user has not acknowledged.
func (s *Service) PendingGlobal(ctx context.Context, userID string) ([]*GlobalNotification, error) {
	catalog, err := s.store.ListGlobal(ctx)
	if err != nil {
		return nil, err
	}
	shown, err := s.store.ListShownGlobal(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[GlobalType]bool, len(shown))
	for _, item := range shown {
		seen[item.Type] = true
	}
	pending := make([]*GlobalNotification, 0, len(catalog))
	for _, item := range catalog {
		if !seen[item.Type] {
			pending = append(pending, item)
		}
	}
	return pending, nil
}

// ShownGlobal returns the catalog entries the user has acknowledged.
func (s *Service) ShownGlobal(ctx context.Context, userID string) ([]*GlobalNotification, error) {
	return s.store.ListShownGlobal(ctx, userID)
}

// DeleteGlobalPending acknowledges the pending catalog entry of the given
// type for the user. The catalog is curated, so a type that was never
// published is a caller error reported as ErrNotFound.
func (s *Service) DeleteGlobalPending(ctx context.Context, userID string, t GlobalType) error {
	ctx, span := tracing.StartSpan(ctx, "notification.deleteGlobalPending")
	defer span.End()

	matches, err := s.store.PopGlobalPendingByType(ctx, userID, t)
	if err != nil {
		span.SetStatus(err)
		return err
	}
	switch len(matches) {
	case 0:
		err = fmt.Errorf("%w: global notification type %v", ErrNotFound, t)
	case 1:
		err = nil
	default:
		err = &UniqueKeyError{Key: string(t), Matches: len(matches)}
	}
	span.SetStatus(err)
	return err
}
