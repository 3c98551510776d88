package memory

import (
	"context"
	"sync"
	"time"

	"github.com/viant/quorum/service/notification"
)

// userState holds one user's pending and shown sets.
type userState struct {
	pending     []*notification.Notification
	shown       []*notification.Notification
	shownGlobal []*notification.GlobalNotification
}

// Service is an in-memory notification.Store. Every operation runs under a
// single mutex, so the zero/one/many deletion rule always observes a
// consistent snapshot.
type Service struct {
	mu      sync.RWMutex
	users   map[string]*userState
	catalog []*notification.GlobalNotification
}

// New creates an empty in-memory notification store.
func New() *Service {
	return &Service{users: make(map[string]*userState)}
}

var _ notification.Store = (*Service)(nil)

func (s *Service) user(userID string) *userState {
	state, ok := s.users[userID]
	if !ok {
		state = &userState{}
		s.users[userID] = state
	}
	return state
}

// AppendPending adds a notification to the user's pending set.
func (s *Service) AppendPending(_ context.Context, userID string, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *n
	s.user(userID).pending = append(s.user(userID).pending, &copied)
	return nil
}

// ListPending returns the user's pending notifications in append order.
func (s *Service) ListPending(_ context.Context, userID string) ([]*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return append([]*notification.Notification(nil), state.pending...), nil
}

// PopPendingByTimestamp returns all pending entries matching ts, removing
// the match only when it is unique.
func (s *Service) PopPendingByTimestamp(_ context.Context, userID string, ts time.Time) ([]*notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	var matches []*notification.Notification
	matchIndex := -1
	for i, item := range state.pending {
		if item.Timestamp.Equal(ts) {
			matches = append(matches, item)
			matchIndex = i
		}
	}
	if len(matches) == 1 {
		state.pending = append(state.pending[:matchIndex], state.pending[matchIndex+1:]...)
	}
	return matches, nil
}

// AppendShown adds a notification to the user's shown set.
func (s *Service) AppendShown(_ context.Context, userID string, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *n
	s.user(userID).shown = append(s.user(userID).shown, &copied)
	return nil
}

// ListShown returns the user's shown notifications in append order.
func (s *Service) ListShown(_ context.Context, userID string) ([]*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return append([]*notification.Notification(nil), state.shown...), nil
}

// PublishGlobal adds an entry to the cross-user catalog.
func (s *Service) PublishGlobal(_ context.Context, n *notification.GlobalNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *n
	s.catalog = append(s.catalog, &copied)
	return nil
}

// ListGlobal returns the full catalog in publish order.
func (s *Service) ListGlobal(_ context.Context) ([]*notification.GlobalNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*notification.GlobalNotification(nil), s.catalog...), nil
}

// ListShownGlobal returns the catalog entries the user has acknowledged.
func (s *Service) ListShownGlobal(_ context.Context, userID string) ([]*notification.GlobalNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return append([]*notification.GlobalNotification(nil), state.shownGlobal...), nil
}

// PopGlobalPendingByType returns the user's pending catalog entries of the
// given type, marking the entry shown only when the match is unique.
func (s *Service) PopGlobalPendingByType(_ context.Context, userID string, t notification.GlobalType) ([]*notification.GlobalNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.user(userID)
	seen := make(map[notification.GlobalType]bool, len(state.shownGlobal))
	for _, item := range state.shownGlobal {
		seen[item.Type] = true
	}
	var matches []*notification.GlobalNotification
	for _, item := range s.catalog {
		if item.Type == t && !seen[item.Type] {
			matches = append(matches, item)
		}
	}
	if len(matches) == 1 {
		state.shownGlobal = append(state.shownGlobal, matches[0])
	}
	return matches, nil
}
