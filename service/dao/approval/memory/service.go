package memory

import (
	"context"
	"sort"

	"github.com/viant/quorum/service/approval"
	"github.com/viant/quorum/service/dao"
	"github.com/viant/quorum/service/dao/store"
)

func approvalKey(a *approval.Approval) string { return a.ID }

// Service is an in-memory approval.Store built on the generic memory store.
// Records are cloned on every boundary so callers never alias the mutable
// approver set.
type Service struct {
	records *store.MemoryStore[string, approval.Approval]
}

// New creates an empty in-memory approval store.
func New() *Service {
	return &Service{records: store.NewMemoryStore[string, approval.Approval](approvalKey)}
}

var _ approval.Store = (*Service)(nil)

// Put stores a new approval record.
func (s *Service) Put(ctx context.Context, a *approval.Approval) error {
	if a == nil {
		return dao.ErrNilEntity
	}
	if a.ID == "" {
		return dao.ErrInvalidID
	}
	return s.records.Save(ctx, a.Clone())
}

// Get returns the approval with the given id.
func (s *Service) Get(ctx context.Context, id string) (*approval.Approval, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	a, err := s.records.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, dao.ErrNotFound
	}
	return a.Clone(), nil
}

// Query returns approvals newest-created first; creation-time ties resolve
// to reverse insertion order.
func (s *Service) Query(ctx context.Context, subject *approval.Subject, offset, count int) ([]*approval.Approval, error) {
	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]*approval.Approval, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- { // reverse insertion order
		item := all[i]
		if subject != nil && item.Subject != *subject {
			continue
		}
		matched = append(matched, item.Clone())
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []*approval.Approval{}, nil
	}
	matched = matched[offset:]
	if count >= 0 && count < len(matched) {
		matched = matched[:count]
	}
	return matched, nil
}

// CompareAndSwapApprovers atomically replaces the approver set when the
// stored set still equals expected.
func (s *Service) CompareAndSwapApprovers(ctx context.Context, id string, expected, updated []string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	return s.records.Update(ctx, id, func(current *approval.Approval) (*approval.Approval, error) {
		if current == nil {
			return nil, dao.ErrNotFound
		}
		if !equalApprovers(current.Approvers, expected) {
			return nil, dao.ErrConflict
		}
		next := current.Clone()
		next.Approvers = append([]string(nil), updated...)
		return next, nil
	})
}

func equalApprovers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
