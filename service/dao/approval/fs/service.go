// Package fs persists approval records as JSON documents through the viant
// file-storage abstraction, so the audit trail can live on local disk or any
// afs-supported backend (mem://, s3://, gs://).
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/viant/quorum/service/approval"
	"github.com/viant/quorum/service/dao"
)

// Service is an afs-backed approval.Store. Mutations are serialised by a
// process-wide mutex; the compare-and-swap re-reads the record under that
// lock so a concurrent grant surfaces as dao.ErrConflict instead of being
// silently overwritten.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

// New creates a filesystem approval store rooted at baseURL.
func New(baseURL string, fileService afs.Service) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("approval store base URL was empty")
	}
	ret := &Service{baseURL: baseURL, fs: fileService}
	if err := ret.fs.Create(context.Background(), baseURL, file.DefaultDirOsMode, true); err != nil {
		return nil, fmt.Errorf("failed to create approval store location %s: %w", baseURL, err)
	}
	return ret, nil
}

var _ approval.Store = (*Service)(nil)

func (s *Service) location(id string) string {
	return url.Join(s.baseURL, id+".json")
}

func (s *Service) upload(ctx context.Context, a *approval.Approval) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal approval %s: %w", a.ID, err)
	}
	location := s.location(a.ID)
	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save approval to %s: %w", location, err)
	}
	return nil
}

func (s *Service) download(ctx context.Context, id string) (*approval.Approval, error) {
	location := s.location(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check approval %s: %w", id, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read approval %s: %w", id, err)
	}
	var a approval.Approval
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal approval %s: %w", id, err)
	}
	return &a, nil
}

// Put stores a new approval record.
func (s *Service) Put(ctx context.Context, a *approval.Approval) error {
	if a == nil {
		return dao.ErrNilEntity
	}
	if a.ID == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upload(ctx, a)
}

// Get returns the approval with the given id.
func (s *Service) Get(ctx context.Context, id string) (*approval.Approval, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.download(ctx, id)
}

// Query lists all records, narrows by subject and orders newest-created
// first. Ties resolve by descending id, which is stable albeit arbitrary for
// records created within the same clock reading.
func (s *Service) Query(ctx context.Context, subject *approval.Subject, offset, count int) ([]*approval.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	matched := make([]*approval.Approval, 0, len(objects))
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(object.Name(), ".json")
		a, err := s.download(ctx, id)
		if err != nil {
			return nil, err
		}
		if subject != nil && a.Subject != *subject {
			continue
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
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

// CompareAndSwapApprovers re-reads the record under the store lock and
// replaces the approver set only when it still equals expected.
func (s *Service) CompareAndSwapApprovers(ctx context.Context, id string, expected, updated []string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.download(ctx, id)
	if err != nil {
		return err
	}
	if !equalApprovers(current.Approvers, expected) {
		return dao.ErrConflict
	}
	current.Approvers = append([]string(nil), updated...)
	return s.upload(ctx, current)
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
