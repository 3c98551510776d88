package fs

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
	"github.com/viant/quorum/service/approval"
	"github.com/viant/quorum/service/dao"
)

func newStore(t *testing.T) *Service {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "approval-store")
	if err != nil {
		t.Fatalf("failed to create temp directory: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tempDir) })
	store, err := New(tempDir, afs.New())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestService_PutGet(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	original := &approval.Approval{
		ID:               "approval-1",
		Subject:          approval.HuntSubject("H:123456"),
		Requestor:        "requestor",
		Reason:           "because",
		NotifiedUsers:    []string{"approver"},
		EmailCCAddresses: []string{"test@example.com"},
		Approvers:        []string{"requestor"},
		CreatedAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	assert.NoError(t, store.Put(ctx, original))

	loaded, err := store.Get(ctx, "approval-1")
	assert.NoError(t, err)
	assert.Equal(t, original, loaded)

	_, err = store.Get(ctx, "approval-missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	_, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, dao.ErrInvalidID)
	assert.ErrorIs(t, store.Put(ctx, nil), dao.ErrNilEntity)
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	subject := approval.HuntSubject("H:123456")
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 3; i++ {
		assert.NoError(t, store.Put(ctx, &approval.Approval{
			ID:        fmt.Sprintf("approval-%d", i),
			Subject:   subject,
			Requestor: "requestor",
			Reason:    "because",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	assert.NoError(t, store.Put(ctx, &approval.Approval{
		ID:        "approval-other",
		Subject:   approval.ClientSubject("C.0000000000000001"),
		Requestor: "requestor",
		Reason:    "because",
		CreatedAt: base,
	}))

	items, err := store.Query(ctx, &subject, 0, -1)
	assert.NoError(t, err)
	if assert.Len(t, items, 3) {
		assert.Equal(t, "approval-2", items[0].ID)
		assert.Equal(t, "approval-0", items[2].ID)
	}

	items, err = store.Query(ctx, &subject, 1, 1)
	assert.NoError(t, err)
	if assert.Len(t, items, 1) {
		assert.Equal(t, "approval-1", items[0].ID)
	}

	items, err = store.Query(ctx, nil, 0, -1)
	assert.NoError(t, err)
	assert.Len(t, items, 4)

	// Negative offset reads as zero.
	items, err = store.Query(ctx, &subject, -1, -1)
	assert.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestService_CompareAndSwapApprovers(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	assert.NoError(t, store.Put(ctx, &approval.Approval{
		ID:        "approval-1",
		Subject:   approval.ClientSubject("C.0000000000000001"),
		Requestor: "requestor",
		Reason:    "because",
		Approvers: []string{"requestor"},
		CreatedAt: time.Now().UTC(),
	}))

	err := store.CompareAndSwapApprovers(ctx, "approval-1",
		[]string{"requestor"}, []string{"requestor", "approver"})
	assert.NoError(t, err)

	loaded, err := store.Get(ctx, "approval-1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"requestor", "approver"}, loaded.Approvers)

	err = store.CompareAndSwapApprovers(ctx, "approval-1",
		[]string{"requestor"}, []string{"requestor", "other"})
	assert.ErrorIs(t, err, dao.ErrConflict)

	err = store.CompareAndSwapApprovers(ctx, "approval-missing",
		[]string{"requestor"}, []string{"requestor", "approver"})
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
