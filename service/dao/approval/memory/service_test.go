package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/quorum/service/approval"
	"github.com/viant/quorum/service/dao"
)

func newApproval(id string, subject approval.Subject, createdAt time.Time) *approval.Approval {
	return &approval.Approval{
		ID:        id,
		Subject:   subject,
		Requestor: "requestor",
		Reason:    "because",
		Approvers: []string{"requestor"},
		CreatedAt: createdAt,
	}
}

func TestService_PutGet(t *testing.T) {
	ctx := context.Background()
	store := New()

	subject := approval.ClientSubject("C.0000000000000001")
	original := newApproval("approval-1", subject, time.Now().UTC())
	assert.NoError(t, store.Put(ctx, original))

	loaded, err := store.Get(ctx, "approval-1")
	assert.NoError(t, err)
	assert.Equal(t, original, loaded)

	// The store never aliases caller slices.
	loaded.Approvers[0] = "mutated"
	again, err := store.Get(ctx, "approval-1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"requestor"}, again.Approvers)

	_, err = store.Get(ctx, "approval-missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	_, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, dao.ErrInvalidID)
	assert.ErrorIs(t, store.Put(ctx, nil), dao.ErrNilEntity)
}

func TestService_QueryOrdering(t *testing.T) {
	ctx := context.Background()
	store := New()

	subject := approval.HuntSubject("H:123456")
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 3; i++ {
		a := newApproval(fmt.Sprintf("approval-%d", i), subject, base.Add(time.Duration(i)*time.Second))
		assert.NoError(t, store.Put(ctx, a))
	}
	// Same creation time as approval-2; later insertion wins the tie.
	assert.NoError(t, store.Put(ctx, newApproval("approval-tie", subject, base.Add(2*time.Second))))
	assert.NoError(t, store.Put(ctx, newApproval("approval-other", approval.ClientSubject("C.0000000000000001"), base)))

	items, err := store.Query(ctx, &subject, 0, -1)
	assert.NoError(t, err)
	if assert.Len(t, items, 4) {
		assert.Equal(t, "approval-tie", items[0].ID)
		assert.Equal(t, "approval-2", items[1].ID)
		assert.Equal(t, "approval-1", items[2].ID)
		assert.Equal(t, "approval-0", items[3].ID)
	}

	items, err = store.Query(ctx, &subject, 1, 2)
	assert.NoError(t, err)
	if assert.Len(t, items, 2) {
		assert.Equal(t, "approval-2", items[0].ID)
		assert.Equal(t, "approval-1", items[1].ID)
	}

	items, err = store.Query(ctx, nil, 0, -1)
	assert.NoError(t, err)
	assert.Len(t, items, 5)

	items, err = store.Query(ctx, &subject, 10, -1)
	assert.NoError(t, err)
	assert.Len(t, items, 0)

	// Negative offset reads as zero.
	items, err = store.Query(ctx, &subject, -1, -1)
	assert.NoError(t, err)
	assert.Len(t, items, 4)
}

func TestService_CompareAndSwapApprovers(t *testing.T) {
	ctx := context.Background()
	store := New()

	subject := approval.ClientSubject("C.0000000000000001")
	assert.NoError(t, store.Put(ctx, newApproval("approval-1", subject, time.Now().UTC())))

	err := store.CompareAndSwapApprovers(ctx, "approval-1",
		[]string{"requestor"}, []string{"requestor", "approver"})
	assert.NoError(t, err)

	loaded, err := store.Get(ctx, "approval-1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"requestor", "approver"}, loaded.Approvers)

	// A stale expectation loses the race.
	err = store.CompareAndSwapApprovers(ctx, "approval-1",
		[]string{"requestor"}, []string{"requestor", "other"})
	assert.ErrorIs(t, err, dao.ErrConflict)

	err = store.CompareAndSwapApprovers(ctx, "approval-missing",
		[]string{"requestor"}, []string{"requestor", "approver"})
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
