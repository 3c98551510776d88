package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/quorum/internal/clock"
	"github.com/viant/quorum/service/dao/notification/memory"
	"github.com/viant/quorum/service/notification"
)

func TestService_Lifecycle(t *testing.T) {
	defer clock.Freeze(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))()

	ctx := context.Background()
	srv := notification.New(memory.New())

	err := srv.Notify(ctx, "bob", &notification.Notification{
		Type:    notification.EventTypeDiscovery,
		Subject: "C.0000000000000001",
		Message: "client checked in",
	})
	assert.NoError(t, err)

	pending, err := srv.Pending(ctx, "bob")
	assert.NoError(t, err)
	if !assert.Len(t, pending, 1) {
		return
	}
	ts := pending[0].Notification.Timestamp
	assert.False(t, ts.IsZero())
	assert.Equal(t, notification.ReferenceDiscovery, pending[0].Reference.Type)

	// Acknowledge moves the entry to the shown set.
	err = srv.DeletePending(ctx, "bob", ts)
	assert.NoError(t, err)

	pending, err = srv.Pending(ctx, "bob")
	assert.NoError(t, err)
	assert.Len(t, pending, 0)

	shown, err := srv.Shown(ctx, "bob")
	assert.NoError(t, err)
	if assert.Len(t, shown, 1) {
		assert.Equal(t, "client checked in", shown[0].Notification.Message)
	}

	// Deleting again is a silent no-op.
	err = srv.DeletePending(ctx, "bob", ts)
	assert.NoError(t, err)
	shown, err = srv.Shown(ctx, "bob")
	assert.NoError(t, err)
	assert.Len(t, shown, 1)
}

func TestService_DeletePendingDuplicate(t *testing.T) {
	ctx := context.Background()
	srv := notification.New(memory.New())

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 2; i++ {
		err := srv.Notify(ctx, "bob", &notification.Notification{
			Type:      notification.EventTypeViewObject,
			Subject:   "aff4:/hunts/H:123456",
			Timestamp: ts,
		})
		assert.NoError(t, err)
	}

	err := srv.DeletePending(ctx, "bob", ts)
	var unique *notification.UniqueKeyError
	assert.ErrorAs(t, err, &unique)
	assert.Equal(t, 2, unique.Matches)

	// No mutation applied: both entries still pending, none shown.
	pending, err := srv.Pending(ctx, "bob")
	assert.NoError(t, err)
	assert.Len(t, pending, 2)
	shown, err := srv.Shown(ctx, "bob")
	assert.NoError(t, err)
	assert.Len(t, shown, 0)
}

func TestService_Global(t *testing.T) {
	ctx := context.Background()
	srv := notification.New(memory.New())

	err := srv.PublishGlobal(ctx, &notification.GlobalNotification{
		Type:   notification.GlobalError,
		Header: "Oh no, we're doomed!",
	})
	assert.NoError(t, err)
	err = srv.PublishGlobal(ctx, &notification.GlobalNotification{
		Type:   notification.GlobalInfo,
		Header: "Nothing to worry about!",
	})
	assert.NoError(t, err)

	pending, err := srv.PendingGlobal(ctx, "bob")
	assert.NoError(t, err)
	assert.Len(t, pending, 2)

	// Acknowledging one type leaves the other pending; per-user state.
	err = srv.DeleteGlobalPending(ctx, "bob", notification.GlobalError)
	assert.NoError(t, err)

	pending, err = srv.PendingGlobal(ctx, "bob")
	assert.NoError(t, err)
	if assert.Len(t, pending, 1) {
		assert.Equal(t, notification.GlobalInfo, pending[0].Type)
	}
	shown, err := srv.ShownGlobal(ctx, "bob")
	assert.NoError(t, err)
	if assert.Len(t, shown, 1) {
		assert.Equal(t, notification.GlobalError, shown[0].Type)
	}

	other, err := srv.PendingGlobal(ctx, "alice")
	assert.NoError(t, err)
	assert.Len(t, other, 2)

	// A type that was never published is a caller error.
	err = srv.DeleteGlobalPending(ctx, "bob", notification.GlobalWarning)
	assert.ErrorIs(t, err, notification.ErrNotFound)
}

func TestService_GlobalDuplicateType(t *testing.T) {
	ctx := context.Background()
	srv := notification.New(memory.New())

	for _, header := range []string{"First outage", "Second outage"} {
		err := srv.PublishGlobal(ctx, &notification.GlobalNotification{
			Type:   notification.GlobalError,
			Header: header,
		})
		assert.NoError(t, err)
	}

	err := srv.DeleteGlobalPending(ctx, "bob", notification.GlobalError)
	var unique *notification.UniqueKeyError
	assert.ErrorAs(t, err, &unique)
	assert.Equal(t, 2, unique.Matches)

	// No mutation applied: nothing shown, both entries still pending.
	shown, err := srv.ShownGlobal(ctx, "bob")
	assert.NoError(t, err)
	assert.Len(t, shown, 0)
	pending, err := srv.PendingGlobal(ctx, "bob")
	assert.NoError(t, err)
	assert.Len(t, pending, 2)
}
