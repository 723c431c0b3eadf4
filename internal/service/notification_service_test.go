package service

import (
	"context"
	"errors"
	"testing"

	"petconnect/internal/models"
	"petconnect/internal/notifications"
	"petconnect/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_CreatePublishes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, env.db, "user")

	n, err := env.notifier.Create(ctx, NotifyInput{UserID: user.ID, Type: models.NotificationLike, Message: "hi"})
	require.NoError(t, err)
	assert.NotZero(t, n.ID)

	require.Equal(t, 1, env.publisher.count())
	sent := env.publisher.sent[0]
	assert.Equal(t, user.ID, sent.userID)
	assert.Equal(t, n.ID, sent.dto.ID)
	assert.False(t, sent.dto.IsRead)
}

func TestNotificationService_PublishFailureKeepsNotification(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("redis gone")
	user := testutil.CreateUser(t, env.db, "user")

	_, err := env.notifier.Create(context.Background(), NotifyInput{UserID: user.ID, Type: models.NotificationUrgent, Message: "help"})
	require.NoError(t, err)
	assert.Len(t, env.notificationsFor(t, user.ID), 1)
}

func TestNotificationService_NotifySwallowsErrors(t *testing.T) {
	env := newTestEnv(t)
	// unknown recipient violates the foreign key
	env.notifier.Notify(context.Background(), NotifyInput{UserID: 4242, Type: models.NotificationLike, Message: "x"})
	assert.Zero(t, env.publisher.count())

	var nilSvc *NotificationService
	assert.NotPanics(t, func() {
		nilSvc.Notify(context.Background(), NotifyInput{UserID: 1})
	})
}

func TestNotificationService_ReadState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	other := testutil.CreateUser(t, env.db, "other")

	var ids []uint
	for i := 0; i < 3; i++ {
		n, err := env.notifier.Create(ctx, NotifyInput{UserID: owner.ID, Type: models.NotificationComment, Message: "c"})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	count, err := env.notifier.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	_, err = env.notifier.MarkRead(ctx, other.ID, ids[0])
	assert.Equal(t, models.CodeForbidden, errCode(err))

	n, err := env.notifier.MarkRead(ctx, owner.ID, ids[0])
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	updated, err := env.notifier.MarkAllRead(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	count, err = env.notifier.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	list, err := env.notifier.List(ctx, owner.ID, 500, -1)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestNotificationService_DeliversThroughHub(t *testing.T) {
	env := newTestEnv(t)
	hub := notifications.NewHub()
	svc := NewNotificationService(env.notifications, notifications.NewDispatcher(hub, notifications.NewNotifier(nil)))
	user := testutil.CreateUser(t, env.db, "user")

	client, err := hub.Register(user.ID, nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), NotifyInput{UserID: user.ID, Type: models.NotificationLike, Message: "live"})
	require.NoError(t, err)

	select {
	case frame := <-client.Send:
		assert.Contains(t, string(frame), `"type":"notification"`)
		assert.Contains(t, string(frame), `"message":"live"`)
	default:
		t.Fatal("expected a frame on the client's send buffer")
	}
}
