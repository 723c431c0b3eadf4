package notifications

import (
	"context"
	"testing"
	"time"

	"petconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func recv(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return string(msg)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("no frame received")
		return ""
	}
}

func TestHub_RegisterLimits(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrUserFull)
	assert.Equal(t, maxConnsPerUser, hub.Connections(1))

	_, err = hub.Register(2, nil)
	assert.NoError(t, err)
}

func TestHub_BroadcastTargetsUser(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	a1, _ := hub.Register(1, nil)
	a2, _ := hub.Register(1, nil)
	b, _ := hub.Register(2, nil)

	hub.Broadcast(1, "for-one")
	assert.Equal(t, "for-one", recv(t, a1))
	assert.Equal(t, "for-one", recv(t, a2))
	assert.Empty(t, b.Send)

	hub.BroadcastAll("everyone")
	assert.Equal(t, "everyone", recv(t, a1))
	assert.Equal(t, "everyone", recv(t, b))
}

func TestHub_UnregisterClosesSendOnce(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(5, nil)
	require.NoError(t, err)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)
	assert.Equal(t, 0, hub.Connections(5))

	_, ok := <-c.Send
	assert.False(t, ok)

	// Sending to a closed client is swallowed.
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}

func TestHub_BackpressureDropsAndNotifies(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()
	c, _ := hub.Register(3, nil)

	for i := 0; i < sendBuffer; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)
	assert.NotPanics(t, func() { c.TrySend([]byte("overflow")) })
	assert.Len(t, c.Send, sendBuffer)
}

func TestHub_ShutdownRefusesNewClients(t *testing.T) {
	hub := NewHub()
	c, _ := hub.Register(1, nil)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	_, ok := <-c.Send
	assert.False(t, ok)
	_, err := hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrHubShutdown)
}

func TestHub_StartWiringForwardsRedisChannels(t *testing.T) {
	rdb := newRedis(t)
	n := NewNotifier(rdb)
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	c1, _ := hub.Register(11, nil)
	c2, _ := hub.Register(12, nil)

	require.NoError(t, n.PublishUser(ctx, 11, "direct"))
	assert.Equal(t, "direct", recv(t, c1))

	require.NoError(t, n.PublishBroadcast(ctx, "all"))
	assert.Equal(t, "all", recv(t, c1))
	assert.Equal(t, "all", recv(t, c2))
	assert.Empty(t, c2.Send)
}

func TestDispatcher(t *testing.T) {
	dto := models.NotificationDTO{ID: 1, Type: models.NotificationComment, Message: "hi"}
	want, err := EncodeNotification(dto)
	require.NoError(t, err)

	t.Run("local hub without redis", func(t *testing.T) {
		hub := NewHub()
		defer func() { _ = hub.Shutdown(context.Background()) }()
		c, _ := hub.Register(4, nil)

		d := NewDispatcher(hub, NewNotifier(nil))
		require.NoError(t, d.Publish(context.Background(), 4, dto))
		assert.Equal(t, want, recv(t, c))
	})

	t.Run("through redis exactly once", func(t *testing.T) {
		n := NewNotifier(newRedis(t))
		hub := NewHub()
		defer func() { _ = hub.Shutdown(context.Background()) }()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, hub.StartWiring(ctx, n))
		c, _ := hub.Register(4, nil)

		d := NewDispatcher(hub, n)
		require.NoError(t, d.Publish(ctx, 4, dto))
		assert.Equal(t, want, recv(t, c))
		assert.Never(t, func() bool { return len(c.Send) > 0 }, 100*time.Millisecond, testPollInterval)
	})
}
