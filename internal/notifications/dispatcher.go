package notifications

import (
	"context"
	"fmt"

	"petconnect/internal/models"
)

// Publisher pushes a persisted notification to the recipient's live sockets.
type Publisher interface {
	Publish(ctx context.Context, userID uint, dto models.NotificationDTO) error
}

// Dispatcher routes frames through Redis when it is configured, so every
// instance (this one included, via StartWiring) forwards them. Without Redis
// it writes straight to the local hub.
type Dispatcher struct {
	hub      *Hub
	notifier *Notifier
}

func NewDispatcher(hub *Hub, notifier *Notifier) *Dispatcher {
	return &Dispatcher{hub: hub, notifier: notifier}
}

func (d *Dispatcher) Publish(ctx context.Context, userID uint, dto models.NotificationDTO) error {
	frame, err := EncodeNotification(dto)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if d.notifier.Enabled() {
		return d.notifier.PublishUser(ctx, userID, frame)
	}
	if d.hub != nil {
		d.hub.Broadcast(userID, frame)
	}
	return nil
}
