package notifications

import (
	"encoding/json"

	"petconnect/internal/models"
)

// EventNotification is the frame type for a newly created notification.
const EventNotification = "notification"

// Event is the JSON frame written to WebSocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// EncodeNotification renders the live frame for a notification.
func EncodeNotification(dto models.NotificationDTO) (string, error) {
	b, err := json.Marshal(Event{Type: EventNotification, Payload: dto})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
