package server

import (
	"fmt"
	"log"
	"time"

	"petconnect/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const wsTicketTTL = 30 * time.Second

func notificationDTOs(items []models.Notification) []models.NotificationDTO {
	out := make([]models.NotificationDTO, 0, len(items))
	for i := range items {
		out = append(out, models.NewNotificationDTO(&items[i]))
	}
	return out
}

// GetNotifications handles GET /api/notifications
// @Summary List notifications
// @Description Newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.NotificationDTO
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := s.notificationService.List(ctx, currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(notificationDTOs(items))
}

// GetUnreadCount handles GET /api/notifications/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	count, err := s.notificationService.UnreadCount(ctx, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// MarkNotificationRead handles PUT /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := s.notificationService.MarkRead(ctx, currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.NewNotificationDTO(n))
}

// MarkAllNotificationsRead handles PUT /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	updated, err := s.notificationService.MarkAllRead(ctx, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a WebSocket ticket
// @Description Returns a single-use ticket valid for 30 seconds
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{ticket=string,expiresIn=int}
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewUnavailableError("Realtime notifications are unavailable"))
	}

	ticket := uuid.NewString()
	if err := s.redis.Set(c.Context(), wsTicketKey(ticket), fmt.Sprint(currentUserID(c)), wsTicketTTL).Err(); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"ticket":    ticket,
		"expiresIn": int(wsTicketTTL.Seconds()),
	})
}

// WebsocketHandler returns a websocket handler that registers connections with the Hub.
// Authentication is handled by route middleware and userID is read from connection locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			if cerr := conn.Close(); cerr != nil {
				log.Printf("websocket close error: %v", cerr)
			}
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			log.Printf("WebSocket Notification: Failed to register user %d: %v", uid, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}
		return upgrade(c)
	}
}
