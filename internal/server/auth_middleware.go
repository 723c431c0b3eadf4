package server

import (
	"fmt"
	"strconv"

	"petconnect/internal/middleware"
	"petconnect/internal/models"

	"github.com/gofiber/fiber/v2"
)

const wsPath = "/api/ws"

func wsTicketKey(ticket string) string {
	return fmt.Sprintf("ws_ticket:%s", ticket)
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// The WebSocket upgrade only accepts a short-lived, single-use ticket
		if c.Path() == wsPath {
			return s.authenticateTicket(c)
		}

		tokenString, ok := middleware.BearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		if claims.JTI != "" && s.authService.IsRevoked(c.Context(), claims.JTI) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		c.Locals("tokenClaims", claims)
		s.setUser(c, claims.UserID)
		return c.Next()
	}
}

func (s *Server) authenticateTicket(c *fiber.Ctx) error {
	ticket := c.Query("ticket")
	if ticket == "" || s.redis == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("WebSocket ticket required"))
	}

	// GETDEL keeps the ticket single-use even under concurrent upgrades
	userIDStr, err := s.redis.GetDel(c.Context(), wsTicketKey(ticket)).Result()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
	}
	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil || userID == 0 {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
	}

	s.setUser(c, uint(userID))
	return c.Next()
}

func (s *Server) setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
// The role is read from the database so promotions and demotions apply at once.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.userRepo.GetByID(c.Context(), currentUserID(c))
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("User no longer exists"))
			}
			return respondServiceError(c, err)
		}
		if !user.IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// FeatureRequired rejects requests with 403 while the named flag is off for
// the caller.
func (s *Server) FeatureRequired(flag string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.featureFlags == nil || !s.featureFlags.Enabled(flag, currentUserID(c)) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("This feature is not enabled"))
		}
		return c.Next()
	}
}
