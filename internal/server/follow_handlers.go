package server

import (
	"petconnect/internal/models"

	"github.com/gofiber/fiber/v2"
)

func summaries(users []models.User) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, models.NewUserSummary(&users[i]))
	}
	return out
}

// FollowUser handles POST /api/follows/:userId
// @Summary Send a connection request
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Target user ID"
// @Success 200 {object} object{requested=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /follows/{userId} [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	requested, err := s.followService.Follow(ctx, currentUserID(c), targetID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"requested": requested})
}

// AcceptFollowRequest handles POST /api/follows/:userId/accept
// @Summary Accept a pending request from a user
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Requester user ID"
// @Success 200 {object} object{accepted=bool}
// @Router /follows/{userId}/accept [post]
func (s *Server) AcceptFollowRequest(c *fiber.Ctx) error {
	requesterID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	accepted, err := s.followService.AcceptRequest(ctx, requesterID, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"accepted": accepted})
}

// CancelFollowRequest handles DELETE /api/follows/:userId/request
func (s *Server) CancelFollowRequest(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	cancelled, err := s.followService.CancelRequest(ctx, currentUserID(c), targetID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"cancelled": cancelled})
}

// UnfollowUser handles DELETE /api/follows/:userId
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	removed, err := s.followService.Unfollow(ctx, currentUserID(c), targetID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"removed": removed})
}

// GetFollowStatus handles GET /api/follows/status/:userId
// @Summary Connection status with a user
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Other user ID"
// @Success 200 {object} object{status=string}
// @Router /follows/status/{userId} [get]
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	status, err := s.followService.GetStatus(ctx, currentUserID(c), otherID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"status": status})
}

// GetConnections handles GET /api/follows/connections
func (s *Server) GetConnections(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := s.followService.Connections(ctx, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(summaries(users))
}

// GetPendingRequests handles GET /api/follows/requests
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	requests, err := s.followService.PendingRequests(ctx, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(requests)
}

// GetSuggestions handles GET /api/follows/suggestions
func (s *Server) GetSuggestions(c *fiber.Ctx) error {
	page := parsePagination(c, 10)

	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := s.followService.Suggestions(ctx, currentUserID(c), page.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(summaries(users))
}

// SearchUsers handles GET /api/users/search
// @Summary Search users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search text"
// @Success 200 {array} models.UserSearchResult
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	results, err := s.followService.Search(ctx, currentUserID(c), c.Query("q"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(results)
}
