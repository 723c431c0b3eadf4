package server

import (
	"petconnect/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RoleRequest carries the new role for a user.
type RoleRequest struct {
	Role string `json:"role"`
}

// GetAdminStats handles GET /api/admin/stats
// @Summary Dashboard counters
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.AdminStats
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/stats [get]
func (s *Server) GetAdminStats(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	stats, err := s.adminService.Stats(ctx)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// AdminListUsers handles GET /api/admin/users
func (s *Server) AdminListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := s.adminService.ListUsers(ctx, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// AdminGetUser handles GET /api/admin/users/:id
func (s *Server) AdminGetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.adminService.GetUser(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// AdminDeleteUser handles DELETE /api/admin/users/:id
// @Summary Delete a user
// @Description Removes the user and everything they own; admins cannot delete themselves
// @Tags admin
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/users/{id} [delete]
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.adminService.DeleteUser(ctx, currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// AdminSetRole handles PUT /api/admin/users/:id/role
// @Summary Set a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body RoleRequest true "USER or ADMIN"
// @Success 200 {object} models.User
// @Router /admin/users/{id}/role [put]
func (s *Server) AdminSetRole(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req RoleRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.adminService.SetRole(ctx, id, req.Role)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// AdminListOrders handles GET /api/admin/orders
func (s *Server) AdminListOrders(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	ctx, cancel := requestContext(c)
	defer cancel()

	orders, err := s.orderService.ListAllOrders(ctx, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(orderDTOs(orders))
}

// AdminUpdateOrderStatus handles PUT /api/admin/orders/:id/status
func (s *Server) AdminUpdateOrderStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req StatusRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := s.orderService.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.NewOrderDTO(order))
}

// GetFeatureFlags returns configured feature flags and evaluated state for current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(currentUserID(c)),
	})
}
