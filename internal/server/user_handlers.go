package server

import (
	"petconnect/internal/models"
	"petconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateProfileRequest is a partial profile update; omitted fields are kept.
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
	Bio      *string `json:"bio"`
	ImageURL *string `json:"imageUrl"`
}

// UpdateLocationRequest carries the caller's coordinates.
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// GetMyProfile handles GET /api/users/me
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.GetUserByID(ctx, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} models.User
// @Failure 409 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.UpdateProfile(ctx, service.UpdateProfileInput{
		UserID:   currentUserID(c),
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Bio:      req.Bio,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyLocation handles PUT /api/users/me/location
// @Summary Store own coordinates
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateLocationRequest true "Coordinates"
// @Success 200 {object} models.User
// @Router /users/me/location [put]
func (s *Server) UpdateMyLocation(c *fiber.Ctx) error {
	var req UpdateLocationRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Latitude == nil || req.Longitude == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Latitude and longitude are required"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.UpdateLocation(ctx, currentUserID(c), *req.Latitude, *req.Longitude)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
// @Summary Get a public profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.UserSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.GetUserByID(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.NewUserSummary(user))
}

// GetNearbyUsers handles GET /api/users/nearby
// @Summary Users near the caller
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param radius query number false "Radius in km" default(10)
// @Param lat query number false "Latitude override"
// @Param lon query number false "Longitude override"
// @Success 200 {array} models.NearbyUser
// @Router /users/nearby [get]
func (s *Server) GetNearbyUsers(c *fiber.Ctx) error {
	radius, err := parseQueryFloat(c, "radius", service.DefaultRadiusKm)
	if err != nil {
		return nil
	}
	lat, lon, err := parseQueryPoint(c)
	if err != nil {
		return nil
	}
	q := service.NearbyQuery{
		UserID:   currentUserID(c),
		RadiusKm: radius,
		Lat:      lat,
		Lon:      lon,
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := s.userService.Nearby(ctx, q)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}
