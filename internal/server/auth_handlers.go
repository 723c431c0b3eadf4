package server

import (
	"petconnect/internal/middleware"
	"petconnect/internal/models"
	"petconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyOTPRequest is the body of POST /api/auth/verify-otp.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// LoginResponse is returned once the one-time code is accepted.
type LoginResponse struct {
	Token    string      `json:"token"`
	UserID   uint        `json:"userId"`
	FullName string      `json:"fullName"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	ImageURL string      `json:"imageUrl"`
	Bio      string      `json:"bio"`
	Message  string      `json:"message"`
}

// Register handles POST /api/auth/register
// @Summary User registration
// @Description Register a new user account with the USER role
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} object{userId=int,username=string,email=string,message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.authService.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"userId":   user.ID,
		"username": user.Username,
		"email":    user.Email,
		"message":  "Registration successful",
	})
}

// Login handles POST /api/auth/login
// @Summary Start a login
// @Description Checks the password and mails a one-time code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} service.LoginChallenge
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	challenge, err := s.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(challenge)
}

// VerifyOTP handles POST /api/auth/verify-otp
// @Summary Complete a login
// @Description Exchanges a valid one-time code for an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Verification request"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/verify-otp [post]
func (s *Server) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	session, err := s.authService.VerifyOTP(ctx, req.Email, req.OTP)
	if err != nil {
		return respondServiceError(c, err)
	}

	u := session.User
	return c.JSON(LoginResponse{
		Token:    session.Token,
		UserID:   u.ID,
		FullName: u.FullName,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		ImageURL: u.ImageURL,
		Bio:      u.Bio,
		Message:  "Login successful",
	})
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revokes the current access token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, ok := c.Locals("tokenClaims").(*middleware.TokenClaims)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.authService.Logout(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}
