package server

import (
	"petconnect/internal/models"
	"petconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// MissingReportRequest is the body of POST /api/missing-pets.
type MissingReportRequest struct {
	PetID            *uint    `json:"petId"`
	PetName          string   `json:"petName"`
	Species          string   `json:"species"`
	Breed            *string  `json:"breed"`
	Description      string   `json:"description"`
	LastSeenLocation string   `json:"lastSeenLocation"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	ImageURL         string   `json:"imageUrl"`
	Status           string   `json:"status"`
}

// StatusRequest carries a status change.
type StatusRequest struct {
	Status string `json:"status"`
}

// ContactRequest is the message sent to a reporter.
type ContactRequest struct {
	Message string `json:"message"`
}

// CreateMissingReport handles POST /api/missing-pets
// @Summary Report a missing or found pet
// @Description MISSING reports alert users within 5 km when the missing_pet_alerts flag is on
// @Tags missing-pets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body MissingReportRequest true "Report"
// @Success 201 {object} models.MissingPetResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /missing-pets [post]
func (s *Server) CreateMissingReport(c *fiber.Ctx) error {
	var req MissingReportRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Latitude == nil || req.Longitude == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Latitude and longitude are required"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := s.missingPetService.CreateReport(ctx, service.CreateReportInput{
		ReporterID:       currentUserID(c),
		PetID:            req.PetID,
		PetName:          req.PetName,
		Species:          req.Species,
		Breed:            optionalString(req.Breed),
		Description:      req.Description,
		LastSeenLocation: req.LastSeenLocation,
		Latitude:         *req.Latitude,
		Longitude:        *req.Longitude,
		ImageURL:         req.ImageURL,
		Status:           req.Status,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewMissingPetResponse(report, 0))
}

// GetMyMissingReports handles GET /api/missing-pets/me
func (s *Server) GetMyMissingReports(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	reports, err := s.missingPetService.ListMyReports(ctx, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	out := make([]models.MissingPetResponse, 0, len(reports))
	for i := range reports {
		out = append(out, models.NewMissingPetResponse(&reports[i], 0))
	}
	return c.JSON(out)
}

// GetNearbyMissingReports handles GET /api/missing-pets/nearby
// @Summary Missing pet reports near the caller
// @Tags missing-pets
// @Produce json
// @Security BearerAuth
// @Param radius query number false "Radius in km" default(10)
// @Success 200 {array} models.MissingPetResponse
// @Router /missing-pets/nearby [get]
func (s *Server) GetNearbyMissingReports(c *fiber.Ctx) error {
	radius, err := parseQueryFloat(c, "radius", service.DefaultRadiusKm)
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	reports, err := s.missingPetService.Nearby(ctx, currentUserID(c), radius)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(reports)
}

// GetMissingReport handles GET /api/missing-pets/:id
func (s *Server) GetMissingReport(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := s.missingPetService.GetReport(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.NewMissingPetResponse(report, 0))
}

// UpdateMissingReportStatus handles PATCH /api/missing-pets/:id/status
func (s *Server) UpdateMissingReportStatus(c *fiber.Ctx) error {
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

	report, err := s.missingPetService.UpdateStatus(ctx, currentUserID(c), id, req.Status)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.NewMissingPetResponse(report, 0))
}

// DeleteMissingReport handles DELETE /api/missing-pets/:id
func (s *Server) DeleteMissingReport(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.missingPetService.DeleteReport(ctx, currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Report deleted successfully"})
}

// ContactReporter handles POST /api/missing-pets/:id/contact
// @Summary Contact the reporter
// @Description Shares the caller's phone and email with the reporter
// @Tags missing-pets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Param request body ContactRequest true "Message"
// @Success 201 {object} models.ContactResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /missing-pets/{id}/contact [post]
func (s *Server) ContactReporter(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req ContactRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	contact, err := s.missingPetService.Contact(ctx, currentUserID(c), id, req.Message)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewContactResponse(contact))
}

// GetReportContacts handles GET /api/missing-pets/:id/contacts
func (s *Server) GetReportContacts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	contacts, err := s.missingPetService.ListContacts(ctx, currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	out := make([]models.ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, models.NewContactResponse(&contacts[i]))
	}
	return c.JSON(out)
}
