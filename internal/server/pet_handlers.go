package server

import (
	"petconnect/internal/models"
	"petconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PetRequest is the body for creating or replacing a pet. Type is accepted as
// an alias for species.
type PetRequest struct {
	Name     string `json:"name"`
	Species  string `json:"species"`
	Type     string `json:"type"`
	Breed    string `json:"breed"`
	Age      int    `json:"age"`
	ImageURL string `json:"imageUrl"`
}

func (r PetRequest) input() service.PetInput {
	species := r.Species
	if species == "" {
		species = r.Type
	}
	return service.PetInput{
		Name:     r.Name,
		Species:  species,
		Breed:    r.Breed,
		Age:      r.Age,
		ImageURL: r.ImageURL,
	}
}

func petDTOs(pets []models.Pet) []models.PetDTO {
	out := make([]models.PetDTO, 0, len(pets))
	for i := range pets {
		out = append(out, models.NewPetDTO(&pets[i]))
	}
	return out
}

// CreatePet handles POST /api/pets
// @Summary Add a pet
// @Tags pets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PetRequest true "Pet"
// @Success 201 {object} models.PetDTO
// @Failure 400 {object} models.ErrorResponse
// @Router /pets [post]
func (s *Server) CreatePet(c *fiber.Ctx) error {
	var req PetRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pet, err := s.petService.CreatePet(ctx, currentUserID(c), req.input())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewPetDTO(pet))
}

// GetMyPets handles GET /api/pets/me
func (s *Server) GetMyPets(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	pets, err := s.petService.ListUserPets(ctx, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(petDTOs(pets))
}

// GetUserPets handles GET /api/pets/user/:userId
func (s *Server) GetUserPets(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pets, err := s.petService.ListUserPets(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(petDTOs(pets))
}

// GetPet handles GET /api/pets/:id
// @Summary Get a pet
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pet ID"
// @Success 200 {object} models.PetDTO
// @Failure 404 {object} models.ErrorResponse
// @Router /pets/{id} [get]
func (s *Server) GetPet(c *fiber.Ctx) error {
	petID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pet, err := s.petService.GetPet(ctx, petID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.NewPetDTO(pet))
}

// UpdatePet handles PUT /api/pets/:id
func (s *Server) UpdatePet(c *fiber.Ctx) error {
	petID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req PetRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pet, err := s.petService.UpdatePet(ctx, currentUserID(c), petID, req.input())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.NewPetDTO(pet))
}

// DeletePet handles DELETE /api/pets/:id
func (s *Server) DeletePet(c *fiber.Ctx) error {
	petID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.petService.DeletePet(ctx, currentUserID(c), petID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Pet deleted successfully"})
}
