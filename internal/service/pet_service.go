package service

import (
	"context"
	"strings"

	"petconnect/internal/models"
	"petconnect/internal/repository"
	"petconnect/internal/validation"
)

type PetService struct {
	petRepo repository.PetRepository
	isAdmin func(ctx context.Context, userID uint) (bool, error)
}

type PetInput struct {
	Name     string
	Species  string
	Breed    string
	Age      int
	ImageURL string
}

func NewPetService(petRepo repository.PetRepository, isAdmin func(ctx context.Context, userID uint) (bool, error)) *PetService {
	return &PetService{petRepo: petRepo, isAdmin: isAdmin}
}

func (in *PetInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Species = strings.TrimSpace(in.Species)
	in.Breed = strings.TrimSpace(in.Breed)

	if in.Name == "" {
		return models.NewValidationError("Pet name is required")
	}
	if tooLong(in.Name, 100) {
		return models.NewValidationError("Pet name too long (max 100 characters)")
	}
	if in.Species == "" {
		return models.NewValidationError("Pet type is required")
	}
	if tooLong(in.Species, 50) {
		return models.NewValidationError("Pet type too long (max 50 characters)")
	}
	if tooLong(in.Breed, 100) {
		return models.NewValidationError("Breed too long (max 100 characters)")
	}
	if in.Age < 0 {
		return models.NewValidationError("Age cannot be negative")
	}
	if err := validation.ValidateImageURL(in.ImageURL); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

func (s *PetService) CreatePet(ctx context.Context, userID uint, in PetInput) (*models.Pet, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	pet := &models.Pet{
		Name:     in.Name,
		Species:  in.Species,
		Breed:    in.Breed,
		Age:      in.Age,
		ImageURL: in.ImageURL,
		UserID:   userID,
	}
	if err := s.petRepo.Create(ctx, pet); err != nil {
		return nil, err
	}
	return pet, nil
}

func (s *PetService) GetPet(ctx context.Context, id uint) (*models.Pet, error) {
	return s.petRepo.GetByID(ctx, id)
}

func (s *PetService) ListUserPets(ctx context.Context, userID uint) ([]models.Pet, error) {
	return s.petRepo.ListByUser(ctx, userID)
}

func (s *PetService) UpdatePet(ctx context.Context, userID, petID uint, in PetInput) (*models.Pet, error) {
	pet, err := s.petRepo.GetByID(ctx, petID)
	if err != nil {
		return nil, err
	}
	if pet.UserID != userID {
		return nil, models.NewForbiddenError("You can only update your own pets")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	pet.Name = in.Name
	pet.Species = in.Species
	pet.Breed = in.Breed
	pet.Age = in.Age
	pet.ImageURL = in.ImageURL
	if err := s.petRepo.Update(ctx, pet); err != nil {
		return nil, err
	}
	return pet, nil
}

func (s *PetService) DeletePet(ctx context.Context, userID, petID uint) error {
	pet, err := s.petRepo.GetByID(ctx, petID)
	if err != nil {
		return err
	}
	if err := ownerOrAdmin(ctx, s.isAdmin, userID, pet.UserID, "You can only delete your own pets"); err != nil {
		return err
	}
	return s.petRepo.Delete(ctx, petID)
}
