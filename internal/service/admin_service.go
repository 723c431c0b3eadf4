package service

import (
	"context"

	"petconnect/internal/models"
	"petconnect/internal/repository"
)

type AdminService struct {
	userRepo    repository.UserRepository
	petRepo     repository.PetRepository
	postRepo    repository.PostRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	reportRepo  repository.MissingPetRepository
}

func NewAdminService(
	userRepo repository.UserRepository,
	petRepo repository.PetRepository,
	postRepo repository.PostRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	reportRepo repository.MissingPetRepository,
) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		petRepo:     petRepo,
		postRepo:    postRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		reportRepo:  reportRepo,
	}
}

// Stats gathers dashboard totals. Open reports are those still MISSING.
func (s *AdminService) Stats(ctx context.Context) (*models.AdminStats, error) {
	var stats models.AdminStats
	counters := []struct {
		dst   *int64
		count func(context.Context) (int64, error)
	}{
		{&stats.TotalUsers, s.userRepo.Count},
		{&stats.TotalPets, s.petRepo.Count},
		{&stats.TotalPosts, s.postRepo.Count},
		{&stats.TotalOrders, s.orderRepo.Count},
		{&stats.TotalProducts, s.productRepo.Count},
		{&stats.OpenMissingReports, func(ctx context.Context) (int64, error) {
			return s.reportRepo.CountByStatus(ctx, models.ReportStatusMissing)
		}},
	}
	for _, c := range counters {
		n, err := c.count(ctx)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return &stats, nil
}

func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	limit, offset = clampPage(limit, offset)
	return s.userRepo.List(ctx, limit, offset)
}

func (s *AdminService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// DeleteUser removes an account and everything it owns.
func (s *AdminService) DeleteUser(ctx context.Context, adminID, targetID uint) error {
	if adminID == targetID {
		return models.NewValidationError("You cannot delete your own account")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, targetID)
}

func (s *AdminService) SetRole(ctx context.Context, targetID uint, raw string) (*models.User, error) {
	role, ok := models.ParseRole(raw)
	if !ok {
		return nil, models.NewValidationError("Role must be ADMIN or USER")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateRole(ctx, targetID, role); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, targetID)
}
