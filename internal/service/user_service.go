package service

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"petconnect/internal/geo"
	"petconnect/internal/models"
	"petconnect/internal/repository"
	"petconnect/internal/validation"
)

// DefaultRadiusKm is used by the nearby searches when no radius is given.
const DefaultRadiusKm = 10.0

type UserService struct {
	userRepo repository.UserRepository
}

// UpdateProfileInput carries a partial profile update; nil fields are left alone.
type UpdateProfileInput struct {
	UserID   uint
	Username *string
	Email    *string
	FullName *string
	Phone    *string
	Bio      *string
	ImageURL *string
}

// NearbyQuery overrides the caller's stored coordinates when Lat and Lon are set.
type NearbyQuery struct {
	UserID   uint
	RadiusKm float64
	Lat      *float64
	Lon      *float64
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxBioLen = 250

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if username != user.Username {
			taken, err := s.userRepo.ExistsByUsername(ctx, username, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, models.NewConflictError("Username is already taken")
			}
		}
		user.Username = username
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if email != user.Email {
			taken, err := s.userRepo.ExistsByEmail(ctx, email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, models.NewConflictError("Email is already registered")
			}
		}
		user.Email = email
	}
	if in.FullName != nil {
		if err := validation.ValidateFullName(*in.FullName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if len(phone) > 20 {
			return nil, models.NewValidationError("Phone number too long (max 20 characters)")
		}
		user.Phone = phone
	}
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 250 characters)")
		}
		user.Bio = *in.Bio
	}
	if in.ImageURL != nil {
		if err := validation.ValidateImageURL(*in.ImageURL); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.ImageURL = *in.ImageURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateLocation(ctx context.Context, userID uint, lat, lon float64) (*models.User, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, models.NewValidationError("Latitude must be within [-90, 90] and longitude within [-180, 180]")
	}
	if err := s.userRepo.UpdateLocation(ctx, userID, lat, lon); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// Nearby lists users within the radius by road-adjusted distance, closest first.
func (s *UserService) Nearby(ctx context.Context, q NearbyQuery) ([]models.NearbyUser, error) {
	radius := q.RadiusKm
	if !(radius > 0) {
		radius = DefaultRadiusKm
	}

	var lat, lon float64
	switch {
	case q.Lat != nil && q.Lon != nil:
		if !geo.ValidCoordinates(*q.Lat, *q.Lon) {
			return nil, models.NewValidationError("Latitude must be within [-90, 90] and longitude within [-180, 180]")
		}
		lat, lon = *q.Lat, *q.Lon
	default:
		me, err := s.userRepo.GetByID(ctx, q.UserID)
		if err != nil {
			return nil, err
		}
		if !me.HasLocation() {
			return []models.NearbyUser{}, nil
		}
		lat, lon = *me.Latitude, *me.Longitude
	}

	candidates, err := s.userRepo.ListWithLocation(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]models.NearbyUser, 0, len(candidates))
	for i := range candidates {
		u := &candidates[i]
		d := geo.RoadDistance(lat, lon, *u.Latitude, *u.Longitude)
		if d > radius {
			continue
		}
		out = append(out, models.NearbyUser{ID: u.ID, FullName: u.FullName, ImageURL: u.ImageURL, Distance: d})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	for i := range out {
		out[i].Distance = geo.Round2(out[i].Distance)
	}
	return out, nil
}
