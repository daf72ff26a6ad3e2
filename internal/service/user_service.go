package service

import (
	"context"
	"strings"

	"thrift/internal/geo"
	"thrift/internal/repository"
	"thrift/models"
)

const (
	maxNameLen      = 80
	maxInterestsLen = 1000
)

type UserService struct {
	userRepo repository.UserRepository
	items    repository.ItemRepository

	onProfileChange func(models.User)
}

// UpdateProfileInput carries optional profile changes. Nil fields are left alone.
type UpdateProfileInput struct {
	UserID    uint
	Name      *string
	College   *string
	Interests *string
	Location  *geo.Point
}

// Profile is a user together with their own listings.
type Profile struct {
	models.User
	Listings []models.Item `json:"listings"`
}

func NewUserService(userRepo repository.UserRepository, items repository.ItemRepository) *UserService {
	return &UserService{userRepo: userRepo, items: items}
}

// OnProfileChange registers fn to run after a profile is saved.
func (s *UserService) OnProfileChange(fn func(models.User)) {
	s.onProfileChange = fn
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetProfile returns the user and every item they listed, sold ones included.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	listings, err := s.items.ListBySeller(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Profile{User: *user, Listings: listings}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, models.NewValidationError("Name is required")
		}
		if len(name) > maxNameLen {
			return nil, models.NewValidationError("Name too long (max 80 characters)")
		}
		user.Name = name
	}
	if in.College != nil {
		college := models.College(strings.TrimSpace(*in.College))
		if !college.Known() {
			return nil, models.NewValidationError("Unknown college")
		}
		user.College = college
	}
	if in.Interests != nil {
		if len(*in.Interests) > maxInterestsLen {
			return nil, models.NewValidationError("Interests too long (max 1000 characters)")
		}
		user.Interests = *in.Interests
	}
	if in.Location != nil {
		p := *in.Location
		if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			return nil, models.NewValidationError("Location out of range")
		}
		user.Location = p
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if s.onProfileChange != nil {
		s.onProfileChange(*user)
	}
	return user, nil
}
