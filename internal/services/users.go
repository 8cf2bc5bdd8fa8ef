package services

import (
	"errors"
	"fmt"
	"log"

	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// UserUpdateRequest is the inbound partial profile update. A supplied
// password is strength-checked and rehashed before storage.
type UserUpdateRequest struct {
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Password *string `json:"password,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// UserService manages user records beyond the login path.
type UserService interface {
	GetByID(id uuid.UUID) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(id uuid.UUID, req UserUpdateRequest) (*models.User, error)
	Deactivate(id uuid.UUID) (*models.User, error)
	Activate(id uuid.UUID) (*models.User, error)
	Delete(id uuid.UUID) error
	List(isActive *bool, skip, limit int) ([]models.User, error)
	Count(isActive *bool) (int64, error)
}

type userService struct {
	users  repositories.UserRepository
	hasher *PasswordHasher
}

func NewUserService(users repositories.UserRepository, hasher *PasswordHasher) UserService {
	return &userService{users: users, hasher: hasher}
}

func translateUserError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, repositories.ErrDuplicateKey):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
}

func (s *userService) GetByID(id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		return nil, translateUserError(err)
	}
	return user, nil
}

func (s *userService) GetByUsername(username string) (*models.User, error) {
	user, err := s.users.FindByUsername(username)
	if err != nil {
		return nil, translateUserError(err)
	}
	return user, nil
}

func (s *userService) GetByEmail(email string) (*models.User, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, translateUserError(err)
	}
	return user, nil
}

func (s *userService) Update(id uuid.UUID, req UserUpdateRequest) (*models.User, error) {
	update := repositories.UserUpdate{
		Email:    req.Email,
		IsActive: req.IsActive,
	}

	if req.FullName != nil {
		if err := models.ValidateFullName(*req.FullName); err != nil {
			return nil, NewValidationError("full_name", err.Error())
		}
		update.FullName = req.FullName
	}

	if req.Password != nil {
		if err := ValidatePasswordStrength(*req.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &hash
		log.Printf("Password updated for user id %s", id)
	}

	user, err := s.users.Update(id, update)
	if err != nil {
		return nil, translateUserError(err)
	}
	return user, nil
}

func (s *userService) Deactivate(id uuid.UUID) (*models.User, error) {
	user, err := s.users.Deactivate(id)
	if err != nil {
		return nil, translateUserError(err)
	}
	log.Printf("User deactivated: %s", user.Username)
	return user, nil
}

func (s *userService) Activate(id uuid.UUID) (*models.User, error) {
	user, err := s.users.Activate(id)
	if err != nil {
		return nil, translateUserError(err)
	}
	log.Printf("User activated: %s", user.Username)
	return user, nil
}

func (s *userService) Delete(id uuid.UUID) error {
	if err := s.users.Delete(id); err != nil {
		return translateUserError(err)
	}
	return nil
}

func (s *userService) List(isActive *bool, skip, limit int) ([]models.User, error) {
	users, err := s.users.List(isActive, skip, limit)
	if err != nil {
		return nil, translateUserError(err)
	}
	return users, nil
}

func (s *userService) Count(isActive *bool) (int64, error) {
	count, err := s.users.Count(isActive)
	if err != nil {
		return 0, translateUserError(err)
	}
	return count, nil
}
