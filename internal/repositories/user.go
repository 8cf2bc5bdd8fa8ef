package repositories

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"task-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateKey is returned when a unique index rejects an insert or
// update. The index itself is what makes uniqueness race-safe; this
// sentinel only reports the outcome.
var ErrDuplicateKey = errors.New("duplicate key")

// UserUpdate carries a partial user mutation. Nil fields are left
// untouched.
type UserUpdate struct {
	Email        *string
	FullName     *string
	PasswordHash *string
	IsActive     *bool
}

// UserRepository is the credential store: one record per user holding
// identity, password hash, and status flags.
type UserRepository interface {
	Create(user *models.User) error
	FindByUsername(username string) (*models.User, error)
	FindByID(id uuid.UUID) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	Update(id uuid.UUID, update UserUpdate) (*models.User, error)
	Deactivate(id uuid.UUID) (*models.User, error)
	Activate(id uuid.UUID) (*models.User, error)
	Delete(id uuid.UUID) error
	List(isActive *bool, skip, limit int) ([]models.User, error)
	Count(isActive *bool) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// isDuplicateError catches unique violations across drivers. gorm's
// TranslateError covers most cases; the string checks cover sqlite and
// postgres when translation is off.
func isDuplicateError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func (r *userRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if isDuplicateError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(id uuid.UUID, update UserUpdate) (*models.User, error) {
	user, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if update.Email != nil {
		changes["email"] = *update.Email
	}
	if update.FullName != nil {
		changes["full_name"] = *update.FullName
	}
	if update.PasswordHash != nil {
		changes["password_hash"] = *update.PasswordHash
	}
	if update.IsActive != nil {
		changes["is_active"] = *update.IsActive
	}

	if len(changes) == 0 {
		return user, nil
	}
	changes["updated_at"] = time.Now().UTC()

	if err := r.db.Model(user).Updates(changes).Error; err != nil {
		if isDuplicateError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}

	return r.FindByID(id)
}

func (r *userRepository) Deactivate(id uuid.UUID) (*models.User, error) {
	inactive := false
	return r.Update(id, UserUpdate{IsActive: &inactive})
}

func (r *userRepository) Activate(id uuid.UUID) (*models.User, error) {
	active := true
	return r.Update(id, UserUpdate{IsActive: &active})
}

func (r *userRepository) Delete(id uuid.UUID) error {
	result := r.db.Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) List(isActive *bool, skip, limit int) ([]models.User, error) {
	query := r.db.Model(&models.User{})
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}

	var users []models.User
	err := query.Order("created_at").Offset(skip).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Count(isActive *bool) (int64, error) {
	query := r.db.Model(&models.User{})
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
