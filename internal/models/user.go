package models

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`

	Email    *string `json:"email,omitempty" gorm:"uniqueIndex"`
	FullName string  `json:"full_name,omitempty" gorm:"size:100"`

	IsActive    bool `json:"is_active" gorm:"default:true"`
	IsSuperuser bool `json:"is_superuser" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	UsernameMinLen = 4
	UsernameMaxLen = 32
	FullNameMaxLen = 100
)

// ValidateUsername checks length and charset: 4-32 characters from
// [A-Za-z0-9_-].
func ValidateUsername(username string) error {
	if len(username) < UsernameMinLen || len(username) > UsernameMaxLen {
		return errors.New("username must be between 4 and 32 characters")
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return errors.New("username can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// ValidateFullName bounds the display name at 100 characters. Counted
// in characters, not bytes, so accented names are not penalized.
func ValidateFullName(name string) error {
	if utf8.RuneCountInString(name) > FullNameMaxLen {
		return errors.New("full name must be at most 100 characters")
	}
	return nil
}
