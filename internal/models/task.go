package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

const (
	TitleMaxLen       = 100
	DescriptionMaxLen = 500
)

// allowedLabels is the closed set of task labels.
var allowedLabels = map[string]bool{
	"Work":     true,
	"Personal": true,
	"Urgent":   true,
}

// ValidPriority reports whether p is one of high, medium, low.
func ValidPriority(p string) bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Labels is a set of task labels stored as a JSON array column.
type Labels []string

// NormalizeLabels validates labels against the allowed set, collapses
// duplicates, and sorts them so that equal sets compare equal.
func NormalizeLabels(labels []string) (Labels, error) {
	seen := make(map[string]bool, len(labels))
	out := make(Labels, 0, len(labels))
	for _, l := range labels {
		if !allowedLabels[l] {
			return nil, fmt.Errorf("invalid label %q: must be one of Work, Personal, Urgent", l)
		}
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Strings(out)
	return out, nil
}

func (l Labels) Value() (driver.Value, error) {
	if l == nil {
		l = Labels{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *Labels) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = Labels{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("cannot scan %T into Labels", value)
	}
}

type Task struct {
	ID       uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Username string    `json:"username" gorm:"index;not null"`

	Title       string `json:"title" gorm:"size:100;not null"`
	Description string `json:"description,omitempty" gorm:"size:500"`
	Completed   bool   `json:"completed" gorm:"default:false"`
	Priority    string `json:"priority" gorm:"not null;default:'medium'"`
	Deadline    Date   `json:"deadline" gorm:"type:date;index;not null"`
	Labels      Labels `json:"labels" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateTitle enforces the 1-100 character requirement. Lengths are
// counted in characters, not bytes.
func ValidateTitle(title string) error {
	if title == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(title) > TitleMaxLen {
		return errors.New("title must be at most 100 characters")
	}
	return nil
}

func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > DescriptionMaxLen {
		return errors.New("description must be at most 500 characters")
	}
	return nil
}
