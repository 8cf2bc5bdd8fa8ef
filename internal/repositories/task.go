package repositories

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"task-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// TaskFilter narrows task listings. Nil/empty fields match everything.
type TaskFilter struct {
	Completed *bool
	Priority  string
	Skip      int
	Limit     int
}

// TaskUpdate carries a partial task mutation. Nil fields are left
// untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *string
	Deadline    *models.Date
	Labels      *models.Labels
}

// TaskRepository persists task records. Every method takes the owning
// username and scopes its query with it; a task belonging to another
// user is indistinguishable from a missing one.
type TaskRepository interface {
	Create(task *models.Task) error
	GetByID(username string, id uuid.UUID) (*models.Task, error)
	List(username string, filter TaskFilter) ([]models.Task, error)
	Update(username string, id uuid.UUID, update TaskUpdate) (*models.Task, error)
	Delete(username string, id uuid.UUID) error
	Count(username string, completed *bool) (int64, error)
	Search(username, query string, skip, limit int) ([]models.Task, error)
}

// defaultListLimit bounds queries whose caller did not set a limit.
const defaultListLimit = 100

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// owned returns a query already scoped to the caller's records.
func (r *taskRepository) owned(username string) *gorm.DB {
	return r.db.Model(&models.Task{}).Where("username = ?", username)
}

func (r *taskRepository) Create(task *models.Task) error {
	if err := r.db.Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *taskRepository) GetByID(username string, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.owned(username).Where("id = ?", id).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(username string, filter TaskFilter) ([]models.Task, error) {
	query := r.owned(username)
	if filter.Completed != nil {
		query = query.Where("completed = ?", *filter.Completed)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var tasks []models.Task
	err := query.Order("deadline asc").Offset(filter.Skip).Limit(limit).Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) Update(username string, id uuid.UUID, update TaskUpdate) (*models.Task, error) {
	task, err := r.GetByID(username, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if update.Title != nil {
		changes["title"] = *update.Title
	}
	if update.Description != nil {
		changes["description"] = *update.Description
	}
	if update.Completed != nil {
		changes["completed"] = *update.Completed
	}
	if update.Priority != nil {
		changes["priority"] = *update.Priority
	}
	if update.Deadline != nil {
		changes["deadline"] = *update.Deadline
	}
	if update.Labels != nil {
		changes["labels"] = *update.Labels
	}

	if len(changes) == 0 {
		return task, nil
	}
	changes["updated_at"] = time.Now().UTC()

	if err := r.db.Model(task).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("failed to update task %s: %w", id, err)
	}

	return r.GetByID(username, id)
}

func (r *taskRepository) Delete(username string, id uuid.UUID) error {
	result := r.owned(username).Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *taskRepository) Count(username string, completed *bool) (int64, error) {
	query := r.owned(username)
	if completed != nil {
		query = query.Where("completed = ?", *completed)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// Search matches query against title and description, case-insensitive.
// A trailing '*' anchors the term to the start of a word, a leading '*'
// to the end of one; a doubly-starred or bare query matches anywhere.
// "back*" matches "Backend work" and "see the backup plan" but not
// "feedback".
func (r *taskRepository) Search(username, query string, skip, limit int) ([]models.Task, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	mode, term := parseWildcards(query)
	pattern := "%" + escapeLike(term) + "%"

	base := r.owned(username).
		Where("LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("deadline asc")

	if mode == matchContains {
		var tasks []models.Task
		if err := base.Offset(skip).Limit(limit).Find(&tasks).Error; err != nil {
			return nil, fmt.Errorf("failed to search tasks: %w", err)
		}
		return tasks, nil
	}

	// Word-anchored modes: the LIKE narrows the candidate set, the
	// boundary check runs here since it is not expressible as a
	// portable LIKE.
	var candidates []models.Task
	if err := base.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}

	matched := make([]models.Task, 0, len(candidates))
	for _, task := range candidates {
		if matchesWord(task.Title, term, mode) || matchesWord(task.Description, term, mode) {
			matched = append(matched, task)
		}
	}
	if skip >= len(matched) {
		return []models.Task{}, nil
	}
	matched = matched[skip:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

type matchMode int

const (
	matchContains   matchMode = iota
	matchWordPrefix           // foo*: a word starting with the term
	matchWordSuffix           // *foo: a word ending with the term
)

// parseWildcards strips at most one leading and one trailing '*' and
// reports which anchoring the query asked for. The term comes back
// lowercased.
func parseWildcards(query string) (matchMode, string) {
	leading := strings.HasPrefix(query, "*")
	trailing := strings.HasSuffix(query, "*") && len(query) > 1

	term := strings.TrimPrefix(query, "*")
	term = strings.TrimSuffix(term, "*")
	term = strings.ToLower(term)

	switch {
	case term == "", leading && trailing:
		return matchContains, term
	case trailing:
		return matchWordPrefix, term
	case leading:
		return matchWordSuffix, term
	default:
		return matchContains, term
	}
}

// matchesWord reports whether text contains term at a word boundary:
// a starting one for matchWordPrefix, an ending one for matchWordSuffix.
// Any rune that is not a letter or digit separates words.
func matchesWord(text, term string, mode matchMode) bool {
	lower := strings.ToLower(text)
	for from := 0; ; {
		i := strings.Index(lower[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		switch mode {
		case matchWordPrefix:
			if start == 0 {
				return true
			}
			if r, _ := utf8.DecodeLastRuneInString(lower[:start]); !isWordRune(r) {
				return true
			}
		case matchWordSuffix:
			if end == len(lower) {
				return true
			}
			if r, _ := utf8.DecodeRuneInString(lower[end:]); !isWordRune(r) {
				return true
			}
		}
		from = start + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// escapeLike neutralizes LIKE metacharacters in user input. Backslash is
// the default escape character for both sqlite and postgres LIKE.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
