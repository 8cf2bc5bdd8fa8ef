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

type TaskCreateRequest struct {
	Title       string      `json:"title" binding:"required"`
	Description string      `json:"description,omitempty"`
	Priority    string      `json:"priority,omitempty"`
	Deadline    models.Date `json:"deadline" binding:"required"`
	Labels      []string    `json:"labels,omitempty"`
}

type TaskUpdateRequest struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Completed   *bool        `json:"completed,omitempty"`
	Priority    *string      `json:"priority,omitempty"`
	Deadline    *models.Date `json:"deadline,omitempty"`
	Labels      *[]string    `json:"labels,omitempty"`
}

// ReminderQueue receives deadline-reminder jobs for newly created tasks.
// Enqueue failures are logged and swallowed; reminders are best-effort
// and never fail the request.
type ReminderQueue interface {
	EnqueueDeadlineReminder(username string, taskID uuid.UUID, deadline models.Date) error
}

// TaskService validates task payloads and delegates to the owner-scoped
// task store. The username on every call is the caller's resolved
// identity, never a client-supplied field.
type TaskService interface {
	Create(username string, req TaskCreateRequest) (*models.Task, error)
	GetByID(username string, id uuid.UUID) (*models.Task, error)
	List(username string, filter repositories.TaskFilter) ([]models.Task, error)
	Update(username string, id uuid.UUID, req TaskUpdateRequest) (*models.Task, error)
	Delete(username string, id uuid.UUID) error
	Complete(username string, id uuid.UUID) (*models.Task, error)
	Incomplete(username string, id uuid.UUID) (*models.Task, error)
	Count(username string, completed *bool) (int64, error)
	Search(username, query string, skip, limit int) ([]models.Task, error)
}

type taskService struct {
	tasks     repositories.TaskRepository
	reminders ReminderQueue
}

// NewTaskService builds a TaskService. reminders may be nil when no job
// queue is configured.
func NewTaskService(tasks repositories.TaskRepository, reminders ReminderQueue) TaskService {
	return &taskService{tasks: tasks, reminders: reminders}
}

func translateTaskError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

func (s *taskService) Create(username string, req TaskCreateRequest) (*models.Task, error) {
	if err := models.ValidateTitle(req.Title); err != nil {
		return nil, NewValidationError("title", err.Error())
	}
	if err := models.ValidateDescription(req.Description); err != nil {
		return nil, NewValidationError("description", err.Error())
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, NewValidationError("priority", "priority must be one of high, medium, low")
	}

	if req.Deadline.IsZero() {
		return nil, NewValidationError("deadline", "deadline is required")
	}
	// Checked once at creation; a deadline in the past afterwards is fine.
	if req.Deadline.Before(models.Today()) {
		return nil, NewValidationError("deadline", "deadline cannot be before today")
	}

	labels, err := models.NormalizeLabels(req.Labels)
	if err != nil {
		return nil, NewValidationError("labels", err.Error())
	}

	task := &models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		Username:    username,
		Title:       req.Title,
		Description: req.Description,
		Completed:   false,
		Priority:    priority,
		Deadline:    req.Deadline,
		Labels:      labels,
	}

	if err := s.tasks.Create(task); err != nil {
		return nil, translateTaskError(err)
	}

	if s.reminders != nil {
		if err := s.reminders.EnqueueDeadlineReminder(username, task.ID, task.Deadline); err != nil {
			log.Printf("Failed to enqueue deadline reminder for task %s: %v", task.ID, err)
		}
	}

	return task, nil
}

func (s *taskService) GetByID(username string, id uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.GetByID(username, id)
	if err != nil {
		return nil, translateTaskError(err)
	}
	return task, nil
}

func (s *taskService) List(username string, filter repositories.TaskFilter) ([]models.Task, error) {
	if filter.Priority != "" && !models.ValidPriority(filter.Priority) {
		return nil, NewValidationError("priority", "priority must be one of high, medium, low")
	}

	tasks, err := s.tasks.List(username, filter)
	if err != nil {
		return nil, translateTaskError(err)
	}
	return tasks, nil
}

func (s *taskService) Update(username string, id uuid.UUID, req TaskUpdateRequest) (*models.Task, error) {
	update := repositories.TaskUpdate{
		Completed: req.Completed,
		Deadline:  req.Deadline,
	}

	if req.Title != nil {
		if err := models.ValidateTitle(*req.Title); err != nil {
			return nil, NewValidationError("title", err.Error())
		}
		update.Title = req.Title
	}
	if req.Description != nil {
		if err := models.ValidateDescription(*req.Description); err != nil {
			return nil, NewValidationError("description", err.Error())
		}
		update.Description = req.Description
	}
	if req.Priority != nil {
		if !models.ValidPriority(*req.Priority) {
			return nil, NewValidationError("priority", "priority must be one of high, medium, low")
		}
		update.Priority = req.Priority
	}
	if req.Labels != nil {
		labels, err := models.NormalizeLabels(*req.Labels)
		if err != nil {
			return nil, NewValidationError("labels", err.Error())
		}
		update.Labels = &labels
	}

	task, err := s.tasks.Update(username, id, update)
	if err != nil {
		return nil, translateTaskError(err)
	}
	return task, nil
}

func (s *taskService) Delete(username string, id uuid.UUID) error {
	if err := s.tasks.Delete(username, id); err != nil {
		return translateTaskError(err)
	}
	return nil
}

// Complete is idempotent: completing a completed task succeeds.
func (s *taskService) Complete(username string, id uuid.UUID) (*models.Task, error) {
	completed := true
	return s.Update(username, id, TaskUpdateRequest{Completed: &completed})
}

func (s *taskService) Incomplete(username string, id uuid.UUID) (*models.Task, error) {
	completed := false
	return s.Update(username, id, TaskUpdateRequest{Completed: &completed})
}

func (s *taskService) Count(username string, completed *bool) (int64, error) {
	count, err := s.tasks.Count(username, completed)
	if err != nil {
		return 0, translateTaskError(err)
	}
	return count, nil
}

func (s *taskService) Search(username, query string, skip, limit int) ([]models.Task, error) {
	if query == "" {
		return nil, NewValidationError("q", "search query is required")
	}

	tasks, err := s.tasks.Search(username, query, skip, limit)
	if err != nil {
		return nil, translateTaskError(err)
	}
	return tasks, nil
}
