package services

import (
	"fmt"
	"time"

	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

const (
	taskCacheTTL = 30 * time.Minute
	listCacheTTL = 5 * time.Minute
)

// CachedTaskService decorates a TaskService with a cache keyed by owner,
// so invalidation for one user never evicts another's entries. Cache
// failures fall through to the underlying service.
type CachedTaskService struct {
	inner TaskService
	cache cache.Cache
}

func NewCachedTaskService(inner TaskService, cacheInstance cache.Cache) *CachedTaskService {
	return &CachedTaskService{inner: inner, cache: cacheInstance}
}

func taskKey(username string, id uuid.UUID) string {
	return fmt.Sprintf("task:%s:%s", username, id)
}

func listKey(username string, filter repositories.TaskFilter) string {
	completed := "any"
	if filter.Completed != nil {
		completed = fmt.Sprintf("%t", *filter.Completed)
	}
	priority := filter.Priority
	if priority == "" {
		priority = "any"
	}
	return fmt.Sprintf("tasks:%s:%s:%s:%d:%d", username, completed, priority, filter.Skip, filter.Limit)
}

// invalidateUser drops every cached entry belonging to one owner.
func (s *CachedTaskService) invalidateUser(username string) {
	s.cache.DeletePattern(fmt.Sprintf("task:%s:*", username))
	s.cache.DeletePattern(fmt.Sprintf("tasks:%s:*", username))
}

func (s *CachedTaskService) Create(username string, req TaskCreateRequest) (*models.Task, error) {
	task, err := s.inner.Create(username, req)
	if err != nil {
		return nil, err
	}

	s.invalidateUser(username)
	s.cache.Set(taskKey(username, task.ID), task, taskCacheTTL)
	return task, nil
}

func (s *CachedTaskService) GetByID(username string, id uuid.UUID) (*models.Task, error) {
	var cached models.Task
	if err := s.cache.Get(taskKey(username, id), &cached); err == nil {
		return &cached, nil
	}

	task, err := s.inner.GetByID(username, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(taskKey(username, id), task, taskCacheTTL)
	return task, nil
}

func (s *CachedTaskService) List(username string, filter repositories.TaskFilter) ([]models.Task, error) {
	key := listKey(username, filter)

	var cached []models.Task
	if err := s.cache.Get(key, &cached); err == nil {
		return cached, nil
	}

	tasks, err := s.inner.List(username, filter)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, tasks, listCacheTTL)
	return tasks, nil
}

func (s *CachedTaskService) Update(username string, id uuid.UUID, req TaskUpdateRequest) (*models.Task, error) {
	task, err := s.inner.Update(username, id, req)
	if err != nil {
		return nil, err
	}

	s.invalidateUser(username)
	s.cache.Set(taskKey(username, id), task, taskCacheTTL)
	return task, nil
}

func (s *CachedTaskService) Delete(username string, id uuid.UUID) error {
	if err := s.inner.Delete(username, id); err != nil {
		return err
	}

	s.invalidateUser(username)
	return nil
}

func (s *CachedTaskService) Complete(username string, id uuid.UUID) (*models.Task, error) {
	task, err := s.inner.Complete(username, id)
	if err != nil {
		return nil, err
	}

	s.invalidateUser(username)
	return task, nil
}

func (s *CachedTaskService) Incomplete(username string, id uuid.UUID) (*models.Task, error) {
	task, err := s.inner.Incomplete(username, id)
	if err != nil {
		return nil, err
	}

	s.invalidateUser(username)
	return task, nil
}

// Count and Search always hit the store: counts are cheap and search
// results are too query-dependent to cache usefully.
func (s *CachedTaskService) Count(username string, completed *bool) (int64, error) {
	return s.inner.Count(username, completed)
}

func (s *CachedTaskService) Search(username, query string, skip, limit int) ([]models.Task, error) {
	return s.inner.Search(username, query, skip, limit)
}
