package handlers

import (
	"net/http"
	"strconv"

	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/repositories"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// taskID parses the :id path parameter. A malformed UUID is reported as
// not found: the caller learns nothing about what IDs look like.
func taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Resource not found",
		})
		return uuid.Nil, false
	}
	return id, true
}

func pagination(c *gin.Context) (skip, limit int) {
	skip, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return skip, limit
}

func (h *TaskHandler) Create(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)

	var req services.TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	task, err := h.taskService.Create(username, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) List(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)
	skip, limit := pagination(c)

	filter := repositories.TaskFilter{
		Priority: c.Query("priority"),
		Skip:     skip,
		Limit:    limit,
	}
	if raw, ok := c.GetQuery("completed"); ok {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "completed must be true or false",
			})
			return
		}
		filter.Completed = &completed
	}

	tasks, err := h.taskService.List(username, filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Get(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetByID(username, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req services.TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	task, err := h.taskService.Update(username, id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(username, id); err != nil {
		writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) Complete(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.Complete(username, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Incomplete(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.Incomplete(username, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Count(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)

	var completed *bool
	if raw, ok := c.GetQuery("completed"); ok {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "completed must be true or false",
			})
			return
		}
		completed = &parsed
	}

	count, err := h.taskService.Count(username, completed)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// Search matches the q parameter against title and description.
// Wildcards: "foo*" prefix, "*foo" suffix, "*foo*" or bare "foo"
// contains. Matching is case-insensitive.
func (h *TaskHandler) Search(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "q parameter is required",
		})
		return
	}

	skip, limit := pagination(c)
	tasks, err := h.taskService.Search(username, query, skip, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}
