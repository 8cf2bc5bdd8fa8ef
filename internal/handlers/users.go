package handlers

import (
	"net/http"
	"strconv"

	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func userID(c *gin.Context) (uuid.UUID, bool) {
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

// UpdateMe lets the caller change their own email, full name, or
// password. The is_active flag is stripped: self-deactivation goes
// through an admin, not a profile edit.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)

	current, err := h.userService.GetByUsername(username)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	var req services.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}
	req.IsActive = nil

	user, err := h.userService.Update(current.ID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// List is superuser-only: paginated users with an optional is_active
// filter.
func (h *UserHandler) List(c *gin.Context) {
	skip, limit := pagination(c)

	var isActive *bool
	if raw, ok := c.GetQuery("is_active"); ok {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "is_active must be true or false",
			})
			return
		}
		isActive = &parsed
	}

	users, err := h.userService.List(isActive, skip, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Count(c *gin.Context) {
	var isActive *bool
	if raw, ok := c.GetQuery("is_active"); ok {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "is_active must be true or false",
			})
			return
		}
		isActive = &parsed
	}

	count, err := h.userService.Count(isActive)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req services.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	user, err := h.userService.Update(id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.userService.Deactivate(id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Activate(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.userService.Activate(id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(id); err != nil {
		writeServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
