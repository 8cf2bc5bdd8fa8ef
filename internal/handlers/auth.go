package handlers

import (
	"net/http"

	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
	userService services.UserService
}

func NewAuthHandler(authService services.AuthService, userService services.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Register creates the account and logs the new user straight in, so
// the client gets a usable token from a single call.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	user, err := h.authService.Register(req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":         user,
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
	})
}

// Login accepts JSON or form-encoded credentials and returns a bearer
// token. All credential failures share one response; the body never
// says whether the username exists.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "username and password are required",
		})
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

// Refresh mints a new token for the already-authenticated caller.
func (h *AuthHandler) Refresh(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)

	token, err := h.authService.Refresh(username)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

// Logout is advisory: tokens are stateless, so the client discards the
// token and the server just acknowledges.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "logged out, discard the access token",
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)

	user, err := h.userService.GetByUsername(username)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
