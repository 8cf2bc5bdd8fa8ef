package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"task-tracker/backend/internal/config"
	"task-tracker/backend/internal/database"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	pool := &database.DatabasePool{DB: db}
	if err := pool.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	cfg := &config.Config{}
	cfg.RateLimit.Enabled = false

	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	hasher := services.NewPasswordHasher(4)
	tokens := services.NewTokenService("test-secret", time.Hour)
	authService := services.NewAuthService(userRepo, hasher, tokens)
	userService := services.NewUserService(userRepo, hasher)
	taskService := services.NewTaskService(taskRepo, nil)

	return buildRouter(cfg, authService, userService, taskService, pool)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestEndToEndFlow walks the full lifecycle: register, login, create
// tasks, search, complete, and verify isolation between users.
func TestEndToEndFlow(t *testing.T) {
	router := testRouter(t)

	// Register and capture the token the register path hands back.
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "alice1",
		"password": "Passw0rd!",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var registered struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &registered); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	if registered.AccessToken == "" {
		t.Fatal("register did not return a token")
	}

	// Wrong password is rejected.
	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "alice1",
		"password": "WrongPass1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", w.Code)
	}

	// Fresh login works.
	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "alice1",
		"password": "Passw0rd!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", w.Code)
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token := login.AccessToken

	// Deadline today is accepted, yesterday is not.
	w = doJSON(t, router, http.MethodPost, "/api/v1/tasks", token, gin.H{
		"title":    "ship the release",
		"deadline": models.Today().String(),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode task: %v", err)
	}

	yesterday := models.DateOf(time.Now().AddDate(0, 0, -1)).String()
	w = doJSON(t, router, http.MethodPost, "/api/v1/tasks", token, gin.H{
		"title":    "too late",
		"deadline": yesterday,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("past deadline: expected 400, got %d", w.Code)
	}

	// Search finds it by prefix.
	w = doJSON(t, router, http.MethodGet, "/api/v1/tasks/search?q=ship*", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", w.Code)
	}
	var found []models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &found); err != nil {
		t.Fatalf("failed to decode search results: %v", err)
	}
	if len(found) != 1 || found[0].ID != created.ID {
		t.Fatalf("search: expected the created task, got %+v", found)
	}

	// Complete it and confirm the filter sees it.
	w = doJSON(t, router, http.MethodPatch, "/api/v1/tasks/"+created.ID.String()+"/complete", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/v1/tasks?completed=true", token, nil)
	if err := json.Unmarshal(w.Body.Bytes(), &found); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(found) != 1 || !found[0].Completed {
		t.Fatalf("completed filter: expected 1 completed task, got %+v", found)
	}

	// A second user sees none of it.
	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "bob22",
		"password": "Passw0rd!",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("second register: expected 201, got %d", w.Code)
	}
	var bob struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &bob); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/tasks/"+created.ID.String(), bob.AccessToken, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("cross-user get: expected 404, got %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/v1/tasks", bob.AccessToken, nil)
	var bobTasks []models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &bobTasks); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(bobTasks) != 0 {
		t.Fatalf("expected empty list for second user, got %d tasks", len(bobTasks))
	}

	// Unauthenticated requests are rejected outright.
	w = doJSON(t, router, http.MethodGet, "/api/v1/tasks", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: expected 401, got %d", w.Code)
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health/live", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("liveness: expected 200, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("metrics: expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("request_count")) {
		t.Error("metrics body missing request_count")
	}
}
