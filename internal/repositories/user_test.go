package repositories

import (
	"errors"
	"sync"
	"testing"

	"task-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupUserRepo(t *testing.T) UserRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	// One connection only: every pooled connection to :memory: would
	// otherwise open its own empty database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewUserRepository(db)
}

func newUser(t *testing.T, username string) *models.User {
	t.Helper()

	id, err := uuid.NewV4()
	if err != nil {
		t.Fatalf("failed to generate id: %v", err)
	}
	return &models.User{
		ID:           id,
		Username:     username,
		PasswordHash: "$2a$04$notarealhashnotarealhashnotare",
		IsActive:     true,
	}
}

func TestUserCreateAndFind(t *testing.T) {
	repo := setupUserRepo(t)

	user := newUser(t, "alice1")
	if err := repo.Create(user); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := repo.FindByUsername("alice1")
	if err != nil {
		t.Fatalf("find by username failed: %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("expected id %s, got %s", user.ID, found.ID)
	}

	if _, err := repo.FindByID(user.ID); err != nil {
		t.Errorf("find by id failed: %v", err)
	}

	_, err = repo.FindByUsername("nobody99")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestUserDuplicateUsername(t *testing.T) {
	repo := setupUserRepo(t)

	if err := repo.Create(newUser(t, "alice1")); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	err := repo.Create(newUser(t, "alice1"))
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	repo := setupUserRepo(t)

	email := "alice@example.com"
	first := newUser(t, "alice1")
	first.Email = &email
	if err := repo.Create(first); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	second := newUser(t, "alice2")
	second.Email = &email
	err := repo.Create(second)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	// Users with no email never collide on the sparse index.
	if err := repo.Create(newUser(t, "bob22")); err != nil {
		t.Errorf("nil-email create failed: %v", err)
	}
	if err := repo.Create(newUser(t, "carol3")); err != nil {
		t.Errorf("second nil-email create failed: %v", err)
	}
}

// The unique index is the arbiter of the create-create race: exactly one
// of two concurrent inserts with the same username wins.
func TestUserConcurrentDuplicateCreate(t *testing.T) {
	repo := setupUserRepo(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			errs[idx] = repo.Create(newUser(t, "contended"))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !errors.Is(err, ErrDuplicateKey) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly 1 successful insert, got %d", winners)
	}
}

func TestUserUpdatePartial(t *testing.T) {
	repo := setupUserRepo(t)

	user := newUser(t, "alice1")
	if err := repo.Create(user); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	fullName := "Alice Example"
	updated, err := repo.Update(user.ID, UserUpdate{FullName: &fullName})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.FullName != fullName {
		t.Errorf("expected full name %q, got %q", fullName, updated.FullName)
	}
	if updated.Username != "alice1" {
		t.Errorf("username changed unexpectedly: %q", updated.Username)
	}

	inactive := false
	updated, err = repo.Update(user.ID, UserUpdate{IsActive: &inactive})
	if err != nil {
		t.Fatalf("deactivating update failed: %v", err)
	}
	if updated.IsActive {
		t.Error("expected user to be inactive")
	}
	if updated.FullName != fullName {
		t.Error("unrelated field was clobbered")
	}
}

func TestUserDeactivateActivate(t *testing.T) {
	repo := setupUserRepo(t)

	user := newUser(t, "alice1")
	if err := repo.Create(user); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deactivated, err := repo.Deactivate(user.ID)
	if err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if deactivated.IsActive {
		t.Error("expected inactive after deactivate")
	}

	activated, err := repo.Activate(user.ID)
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if !activated.IsActive {
		t.Error("expected active after activate")
	}
}

func TestUserDeleteMissing(t *testing.T) {
	repo := setupUserRepo(t)

	id, _ := uuid.NewV4()
	err := repo.Delete(id)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestUserListAndCount(t *testing.T) {
	repo := setupUserRepo(t)

	for _, name := range []string{"alice1", "bob22", "carol3"} {
		if err := repo.Create(newUser(t, name)); err != nil {
			t.Fatalf("create %s failed: %v", name, err)
		}
	}
	bob, err := repo.FindByUsername("bob22")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if _, err := repo.Deactivate(bob.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	all, err := repo.List(nil, 0, 100)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 users, got %d", len(all))
	}

	active := true
	actives, err := repo.List(&active, 0, 100)
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(actives) != 2 {
		t.Errorf("expected 2 active users, got %d", len(actives))
	}

	count, err := repo.Count(&active)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
}
