package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/linkup/internal/apperror"
	"github.com/sakif/linkup/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" gives each test a fresh database that disappears on Close.
// The pool is pinned to one connection, so every query in the test sees the
// same database. The migrations run for real.
//
// Tests here do not call t.Parallel: goose keeps its dialect and base FS in
// package-level state.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(context.Background(), MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, s *UserStore, name, email string) *model.User {
	t.Helper()
	u := &model.User{
		Name:       name,
		Email:      email,
		Credential: model.Credential{Algorithm: model.AlgorithmBcrypt, Digest: "$2a$04$fakefakefakefakefakefu"},
	}
	if err := s.Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

func TestUserCreate(t *testing.T) {
	s := newTestDB(t).Users()

	u := createTestUser(t, s, "Ada", "  Ada@Example.COM ")

	if u.ID == "" {
		t.Error("Create() did not set ID")
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
	if u.Email != "ada@example.com" {
		t.Errorf("Email = %q, want normalized %q", u.Email, "ada@example.com")
	}
}

func TestUserCreate_DuplicateEmailAnyCasing(t *testing.T) {
	s := newTestDB(t).Users()
	createTestUser(t, s, "Ada", "ada@example.com")

	for _, email := range []string{"ada@example.com", "ADA@EXAMPLE.COM", " Ada@example.com"} {
		err := s.Create(context.Background(), &model.User{Name: "Impostor", Email: email})
		if !errors.Is(err, apperror.ErrConflict) {
			t.Errorf("Create(%q) error = %v, want ErrConflict", email, err)
		}
	}
}

func TestUserGetByID(t *testing.T) {
	s := newTestDB(t).Users()
	created := createTestUser(t, s, "Ada", "ada@example.com")

	got, err := s.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Ada" || got.Email != "ada@example.com" {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.Credential != created.Credential {
		t.Errorf("Credential = %+v, want %+v", got.Credential, created.Credential)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	s := newTestDB(t).Users()

	_, err := s.GetByID(context.Background(), "does-not-exist")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByEmail_CaseInsensitive(t *testing.T) {
	s := newTestDB(t).Users()
	created := createTestUser(t, s, "Ada", "ada@example.com")

	got, err := s.GetByEmail(context.Background(), " ADA@Example.com ")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail() ID = %q, want %q", got.ID, created.ID)
	}
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	s := newTestDB(t).Users()

	_, err := s.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByEmail() error = %v, want ErrNotFound", err)
	}
}

func TestUserUpdateCredential(t *testing.T) {
	s := newTestDB(t).Users()
	u := createTestUser(t, s, "Ada", "ada@example.com")

	next := model.Credential{Algorithm: model.AlgorithmBcrypt, Digest: "$2a$12$upgradedupgradedupgradedu"}
	if err := s.UpdateCredential(context.Background(), u.ID, next); err != nil {
		t.Fatalf("UpdateCredential() error = %v", err)
	}

	got, err := s.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Credential != next {
		t.Errorf("Credential = %+v, want %+v", got.Credential, next)
	}

	err = s.UpdateCredential(context.Background(), "ghost", next)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateCredential(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestNew_IsIdempotentOnExistingFile(t *testing.T) {
	path := t.TempDir() + "/nested/linkup.db"

	first, err := New(context.Background(), path)
	if err != nil {
		t.Fatalf("New() first open error = %v", err)
	}
	createTestUser(t, first.Users(), "Ada", "ada@example.com")
	first.Close()

	second, err := New(context.Background(), path)
	if err != nil {
		t.Fatalf("New() second open error = %v", err)
	}
	defer second.Close()

	if _, err := second.Users().GetByEmail(context.Background(), "ada@example.com"); err != nil {
		t.Errorf("data did not survive reopen: %v", err)
	}
}
