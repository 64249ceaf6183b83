package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/mercato/storefront-identity/internal/core/domain"
	"github.com/mercato/storefront-identity/internal/repository"
)

func TestUserRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	createdAt := time.Now().UTC()
	user := domain.User{
		Email:        "shopper@example.com",
		Name:         "Shopper",
		Role:         domain.RoleCustomer,
		PasswordHash: "$2a$10$hash",
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	mock.ExpectQuery(`INSERT INTO identity\.users`).
		WithArgs(
			user.Email,
			user.Name,
			user.Role,
			user.PasswordHash,
			(*string)(nil),
			(*string)(nil),
			(*string)(nil),
			user.CreatedAt,
			user.UpdatedAt,
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := repo.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if id != 42 {
		t.Fatalf("Create returned id %d, want 42", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	createdAt := time.Now().UTC()
	resetToken := "c2hvcHBlcg=="

	rows := pgxmock.NewRows([]string{
		"id", "email", "name", "role", "password_hash", "bio", "avatar_url", "preferences", "reset_token", "created_at", "updated_at",
	}).AddRow(
		int64(7), "shopper@example.com", "Shopper", domain.RoleCustomer, "$2a$10$hash", nil, nil, nil, &resetToken, createdAt, createdAt,
	)

	mock.ExpectQuery(`SELECT .+ FROM identity\.users WHERE email = \$1`).
		WithArgs("shopper@example.com").
		WillReturnRows(rows)

	user, err := repo.GetByEmail(context.Background(), "shopper@example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if user.ID != 7 {
		t.Errorf("user.ID = %d, want 7", user.ID)
	}
	if user.ResetToken == nil || *user.ResetToken != resetToken {
		t.Errorf("user.ResetToken = %v, want %q", user.ResetToken, resetToken)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM identity\.users WHERE email = \$1`).
		WithArgs("missing@example.com").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "email", "name", "role", "password_hash", "bio", "avatar_url", "preferences", "reset_token", "created_at", "updated_at",
		}))

	if _, err := repo.GetByEmail(context.Background(), "missing@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_SetResetToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE identity\.users SET reset_token = \$1`).
		WithArgs("dG9rZW4=", int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.SetResetToken(context.Background(), 7, "dG9rZW4="); err != nil {
		t.Fatalf("SetResetToken returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_UpdatePasswordAndClearResetToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	changedAt := time.Now().UTC()

	mock.ExpectExec(`UPDATE identity\.users SET password_hash = \$1, reset_token = \$2, updated_at = \$3`).
		WithArgs("$2a$10$newhash", nil, changedAt, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdatePasswordAndClearResetToken(context.Background(), 7, "$2a$10$newhash", changedAt); err != nil {
		t.Fatalf("UpdatePasswordAndClearResetToken returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_UpdatePassword_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	changedAt := time.Now().UTC()

	mock.ExpectExec(`UPDATE identity\.users SET password_hash = \$1`).
		WithArgs("$2a$10$newhash", nil, changedAt, int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.UpdatePasswordAndClearResetToken(context.Background(), 99, "$2a$10$newhash", changedAt); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
