package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-drive-api/internal/models"
)

// UserRepository maintains the local cache of auth-service users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert writes the user row from verified token claims. Role and profile
// fields follow the token since the auth service owns them.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO users (user_id, username, email, role, created_at)
	VALUES (:user_id, :username, :email, :role, :created_at)
	ON CONFLICT (user_id)
	DO UPDATE SET username = EXCLUDED.username, email = EXCLUDED.email, role = EXCLUDED.role`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// List pages through the cached users, newest first.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `SELECT user_id, username, email, role, created_at FROM users
	ORDER BY created_at DESC, user_id DESC LIMIT $1 OFFSET $2`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetByID fetches one cached user.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	const query = `SELECT user_id, username, email, role, created_at FROM users WHERE user_id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
