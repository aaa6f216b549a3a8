package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-drive-api/internal/models"
)

// ShareRepository persists per-user share grants on drive items.
type ShareRepository struct {
	db *sqlx.DB
}

// NewShareRepository constructs the repository.
func NewShareRepository(db *sqlx.DB) *ShareRepository {
	return &ShareRepository{db: db}
}

// Upsert creates or refreshes a grant. Re-sharing with the same user
// replaces the permission level instead of erroring.
func (r *ShareRepository) Upsert(ctx context.Context, share *models.SharePermission) error {
	if share.ShareID == "" {
		share.ShareID = uuid.NewString()
	}
	if share.CreatedAt.IsZero() {
		share.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO share_permissions (share_id, item_id, shared_with_user_id, permission_level, created_at)
	VALUES (:share_id, :item_id, :shared_with_user_id, :permission_level, :created_at)
	ON CONFLICT (item_id, shared_with_user_id)
	DO UPDATE SET permission_level = EXCLUDED.permission_level`
	if _, err := r.db.NamedExecContext(ctx, query, share); err != nil {
		return fmt.Errorf("upsert share: %w", err)
	}
	return nil
}

// Get returns the grant a user holds on an item, if any.
func (r *ShareRepository) Get(ctx context.Context, itemID string, userID int64) (*models.SharePermission, error) {
	const query = `SELECT share_id, item_id, shared_with_user_id, permission_level, created_at
	FROM share_permissions WHERE item_id = $1 AND shared_with_user_id = $2`
	var share models.SharePermission
	if err := r.db.GetContext(ctx, &share, query, itemID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get share: %w", err)
	}
	return &share, nil
}

// ListForItem returns every grant on an item.
func (r *ShareRepository) ListForItem(ctx context.Context, itemID string) ([]models.SharePermission, error) {
	const query = `SELECT share_id, item_id, shared_with_user_id, permission_level, created_at
	FROM share_permissions WHERE item_id = $1 ORDER BY created_at ASC`
	var shares []models.SharePermission
	if err := r.db.SelectContext(ctx, &shares, query, itemID); err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	return shares, nil
}

// Delete revokes a grant.
func (r *ShareRepository) Delete(ctx context.Context, itemID string, userID int64) error {
	const query = `DELETE FROM share_permissions WHERE item_id = $1 AND shared_with_user_id = $2`
	res, err := r.db.ExecContext(ctx, query, itemID, userID)
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check share delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
