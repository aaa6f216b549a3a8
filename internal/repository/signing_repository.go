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

// ErrStaleStatus is returned when a compare-and-set transition matched no
// row: the request moved on (or never existed) under the caller.
var ErrStaleStatus = errors.New("signing status changed concurrently")

// ErrActiveRequestExists is returned when an insert trips the partial
// unique index on active (DRAFT or PENDING) requests per item. The index
// is the serialization point for concurrent creates on the same item.
var ErrActiveRequestExists = errors.New("active signing request already exists")

const signingColumns = `request_id, drive_item_id, requester_id, approver_id, current_status,
       admin_comment, signed_file_path, created_at, updated_at, approved_at`

// SigningRepository persists signing workflow requests.
type SigningRepository struct {
	db *sqlx.DB
}

// NewSigningRepository constructs the repository.
func NewSigningRepository(db *sqlx.DB) *SigningRepository {
	return &SigningRepository{db: db}
}

// Create inserts a request in its initial status.
func (r *SigningRepository) Create(ctx context.Context, req *models.SigningRequest) error {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = req.CreatedAt
	}
	if req.Status == "" {
		req.Status = models.SigningDraft
	}
	const query = `INSERT INTO signing_requests
	(request_id, drive_item_id, requester_id, approver_id, current_status, admin_comment, signed_file_path, created_at, updated_at, approved_at)
	VALUES (:request_id, :drive_item_id, :requester_id, :approver_id, :current_status, :admin_comment, :signed_file_path, :created_at, :updated_at, :approved_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		if isUniqueViolation(err) {
			return ErrActiveRequestExists
		}
		return fmt.Errorf("create signing request: %w", err)
	}
	return nil
}

// GetByID fetches one request.
func (r *SigningRepository) GetByID(ctx context.Context, requestID string) (*models.SigningRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM signing_requests WHERE request_id = $1`, signingColumns)
	var req models.SigningRequest
	if err := r.db.GetContext(ctx, &req, query, requestID); err != nil {
		return nil, err
	}
	return &req, nil
}

// FindActiveForItem returns a non-terminal request for the item, if any.
// At most one can exist at a time.
func (r *SigningRepository) FindActiveForItem(ctx context.Context, itemID string) (*models.SigningRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM signing_requests
	WHERE drive_item_id = $1 AND current_status IN ('DRAFT', 'PENDING')
	ORDER BY created_at DESC LIMIT 1`, signingColumns)
	var req models.SigningRequest
	if err := r.db.GetContext(ctx, &req, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active signing request: %w", err)
	}
	return &req, nil
}

// ListByRequester returns a user's requests, newest first.
func (r *SigningRepository) ListByRequester(ctx context.Context, requesterID int64) ([]models.SigningRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM signing_requests
	WHERE requester_id = $1 ORDER BY created_at DESC`, signingColumns)
	var reqs []models.SigningRequest
	if err := r.db.SelectContext(ctx, &reqs, query, requesterID); err != nil {
		return nil, fmt.Errorf("list signing requests: %w", err)
	}
	return reqs, nil
}

// ListByStatus returns requests in one status, oldest first so the approval
// queue is worked in submission order.
func (r *SigningRepository) ListByStatus(ctx context.Context, status models.SigningStatus) ([]models.SigningRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM signing_requests
	WHERE current_status = $1 ORDER BY created_at ASC`, signingColumns)
	var reqs []models.SigningRequest
	if err := r.db.SelectContext(ctx, &reqs, query, status); err != nil {
		return nil, fmt.Errorf("list signing requests by status: %w", err)
	}
	return reqs, nil
}

// TransitionUpdate carries the fields written alongside a status change.
type TransitionUpdate struct {
	ApproverID     *int64
	AdminComment   *string
	SignedFilePath *string
	ApprovedAt     *time.Time
}

// Transition moves a request from one status to another with a guarded
// update. The status predicate in the WHERE clause is the concurrency
// control: a lost race matches zero rows and returns ErrStaleStatus.
func (r *SigningRepository) Transition(ctx context.Context, requestID string, from, to models.SigningStatus, update TransitionUpdate) error {
	const query = `UPDATE signing_requests
	SET current_status = $3,
	    approver_id = COALESCE($4, approver_id),
	    admin_comment = COALESCE($5, admin_comment),
	    signed_file_path = COALESCE($6, signed_file_path),
	    approved_at = COALESCE($7, approved_at),
	    updated_at = $8
	WHERE request_id = $1 AND current_status = $2`
	res, err := r.db.ExecContext(ctx, query, requestID, from, to,
		update.ApproverID, update.AdminComment, update.SignedFilePath, update.ApprovedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("transition signing request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check transition rows: %w", err)
	}
	if affected == 0 {
		return ErrStaleStatus
	}
	return nil
}
