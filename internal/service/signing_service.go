package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-drive-api/internal/dto"
	"github.com/noah-isme/campus-drive-api/internal/integration"
	"github.com/noah-isme/campus-drive-api/internal/models"
	"github.com/noah-isme/campus-drive-api/internal/repository"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
	"github.com/noah-isme/campus-drive-api/pkg/export"
)

type signingStore interface {
	Create(ctx context.Context, req *models.SigningRequest) error
	GetByID(ctx context.Context, requestID string) (*models.SigningRequest, error)
	FindActiveForItem(ctx context.Context, itemID string) (*models.SigningRequest, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]models.SigningRequest, error)
	ListByStatus(ctx context.Context, status models.SigningStatus) ([]models.SigningRequest, error)
	Transition(ctx context.Context, requestID string, from, to models.SigningStatus, update repository.TransitionUpdate) error
}

type signingItemLookup interface {
	GetByID(ctx context.Context, itemID string) (*models.DriveItem, error)
}

type stampRenderer interface {
	Render(sheet export.ApprovalSheet) ([]byte, error)
}

type stampWriter interface {
	Save(relPath string, data []byte) (string, error)
}

type signingNotifier interface {
	NotifyUser(token string, n integration.Notification)
}

// SigningService drives the document approval workflow. Transitions move
// strictly forward and are guarded at the database so concurrent
// decisions on the same request cannot both win.
type SigningService struct {
	requests signingStore
	items    signingItemLookup
	stamps   stampRenderer
	store    stampWriter
	notifier signingNotifier
	stampDir string
	logger   *zap.Logger
}

// NewSigningService constructs the service.
func NewSigningService(requests signingStore, items signingItemLookup, stamps stampRenderer, store stampWriter, notifier signingNotifier, stampDir string, logger *zap.Logger) *SigningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stampDir == "" {
		stampDir = "signing"
	}
	return &SigningService{
		requests: requests,
		items:    items,
		stamps:   stamps,
		store:    store,
		notifier: notifier,
		stampDir: stampDir,
		logger:   logger,
	}
}

// Create opens a DRAFT request for a PDF file the requester owns. One
// active request per item at a time.
func (s *SigningService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateSigningRequest) (*models.SigningRequest, error) {
	item, err := s.items.GetByID(ctx, req.DriveItemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	if item.OwnerID != actor.UserID {
		return nil, appErrors.ErrNotFound
	}
	if item.IsFolder() || item.IsTrashed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only live files can be submitted for signing")
	}
	if item.Metadata == nil || !strings.Contains(strings.ToLower(item.Metadata.MimeType), "pdf") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only PDF files can be submitted for signing")
	}

	active, err := s.requests.FindActiveForItem(ctx, item.ItemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing requests")
	}
	if active != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an active signing request already exists for this item")
	}

	request := &models.SigningRequest{
		DriveItemID: item.ItemID,
		RequesterID: actor.UserID,
		Status:      models.SigningDraft,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		// The partial unique index catches the race the pre-check cannot:
		// two concurrent creates on the same item.
		if errors.Is(err, repository.ErrActiveRequestExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an active signing request already exists for this item")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create signing request")
	}
	return request, nil
}

// Submit moves the requester's DRAFT into PENDING.
func (s *SigningService) Submit(ctx context.Context, actor *models.JWTClaims, requestID string) (*models.SigningRequest, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	if request.Status != models.SigningDraft {
		return nil, invalidTransition(request.Status, models.SigningPending)
	}
	if err := s.requests.Transition(ctx, request.RequestID, models.SigningDraft, models.SigningPending, repository.TransitionUpdate{}); err != nil {
		return nil, s.transitionError(err, request.Status, models.SigningPending)
	}
	request.Status = models.SigningPending
	return request, nil
}

// Approve is the admin decision path: records the approver, renders the
// approval stamp sheet and notifies the requester. The stamp and the
// notification are both best effort; the approval stands without them.
func (s *SigningService) Approve(ctx context.Context, actor *models.JWTClaims, token, requestID string, decision dto.DecideSigningRequest) (*models.SigningRequest, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.SigningPending {
		return nil, invalidTransition(request.Status, models.SigningApproved)
	}

	now := time.Now().UTC()
	update := repository.TransitionUpdate{
		ApproverID: &actor.UserID,
		ApprovedAt: &now,
	}
	if decision.Comment != "" {
		update.AdminComment = &decision.Comment
	}
	if stampPath := s.renderStamp(ctx, request, actor.UserID, now, decision.Comment); stampPath != "" {
		update.SignedFilePath = &stampPath
	}

	if err := s.requests.Transition(ctx, request.RequestID, models.SigningPending, models.SigningApproved, update); err != nil {
		return nil, s.transitionError(err, request.Status, models.SigningApproved)
	}

	request.Status = models.SigningApproved
	request.ApproverID = &actor.UserID
	request.ApprovedAt = &now
	request.AdminComment = update.AdminComment
	request.SignedFilePath = update.SignedFilePath

	s.notifyDecision(token, request, "Signing request approved",
		fmt.Sprintf("Your signing request %s was approved", request.RequestID))
	return request, nil
}

// Reject is the admin refusal path. A comment is required so the
// requester learns why.
func (s *SigningService) Reject(ctx context.Context, actor *models.JWTClaims, token, requestID string, decision dto.DecideSigningRequest) (*models.SigningRequest, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	if strings.TrimSpace(decision.Comment) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a comment is required when rejecting")
	}
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.SigningPending {
		return nil, invalidTransition(request.Status, models.SigningRejected)
	}

	update := repository.TransitionUpdate{
		ApproverID:   &actor.UserID,
		AdminComment: &decision.Comment,
	}
	if err := s.requests.Transition(ctx, request.RequestID, models.SigningPending, models.SigningRejected, update); err != nil {
		return nil, s.transitionError(err, request.Status, models.SigningRejected)
	}

	request.Status = models.SigningRejected
	request.ApproverID = &actor.UserID
	request.AdminComment = &decision.Comment

	s.notifyDecision(token, request, "Signing request rejected",
		fmt.Sprintf("Your signing request %s was rejected: %s", request.RequestID, decision.Comment))
	return request, nil
}

// Get returns a request visible to its requester or an admin.
func (s *SigningService) Get(ctx context.Context, actor *models.JWTClaims, requestID string) (*models.SigningRequest, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != actor.UserID && !actor.IsAdmin() {
		return nil, appErrors.ErrNotFound
	}
	return request, nil
}

// ListMine returns the actor's requests, newest first.
func (s *SigningService) ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.SigningRequest, error) {
	requests, err := s.requests.ListByRequester(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list signing requests")
	}
	return requests, nil
}

// ListPending returns the admin approval queue in submission order.
func (s *SigningService) ListPending(ctx context.Context, actor *models.JWTClaims) ([]models.SigningRequest, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	requests, err := s.requests.ListByStatus(ctx, models.SigningPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending requests")
	}
	return requests, nil
}

func (s *SigningService) renderStamp(ctx context.Context, request *models.SigningRequest, approverID int64, approvedAt time.Time, comment string) string {
	if s.stamps == nil || s.store == nil {
		return ""
	}
	fileName := request.DriveItemID
	if item, err := s.items.GetByID(ctx, request.DriveItemID); err == nil {
		fileName = item.Name
	}
	data, err := s.stamps.Render(export.ApprovalSheet{
		RequestID:    request.RequestID,
		FileName:     fileName,
		RequesterID:  request.RequesterID,
		ApproverID:   approverID,
		ApprovedAt:   approvedAt,
		AdminComment: comment,
	})
	if err != nil {
		s.logger.Warn("failed to render approval stamp", zap.String("request_id", request.RequestID), zap.Error(err))
		return ""
	}
	relPath := filepath.Join(s.stampDir, request.RequestID+".pdf")
	if _, err := s.store.Save(relPath, data); err != nil {
		s.logger.Warn("failed to store approval stamp", zap.String("request_id", request.RequestID), zap.Error(err))
		return ""
	}
	return relPath
}

func (s *SigningService) notifyDecision(token string, request *models.SigningRequest, title, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyUser(token, integration.Notification{
		UserID:   request.RequesterID,
		Title:    title,
		Message:  message,
		Type:     integration.NotifyTypeSigningResolved,
		Priority: integration.NotifyPriorityHigh,
		Metadata: map[string]interface{}{
			"request_id":    request.RequestID,
			"drive_item_id": request.DriveItemID,
			"status":        string(request.Status),
		},
	})
}

func (s *SigningService) loadRequest(ctx context.Context, requestID string) (*models.SigningRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load signing request")
	}
	return request, nil
}

func (s *SigningService) transitionError(err error, from, to models.SigningStatus) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		return invalidTransition(from, to)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update signing request")
}

func invalidTransition(current, requested models.SigningStatus) error {
	return appErrors.Clone(appErrors.ErrInvalidTransition,
		fmt.Sprintf("cannot move signing request from %s to %s", current, requested))
}
