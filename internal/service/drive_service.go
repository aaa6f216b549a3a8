package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-drive-api/internal/dto"
	"github.com/noah-isme/campus-drive-api/internal/models"
	"github.com/noah-isme/campus-drive-api/internal/repository"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
)

type driveStore interface {
	Create(ctx context.Context, item *models.DriveItem) error
	CreateFile(ctx context.Context, item *models.DriveItem, meta *models.FileMetadata) error
	GetByID(ctx context.Context, itemID string) (*models.DriveItem, error)
	ListChildren(ctx context.Context, ownerID int64, parentID *string) ([]models.DriveItem, error)
	UpdateNameParent(ctx context.Context, itemID, name string, parentID *string, updatedAt time.Time) error
	IsDescendant(ctx context.Context, ancestorID, candidateID string) (bool, error)
	Search(ctx context.Context, userID int64, query models.SearchQuery) ([]models.DriveItem, error)
	ListSharedWith(ctx context.Context, userID int64) ([]models.DriveItem, error)
	BumpFileVersion(ctx context.Context, itemID string, sizeBytes int64, updatedAt time.Time) error
}

type shareStore interface {
	Upsert(ctx context.Context, share *models.SharePermission) error
	ListForItem(ctx context.Context, itemID string) ([]models.SharePermission, error)
	Delete(ctx context.Context, itemID string, userID int64) error
}

type accessResolver interface {
	CanRead(ctx context.Context, actor *models.JWTClaims, token string, item *models.DriveItem) error
	CanWrite(ctx context.Context, actor *models.JWTClaims, token string, item *models.DriveItem) error
	CanCreateIn(ctx context.Context, actor *models.JWTClaims, token string, parent *models.DriveItem) error
	CanDelete(ctx context.Context, actor *models.JWTClaims, token string, item *models.DriveItem) error
}

type byteStore interface {
	SaveStream(relPath string, r io.Reader) (string, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
}

type downloadSigner interface {
	Generate(itemID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (itemID, relPath string, expiresAt time.Time, err error)
}

// DriveService implements personal drive operations: folder tree
// management, uploads, downloads, sharing and search.
type DriveService struct {
	items     driveStore
	shares    shareStore
	access    accessResolver
	store     byteStore
	signer    downloadSigner
	maxUpload int64
	validate  *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// SetMetrics attaches instrumentation for upload tracking.
func (s *DriveService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// NewDriveService constructs the service.
func NewDriveService(items driveStore, shares shareStore, access accessResolver, store byteStore, signer downloadSigner, maxUpload int64, logger *zap.Logger) *DriveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUpload <= 0 {
		maxUpload = 50 * 1024 * 1024
	}
	validate := validator.New()
	// Names become path segments in listings; separators and dot-dirs are
	// rejected up front rather than escaped later.
	_ = validate.RegisterValidation("item_name", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		if name == "." || name == ".." {
			return false
		}
		return !strings.ContainsAny(name, "/\\\x00")
	})
	return &DriveService{
		items:     items,
		shares:    shares,
		access:    access,
		store:     store,
		signer:    signer,
		maxUpload: maxUpload,
		validate:  validate,
		logger:    logger,
	}
}

func (s *DriveService) validName(name string) error {
	if err := s.validate.Var(name, "required,max=255,item_name"); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "item name contains forbidden characters or is too long")
	}
	return nil
}

// CreateFolder creates a folder in the actor's personal drive.
func (s *DriveService) CreateFolder(ctx context.Context, actor *models.JWTClaims, token string, req dto.CreateFolderRequest) (*models.DriveItem, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.validName(name); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.loadFolder(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if err := s.access.CanCreateIn(ctx, actor, token, parent); err != nil {
			return nil, err
		}
	}

	item := &models.DriveItem{
		Name:           name,
		ItemType:       models.ItemTypeFolder,
		OwnerID:        actor.UserID,
		OwnerType:      models.OwnerTypeForRole(actor.Role),
		ParentID:       req.ParentID,
		RepositoryType: models.RepositoryPersonal,
	}
	if err := s.items.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNameConflict) {
			return nil, appErrors.ErrConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create folder")
	}
	return item, nil
}

// UploadFile stores the file bytes and records the item with its metadata
// in one transaction. On a metadata failure the stored bytes are removed.
func (s *DriveService) UploadFile(ctx context.Context, actor *models.JWTClaims, token string, header *multipart.FileHeader, parentID *string) (*models.DriveItem, error) {
	if header == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if header.Size > s.maxUpload {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxUpload))
	}

	if parentID != nil {
		parent, err := s.loadFolder(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if err := s.access.CanCreateIn(ctx, actor, token, parent); err != nil {
			return nil, err
		}
	}

	src, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	defer src.Close() //nolint:errcheck

	itemID := uuid.NewString()
	relPath := filepath.Join("personal", fmt.Sprintf("%d", actor.UserID), itemID+filepath.Ext(header.Filename))
	if _, err := s.store.SaveStream(relPath, src); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}

	item := &models.DriveItem{
		ItemID:         itemID,
		Name:           filepath.Base(header.Filename),
		ItemType:       models.ItemTypeFile,
		OwnerID:        actor.UserID,
		OwnerType:      models.OwnerTypeForRole(actor.Role),
		ParentID:       parentID,
		RepositoryType: models.RepositoryPersonal,
		ProcessStatus:  models.ProcessReady,
	}
	meta := &models.FileMetadata{
		MimeType:    contentTypeOf(header),
		SizeBytes:   header.Size,
		StoragePath: relPath,
	}
	if err := s.items.CreateFile(ctx, item, meta); err != nil {
		if cleanupErr := s.store.Delete(relPath); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("path", relPath), zap.Error(cleanupErr))
		}
		if errors.Is(err, repository.ErrNameConflict) {
			return nil, appErrors.ErrConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record upload")
	}
	s.metrics.RecordUpload(string(models.RepositoryPersonal), header.Size)
	return item, nil
}

// ReplaceFile overwrites a file's stored content in place and bumps the
// metadata version counter. The item keeps its identity and shares.
func (s *DriveService) ReplaceFile(ctx context.Context, actor *models.JWTClaims, token, itemID string, header *multipart.FileHeader) (*models.DriveItem, error) {
	if header == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if header.Size > s.maxUpload {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxUpload))
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanWrite(ctx, actor, token, item); err != nil {
		return nil, err
	}
	if item.ItemType != models.ItemTypeFile || item.IsTrashed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "content can only be replaced on a live file")
	}
	if item.Metadata == nil || item.Metadata.StoragePath == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "file has no stored content")
	}

	src, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	defer src.Close() //nolint:errcheck

	if _, err := s.store.SaveStream(item.Metadata.StoragePath, src); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}

	now := time.Now().UTC()
	if err := s.items.BumpFileVersion(ctx, item.ItemID, header.Size, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record new version")
	}
	s.metrics.RecordUpload(string(models.RepositoryPersonal), header.Size)

	item.Metadata.SizeBytes = header.Size
	item.Metadata.Version++
	item.UpdatedAt = now
	return item, nil
}

// GetItem returns one item the actor may read.
func (s *DriveService) GetItem(ctx context.Context, actor *models.JWTClaims, token, itemID string) (*models.DriveItem, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanRead(ctx, actor, token, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListChildren lists the actor's live items under a folder; nil parent
// lists the drive root.
func (s *DriveService) ListChildren(ctx context.Context, actor *models.JWTClaims, token string, parentID *string) ([]models.DriveItem, error) {
	if parentID != nil {
		parent, err := s.loadFolder(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if err := s.access.CanRead(ctx, actor, token, parent); err != nil {
			return nil, err
		}
		return s.listOf(ctx, parent.OwnerID, parentID)
	}
	return s.listOf(ctx, actor.UserID, nil)
}

// UpdateItem renames and/or moves an item. Folder moves are checked
// against the subtree so an item can never become its own ancestor.
func (s *DriveService) UpdateItem(ctx context.Context, actor *models.JWTClaims, token, itemID string, req dto.UpdateItemRequest) (*models.DriveItem, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanWrite(ctx, actor, token, item); err != nil {
		return nil, err
	}
	if item.IsTrashed {
		return nil, appErrors.ErrAlreadyTrashed
	}

	name := item.Name
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if err := s.validName(name); err != nil {
			return nil, err
		}
	}

	parentID := item.ParentID
	switch {
	case req.MoveToRoot:
		parentID = nil
	case req.NewParentID != nil:
		if *req.NewParentID == item.ItemID {
			return nil, appErrors.ErrFolderCycle
		}
		parent, err := s.loadFolder(ctx, *req.NewParentID)
		if err != nil {
			return nil, err
		}
		if err := s.access.CanCreateIn(ctx, actor, token, parent); err != nil {
			return nil, err
		}
		if item.IsFolder() {
			cyclic, err := s.items.IsDescendant(ctx, item.ItemID, parent.ItemID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check folder hierarchy")
			}
			if cyclic {
				return nil, appErrors.ErrFolderCycle
			}
		}
		parentID = req.NewParentID
	}

	now := time.Now().UTC()
	if err := s.items.UpdateNameParent(ctx, item.ItemID, name, parentID, now); err != nil {
		if errors.Is(err, repository.ErrNameConflict) {
			return nil, appErrors.ErrConflict
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update item")
	}
	item.Name = name
	item.ParentID = parentID
	item.UpdatedAt = now
	return item, nil
}

// Share grants another user access to an item the actor owns.
func (s *DriveService) Share(ctx context.Context, actor *models.JWTClaims, token, itemID string, req dto.ShareItemRequest) (*models.SharePermission, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, appErrors.ErrNotFound
	}
	if req.SharedWithUserID == item.OwnerID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot share an item with its owner")
	}

	share := &models.SharePermission{
		ItemID:           item.ItemID,
		SharedWithUserID: req.SharedWithUserID,
		Level:            req.Level,
	}
	if err := s.shares.Upsert(ctx, share); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to share item")
	}
	return share, nil
}

// ListShares returns the grants on an item the actor owns.
func (s *DriveService) ListShares(ctx context.Context, actor *models.JWTClaims, token, itemID string) ([]models.SharePermission, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, appErrors.ErrNotFound
	}
	shares, err := s.shares.ListForItem(ctx, item.ItemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shares")
	}
	return shares, nil
}

// Unshare revokes a grant.
func (s *DriveService) Unshare(ctx context.Context, actor *models.JWTClaims, token, itemID string, userID int64) error {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.OwnerID != actor.UserID && !actor.IsAdmin() {
		return appErrors.ErrNotFound
	}
	if err := s.shares.Delete(ctx, item.ItemID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "share grant not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke share")
	}
	return nil
}

// SharedWithMe lists live items other users have granted to the actor.
func (s *DriveService) SharedWithMe(ctx context.Context, actor *models.JWTClaims) ([]models.DriveItem, error) {
	items, err := s.items.ListSharedWith(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shared items")
	}
	return items, nil
}

// Search finds live items the actor owns or has been granted.
func (s *DriveService) Search(ctx context.Context, actor *models.JWTClaims, query dto.SearchItemsQuery) ([]models.DriveItem, error) {
	items, err := s.items.Search(ctx, actor.UserID, models.SearchQuery{
		Name:     strings.TrimSpace(query.Name),
		ItemType: models.ItemType(query.ItemType),
		MimeType: strings.TrimSpace(query.MimeType),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search items")
	}
	return items, nil
}

// DownloadLink issues a time-limited signed URL for a readable file item.
func (s *DriveService) DownloadLink(ctx context.Context, actor *models.JWTClaims, token, itemID string) (*dto.DownloadLinkResponse, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanRead(ctx, actor, token, item); err != nil {
		return nil, err
	}
	if item.IsFolder() || item.Metadata == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only files can be downloaded")
	}
	if item.IsTrashed {
		return nil, appErrors.ErrAlreadyTrashed
	}

	signed, expiresAt, err := s.signer.Generate(item.ItemID, item.Metadata.StoragePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	return &dto.DownloadLinkResponse{
		ItemID:      item.ItemID,
		Name:        item.Name,
		DownloadURL: "/api/v1/drive/download?token=" + signed,
		ExpiresAt:   expiresAt,
	}, nil
}

// ResolveDownload validates a signed token and opens the file for
// streaming. The item is re-checked so purged or trashed files stop
// serving even within the token TTL.
func (s *DriveService) ResolveDownload(ctx context.Context, token string) (*models.DriveItem, *os.File, error) {
	itemID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item.IsTrashed || item.Metadata == nil || item.Metadata.StoragePath != relPath {
		return nil, nil, appErrors.ErrNotFound
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open stored file")
	}
	return item, file, nil
}

func (s *DriveService) listOf(ctx context.Context, ownerID int64, parentID *string) ([]models.DriveItem, error) {
	items, err := s.items.ListChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}
	return items, nil
}

func (s *DriveService) loadItem(ctx context.Context, itemID string) (*models.DriveItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return item, nil
}

func (s *DriveService) loadFolder(ctx context.Context, itemID string) (*models.DriveItem, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsFolder() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "parent must be a folder")
	}
	if item.IsTrashed {
		return nil, appErrors.ErrNotFound
	}
	return item, nil
}

func contentTypeOf(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
