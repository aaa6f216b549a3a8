package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-drive-api/internal/dto"
	"github.com/noah-isme/campus-drive-api/internal/models"
	"github.com/noah-isme/campus-drive-api/internal/repository"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
)

type repoItemStore interface {
	GetByID(ctx context.Context, itemID string) (*models.DriveItem, error)
	ListByRepository(ctx context.Context, repoType models.RepositoryType, contextID int64, parentID *string) ([]models.DriveItem, error)
	FindRepositoryRoot(ctx context.Context, repoType models.RepositoryType, contextID int64) (*models.DriveItem, error)
	CreateFile(ctx context.Context, item *models.DriveItem, meta *models.FileMetadata) error
}

type classNotifier interface {
	NotifyClass(token string, classID int64, title, message, notifType string, metadata map[string]interface{})
}

type storageGate interface {
	EnsureRepositoryAccess(ctx context.Context, actor *models.JWTClaims, token string, repoType models.RepositoryType, contextID int64, write bool) error
	CanCreateIn(ctx context.Context, actor *models.JWTClaims, token string, parent *models.DriveItem) error
}

// RepositoryStorageService serves the shared class and department spaces:
// browsing the provisioned structure and uploading into it.
type RepositoryStorageService struct {
	items     repoItemStore
	access    storageGate
	store     byteStore
	notifier  classNotifier
	maxUpload int64
	metrics   *MetricsService
	logger    *zap.Logger
}

// SetMetrics attaches instrumentation for upload tracking.
func (s *RepositoryStorageService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// NewRepositoryStorageService constructs the service.
func NewRepositoryStorageService(items repoItemStore, access storageGate, store byteStore, notifier classNotifier, maxUpload int64, logger *zap.Logger) *RepositoryStorageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUpload <= 0 {
		maxUpload = 50 * 1024 * 1024
	}
	return &RepositoryStorageService{
		items:     items,
		access:    access,
		store:     store,
		notifier:  notifier,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// ListClassItems lists a class space; a nil parent lists the children of
// the provisioned root.
func (s *RepositoryStorageService) ListClassItems(ctx context.Context, actor *models.JWTClaims, token string, classID int64, parentID *string) ([]models.DriveItem, error) {
	if err := s.access.EnsureRepositoryAccess(ctx, actor, token, models.RepositoryClass, classID, false); err != nil {
		return nil, err
	}
	return s.list(ctx, models.RepositoryClass, classID, parentID)
}

// ListDepartmentItems lists a department space.
func (s *RepositoryStorageService) ListDepartmentItems(ctx context.Context, actor *models.JWTClaims, token string, departmentID int64, parentID *string) ([]models.DriveItem, error) {
	if err := s.access.EnsureRepositoryAccess(ctx, actor, token, models.RepositoryDepartment, departmentID, false); err != nil {
		return nil, err
	}
	return s.list(ctx, models.RepositoryDepartment, departmentID, parentID)
}

// UploadToClass stores a file in class storage and, when requested,
// fans out an upload notification to the class roster.
func (s *RepositoryStorageService) UploadToClass(ctx context.Context, actor *models.JWTClaims, token string, classID int64, header *multipart.FileHeader, req dto.RepositoryUploadRequest) (*models.DriveItem, error) {
	if err := s.access.EnsureRepositoryAccess(ctx, actor, token, models.RepositoryClass, classID, true); err != nil {
		return nil, err
	}
	item, err := s.upload(ctx, actor, token, models.RepositoryClass, classID, header, req.ParentID)
	if err != nil {
		return nil, err
	}

	if req.Notify && s.notifier != nil {
		s.notifier.NotifyClass(token, classID,
			"New file in class storage",
			fmt.Sprintf("%s uploaded %s", actor.Username, item.Name),
			"FILE_UPLOAD",
			map[string]interface{}{"drive_item_id": item.ItemID})
	}
	return item, nil
}

// UploadToDepartment stores a file in department storage.
func (s *RepositoryStorageService) UploadToDepartment(ctx context.Context, actor *models.JWTClaims, token string, departmentID int64, header *multipart.FileHeader, req dto.RepositoryUploadRequest) (*models.DriveItem, error) {
	if err := s.access.EnsureRepositoryAccess(ctx, actor, token, models.RepositoryDepartment, departmentID, true); err != nil {
		return nil, err
	}
	return s.upload(ctx, actor, token, models.RepositoryDepartment, departmentID, header, req.ParentID)
}

func (s *RepositoryStorageService) list(ctx context.Context, repoType models.RepositoryType, contextID int64, parentID *string) ([]models.DriveItem, error) {
	if parentID == nil {
		root, err := s.items.FindRepositoryRoot(ctx, repoType, contextID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve repository root")
		}
		if root == nil {
			return []models.DriveItem{}, nil
		}
		parentID = &root.ItemID
	} else {
		parent, err := s.repositoryFolder(ctx, repoType, contextID, *parentID)
		if err != nil {
			return nil, err
		}
		parentID = &parent.ItemID
	}

	items, err := s.items.ListByRepository(ctx, repoType, contextID, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list repository items")
	}
	return items, nil
}

func (s *RepositoryStorageService) upload(ctx context.Context, actor *models.JWTClaims, token string, repoType models.RepositoryType, contextID int64, header *multipart.FileHeader, parentID *string) (*models.DriveItem, error) {
	if header == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if header.Size > s.maxUpload {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxUpload))
	}

	if parentID == nil {
		root, err := s.items.FindRepositoryRoot(ctx, repoType, contextID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve repository root")
		}
		if root == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "repository storage has not been provisioned")
		}
		parentID = &root.ItemID
	} else {
		parent, err := s.repositoryFolder(ctx, repoType, contextID, *parentID)
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
	prefix := "class_storage"
	if repoType == models.RepositoryDepartment {
		prefix = "department_storage"
	}
	relPath := filepath.Join(prefix, fmt.Sprintf("%d", contextID), itemID+filepath.Ext(header.Filename))
	if _, err := s.store.SaveStream(relPath, src); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}

	item := &models.DriveItem{
		ItemID:              itemID,
		Name:                filepath.Base(header.Filename),
		ItemType:            models.ItemTypeFile,
		OwnerID:             actor.UserID,
		OwnerType:           models.OwnerTypeForRole(actor.Role),
		ParentID:            parentID,
		RepositoryType:      repoType,
		RepositoryContextID: &contextID,
		ProcessStatus:       models.ProcessReady,
		CreatedAt:           time.Now().UTC(),
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
	s.metrics.RecordUpload(string(repoType), header.Size)
	return item, nil
}

func (s *RepositoryStorageService) repositoryFolder(ctx context.Context, repoType models.RepositoryType, contextID int64, itemID string) (*models.DriveItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load folder")
	}
	if item.RepositoryType != repoType || item.RepositoryContextID == nil || *item.RepositoryContextID != contextID {
		return nil, appErrors.ErrNotFound
	}
	if !item.IsFolder() || item.IsTrashed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "parent must be a live folder")
	}
	return item, nil
}
