package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-drive-api/internal/models"
	"github.com/noah-isme/campus-drive-api/internal/repository"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
)

type trashStore interface {
	GetByID(ctx context.Context, itemID string) (*models.DriveItem, error)
	TrashSubtree(ctx context.Context, itemID string, trashedAt time.Time) (int64, error)
	RestoreSubtree(ctx context.Context, itemID string, restoredAt time.Time) (int64, error)
	CollectSubtree(ctx context.Context, itemID string) ([]repository.SubtreeNode, error)
	DeleteSubtree(ctx context.Context, nodes []repository.SubtreeNode) error
	ListTrashed(ctx context.Context, ownerID int64) ([]models.DriveItem, error)
	ListTrashedRoots(ctx context.Context, ownerID int64) ([]models.DriveItem, error)
	HasLiveSibling(ctx context.Context, ownerID int64, parentID *string, name, excludeItemID string) (bool, error)
	UpdateNameParent(ctx context.Context, itemID, name string, parentID *string, updatedAt time.Time) error
}

type fileRemover interface {
	Delete(relPath string) error
}

// TrashService implements the trash lifecycle: soft delete with recursive
// cascade, listing, restore and permanent purge. Purge removes physical
// bytes first and database rows second; a crash mid-purge leaves trashed
// rows whose content is already gone, and a retry clears them.
type TrashService struct {
	items   trashStore
	access  accessResolver
	store   fileRemover
	metrics *MetricsService
	logger  *zap.Logger
}

// SetMetrics attaches instrumentation for purge tracking.
func (s *TrashService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// NewTrashService constructs the service.
func NewTrashService(items trashStore, access accessResolver, store fileRemover, logger *zap.Logger) *TrashService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrashService{items: items, access: access, store: store, logger: logger}
}

// Trash soft-deletes the item and its whole subtree atomically.
func (s *TrashService) Trash(ctx context.Context, actor *models.JWTClaims, token, itemID string) (*models.DriveItem, error) {
	item, err := s.load(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanDelete(ctx, actor, token, item); err != nil {
		return nil, err
	}
	if item.IsTrashed {
		return nil, appErrors.ErrAlreadyTrashed
	}

	now := time.Now().UTC()
	affected, err := s.items.TrashSubtree(ctx, item.ItemID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to trash item")
	}
	s.logger.Info("item trashed",
		zap.String("item_id", item.ItemID), zap.Int64("affected", affected), zap.Int64("user_id", actor.UserID))

	item.IsTrashed = true
	item.TrashedAt = &now
	item.UpdatedAt = now
	return item, nil
}

// List returns the actor's trashed items, newest first.
func (s *TrashService) List(ctx context.Context, actor *models.JWTClaims) ([]models.DriveItem, error) {
	items, err := s.items.ListTrashed(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trash")
	}
	return items, nil
}

// Restore brings a trashed subtree back. The item returns to its original
// parent; if that parent is gone or itself trashed the item is reparented
// to the drive root first. A live sibling with the same name at the
// destination blocks the restore.
func (s *TrashService) Restore(ctx context.Context, actor *models.JWTClaims, itemID string) (*models.DriveItem, error) {
	item, err := s.load(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, appErrors.ErrNotFound
	}
	if !item.IsTrashed {
		return nil, appErrors.ErrNotTrashed
	}

	now := time.Now().UTC()
	targetParent := item.ParentID
	if targetParent != nil {
		parent, err := s.items.GetByID(ctx, *targetParent)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load restore destination")
			}
			targetParent = nil
		} else if parent.IsTrashed {
			targetParent = nil
		}
	}

	conflict, err := s.items.HasLiveSibling(ctx, item.OwnerID, targetParent, item.Name, item.ItemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check restore destination")
	}
	if conflict {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an item with this name already exists at the restore destination")
	}

	if !equalParent(targetParent, item.ParentID) {
		if err := s.items.UpdateNameParent(ctx, item.ItemID, item.Name, targetParent, now); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reparent restored item")
		}
		item.ParentID = targetParent
	}

	if _, err := s.items.RestoreSubtree(ctx, item.ItemID, now); err != nil {
		if errors.Is(err, repository.ErrNameConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an item with this name already exists at the restore destination")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore item")
	}

	item.IsTrashed = false
	item.TrashedAt = nil
	item.UpdatedAt = now
	return item, nil
}

// Purge permanently removes a trashed subtree: stored bytes first, then
// the rows.
func (s *TrashService) Purge(ctx context.Context, actor *models.JWTClaims, itemID string) error {
	item, err := s.load(ctx, itemID)
	if err != nil {
		return err
	}
	if item.OwnerID != actor.UserID && !actor.IsAdmin() {
		return appErrors.ErrNotFound
	}
	if !item.IsTrashed {
		return appErrors.ErrNotTrashed
	}
	return s.purgeSubtree(ctx, item.ItemID)
}

// ForcePurge permanently removes a subtree regardless of trash state.
// Administrators only; the item does not have to pass through the trash
// first.
func (s *TrashService) ForcePurge(ctx context.Context, actor *models.JWTClaims, itemID string) error {
	if !actor.IsAdmin() {
		return appErrors.ErrForbidden
	}
	item, err := s.load(ctx, itemID)
	if err != nil {
		return err
	}
	s.logger.Info("admin hard delete",
		zap.String("item_id", item.ItemID), zap.Int64("owner_id", item.OwnerID), zap.Int64("admin_id", actor.UserID))
	return s.purgeSubtree(ctx, item.ItemID)
}

// EmptyTrash purges every top-level trashed subtree of the actor and
// returns how many subtrees were removed.
func (s *TrashService) EmptyTrash(ctx context.Context, actor *models.JWTClaims) (int, error) {
	roots, err := s.items.ListTrashedRoots(ctx, actor.UserID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trash")
	}
	purged := 0
	for _, root := range roots {
		if err := s.purgeSubtree(ctx, root.ItemID); err != nil {
			return purged, err
		}
		purged++
	}
	return purged, nil
}

func (s *TrashService) purgeSubtree(ctx context.Context, itemID string) error {
	nodes, err := s.items.CollectSubtree(ctx, itemID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to collect subtree")
	}
	// Bytes go before rows: a freed storage path must never keep serving
	// content. A byte-store failure aborts the purge with the rows intact
	// so the subtree stays in trash and can be purged again.
	for _, node := range nodes {
		if node.StoragePath == nil || *node.StoragePath == "" {
			continue
		}
		if err := s.store.Delete(*node.StoragePath); err != nil {
			s.logger.Error("failed to remove stored file during purge",
				zap.String("item_id", node.ItemID), zap.String("path", *node.StoragePath), zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove stored content")
		}
	}
	if err := s.items.DeleteSubtree(ctx, nodes); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge items")
	}
	s.metrics.RecordPurged(int64(len(nodes)))
	s.logger.Info("subtree purged", zap.String("item_id", itemID), zap.Int("nodes", len(nodes)))
	return nil
}

func (s *TrashService) load(ctx context.Context, itemID string) (*models.DriveItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return item, nil
}

func equalParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
