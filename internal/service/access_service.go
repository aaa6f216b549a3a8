package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-drive-api/internal/models"
	"github.com/noah-isme/campus-drive-api/internal/repository"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
)

type shareLookup interface {
	Get(ctx context.Context, itemID string, userID int64) (*models.SharePermission, error)
}

type rosterClient interface {
	CheckLecturerTeachesClass(ctx context.Context, token string, lecturerID, classID int64) (bool, error)
}

type permissionCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// AccessService is the single place item permissions are resolved. Every
// handler path goes through it; callers never re-derive access rules.
//
// Read denials surface as NOT_FOUND so existence of foreign items never
// leaks. Write and delete denials on readable items surface as FORBIDDEN.
type AccessService struct {
	shares   shareLookup
	roster   rosterClient
	cache    permissionCache
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// SetMetrics attaches instrumentation for cache hit/miss tracking.
func (s *AccessService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// NewAccessService constructs the resolver. Cache may be nil; roster
// answers then always hit the system management service.
func NewAccessService(shares shareLookup, roster rosterClient, cache permissionCache, cacheTTL time.Duration, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &AccessService{shares: shares, roster: roster, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// CanRead decides whether the actor may see the item at all.
func (s *AccessService) CanRead(ctx context.Context, actor *models.JWTClaims, token string, item *models.DriveItem) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.IsAdmin() || item.OwnerID == actor.UserID {
		return nil
	}

	switch item.RepositoryType {
	case models.RepositoryPersonal:
		share, err := s.shareFor(ctx, item.ItemID, actor.UserID)
		if err != nil {
			return err
		}
		if share != nil {
			return nil
		}
		return appErrors.ErrNotFound

	case models.RepositoryClass:
		if item.RepositoryContextID == nil {
			return appErrors.ErrNotFound
		}
		switch actor.Role {
		case models.RoleStudent:
			// TODO: narrow to enrolled students once the roster service
			// exposes a student/class membership endpoint.
			return nil
		case models.RoleLecturer:
			teaches, err := s.TeachesClass(ctx, token, actor.UserID, *item.RepositoryContextID)
			if err != nil {
				return err
			}
			if teaches {
				return nil
			}
			return appErrors.ErrNotFound
		}
		return appErrors.ErrNotFound

	case models.RepositoryDepartment:
		if actor.Role == models.RoleLecturer && actor.DepartmentID != nil &&
			item.RepositoryContextID != nil && *actor.DepartmentID == *item.RepositoryContextID {
			return nil
		}
		return appErrors.ErrNotFound
	}

	return appErrors.ErrNotFound
}

// CanWrite decides whether the actor may mutate the item itself (rename,
// move, content replace). Locked items reject mutation for everyone but
// admins.
func (s *AccessService) CanWrite(ctx context.Context, actor *models.JWTClaims, token string, item *models.DriveItem) error {
	if err := s.CanCreateIn(ctx, actor, token, item); err != nil {
		return err
	}
	if item.IsLocked && !actor.IsAdmin() {
		return appErrors.ErrLockedItem
	}
	return nil
}

// CanCreateIn decides whether the actor may create children under the
// folder. Locking protects the folder itself from rename/move/delete but
// never blocks adding content inside it.
func (s *AccessService) CanCreateIn(ctx context.Context, actor *models.JWTClaims, token string, parent *models.DriveItem) error {
	if err := s.CanRead(ctx, actor, token, parent); err != nil {
		return err
	}
	if actor.IsAdmin() || parent.OwnerID == actor.UserID {
		return nil
	}

	switch parent.RepositoryType {
	case models.RepositoryPersonal:
		share, err := s.shareFor(ctx, parent.ItemID, actor.UserID)
		if err != nil {
			return err
		}
		if share != nil && share.Level == models.ShareEditor {
			return nil
		}
		return appErrors.ErrForbidden

	case models.RepositoryClass:
		if actor.Role == models.RoleLecturer && parent.RepositoryContextID != nil {
			teaches, err := s.TeachesClass(ctx, token, actor.UserID, *parent.RepositoryContextID)
			if err != nil {
				return err
			}
			if teaches {
				return nil
			}
		}
		return appErrors.ErrForbidden

	case models.RepositoryDepartment:
		if actor.Role == models.RoleLecturer && actor.DepartmentID != nil &&
			parent.RepositoryContextID != nil && *actor.DepartmentID == *parent.RepositoryContextID {
			return nil
		}
		return appErrors.ErrForbidden
	}

	return appErrors.ErrForbidden
}

// CanDelete decides whether the actor may trash or purge the item.
// Department content is deleted by admins only.
func (s *AccessService) CanDelete(ctx context.Context, actor *models.JWTClaims, token string, item *models.DriveItem) error {
	if err := s.CanRead(ctx, actor, token, item); err != nil {
		return err
	}
	if item.IsLocked && !actor.IsAdmin() {
		return appErrors.ErrLockedItem
	}
	if actor.IsAdmin() {
		return nil
	}

	switch item.RepositoryType {
	case models.RepositoryPersonal:
		if item.OwnerID == actor.UserID {
			return nil
		}
	case models.RepositoryClass:
		if item.OwnerID == actor.UserID && actor.Role == models.RoleLecturer && item.RepositoryContextID != nil {
			teaches, err := s.TeachesClass(ctx, token, actor.UserID, *item.RepositoryContextID)
			if err != nil {
				return err
			}
			if teaches {
				return nil
			}
		}
	}
	return appErrors.ErrForbidden
}

// EnsureRepositoryAccess gates repository-level operations (listing a
// class or department space, uploading into it) before any item exists.
func (s *AccessService) EnsureRepositoryAccess(ctx context.Context, actor *models.JWTClaims, token string, repoType models.RepositoryType, contextID int64, write bool) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.IsAdmin() {
		return nil
	}

	switch repoType {
	case models.RepositoryClass:
		switch actor.Role {
		case models.RoleStudent:
			if write {
				return appErrors.ErrForbidden
			}
			return nil
		case models.RoleLecturer:
			teaches, err := s.TeachesClass(ctx, token, actor.UserID, contextID)
			if err != nil {
				return err
			}
			if teaches {
				return nil
			}
			return appErrors.ErrForbidden
		}
		return appErrors.ErrForbidden

	case models.RepositoryDepartment:
		if actor.Role == models.RoleStudent {
			return appErrors.Clone(appErrors.ErrForbidden, "students cannot access department storage")
		}
		if actor.DepartmentID == nil {
			return appErrors.Clone(appErrors.ErrValidation, "lecturer department information not found")
		}
		if *actor.DepartmentID != contextID {
			return appErrors.Clone(appErrors.ErrForbidden, "you can only access your own department storage")
		}
		return nil
	}

	return appErrors.ErrForbidden
}

// TeachesClass answers the lecturer/class roster question with a short
// cache in front of the system management service. Cache failures fall
// through to a direct call; roster failures deny with a retryable 503
// rather than silently granting or refusing.
func (s *AccessService) TeachesClass(ctx context.Context, token string, lecturerID, classID int64) (bool, error) {
	key := repository.TeachesClassKey(lecturerID, classID)

	if s.cache != nil {
		var cached bool
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached, nil
		}
		s.metrics.RecordCacheOperation(false)
		if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("permission cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	teaches, err := s.roster.CheckLecturerTeachesClass(ctx, token, lecturerID, classID)
	if err != nil {
		s.logger.Warn("roster check unavailable",
			zap.Int64("lecturer_id", lecturerID), zap.Int64("class_id", classID), zap.Error(err))
		return false, appErrors.ErrPermissionUnavailable
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, teaches, s.cacheTTL); err != nil {
			s.logger.Warn("permission cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return teaches, nil
}

func (s *AccessService) shareFor(ctx context.Context, itemID string, userID int64) (*models.SharePermission, error) {
	if s.shares == nil {
		return nil, nil
	}
	share, err := s.shares.Get(ctx, itemID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve share grant")
	}
	return share, nil
}
