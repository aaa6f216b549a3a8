package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-drive-api/internal/integration"
	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
)

type directoryClient interface {
	GetLecturerClasses(ctx context.Context, token string, lecturerID int64) ([]integration.ClassSummary, error)
	GetDepartment(ctx context.Context, token string, departmentID int64) (*integration.Department, error)
}

// CatalogService answers "where do I belong" questions against the system
// management catalog: the classes a lecturer teaches and the department an
// account sits in. Pure pass-through reads; nothing is persisted locally.
type CatalogService struct {
	client directoryClient
	logger *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(client directoryClient, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{client: client, logger: logger}
}

// MyClasses returns the classes the acting lecturer teaches. Other roles
// have no teaching assignments and are rejected.
func (s *CatalogService) MyClasses(ctx context.Context, actor *models.JWTClaims, token string) ([]integration.ClassSummary, error) {
	if actor.Role != models.RoleLecturer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only lecturers have class assignments")
	}
	classes, err := s.client.GetLecturerClasses(ctx, token, actor.UserID)
	if err != nil {
		s.logger.Warn("class catalog unavailable", zap.Int64("lecturer_id", actor.UserID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "class catalog unavailable")
	}
	if classes == nil {
		classes = []integration.ClassSummary{}
	}
	return classes, nil
}

// MyDepartment returns the department named in the actor's token claims,
// with its sub-units.
func (s *CatalogService) MyDepartment(ctx context.Context, actor *models.JWTClaims, token string) (*integration.Department, error) {
	if actor.DepartmentID == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no department associated with this account")
	}
	department, err := s.client.GetDepartment(ctx, token, *actor.DepartmentID)
	if err != nil {
		s.logger.Warn("department catalog unavailable", zap.Int64("department_id", *actor.DepartmentID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "department catalog unavailable")
	}
	return department, nil
}
