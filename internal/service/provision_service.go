package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-drive-api/internal/dto"
	"github.com/noah-isme/campus-drive-api/internal/integration"
	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
)

type provisionStore interface {
	Create(ctx context.Context, item *models.DriveItem) error
	FindRepositoryRoot(ctx context.Context, repoType models.RepositoryType, contextID int64) (*models.DriveItem, error)
}

type catalogClient interface {
	GetCourses(ctx context.Context, token string, filter integration.CourseFilter) ([]integration.Course, error)
	GetDepartment(ctx context.Context, token string, departmentID int64) (*integration.Department, error)
}

type repositoryGate interface {
	EnsureRepositoryAccess(ctx context.Context, actor *models.JWTClaims, token string, repoType models.RepositoryType, contextID int64, write bool) error
}

// departmentCategoryFolders is the fixed structure created under every
// department root.
var departmentCategoryFolders = []string{
	"Official Documents",
	"Curriculum",
	"Meeting Minutes",
	"Shared Resources",
}

const semesterCount = 4

// ProvisionService builds the initial folder structure of class and
// department repositories. Provisioning runs once per context: a second
// call always fails rather than patching up a partial first run.
type ProvisionService struct {
	items   provisionStore
	catalog catalogClient
	access  repositoryGate
	logger  *zap.Logger
}

// NewProvisionService constructs the service.
func NewProvisionService(items provisionStore, catalog catalogClient, access repositoryGate, logger *zap.Logger) *ProvisionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProvisionService{items: items, catalog: catalog, access: access, logger: logger}
}

// ProvisionClass creates the class repository structure: a locked root,
// a class info folder, four semester folders and a folder per catalog
// course. Catalog failures skip the affected course folders and keep
// going.
func (s *ProvisionService) ProvisionClass(ctx context.Context, actor *models.JWTClaims, token string, classID int64) (*dto.ProvisionResult, error) {
	if err := s.access.EnsureRepositoryAccess(ctx, actor, token, models.RepositoryClass, classID, true); err != nil {
		return nil, err
	}
	if err := s.ensureUnprovisioned(ctx, models.RepositoryClass, classID); err != nil {
		return nil, err
	}

	root, err := s.createFolder(ctx, actor, models.RepositoryClass, classID, fmt.Sprintf("Class_%d_Root", classID), nil)
	if err != nil {
		return nil, err
	}
	created := 1

	if _, err := s.createFolder(ctx, actor, models.RepositoryClass, classID, "Class Information", &root.ItemID); err != nil {
		return nil, err
	}
	created++

	for semester := 1; semester <= semesterCount; semester++ {
		folder, err := s.createFolder(ctx, actor, models.RepositoryClass, classID, fmt.Sprintf("Semester %d", semester), &root.ItemID)
		if err != nil {
			return nil, err
		}
		created++

		semesterID := int64(semester)
		courses, err := s.catalog.GetCourses(ctx, token, integration.CourseFilter{SemesterID: &semesterID})
		if err != nil {
			s.logger.Warn("course catalog unavailable, skipping course folders",
				zap.Int64("class_id", classID), zap.Int("semester", semester), zap.Error(err))
			continue
		}
		for _, course := range courses {
			name := course.Name
			if name == "" {
				name = course.Code
			}
			if name == "" {
				continue
			}
			if _, err := s.createFolder(ctx, actor, models.RepositoryClass, classID, name, &folder.ItemID); err != nil {
				return nil, err
			}
			created++
		}
	}

	s.logger.Info("class repository provisioned",
		zap.Int64("class_id", classID), zap.Int("folders", created), zap.Int64("user_id", actor.UserID))
	return &dto.ProvisionResult{RootItemID: root.ItemID, FoldersCreated: created}, nil
}

// ProvisionDepartment creates the department repository structure: a
// locked root, fixed category folders and one folder per catalog
// sub-unit.
func (s *ProvisionService) ProvisionDepartment(ctx context.Context, actor *models.JWTClaims, token string, departmentID int64) (*dto.ProvisionResult, error) {
	if err := s.access.EnsureRepositoryAccess(ctx, actor, token, models.RepositoryDepartment, departmentID, true); err != nil {
		return nil, err
	}
	if err := s.ensureUnprovisioned(ctx, models.RepositoryDepartment, departmentID); err != nil {
		return nil, err
	}

	root, err := s.createFolder(ctx, actor, models.RepositoryDepartment, departmentID, fmt.Sprintf("Department_%d_Root", departmentID), nil)
	if err != nil {
		return nil, err
	}
	created := 1

	for _, category := range departmentCategoryFolders {
		if _, err := s.createFolder(ctx, actor, models.RepositoryDepartment, departmentID, category, &root.ItemID); err != nil {
			return nil, err
		}
		created++
	}

	department, err := s.catalog.GetDepartment(ctx, token, departmentID)
	if err != nil {
		s.logger.Warn("department catalog unavailable, skipping unit folders",
			zap.Int64("department_id", departmentID), zap.Error(err))
	} else {
		for _, unit := range department.Units {
			if unit.Name == "" {
				continue
			}
			if _, err := s.createFolder(ctx, actor, models.RepositoryDepartment, departmentID, unit.Name, &root.ItemID); err != nil {
				return nil, err
			}
			created++
		}
	}

	s.logger.Info("department repository provisioned",
		zap.Int64("department_id", departmentID), zap.Int("folders", created), zap.Int64("user_id", actor.UserID))
	return &dto.ProvisionResult{RootItemID: root.ItemID, FoldersCreated: created}, nil
}

func (s *ProvisionService) ensureUnprovisioned(ctx context.Context, repoType models.RepositoryType, contextID int64) error {
	root, err := s.items.FindRepositoryRoot(ctx, repoType, contextID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing structure")
	}
	if root != nil {
		return appErrors.ErrAlreadyProvisioned
	}
	return nil
}

func (s *ProvisionService) createFolder(ctx context.Context, actor *models.JWTClaims, repoType models.RepositoryType, contextID int64, name string, parentID *string) (*models.DriveItem, error) {
	item := &models.DriveItem{
		Name:                name,
		ItemType:            models.ItemTypeFolder,
		OwnerID:             actor.UserID,
		OwnerType:           models.OwnerTypeForRole(actor.Role),
		ParentID:            parentID,
		RepositoryType:      repoType,
		RepositoryContextID: &contextID,
		IsSystemGenerated:   true,
		IsLocked:            true,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("failed to create folder %q", name))
	}
	return item, nil
}
