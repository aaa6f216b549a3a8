package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-drive-api/internal/integration"
	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
)

func newProvisionFixture(roster *rosterStub, catalog *catalogStub) (*ProvisionService, *itemStoreStub) {
	items := newItemStoreStub()
	access := NewAccessService(newShareStoreStub(), roster, nil, 0, nil)
	return NewProvisionService(items, catalog, access, nil), items
}

func TestProvisionClassStructure(t *testing.T) {
	catalog := newCatalogStub()
	catalog.courses[1] = []integration.Course{{ID: 1, Name: "Programming Basics"}, {ID: 2, Name: "Discrete Math"}}
	catalog.courses[3] = []integration.Course{{ID: 3, Name: "Databases"}}
	svc, items := newProvisionFixture(newRosterStub(), catalog)
	ctx := context.Background()

	result, err := svc.ProvisionClass(ctx, adminClaims(1), "tok", 5)
	require.NoError(t, err)
	// root + info + 4 semesters + 3 course folders
	require.Equal(t, 9, result.FoldersCreated)

	root, err := items.FindRepositoryRoot(ctx, models.RepositoryClass, 5)
	require.NoError(t, err)
	require.NotNil(t, root)
	require.Equal(t, "Class_5_Root", root.Name)
	require.True(t, root.IsLocked)
	require.True(t, root.IsSystemGenerated)

	children, err := items.ListByRepository(ctx, models.RepositoryClass, 5, &root.ItemID)
	require.NoError(t, err)
	require.Len(t, children, 5)

	_, err = svc.ProvisionClass(ctx, adminClaims(1), "tok", 5)
	require.True(t, appErrors.Is(err, appErrors.ErrAlreadyProvisioned))
}

func TestProvisionClassToleratesCatalogOutage(t *testing.T) {
	catalog := newCatalogStub()
	catalog.coursesErr = errors.New("catalog down")
	svc, _ := newProvisionFixture(newRosterStub(), catalog)

	result, err := svc.ProvisionClass(context.Background(), adminClaims(1), "tok", 7)
	require.NoError(t, err)
	require.Equal(t, 6, result.FoldersCreated)
}

func TestProvisionClassRequiresTeachingLecturer(t *testing.T) {
	roster := newRosterStub()
	roster.allow(10, 5)
	svc, _ := newProvisionFixture(roster, newCatalogStub())
	ctx := context.Background()

	_, err := svc.ProvisionClass(ctx, lecturerClaims(11, nil), "tok", 5)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.ProvisionClass(ctx, lecturerClaims(10, nil), "tok", 5)
	require.NoError(t, err)
}

func TestProvisionDepartmentStructure(t *testing.T) {
	catalog := newCatalogStub()
	catalog.departments[3] = &integration.Department{
		ID: 3, Name: "Information Technology",
		Units: []integration.Unit{{ID: 1, Name: "Software Engineering"}, {ID: 2, Name: "Networks"}},
	}
	svc, items := newProvisionFixture(newRosterStub(), catalog)
	ctx := context.Background()

	result, err := svc.ProvisionDepartment(ctx, lecturerClaims(10, i64ptr(3)), "tok", 3)
	require.NoError(t, err)
	// root + 4 categories + 2 units
	require.Equal(t, 7, result.FoldersCreated)

	root, err := items.FindRepositoryRoot(ctx, models.RepositoryDepartment, 3)
	require.NoError(t, err)
	require.NotNil(t, root)
	require.Equal(t, "Department_3_Root", root.Name)

	_, err = svc.ProvisionDepartment(ctx, lecturerClaims(11, i64ptr(4)), "tok", 3)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
