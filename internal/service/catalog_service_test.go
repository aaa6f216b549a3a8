package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-drive-api/internal/integration"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
)

func TestCatalogServiceMyClasses(t *testing.T) {
	catalog := newCatalogStub()
	catalog.classes[7] = []integration.ClassSummary{{ID: 31, ClassName: "SE-2023A"}}
	svc := NewCatalogService(catalog, nil)
	ctx := context.Background()

	classes, err := svc.MyClasses(ctx, lecturerClaims(7, nil), "tok")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	require.Equal(t, int64(31), classes[0].ID)

	// A lecturer without assignments gets an empty list, not an error.
	classes, err = svc.MyClasses(ctx, lecturerClaims(8, nil), "tok")
	require.NoError(t, err)
	require.Empty(t, classes)

	_, err = svc.MyClasses(ctx, studentClaims(1), "tok")
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	catalog.classesErr = errors.New("gateway timeout")
	_, err = svc.MyClasses(ctx, lecturerClaims(7, nil), "tok")
	require.True(t, appErrors.Is(err, appErrors.ErrInternal))
}

func TestCatalogServiceMyDepartment(t *testing.T) {
	catalog := newCatalogStub()
	catalog.departments[3] = &integration.Department{ID: 3, Name: "Informatics", Units: []integration.Unit{{ID: 1, Name: "Networks"}}}
	svc := NewCatalogService(catalog, nil)
	ctx := context.Background()

	department, err := svc.MyDepartment(ctx, lecturerClaims(7, i64ptr(3)), "tok")
	require.NoError(t, err)
	require.Equal(t, "Informatics", department.Name)
	require.Len(t, department.Units, 1)

	_, err = svc.MyDepartment(ctx, lecturerClaims(7, nil), "tok")
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.MyDepartment(ctx, lecturerClaims(7, i64ptr(99)), "tok")
	require.True(t, appErrors.Is(err, appErrors.ErrInternal))
}
