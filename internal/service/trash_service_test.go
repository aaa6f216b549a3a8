package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
)

func newTrashFixture() (*TrashService, *itemStoreStub, *byteStoreStub) {
	items := newItemStoreStub()
	store := newByteStoreStub()
	access := NewAccessService(newShareStoreStub(), newRosterStub(), nil, 0, nil)
	return NewTrashService(items, access, store, nil), items, store
}

func seedTree(items *itemStoreStub, ownerID int64) (root, child, file *models.DriveItem) {
	root = items.add(&models.DriveItem{Name: "Projects", ItemType: models.ItemTypeFolder, OwnerID: ownerID})
	child = items.add(&models.DriveItem{Name: "Archive", ItemType: models.ItemTypeFolder, OwnerID: ownerID, ParentID: &root.ItemID})
	file = items.add(&models.DriveItem{
		Name: "report.pdf", ItemType: models.ItemTypeFile, OwnerID: ownerID, ParentID: &child.ItemID,
		Metadata: &models.FileMetadata{MimeType: "application/pdf", StoragePath: "personal/1/report.pdf"},
	})
	return root, child, file
}

func TestTrashServiceCascades(t *testing.T) {
	svc, items, _ := newTrashFixture()
	ctx := context.Background()
	owner := studentClaims(1)
	root, child, file := seedTree(items, 1)

	trashed, err := svc.Trash(ctx, owner, "tok", root.ItemID)
	require.NoError(t, err)
	require.True(t, trashed.IsTrashed)
	require.NotNil(t, trashed.TrashedAt)

	for _, id := range []string{root.ItemID, child.ItemID, file.ItemID} {
		got, err := items.GetByID(ctx, id)
		require.NoError(t, err)
		require.True(t, got.IsTrashed)
	}

	_, err = svc.Trash(ctx, owner, "tok", root.ItemID)
	require.True(t, appErrors.Is(err, appErrors.ErrAlreadyTrashed))
}

func TestTrashServiceRestoreInPlace(t *testing.T) {
	svc, items, _ := newTrashFixture()
	ctx := context.Background()
	owner := studentClaims(1)
	root, child, file := seedTree(items, 1)

	_, err := svc.Trash(ctx, owner, "tok", root.ItemID)
	require.NoError(t, err)

	restored, err := svc.Restore(ctx, owner, root.ItemID)
	require.NoError(t, err)
	require.False(t, restored.IsTrashed)

	for _, id := range []string{child.ItemID, file.ItemID} {
		got, err := items.GetByID(ctx, id)
		require.NoError(t, err)
		require.False(t, got.IsTrashed)
	}

	_, err = svc.Restore(ctx, owner, root.ItemID)
	require.True(t, appErrors.Is(err, appErrors.ErrNotTrashed))
}

func TestTrashServiceRestoreReparentsWhenParentTrashed(t *testing.T) {
	svc, items, _ := newTrashFixture()
	ctx := context.Background()
	owner := studentClaims(1)
	root, child, file := seedTree(items, 1)

	_, err := svc.Trash(ctx, owner, "tok", root.ItemID)
	require.NoError(t, err)

	// Restoring the child while its parent stays trashed moves it to root.
	restored, err := svc.Restore(ctx, owner, child.ItemID)
	require.NoError(t, err)
	require.Nil(t, restored.ParentID)
	require.False(t, restored.IsTrashed)

	gotFile, err := items.GetByID(ctx, file.ItemID)
	require.NoError(t, err)
	require.False(t, gotFile.IsTrashed)

	gotRoot, err := items.GetByID(ctx, root.ItemID)
	require.NoError(t, err)
	require.True(t, gotRoot.IsTrashed)
}

func TestTrashServiceRestoreBlocksOnNameConflict(t *testing.T) {
	svc, items, _ := newTrashFixture()
	ctx := context.Background()
	owner := studentClaims(1)
	root, _, _ := seedTree(items, 1)

	_, err := svc.Trash(ctx, owner, "tok", root.ItemID)
	require.NoError(t, err)

	items.add(&models.DriveItem{Name: "Projects", ItemType: models.ItemTypeFolder, OwnerID: 1})

	_, err = svc.Restore(ctx, owner, root.ItemID)
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestTrashServicePurgeRemovesRowsAndBytes(t *testing.T) {
	svc, items, store := newTrashFixture()
	ctx := context.Background()
	owner := studentClaims(1)
	root, child, file := seedTree(items, 1)

	err := svc.Purge(ctx, owner, root.ItemID)
	require.True(t, appErrors.Is(err, appErrors.ErrNotTrashed))

	_, err = svc.Trash(ctx, owner, "tok", root.ItemID)
	require.NoError(t, err)
	require.NoError(t, svc.Purge(ctx, owner, root.ItemID))

	for _, id := range []string{root.ItemID, child.ItemID, file.ItemID} {
		_, err := items.GetByID(ctx, id)
		require.Error(t, err)
	}
	require.Contains(t, store.deleted, "personal/1/report.pdf")
}

func TestTrashServicePurgeRemovesBytesBeforeRows(t *testing.T) {
	svc, items, store := newTrashFixture()
	ctx := context.Background()
	owner := studentClaims(1)
	root, child, file := seedTree(items, 1)

	_, err := svc.Trash(ctx, owner, "tok", root.ItemID)
	require.NoError(t, err)

	// A byte-store failure aborts the purge; the rows must survive so the
	// subtree stays purgeable.
	store.deleteErr = errors.New("disk detached")
	err = svc.Purge(ctx, owner, root.ItemID)
	require.True(t, appErrors.Is(err, appErrors.ErrInternal))
	for _, id := range []string{root.ItemID, child.ItemID, file.ItemID} {
		got, err := items.GetByID(ctx, id)
		require.NoError(t, err)
		require.True(t, got.IsTrashed)
	}

	store.deleteErr = nil
	require.NoError(t, svc.Purge(ctx, owner, root.ItemID))
	require.Contains(t, store.deleted, "personal/1/report.pdf")
	_, err = items.GetByID(ctx, root.ItemID)
	require.Error(t, err)
}

func TestTrashServiceEmptyTrash(t *testing.T) {
	svc, items, _ := newTrashFixture()
	ctx := context.Background()
	owner := studentClaims(1)
	root, _, _ := seedTree(items, 1)
	other := items.add(&models.DriveItem{Name: "loose.txt", ItemType: models.ItemTypeFile, OwnerID: 1})

	_, err := svc.Trash(ctx, owner, "tok", root.ItemID)
	require.NoError(t, err)
	_, err = svc.Trash(ctx, owner, "tok", other.ItemID)
	require.NoError(t, err)

	purged, err := svc.EmptyTrash(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 2, purged)

	remaining, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestTrashServiceForcePurge(t *testing.T) {
	svc, items, store := newTrashFixture()
	ctx := context.Background()
	root, child, file := seedTree(items, 1)

	// Only admins may delete without the trash detour.
	err := svc.ForcePurge(ctx, studentClaims(1), root.ItemID)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	require.NoError(t, svc.ForcePurge(ctx, adminClaims(9), root.ItemID))
	for _, id := range []string{root.ItemID, child.ItemID, file.ItemID} {
		_, err := items.GetByID(ctx, id)
		require.Error(t, err)
	}
	require.Contains(t, store.deleted, "personal/1/report.pdf")

	err = svc.ForcePurge(ctx, adminClaims(9), root.ItemID)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestTrashServiceForeignItemsStayHidden(t *testing.T) {
	svc, items, _ := newTrashFixture()
	ctx := context.Background()
	root, _, _ := seedTree(items, 1)

	_, err := svc.Trash(ctx, studentClaims(2), "tok", root.ItemID)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
