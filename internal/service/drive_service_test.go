package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-drive-api/internal/dto"
	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
	"github.com/noah-isme/campus-drive-api/pkg/storage"
)

func newDriveServiceForTest(items *itemStoreStub, shares *shareStoreStub, store *byteStoreStub) *DriveService {
	items.grants = shares
	access := NewAccessService(shares, newRosterStub(), nil, 0, nil)
	signer := storage.NewSignedURLSigner("test-secret", 15*time.Minute)
	return NewDriveService(items, shares, access, store, signer, 1024*1024, nil)
}

func multipartFileHeader(t *testing.T, fieldName, fileName string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(1024 * 1024)
	require.NoError(t, err)
	files := form.File[fieldName]
	require.Len(t, files, 1)
	return files[0]
}

func TestDriveServiceCreateFolder(t *testing.T) {
	items := newItemStoreStub()
	svc := newDriveServiceForTest(items, newShareStoreStub(), newByteStoreStub())
	ctx := context.Background()
	owner := studentClaims(1)

	folder, err := svc.CreateFolder(ctx, owner, "tok", dto.CreateFolderRequest{Name: "Homework"})
	require.NoError(t, err)
	require.Equal(t, models.ItemTypeFolder, folder.ItemType)
	require.Equal(t, models.RepositoryPersonal, folder.RepositoryType)

	_, err = svc.CreateFolder(ctx, owner, "tok", dto.CreateFolderRequest{Name: "Homework"})
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))

	nested, err := svc.CreateFolder(ctx, owner, "tok", dto.CreateFolderRequest{Name: "Week 1", ParentID: &folder.ItemID})
	require.NoError(t, err)
	require.Equal(t, folder.ItemID, *nested.ParentID)
}

func TestDriveServiceRejectsUnsafeNames(t *testing.T) {
	svc := newDriveServiceForTest(newItemStoreStub(), newShareStoreStub(), newByteStoreStub())
	ctx := context.Background()

	for _, name := range []string{"", "a/b", "..", "back\\slash"} {
		_, err := svc.CreateFolder(ctx, studentClaims(1), "tok", dto.CreateFolderRequest{Name: name})
		require.True(t, appErrors.Is(err, appErrors.ErrValidation), "name %q", name)
	}
}

func TestDriveServiceUploadAndDownloadLink(t *testing.T) {
	items := newItemStoreStub()
	store := newByteStoreStub()
	svc := newDriveServiceForTest(items, newShareStoreStub(), store)
	ctx := context.Background()
	owner := studentClaims(1)

	header := multipartFileHeader(t, "file", "notes.pdf", []byte("%PDF-1.4"))
	item, err := svc.UploadFile(ctx, owner, "tok", header, nil)
	require.NoError(t, err)
	require.Equal(t, models.ItemTypeFile, item.ItemType)
	require.Equal(t, "notes.pdf", item.Name)
	require.Len(t, store.saved, 1)

	link, err := svc.DownloadLink(ctx, owner, "tok", item.ItemID)
	require.NoError(t, err)
	require.Contains(t, link.DownloadURL, "token=")
	require.True(t, link.ExpiresAt.After(time.Now()))

	_, err = svc.DownloadLink(ctx, studentClaims(2), "tok", item.ItemID)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDriveServiceReplaceFileBumpsVersion(t *testing.T) {
	items := newItemStoreStub()
	store := newByteStoreStub()
	svc := newDriveServiceForTest(items, newShareStoreStub(), store)
	ctx := context.Background()
	owner := studentClaims(1)

	header := multipartFileHeader(t, "file", "notes.pdf", []byte("%PDF-1.4 v1"))
	item, err := svc.UploadFile(ctx, owner, "tok", header, nil)
	require.NoError(t, err)

	header = multipartFileHeader(t, "file", "notes.pdf", []byte("%PDF-1.4 version two"))
	replaced, err := svc.ReplaceFile(ctx, owner, "tok", item.ItemID, header)
	require.NoError(t, err)
	require.Equal(t, 2, replaced.Metadata.Version)
	require.Equal(t, int64(len("%PDF-1.4 version two")), replaced.Metadata.SizeBytes)
	// Content is overwritten at the original path.
	require.Len(t, store.saved, 1)

	header = multipartFileHeader(t, "file", "notes.pdf", []byte("x"))
	_, err = svc.ReplaceFile(ctx, studentClaims(2), "tok", item.ItemID, header)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	folder, err := svc.CreateFolder(ctx, owner, "tok", dto.CreateFolderRequest{Name: "Docs"})
	require.NoError(t, err)
	header = multipartFileHeader(t, "file", "notes.pdf", []byte("x"))
	_, err = svc.ReplaceFile(ctx, owner, "tok", folder.ItemID, header)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestDriveServiceUploadRejectsOversize(t *testing.T) {
	items := newItemStoreStub()
	access := NewAccessService(newShareStoreStub(), newRosterStub(), nil, 0, nil)
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	svc := NewDriveService(items, newShareStoreStub(), access, newByteStoreStub(), signer, 4, nil)

	header := multipartFileHeader(t, "file", "big.bin", []byte("too large"))
	_, err := svc.UploadFile(context.Background(), studentClaims(1), "tok", header, nil)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestDriveServiceUpdateItemMoveAndRename(t *testing.T) {
	items := newItemStoreStub()
	svc := newDriveServiceForTest(items, newShareStoreStub(), newByteStoreStub())
	ctx := context.Background()
	owner := studentClaims(1)

	parent, err := svc.CreateFolder(ctx, owner, "tok", dto.CreateFolderRequest{Name: "Parent"})
	require.NoError(t, err)
	child, err := svc.CreateFolder(ctx, owner, "tok", dto.CreateFolderRequest{Name: "Child", ParentID: &parent.ItemID})
	require.NoError(t, err)

	renamed, err := svc.UpdateItem(ctx, owner, "tok", child.ItemID, dto.UpdateItemRequest{Name: sptr("Renamed")})
	require.NoError(t, err)
	require.Equal(t, "Renamed", renamed.Name)

	// A folder cannot be moved into its own subtree.
	_, err = svc.UpdateItem(ctx, owner, "tok", parent.ItemID, dto.UpdateItemRequest{NewParentID: &child.ItemID})
	require.True(t, appErrors.Is(err, appErrors.ErrFolderCycle))

	_, err = svc.UpdateItem(ctx, owner, "tok", parent.ItemID, dto.UpdateItemRequest{NewParentID: &parent.ItemID})
	require.True(t, appErrors.Is(err, appErrors.ErrFolderCycle))

	moved, err := svc.UpdateItem(ctx, owner, "tok", child.ItemID, dto.UpdateItemRequest{MoveToRoot: true})
	require.NoError(t, err)
	require.Nil(t, moved.ParentID)

	_, err = svc.UpdateItem(ctx, owner, "tok", child.ItemID, dto.UpdateItemRequest{Name: sptr("Parent")})
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestDriveServiceSharing(t *testing.T) {
	items := newItemStoreStub()
	shares := newShareStoreStub()
	svc := newDriveServiceForTest(items, shares, newByteStoreStub())
	ctx := context.Background()
	owner := studentClaims(1)
	grantee := studentClaims(2)

	folder, err := svc.CreateFolder(ctx, owner, "tok", dto.CreateFolderRequest{Name: "Shared"})
	require.NoError(t, err)

	_, err = svc.Share(ctx, owner, "tok", folder.ItemID, dto.ShareItemRequest{SharedWithUserID: 1, Level: models.ShareViewer})
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	share, err := svc.Share(ctx, owner, "tok", folder.ItemID, dto.ShareItemRequest{SharedWithUserID: 2, Level: models.ShareEditor})
	require.NoError(t, err)
	require.Equal(t, models.ShareEditor, share.Level)

	got, err := svc.GetItem(ctx, grantee, "tok", folder.ItemID)
	require.NoError(t, err)
	require.Equal(t, folder.ItemID, got.ItemID)

	listed, err := svc.ListShares(ctx, owner, "tok", folder.ItemID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, svc.Unshare(ctx, owner, "tok", folder.ItemID, 2))
	_, err = svc.GetItem(ctx, grantee, "tok", folder.ItemID)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDriveServiceSharedWithMe(t *testing.T) {
	items := newItemStoreStub()
	shares := newShareStoreStub()
	svc := newDriveServiceForTest(items, shares, newByteStoreStub())
	ctx := context.Background()
	owner := studentClaims(1)
	grantee := studentClaims(2)

	folder, err := svc.CreateFolder(ctx, owner, "tok", dto.CreateFolderRequest{Name: "Project"})
	require.NoError(t, err)
	_, err = svc.Share(ctx, owner, "tok", folder.ItemID, dto.ShareItemRequest{SharedWithUserID: 2, Level: models.ShareViewer})
	require.NoError(t, err)

	listed, err := svc.SharedWithMe(ctx, grantee)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, folder.ItemID, listed[0].ItemID)

	// The owner's own listing stays empty; grants are not self-referential.
	mine, err := svc.SharedWithMe(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, mine)
}

func TestDriveServiceResolveDownloadRejectsBadToken(t *testing.T) {
	svc := newDriveServiceForTest(newItemStoreStub(), newShareStoreStub(), newByteStoreStub())
	_, _, err := svc.ResolveDownload(context.Background(), "not.a.valid.token")
	require.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
