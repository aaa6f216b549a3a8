package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-drive-api/internal/dto"
	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
	"github.com/noah-isme/campus-drive-api/pkg/export"
)

func newSigningFixture() (*SigningService, *itemStoreStub, *signingStoreStub, *byteStoreStub, *notifierStub) {
	items := newItemStoreStub()
	requests := newSigningStoreStub()
	store := newByteStoreStub()
	notifier := &notifierStub{}
	svc := NewSigningService(requests, items, export.NewApprovalPDFExporter(), store, notifier, "signing", nil)
	return svc, items, requests, store, notifier
}

func seedPDF(items *itemStoreStub, ownerID int64) *models.DriveItem {
	return items.add(&models.DriveItem{
		Name: "contract.pdf", ItemType: models.ItemTypeFile, OwnerID: ownerID,
		Metadata: &models.FileMetadata{MimeType: "application/pdf", StoragePath: "personal/1/contract.pdf"},
	})
}

func TestSigningServiceCreateValidation(t *testing.T) {
	svc, items, _, _, _ := newSigningFixture()
	ctx := context.Background()
	owner := studentClaims(1)

	pdf := seedPDF(items, 1)
	request, err := svc.Create(ctx, owner, dto.CreateSigningRequest{DriveItemID: pdf.ItemID})
	require.NoError(t, err)
	require.Equal(t, models.SigningDraft, request.Status)

	// One active request per item.
	_, err = svc.Create(ctx, owner, dto.CreateSigningRequest{DriveItemID: pdf.ItemID})
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))

	text := items.add(&models.DriveItem{
		Name: "notes.txt", ItemType: models.ItemTypeFile, OwnerID: 1,
		Metadata: &models.FileMetadata{MimeType: "text/plain", StoragePath: "personal/1/notes.txt"},
	})
	_, err = svc.Create(ctx, owner, dto.CreateSigningRequest{DriveItemID: text.ItemID})
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(ctx, studentClaims(2), dto.CreateSigningRequest{DriveItemID: pdf.ItemID})
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSigningServiceCreateLosesInsertRace(t *testing.T) {
	svc, items, requests, _, _ := newSigningFixture()
	ctx := context.Background()
	owner := studentClaims(1)
	pdf := seedPDF(items, 1)

	_, err := svc.Create(ctx, owner, dto.CreateSigningRequest{DriveItemID: pdf.ItemID})
	require.NoError(t, err)

	// A second create that slips past the pre-check still loses at the
	// insert and surfaces as a conflict.
	requests.staleReads = true
	_, err = svc.Create(ctx, owner, dto.CreateSigningRequest{DriveItemID: pdf.ItemID})
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
	require.Len(t, requests.requests, 1)
}

func TestSigningServiceSubmitFlow(t *testing.T) {
	svc, items, _, _, _ := newSigningFixture()
	ctx := context.Background()
	owner := studentClaims(1)
	pdf := seedPDF(items, 1)

	request, err := svc.Create(ctx, owner, dto.CreateSigningRequest{DriveItemID: pdf.ItemID})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, studentClaims(2), request.RequestID)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	submitted, err := svc.Submit(ctx, owner, request.RequestID)
	require.NoError(t, err)
	require.Equal(t, models.SigningPending, submitted.Status)

	_, err = svc.Submit(ctx, owner, request.RequestID)
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
}

func TestSigningServiceApprove(t *testing.T) {
	svc, items, requests, store, notifier := newSigningFixture()
	ctx := context.Background()
	owner := studentClaims(1)
	admin := adminClaims(9)
	pdf := seedPDF(items, 1)

	request, err := svc.Create(ctx, owner, dto.CreateSigningRequest{DriveItemID: pdf.ItemID})
	require.NoError(t, err)

	// Approval requires PENDING.
	_, err = svc.Approve(ctx, admin, "tok", request.RequestID, dto.DecideSigningRequest{})
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))

	_, err = svc.Submit(ctx, owner, request.RequestID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, owner, "tok", request.RequestID, dto.DecideSigningRequest{})
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	approved, err := svc.Approve(ctx, admin, "tok", request.RequestID, dto.DecideSigningRequest{Comment: "looks good"})
	require.NoError(t, err)
	require.Equal(t, models.SigningApproved, approved.Status)
	require.Equal(t, int64(9), *approved.ApproverID)
	require.NotNil(t, approved.ApprovedAt)
	require.NotNil(t, approved.SignedFilePath)
	require.Contains(t, store.saved, *approved.SignedFilePath)
	require.Len(t, notifier.users, 1)
	require.Equal(t, int64(1), notifier.users[0].UserID)

	// Terminal states accept no further decisions.
	_, err = svc.Approve(ctx, admin, "tok", request.RequestID, dto.DecideSigningRequest{})
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))

	stored, err := requests.GetByID(ctx, request.RequestID)
	require.NoError(t, err)
	require.Equal(t, models.SigningApproved, stored.Status)
}

func TestSigningServiceReject(t *testing.T) {
	svc, items, _, _, notifier := newSigningFixture()
	ctx := context.Background()
	owner := studentClaims(1)
	admin := adminClaims(9)
	pdf := seedPDF(items, 1)

	request, err := svc.Create(ctx, owner, dto.CreateSigningRequest{DriveItemID: pdf.ItemID})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, owner, request.RequestID)
	require.NoError(t, err)

	_, err = svc.Reject(ctx, admin, "tok", request.RequestID, dto.DecideSigningRequest{})
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	rejected, err := svc.Reject(ctx, admin, "tok", request.RequestID, dto.DecideSigningRequest{Comment: "missing signature page"})
	require.NoError(t, err)
	require.Equal(t, models.SigningRejected, rejected.Status)
	require.Equal(t, "missing signature page", *rejected.AdminComment)
	require.Len(t, notifier.users, 1)
}

func TestSigningServiceListing(t *testing.T) {
	svc, items, _, _, _ := newSigningFixture()
	ctx := context.Background()
	owner := studentClaims(1)
	admin := adminClaims(9)
	pdf := seedPDF(items, 1)

	request, err := svc.Create(ctx, owner, dto.CreateSigningRequest{DriveItemID: pdf.ItemID})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, owner, request.RequestID)
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = svc.ListPending(ctx, owner)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	pending, err := svc.ListPending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = svc.Get(ctx, studentClaims(2), request.RequestID)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	got, err := svc.Get(ctx, admin, request.RequestID)
	require.NoError(t, err)
	require.Equal(t, request.RequestID, got.RequestID)
}
