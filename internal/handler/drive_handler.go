package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-drive-api/internal/dto"
	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
	"github.com/noah-isme/campus-drive-api/pkg/response"
)

type driveService interface {
	CreateFolder(ctx context.Context, actor *models.JWTClaims, token string, req dto.CreateFolderRequest) (*models.DriveItem, error)
	UploadFile(ctx context.Context, actor *models.JWTClaims, token string, header *multipart.FileHeader, parentID *string) (*models.DriveItem, error)
	ReplaceFile(ctx context.Context, actor *models.JWTClaims, token, itemID string, header *multipart.FileHeader) (*models.DriveItem, error)
	GetItem(ctx context.Context, actor *models.JWTClaims, token, itemID string) (*models.DriveItem, error)
	ListChildren(ctx context.Context, actor *models.JWTClaims, token string, parentID *string) ([]models.DriveItem, error)
	UpdateItem(ctx context.Context, actor *models.JWTClaims, token, itemID string, req dto.UpdateItemRequest) (*models.DriveItem, error)
	Share(ctx context.Context, actor *models.JWTClaims, token, itemID string, req dto.ShareItemRequest) (*models.SharePermission, error)
	ListShares(ctx context.Context, actor *models.JWTClaims, token, itemID string) ([]models.SharePermission, error)
	Unshare(ctx context.Context, actor *models.JWTClaims, token, itemID string, userID int64) error
	Search(ctx context.Context, actor *models.JWTClaims, query dto.SearchItemsQuery) ([]models.DriveItem, error)
	SharedWithMe(ctx context.Context, actor *models.JWTClaims) ([]models.DriveItem, error)
	DownloadLink(ctx context.Context, actor *models.JWTClaims, token, itemID string) (*dto.DownloadLinkResponse, error)
	ResolveDownload(ctx context.Context, token string) (*models.DriveItem, *os.File, error)
}

// DriveHandler manages personal drive HTTP endpoints.
type DriveHandler struct {
	service driveService
}

// NewDriveHandler constructs the handler.
func NewDriveHandler(service driveService) *DriveHandler {
	return &DriveHandler{service: service}
}

// CreateFolder godoc
// @Summary Create a folder in the personal drive
// @Tags Drive
// @Accept json
// @Produce json
// @Param payload body dto.CreateFolderRequest true "Folder"
// @Success 201 {object} response.Envelope
// @Router /drive/folders [post]
func (h *DriveHandler) CreateFolder(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid folder payload"))
		return
	}
	item, err := h.service.CreateFolder(c.Request.Context(), claims, tokenFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Upload godoc
// @Summary Upload a file into the personal drive
// @Tags Drive
// @Accept multipart/form-data
// @Produce json
// @Param parent_id formData string false "Parent folder ID"
// @Param file formData file true "File"
// @Success 201 {object} response.Envelope
// @Router /drive/files [post]
func (h *DriveHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UploadFileRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid upload payload"))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	item, err := h.service.UploadFile(c.Request.Context(), claims, tokenFromContext(c), header, req.ParentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// ReplaceContent godoc
// @Summary Replace a file's content, keeping its identity and shares
// @Tags Drive
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Item ID"
// @Param file formData file true "New content"
// @Success 200 {object} response.Envelope
// @Router /drive/items/{id}/content [put]
func (h *DriveHandler) ReplaceContent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	item, err := h.service.ReplaceFile(c.Request.Context(), claims, tokenFromContext(c), c.Param("id"), header)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Get godoc
// @Summary Get one drive item
// @Tags Drive
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /drive/items/{id} [get]
func (h *DriveHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	item, err := h.service.GetItem(c.Request.Context(), claims, tokenFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// List godoc
// @Summary List drive items under a folder
// @Tags Drive
// @Produce json
// @Param parent_id query string false "Parent folder ID; omit for the drive root"
// @Success 200 {object} response.Envelope
// @Router /drive/items [get]
func (h *DriveHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var parentID *string
	if raw := strings.TrimSpace(c.Query("parent_id")); raw != "" {
		parentID = &raw
	}
	items, err := h.service.ListChildren(c.Request.Context(), claims, tokenFromContext(c), parentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Update godoc
// @Summary Rename or move a drive item
// @Tags Drive
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param payload body dto.UpdateItemRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /drive/items/{id} [patch]
func (h *DriveHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid update payload"))
		return
	}
	item, err := h.service.UpdateItem(c.Request.Context(), claims, tokenFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Share godoc
// @Summary Share a drive item with another user
// @Tags Drive
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param payload body dto.ShareItemRequest true "Grant"
// @Success 201 {object} response.Envelope
// @Router /drive/items/{id}/shares [post]
func (h *DriveHandler) Share(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ShareItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid share payload"))
		return
	}
	share, err := h.service.Share(c.Request.Context(), claims, tokenFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, share)
}

// ListShares godoc
// @Summary List grants on a drive item
// @Tags Drive
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /drive/items/{id}/shares [get]
func (h *DriveHandler) ListShares(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	shares, err := h.service.ListShares(c.Request.Context(), claims, tokenFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shares, nil)
}

// Unshare godoc
// @Summary Revoke a grant on a drive item
// @Tags Drive
// @Produce json
// @Param id path string true "Item ID"
// @Param userId path int true "User ID"
// @Success 204
// @Router /drive/items/{id}/shares/{userId} [delete]
func (h *DriveHandler) Unshare(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid user id"))
		return
	}
	if err := h.service.Unshare(c.Request.Context(), claims, tokenFromContext(c), c.Param("id"), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Search godoc
// @Summary Search accessible drive items
// @Tags Drive
// @Produce json
// @Param q query string false "Name fragment"
// @Param item_type query string false "FILE or FOLDER"
// @Param mime_type query string false "MIME type filter"
// @Success 200 {object} response.Envelope
// @Router /drive/search [get]
func (h *DriveHandler) Search(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.SearchItemsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid search query"))
		return
	}
	items, err := h.service.Search(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// SharedWithMe godoc
// @Summary List items other users shared with the caller
// @Tags Drive
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /drive/shared-with-me [get]
func (h *DriveHandler) SharedWithMe(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.service.SharedWithMe(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// DownloadLink godoc
// @Summary Issue a time-limited download URL for a file
// @Tags Drive
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /drive/items/{id}/download-link [get]
func (h *DriveHandler) DownloadLink(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	link, err := h.service.DownloadLink(c.Request.Context(), claims, tokenFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Download godoc
// @Summary Download file content via signed token
// @Tags Drive
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /drive/download [get]
func (h *DriveHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	item, file, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	mimeType := "application/octet-stream"
	var size int64
	if item.Metadata != nil {
		if item.Metadata.MimeType != "" {
			mimeType = item.Metadata.MimeType
		}
		size = item.Metadata.SizeBytes
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", item.Name))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, size, mimeType, file, nil)
}
