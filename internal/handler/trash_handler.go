package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
	"github.com/noah-isme/campus-drive-api/pkg/response"
)

type trashService interface {
	Trash(ctx context.Context, actor *models.JWTClaims, token, itemID string) (*models.DriveItem, error)
	List(ctx context.Context, actor *models.JWTClaims) ([]models.DriveItem, error)
	Restore(ctx context.Context, actor *models.JWTClaims, itemID string) (*models.DriveItem, error)
	Purge(ctx context.Context, actor *models.JWTClaims, itemID string) error
	EmptyTrash(ctx context.Context, actor *models.JWTClaims) (int, error)
}

// TrashHandler manages trash HTTP endpoints.
type TrashHandler struct {
	service trashService
}

// NewTrashHandler constructs the handler.
func NewTrashHandler(service trashService) *TrashHandler {
	return &TrashHandler{service: service}
}

// Trash godoc
// @Summary Move an item and its subtree to trash
// @Tags Trash
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /drive/items/{id}/trash [post]
func (h *TrashHandler) Trash(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	item, err := h.service.Trash(c.Request.Context(), claims, tokenFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// List godoc
// @Summary List the caller's trashed items
// @Tags Trash
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /drive/trash [get]
func (h *TrashHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.service.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Restore godoc
// @Summary Restore a trashed item and its subtree
// @Tags Trash
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /drive/trash/{id}/restore [post]
func (h *TrashHandler) Restore(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	item, err := h.service.Restore(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Purge godoc
// @Summary Permanently delete a trashed item and its subtree
// @Tags Trash
// @Produce json
// @Param id path string true "Item ID"
// @Success 204
// @Router /drive/trash/{id} [delete]
func (h *TrashHandler) Purge(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Purge(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Empty godoc
// @Summary Permanently delete everything in the caller's trash
// @Tags Trash
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /drive/trash [delete]
func (h *TrashHandler) Empty(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	purged, err := h.service.EmptyTrash(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"purged_subtrees": purged}, nil)
}
