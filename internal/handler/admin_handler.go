package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-drive-api/internal/models"
	"github.com/noah-isme/campus-drive-api/internal/service"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
	"github.com/noah-isme/campus-drive-api/pkg/response"
)

type adminItemStore interface {
	AdminList(ctx context.Context, limit, offset int) ([]models.DriveItem, error)
	ListChildren(ctx context.Context, ownerID int64, parentID *string) ([]models.DriveItem, error)
}

type adminUserStore interface {
	GetByID(ctx context.Context, userID int64) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type adminPurger interface {
	ForcePurge(ctx context.Context, actor *models.JWTClaims, itemID string) error
}

// AdminHandler serves administrator-only inspection and cleanup endpoints.
type AdminHandler struct {
	items   adminItemStore
	users   adminUserStore
	trash   adminPurger
	metrics *service.MetricsService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(items adminItemStore, users adminUserStore, trash adminPurger, metrics *service.MetricsService) *AdminHandler {
	return &AdminHandler{items: items, users: users, trash: trash, metrics: metrics}
}

// ListItems godoc
// @Summary List all drive items across owners
// @Tags Admin
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /admin/items [get]
func (h *AdminHandler) ListItems(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.items.AdminList(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items"))
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// DeleteItem godoc
// @Summary Permanently delete any item and its subtree
// @Tags Admin
// @Produce json
// @Param id path string true "Item ID"
// @Success 204
// @Router /admin/items/{id} [delete]
func (h *AdminHandler) DeleteItem(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.trash.ForcePurge(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListUsers godoc
// @Summary Page through cached user records
// @Tags Admin
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.users.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users"))
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// GetUser godoc
// @Summary Look up a cached user record
// @Tags Admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid user id"))
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user"))
		return
	}
	if user == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// GetUserItems godoc
// @Summary Inspect a user's live items under a folder
// @Tags Admin
// @Produce json
// @Param id path int true "User ID"
// @Param parent_id query string false "Folder ID; omit for the user's drive root"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{id}/items [get]
func (h *AdminHandler) GetUserItems(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid user id"))
		return
	}
	var parentID *string
	if raw := strings.TrimSpace(c.Query("parent_id")); raw != "" {
		parentID = &raw
	}
	items, err := h.items.ListChildren(c.Request.Context(), userID, parentID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items"))
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Stats godoc
// @Summary Aggregate service counters
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
