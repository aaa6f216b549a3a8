package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-drive-api/internal/dto"
	"github.com/noah-isme/campus-drive-api/internal/integration"
	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
	"github.com/noah-isme/campus-drive-api/pkg/response"
)

type classStorageService interface {
	ListClassItems(ctx context.Context, actor *models.JWTClaims, token string, classID int64, parentID *string) ([]models.DriveItem, error)
	UploadToClass(ctx context.Context, actor *models.JWTClaims, token string, classID int64, header *multipart.FileHeader, req dto.RepositoryUploadRequest) (*models.DriveItem, error)
}

type classProvisioner interface {
	ProvisionClass(ctx context.Context, actor *models.JWTClaims, token string, classID int64) (*dto.ProvisionResult, error)
}

type classCatalog interface {
	MyClasses(ctx context.Context, actor *models.JWTClaims, token string) ([]integration.ClassSummary, error)
}

// ClassStorageHandler manages shared class storage HTTP endpoints.
type ClassStorageHandler struct {
	service     classStorageService
	provisioner classProvisioner
	catalog     classCatalog
}

// NewClassStorageHandler constructs the handler.
func NewClassStorageHandler(service classStorageService, provisioner classProvisioner, catalog classCatalog) *ClassStorageHandler {
	return &ClassStorageHandler{service: service, provisioner: provisioner, catalog: catalog}
}

// List godoc
// @Summary List class storage contents
// @Tags ClassStorage
// @Produce json
// @Param classId path int true "Class ID"
// @Param parent_id query string false "Folder ID; omit for the class root"
// @Success 200 {object} response.Envelope
// @Router /storage/class/{classId}/items [get]
func (h *ClassStorageHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classID, err := pathID(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.ListRepositoryItemsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid listing query"))
		return
	}
	items, err := h.service.ListClassItems(c.Request.Context(), claims, tokenFromContext(c), classID, query.ParentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Upload godoc
// @Summary Upload a file into class storage
// @Tags ClassStorage
// @Accept multipart/form-data
// @Produce json
// @Param classId path int true "Class ID"
// @Param parent_id formData string false "Folder ID; omit for the class root"
// @Param notify formData bool false "Notify the class roster"
// @Param file formData file true "File"
// @Success 201 {object} response.Envelope
// @Router /storage/class/{classId}/files [post]
func (h *ClassStorageHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classID, err := pathID(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RepositoryUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid upload payload"))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	item, err := h.service.UploadToClass(c.Request.Context(), claims, tokenFromContext(c), classID, header, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Provision godoc
// @Summary Generate the standard class folder structure
// @Tags ClassStorage
// @Produce json
// @Param classId path int true "Class ID"
// @Success 201 {object} response.Envelope
// @Router /storage/class/{classId}/provision [post]
func (h *ClassStorageHandler) Provision(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classID, err := pathID(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.provisioner.ProvisionClass(c.Request.Context(), claims, tokenFromContext(c), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// MyClasses godoc
// @Summary List the classes the acting lecturer teaches
// @Tags ClassStorage
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /storage/my-classes [get]
func (h *ClassStorageHandler) MyClasses(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classes, err := h.catalog.MyClasses(c.Request.Context(), claims, tokenFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}
