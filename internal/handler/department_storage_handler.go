package handler

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-drive-api/internal/dto"
	"github.com/noah-isme/campus-drive-api/internal/integration"
	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
	"github.com/noah-isme/campus-drive-api/pkg/response"
)

type departmentStorageService interface {
	ListDepartmentItems(ctx context.Context, actor *models.JWTClaims, token string, departmentID int64, parentID *string) ([]models.DriveItem, error)
	UploadToDepartment(ctx context.Context, actor *models.JWTClaims, token string, departmentID int64, header *multipart.FileHeader, req dto.RepositoryUploadRequest) (*models.DriveItem, error)
}

type departmentProvisioner interface {
	ProvisionDepartment(ctx context.Context, actor *models.JWTClaims, token string, departmentID int64) (*dto.ProvisionResult, error)
}

type departmentCatalog interface {
	MyDepartment(ctx context.Context, actor *models.JWTClaims, token string) (*integration.Department, error)
}

// DepartmentStorageHandler manages shared department storage HTTP endpoints.
type DepartmentStorageHandler struct {
	service     departmentStorageService
	provisioner departmentProvisioner
	catalog     departmentCatalog
}

// NewDepartmentStorageHandler constructs the handler.
func NewDepartmentStorageHandler(service departmentStorageService, provisioner departmentProvisioner, catalog departmentCatalog) *DepartmentStorageHandler {
	return &DepartmentStorageHandler{service: service, provisioner: provisioner, catalog: catalog}
}

// List godoc
// @Summary List department storage contents
// @Tags DepartmentStorage
// @Produce json
// @Param departmentId path int true "Department ID"
// @Param parent_id query string false "Folder ID; omit for the department root"
// @Success 200 {object} response.Envelope
// @Router /storage/department/{departmentId}/items [get]
func (h *DepartmentStorageHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	departmentID, err := pathID(c, "departmentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.ListRepositoryItemsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid listing query"))
		return
	}
	items, err := h.service.ListDepartmentItems(c.Request.Context(), claims, tokenFromContext(c), departmentID, query.ParentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Upload godoc
// @Summary Upload a file into department storage
// @Tags DepartmentStorage
// @Accept multipart/form-data
// @Produce json
// @Param departmentId path int true "Department ID"
// @Param parent_id formData string false "Folder ID; omit for the department root"
// @Param file formData file true "File"
// @Success 201 {object} response.Envelope
// @Router /storage/department/{departmentId}/files [post]
func (h *DepartmentStorageHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	departmentID, err := pathID(c, "departmentId")
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
	item, err := h.service.UploadToDepartment(c.Request.Context(), claims, tokenFromContext(c), departmentID, header, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Provision godoc
// @Summary Generate the standard department folder structure
// @Tags DepartmentStorage
// @Produce json
// @Param departmentId path int true "Department ID"
// @Success 201 {object} response.Envelope
// @Router /storage/department/{departmentId}/provision [post]
func (h *DepartmentStorageHandler) Provision(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	departmentID, err := pathID(c, "departmentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.provisioner.ProvisionDepartment(c.Request.Context(), claims, tokenFromContext(c), departmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// MyDepartment godoc
// @Summary Show the caller's department with its sub-units
// @Tags DepartmentStorage
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /storage/my-department [get]
func (h *DepartmentStorageHandler) MyDepartment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	department, err := h.catalog.MyDepartment(c.Request.Context(), claims, tokenFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}
