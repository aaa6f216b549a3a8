package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-drive-api/internal/dto"
	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
	"github.com/noah-isme/campus-drive-api/pkg/response"
)

type signingService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateSigningRequest) (*models.SigningRequest, error)
	Submit(ctx context.Context, actor *models.JWTClaims, requestID string) (*models.SigningRequest, error)
	Approve(ctx context.Context, actor *models.JWTClaims, token, requestID string, decision dto.DecideSigningRequest) (*models.SigningRequest, error)
	Reject(ctx context.Context, actor *models.JWTClaims, token, requestID string, decision dto.DecideSigningRequest) (*models.SigningRequest, error)
	Get(ctx context.Context, actor *models.JWTClaims, requestID string) (*models.SigningRequest, error)
	ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.SigningRequest, error)
	ListPending(ctx context.Context, actor *models.JWTClaims) ([]models.SigningRequest, error)
}

// SigningHandler manages document signing HTTP endpoints.
type SigningHandler struct {
	service signingService
}

// NewSigningHandler constructs the handler.
func NewSigningHandler(service signingService) *SigningHandler {
	return &SigningHandler{service: service}
}

// Create godoc
// @Summary Create a draft signing request for an owned PDF
// @Tags Signing
// @Accept json
// @Produce json
// @Param payload body dto.CreateSigningRequest true "Request"
// @Success 201 {object} response.Envelope
// @Router /signing/requests [post]
func (h *SigningHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateSigningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid signing payload"))
		return
	}
	request, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Submit godoc
// @Summary Submit a draft signing request for review
// @Tags Signing
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /signing/requests/{id}/submit [post]
func (h *SigningHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.Submit(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Approve godoc
// @Summary Approve a pending signing request
// @Tags Signing
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DecideSigningRequest false "Decision"
// @Success 200 {object} response.Envelope
// @Router /signing/requests/{id}/approve [post]
func (h *SigningHandler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

// Reject godoc
// @Summary Reject a pending signing request with a comment
// @Tags Signing
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DecideSigningRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /signing/requests/{id}/reject [post]
func (h *SigningHandler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

func (h *SigningHandler) decide(c *gin.Context, decide func(context.Context, *models.JWTClaims, string, string, dto.DecideSigningRequest) (*models.SigningRequest, error)) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DecideSigningRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
			return
		}
	}
	request, err := decide(c.Request.Context(), claims, tokenFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Get godoc
// @Summary Get one signing request
// @Tags Signing
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /signing/requests/{id} [get]
func (h *SigningHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// ListMine godoc
// @Summary List the caller's signing requests
// @Tags Signing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /signing/requests [get]
func (h *SigningHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	requests, err := h.service.ListMine(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// ListPending godoc
// @Summary List signing requests awaiting an administrator decision
// @Tags Signing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /signing/requests/pending [get]
func (h *SigningHandler) ListPending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	requests, err := h.service.ListPending(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}
