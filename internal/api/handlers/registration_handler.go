package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketplace/sellerhub/internal/api/middleware"
	"marketplace/sellerhub/internal/services"
	"marketplace/sellerhub/internal/verification"
)

const maxSectionBody = 64 << 10

// RegistrationHandler serves the onboarding wizard and its verifications.
type RegistrationHandler struct {
	registration services.IRegistrationService
	verification services.IVerificationService
}

// NewRegistrationHandler creates a new RegistrationHandler.
func NewRegistrationHandler(registration services.IRegistrationService, verificationSvc services.IVerificationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration, verification: verificationSvc}
}

// GetDraft handles GET /v1/registration
func (h *RegistrationHandler) GetDraft(c *gin.Context) {
	view, err := h.registration.Draft(c.Request.Context(), middleware.SellerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateSection handles PUT /v1/registration/:section
func (h *RegistrationHandler) UpdateSection(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSectionBody))
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body required"})
		return
	}
	seller, err := h.registration.UpdateSection(c.Request.Context(), middleware.SellerID(c), c.Param("section"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seller)
}

func stepParam(c *gin.Context) (int, bool) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Step must be a number"})
		return 0, false
	}
	return step, true
}

// ValidateStep handles POST /v1/registration/steps/:step/validate
func (h *RegistrationHandler) ValidateStep(c *gin.Context) {
	step, ok := stepParam(c)
	if !ok {
		return
	}
	res, err := h.registration.ValidateStep(c.Request.Context(), middleware.SellerID(c), step)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AdvanceStep handles POST /v1/registration/steps/:step/advance
func (h *RegistrationHandler) AdvanceStep(c *gin.Context) {
	step, ok := stepParam(c)
	if !ok {
		return
	}
	res, err := h.registration.Advance(c.Request.Context(), middleware.SellerID(c), step)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if !res.Valid {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

// Submit handles POST /v1/registration/submit
func (h *RegistrationHandler) Submit(c *gin.Context) {
	seller, err := h.registration.Submit(c.Request.Context(), middleware.SellerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seller)
}

type documentRequest struct {
	Kind        string `json:"kind" binding:"required"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// DocumentUpload handles POST /v1/registration/documents
func (h *RegistrationHandler) DocumentUpload(c *gin.Context) {
	var req documentRequest
	if !bindJSON(c, &req) {
		return
	}
	upload, err := h.registration.DocumentUpload(c.Request.Context(), middleware.SellerID(c), req.Kind, req.Filename, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, upload)
}

func subjectParam(c *gin.Context) (verification.SubjectType, bool) {
	st, err := verification.ParseSubjectType(c.Param("subject"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return "", false
	}
	return st, true
}

// StartVerification handles POST /v1/registration/verification/:subject
func (h *RegistrationHandler) StartVerification(c *gin.Context) {
	st, ok := subjectParam(c)
	if !ok {
		return
	}
	view, err := h.verification.Start(c.Request.Context(), middleware.SellerID(c), st)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, view)
}

// VerificationStatus handles GET /v1/registration/verification/:subject
func (h *RegistrationHandler) VerificationStatus(c *gin.Context) {
	st, ok := subjectParam(c)
	if !ok {
		return
	}
	view, err := h.verification.Status(c.Request.Context(), middleware.SellerID(c), st)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
