package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/heartcheck/internal/domain/assessment"
	"github.com/yanqian/heartcheck/internal/domain/explainer"
	"github.com/yanqian/heartcheck/internal/domain/report"
	apperrors "github.com/yanqian/heartcheck/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	assessSvc  assessment.Service
	reportSvc  report.Service
	explainSvc explainer.Service
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(assessSvc assessment.Service, reportSvc report.Service, explainSvc explainer.Service, logger *slog.Logger) *Handler {
	return &Handler{
		assessSvc:  assessSvc,
		reportSvc:  reportSvc,
		explainSvc: explainSvc,
		logger:     logger.With("component", "http.handler"),
	}
}

// Assess validates and calculates a risk assessment. Authenticated requests
// are persisted to history; anonymous requests only compute.
func (h *Handler) Assess(c *gin.Context) {
	var req assessment.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	var clinicianID int64
	if claims, ok := getClaims(c); ok {
		clinicianID = claims.ClinicianID
	}

	resp, err := h.assessSvc.Assess(c.Request.Context(), req.Parameters, clinicianID)
	if err != nil {
		abortWithError(c, assessmentHTTPError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// WhatIf re-simulates a baseline parameter set with overrides applied.
func (h *Handler) WhatIf(c *gin.Context) {
	var req assessment.WhatIfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.assessSvc.WhatIf(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, assessmentHTTPError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// History lists the clinician's stored assessments, newest first.
func (h *Handler) History(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}

	records, err := h.assessSvc.History(c.Request.Context(), claims.ClinicianID)
	if err != nil {
		abortWithError(c, assessmentHTTPError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": records})
}

// SimilarProfiles returns stored assessments closest to the given record.
func (h *Handler) SimilarProfiles(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}

	matches, err := h.assessSvc.Similar(c.Request.Context(), c.Param("id"), claims.ClinicianID)
	if err != nil {
		abortWithError(c, assessmentHTTPError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// RenderReport returns a formatted text report for a result snapshot.
func (h *Handler) RenderReport(c *gin.Context) {
	var req report.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	rendered := h.reportSvc.Render(req.Parameters, req.Result)
	c.JSON(http.StatusOK, rendered)
}

// ExportReport renders and stores the report artifact.
func (h *Handler) ExportReport(c *gin.Context) {
	var req report.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	result, err := h.reportSvc.Export(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, reportHTTPError(err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// ShareReport mints an expiring token resolving to the rendered report.
func (h *Handler) ShareReport(c *gin.Context) {
	var req report.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	link, err := h.reportSvc.Share(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, reportHTTPError(err))
		return
	}

	c.JSON(http.StatusOK, link)
}

// SharedReport resolves a share token to the report text.
func (h *Handler) SharedReport(c *gin.Context) {
	text, err := h.reportSvc.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		abortWithError(c, reportHTTPError(err))
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, text)
}

// Explain returns an LLM-written narrative for a computed result.
func (h *Handler) Explain(c *gin.Context) {
	var req explainer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.explainSvc.Explain(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "explain_failed"
		switch {
		case apperrors.IsCode(err, "invalid_input"):
			status = http.StatusBadRequest
			code = "invalid_request"
		case apperrors.IsCode(err, "not_configured"):
			status = http.StatusServiceUnavailable
			code = "explainer_disabled"
		case apperrors.IsCode(err, "llm_error"):
			status = http.StatusBadGateway
			code = "llm_error"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func assessmentHTTPError(err error) *HTTPError {
	var validationErr *assessment.ValidationError
	if errors.As(err, &validationErr) {
		return &HTTPError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "validation_failed",
			Message: validationErr.Error(),
			Details: validationErr.Problems,
			Err:     validationErr,
		}
	}
	status := http.StatusInternalServerError
	code := "assessment_failed"
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, "unauthorized"):
		status = http.StatusUnauthorized
		code = "unauthorized"
	case apperrors.IsCode(err, "not_found"):
		status = http.StatusNotFound
		code = "not_found"
	case apperrors.IsCode(err, "history_error"):
		status = http.StatusInternalServerError
		code = "history_error"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func reportHTTPError(err error) *HTTPError {
	status := http.StatusInternalServerError
	code := "report_failed"
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, "not_found"):
		status = http.StatusNotFound
		code = "not_found"
	case apperrors.IsCode(err, "export_error"):
		status = http.StatusBadGateway
		code = "export_error"
	case apperrors.IsCode(err, "share_error"):
		status = http.StatusBadGateway
		code = "share_error"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
