package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"deliveryops-backend/internal/domains/importer/model"
	"deliveryops-backend/internal/domains/importer/service"
	"deliveryops-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// Handler exposes the import session flow over HTTP.
type Handler struct {
	service service.ImportServiceInterface
}

// NewHandler creates the import handler.
func NewHandler(s service.ImportServiceInterface) *Handler {
	return &Handler{service: s}
}

// Upload handles POST /imports: parses the multipart file and opens a
// preview session.
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "missing_file", "multipart field 'file' is required")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "unreadable_file", "could not open uploaded file")
		return
	}
	defer src.Close()

	session, err := h.service.CreateSession(c.Request.Context(), fileHeader.Filename, src, fileHeader.Size)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, session)
}

// Get handles GET /imports/:id.
func (h *Handler) Get(c *gin.Context) {
	session, err := h.service.Session(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, session)
}

// EditRow handles PATCH /imports/:id/rows/:index.
func (h *Handler) EditRow(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "invalid_index", "row index must be an integer")
		return
	}

	var req model.EditRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "validation_failed", "invalid row edit", err)
		return
	}

	session, err := h.service.EditRow(c.Request.Context(), c.Param("id"), index, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, session)
}

// Submit handles POST /imports/:id/submit.
func (h *Handler) Submit(c *gin.Context) {
	outcome, err := h.service.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, outcome)
}

// Confirm handles POST /imports/:id/confirm.
func (h *Handler) Confirm(c *gin.Context) {
	var req model.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	outcome, err := h.service.Confirm(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, outcome)
}

// Close handles DELETE /imports/:id (user cancel/reset).
func (h *Handler) Close(c *gin.Context) {
	if err := h.service.Close(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"closed": true})
}

// Template handles GET /imports/template?format=csv|xlsx.
func (h *Handler) Template(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")

	content, contentType, err := service.GenerateTemplate(format)
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "invalid_format", err.Error())
		return
	}

	filename := fmt.Sprintf("order-import-template.%s", format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, content)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var formatErr *model.FileFormatError
	var parseErr *model.ParseError
	var submitErr *model.SubmissionError

	switch {
	case errors.As(err, &formatErr):
		response.ErrorResponse(c, http.StatusBadRequest, "file_format_error", formatErr.Error())
	case errors.As(err, &parseErr):
		response.ErrorResponse(c, http.StatusUnprocessableEntity, "parse_error", parseErr.Error())
	case errors.As(err, &submitErr):
		// Non-destructive: the session stayed in preview with its rows.
		response.ErrorResponse(c, http.StatusBadGateway, "submission_error", submitErr.Error())
	case errors.Is(err, model.ErrSessionNotFound):
		response.ErrorResponse(c, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, model.ErrSessionClosed):
		response.ErrorResponse(c, http.StatusGone, "session_closed", err.Error())
	case errors.Is(err, model.ErrSubmitInProgress):
		response.ErrorResponse(c, http.StatusConflict, "submit_in_progress", err.Error())
	case errors.Is(err, model.ErrRowIndexOutOfRange):
		response.ErrorResponse(c, http.StatusBadRequest, "row_out_of_range", err.Error())
	case errors.Is(err, model.ErrNothingToSubmit), errors.Is(err, model.ErrNoFileAttached):
		response.ErrorResponse(c, http.StatusUnprocessableEntity, "nothing_to_submit", err.Error())
	default:
		response.ErrorResponse(c, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
