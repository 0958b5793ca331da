package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	docmodels "signet/internal/document/models"
	"signet/internal/document/service"
	"signet/internal/platform/middleware"
	"signet/internal/transport/http/shared"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/requestcontext"
)

// RegistryService is the slice of the document service the handler drives.
type RegistryService interface {
	Upload(ctx context.Context, in service.UploadInput) (*docmodels.Document, error)
	GetForOwner(ctx context.Context, documentID id.DocumentID, ownerID id.UserID) (*docmodels.Document, error)
	OpenContent(ctx context.Context, documentID id.DocumentID, ownerID id.UserID) (io.ReadCloser, *docmodels.Document, error)
	MarkProcessed(ctx context.Context, documentID id.DocumentID, pageCount int, failureReason string) (*docmodels.Document, error)
	ListDocuments(ctx context.Context, ownerID id.UserID, page, pageSize int) (*service.DocumentPage, error)
	DeleteDocument(ctx context.Context, documentID id.DocumentID, ownerID id.UserID) error
}

// Handler serves the document registry endpoints.
type Handler struct {
	registry  RegistryService
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(registry RegistryService, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		registry:  registry,
		logger:    logger,
		validator: validator,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/documents", h.handleUpload)
		r.Get("/documents", h.handleList)
		r.Get("/documents/{documentID}", h.handleGet)
		r.Get("/documents/{documentID}/content", h.handleContent)
		r.Post("/documents/{documentID}/processed", h.handleProcessed)
		r.Delete("/documents/{documentID}", h.handleDelete)
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := requestcontext.UserID(ctx)

	if err := r.ParseMultipartForm(docmodels.MaxFileSize); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart request"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "file field is required"))
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	doc, err := h.registry.Upload(ctx, service.UploadInput{
		OwnerID:          ownerID,
		Name:             name,
		OriginalFilename: header.Filename,
		ContentType:      header.Header.Get("Content-Type"),
		SizeBytes:        header.Size,
		Content:          file,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err, "upload document")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	doc, err := h.registry.GetForOwner(ctx, documentID, requestcontext.UserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, err, "get document")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rc, doc, err := h.registry.OpenContent(ctx, documentID, requestcontext.UserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, err, "open document content")
		return
	}
	defer rc.Close()

	if doc.ContentType != "" {
		w.Header().Set("Content-Type", doc.ContentType)
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.OriginalFilename+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.ErrorContext(ctx, "failed to stream document",
			"document_id", documentID.String(),
			"error", err.Error(),
		)
	}
}

type processedRequest struct {
	PageCount     int    `json:"page_count"`
	FailureReason string `json:"failure_reason,omitempty"`
}

func (h *Handler) handleProcessed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req processedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	doc, err := h.registry.MarkProcessed(ctx, documentID, req.PageCount, req.FailureReason)
	if err != nil {
		h.writeServiceError(ctx, w, err, "mark processed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	result, err := h.registry.ListDocuments(ctx, requestcontext.UserID(ctx), page, pageSize)
	if err != nil {
		h.writeServiceError(ctx, w, err, "list documents")
		return
	}
	resp := documentPageResponse{
		Documents: make([]documentResponse, 0, len(result.Documents)),
		Total:     result.Total,
		HasMore:   result.HasMore,
	}
	for _, doc := range result.Documents {
		resp.Documents = append(resp.Documents, toDocumentResponse(doc))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.registry.DeleteDocument(ctx, documentID, requestcontext.UserID(ctx)); err != nil {
		h.writeServiceError(ctx, w, err, "delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type documentResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	OriginalFilename string     `json:"original_filename,omitempty"`
	ContentType      string     `json:"content_type,omitempty"`
	SizeBytes        int64      `json:"size_bytes"`
	Checksum         string     `json:"checksum,omitempty"`
	PageCount        int        `json:"page_count"`
	Status           string     `json:"status"`
	FailureReason    string     `json:"failure_reason,omitempty"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

type documentPageResponse struct {
	Documents []documentResponse `json:"documents"`
	Total     int                `json:"total"`
	HasMore   bool               `json:"has_more"`
}

func toDocumentResponse(d *docmodels.Document) documentResponse {
	return documentResponse{
		ID:               d.ID.String(),
		Name:             d.Name,
		OriginalFilename: d.OriginalFilename,
		ContentType:      d.ContentType,
		SizeBytes:        d.SizeBytes,
		Checksum:         d.Checksum,
		PageCount:        d.PageCount,
		Status:           string(d.Status),
		FailureReason:    d.FailureReason,
		UploadedAt:       d.UploadedAt,
		DeletedAt:        d.DeletedAt,
	}
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "request failed",
			"op", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	shared.WriteError(w, err)
}
