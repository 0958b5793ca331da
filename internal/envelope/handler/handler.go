package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"signet/internal/envelope/models"
	"signet/internal/envelope/service"
	"signet/internal/platform/middleware"
	"signet/internal/transport/http/shared"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks

// WorkflowService is the slice of the envelope service the handler drives.
type WorkflowService interface {
	CreateEnvelope(ctx context.Context, in service.CreateEnvelopeInput) (*models.Workflow, error)
	GetEnvelope(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID, includeAccessCodes bool) (*service.EnvelopeDetails, error)
	UpdateEnvelope(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID, in service.UpdateEnvelopeInput) (*models.Envelope, error)
	SendEnvelope(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID) (*models.Envelope, error)
	VoidEnvelope(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID, reason string) (*models.Envelope, error)
	DeleteEnvelope(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID) error
	ListEnvelopes(ctx context.Context, callerID id.UserID, status *models.EnvelopeStatus, page, pageSize int) (*service.EnvelopePage, error)
	AddRecipient(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID, in service.RecipientInput) (*models.Recipient, error)
	UpdateRecipientSigningOrder(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID, updates []service.SigningOrderUpdate) ([]*models.Recipient, error)
	MarkRecipientViewed(ctx context.Context, envelopeID id.EnvelopeID, recipientID id.RecipientID) (*models.Recipient, error)
	MarkRecipientSigned(ctx context.Context, envelopeID id.EnvelopeID, recipientID id.RecipientID) (*models.Recipient, bool, error)
	DeclineEnvelope(ctx context.Context, envelopeID id.EnvelopeID, recipientID id.RecipientID, reason string) (*models.Recipient, error)
	VerifyRecipientAccess(ctx context.Context, envelopeID id.EnvelopeID, email, code string) (*models.Recipient, bool, error)
}

// Handler serves the envelope endpoints.
type Handler struct {
	workflow  WorkflowService
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(workflow WorkflowService, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		workflow:  workflow,
		logger:    logger,
		validator: validator,
	}
}

// Register mounts the envelope routes. Everything requires authentication
// except access verification, which identifies the caller by the code itself.
func (h *Handler) Register(r chi.Router) {
	r.Post("/envelopes/{envelopeID}/verify-access", h.handleVerifyAccess)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/envelopes", h.handleCreate)
		r.Get("/envelopes", h.handleList)
		r.Get("/envelopes/{envelopeID}", h.handleGet)
		r.Patch("/envelopes/{envelopeID}", h.handleUpdate)
		r.Delete("/envelopes/{envelopeID}", h.handleDelete)
		r.Post("/envelopes/{envelopeID}/send", h.handleSend)
		r.Post("/envelopes/{envelopeID}/void", h.handleVoid)
		r.Post("/envelopes/{envelopeID}/recipients", h.handleAddRecipient)
		r.Patch("/envelopes/{envelopeID}/recipients/order", h.handleSigningOrder)
		r.Post("/envelopes/{envelopeID}/recipients/{recipientID}/view", h.handleView)
		r.Post("/envelopes/{envelopeID}/recipients/{recipientID}/sign", h.handleSign)
		r.Post("/envelopes/{envelopeID}/recipients/{recipientID}/decline", h.handleDecline)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)

	var req createEnvelopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	order, err := parseSigningOrder(req.SigningOrder)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	docIDs := make([]id.DocumentID, 0, len(req.DocumentIDs))
	for _, raw := range req.DocumentIDs {
		docID, err := id.ParseDocumentID(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		docIDs = append(docIDs, docID)
	}
	recipients := make([]service.RecipientInput, 0, len(req.Recipients))
	for _, rr := range req.Recipients {
		in, err := rr.toInput()
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		recipients = append(recipients, in)
	}

	workflow, err := h.workflow.CreateEnvelope(ctx, service.CreateEnvelopeInput{
		SenderID:       callerID,
		Subject:        req.Subject,
		Message:        req.Message,
		SigningOrder:   order,
		ExpirationDays: req.ExpirationDays,
		DocumentIDs:    docIDs,
		Recipients:     recipients,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err, "create envelope")
		return
	}

	resp := envelopeDetailsResponse{
		envelopeResponse: toEnvelopeResponse(workflow.Envelope),
		Recipients:       make([]recipientResponse, 0, len(workflow.Recipients)),
		Documents:        make([]documentLinkResponse, 0, len(docIDs)),
	}
	for _, rec := range workflow.Recipients {
		resp.Recipients = append(resp.Recipients, toRecipientResponse(rec))
	}
	for i, docID := range docIDs {
		resp.Documents = append(resp.Documents, documentLinkResponse{DocumentID: docID.String(), DisplayOrder: i})
	}
	shared.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	envelopeID, err := id.ParseEnvelopeID(chi.URLParam(r, "envelopeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	includeCodes := r.URL.Query().Get("include_access_codes") == "true"

	details, err := h.workflow.GetEnvelope(ctx, envelopeID, requestcontext.UserID(ctx), includeCodes)
	if err != nil {
		h.writeServiceError(ctx, w, err, "get envelope")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDetailsResponse(details))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var status *models.EnvelopeStatus
	if raw := q.Get("status"); raw != "" {
		parsed, err := models.ParseEnvelopeStatus(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		status = &parsed
	}
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	result, err := h.workflow.ListEnvelopes(ctx, requestcontext.UserID(ctx), status, page, pageSize)
	if err != nil {
		h.writeServiceError(ctx, w, err, "list envelopes")
		return
	}

	resp := envelopePageResponse{
		Envelopes: make([]envelopeResponse, 0, len(result.Envelopes)),
		Total:     result.Total,
		Page:      max(page, 1),
		PageSize:  pageSize,
		HasMore:   result.HasMore,
	}
	for _, env := range result.Envelopes {
		resp.Envelopes = append(resp.Envelopes, toEnvelopeResponse(env))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	envelopeID, err := id.ParseEnvelopeID(chi.URLParam(r, "envelopeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req updateEnvelopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	in := service.UpdateEnvelopeInput{
		Subject:        req.Subject,
		Message:        req.Message,
		ExpirationDays: req.ExpirationDays,
	}
	if req.SigningOrder != nil {
		order, err := models.ParseSigningOrder(*req.SigningOrder)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		in.SigningOrder = &order
	}

	env, err := h.workflow.UpdateEnvelope(ctx, envelopeID, requestcontext.UserID(ctx), in)
	if err != nil {
		h.writeServiceError(ctx, w, err, "update envelope")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEnvelopeResponse(env))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	envelopeID, err := id.ParseEnvelopeID(chi.URLParam(r, "envelopeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.workflow.DeleteEnvelope(ctx, envelopeID, requestcontext.UserID(ctx)); err != nil {
		h.writeServiceError(ctx, w, err, "delete envelope")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	envelopeID, err := id.ParseEnvelopeID(chi.URLParam(r, "envelopeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	env, err := h.workflow.SendEnvelope(ctx, envelopeID, requestcontext.UserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, err, "send envelope")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEnvelopeResponse(env))
}

func (h *Handler) handleVoid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	envelopeID, err := id.ParseEnvelopeID(chi.URLParam(r, "envelopeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req voidEnvelopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	env, err := h.workflow.VoidEnvelope(ctx, envelopeID, requestcontext.UserID(ctx), req.Reason)
	if err != nil {
		h.writeServiceError(ctx, w, err, "void envelope")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEnvelopeResponse(env))
}

func (h *Handler) handleAddRecipient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	envelopeID, err := id.ParseEnvelopeID(chi.URLParam(r, "envelopeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req recipientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	in, err := req.toInput()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rec, err := h.workflow.AddRecipient(ctx, envelopeID, requestcontext.UserID(ctx), in)
	if err != nil {
		h.writeServiceError(ctx, w, err, "add recipient")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toRecipientResponse(rec))
}

func (h *Handler) handleSigningOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	envelopeID, err := id.ParseEnvelopeID(chi.URLParam(r, "envelopeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req signingOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updates, err := req.toUpdates()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	recs, err := h.workflow.UpdateRecipientSigningOrder(ctx, envelopeID, requestcontext.UserID(ctx), updates)
	if err != nil {
		h.writeServiceError(ctx, w, err, "update signing order")
		return
	}
	resp := recipientsResponse{Recipients: make([]recipientResponse, 0, len(recs))}
	for _, rec := range recs {
		resp.Recipients = append(resp.Recipients, toRecipientResponse(rec))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	envelopeID, recipientID, err := pathIDs(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rec, err := h.workflow.MarkRecipientViewed(ctx, envelopeID, recipientID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "mark viewed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRecipientResponse(rec))
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	envelopeID, recipientID, err := pathIDs(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rec, completed, err := h.workflow.MarkRecipientSigned(ctx, envelopeID, recipientID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "mark signed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, signResponse{
		Recipient:         toRecipientResponse(rec),
		EnvelopeCompleted: completed,
	})
}

func (h *Handler) handleDecline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	envelopeID, recipientID, err := pathIDs(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req declineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	rec, err := h.workflow.DeclineEnvelope(ctx, envelopeID, recipientID, req.Reason)
	if err != nil {
		h.writeServiceError(ctx, w, err, "decline envelope")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRecipientResponse(rec))
}

func (h *Handler) handleVerifyAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	envelopeID, err := id.ParseEnvelopeID(chi.URLParam(r, "envelopeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req verifyAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		shared.WriteError(w, err)
		return
	}

	rec, ok, err := h.workflow.VerifyRecipientAccess(ctx, envelopeID, req.Email, req.AccessCode)
	if err != nil {
		h.writeServiceError(ctx, w, err, "verify access")
		return
	}
	if !ok {
		// One flat answer for every kind of miss.
		shared.WriteJSON(w, http.StatusOK, verifyAccessResponse{Verified: false})
		return
	}
	resp := toRecipientResponse(rec)
	shared.WriteJSON(w, http.StatusOK, verifyAccessResponse{Verified: true, Recipient: &resp})
}

func pathIDs(r *http.Request) (id.EnvelopeID, id.RecipientID, error) {
	envelopeID, err := id.ParseEnvelopeID(chi.URLParam(r, "envelopeID"))
	if err != nil {
		return id.EnvelopeID{}, id.RecipientID{}, err
	}
	recipientID, err := id.ParseRecipientID(chi.URLParam(r, "recipientID"))
	if err != nil {
		return id.EnvelopeID{}, id.RecipientID{}, err
	}
	return envelopeID, recipientID, nil
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
