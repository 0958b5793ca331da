package handler

import (
	"time"

	"signet/internal/envelope/models"
	"signet/internal/envelope/service"
)

type recipientResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	Role          string     `json:"role"`
	SigningOrder  int        `json:"signing_order"`
	Status        string     `json:"status"`
	AccessCode    string     `json:"access_code,omitempty"`
	DeclineReason string     `json:"decline_reason,omitempty"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	ViewedAt      *time.Time `json:"viewed_at,omitempty"`
	SignedAt      *time.Time `json:"signed_at,omitempty"`
	DeclinedAt    *time.Time `json:"declined_at,omitempty"`
}

func toRecipientResponse(r *models.Recipient) recipientResponse {
	return recipientResponse{
		ID:            r.ID.String(),
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		Role:          string(r.Role),
		SigningOrder:  r.SigningOrder,
		Status:        string(r.Status),
		AccessCode:    r.AccessCode,
		DeclineReason: r.DeclineReason,
		SentAt:        r.SentAt,
		ViewedAt:      r.ViewedAt,
		SignedAt:      r.SignedAt,
		DeclinedAt:    r.DeclinedAt,
	}
}

type envelopeResponse struct {
	ID             string     `json:"id"`
	SenderID       string     `json:"sender_id"`
	Subject        string     `json:"subject"`
	Message        string     `json:"message,omitempty"`
	Status         string     `json:"status"`
	SigningOrder   string     `json:"signing_order"`
	ExpirationDays int        `json:"expiration_days"`
	VoidReason     string     `json:"void_reason,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	DeclinedAt     *time.Time `json:"declined_at,omitempty"`
	VoidedAt       *time.Time `json:"voided_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toEnvelopeResponse(e *models.Envelope) envelopeResponse {
	return envelopeResponse{
		ID:             e.ID.String(),
		SenderID:       e.SenderID.String(),
		Subject:        e.Subject,
		Message:        e.Message,
		Status:         string(e.Status),
		SigningOrder:   string(e.SigningOrder),
		ExpirationDays: e.ExpirationDays,
		VoidReason:     e.VoidReason,
		SentAt:         e.SentAt,
		CompletedAt:    e.CompletedAt,
		DeclinedAt:     e.DeclinedAt,
		VoidedAt:       e.VoidedAt,
		ExpiresAt:      e.ExpiresAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

type documentLinkResponse struct {
	DocumentID   string `json:"document_id"`
	DisplayOrder int    `json:"display_order"`
}

type senderResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type envelopeDetailsResponse struct {
	envelopeResponse
	Recipients []recipientResponse    `json:"recipients"`
	Documents  []documentLinkResponse `json:"documents"`
	Sender     *senderResponse        `json:"sender,omitempty"`
}

func toDetailsResponse(d *service.EnvelopeDetails) envelopeDetailsResponse {
	out := envelopeDetailsResponse{
		envelopeResponse: toEnvelopeResponse(d.Envelope),
		Recipients:       make([]recipientResponse, 0, len(d.Recipients)),
		Documents:        make([]documentLinkResponse, 0, len(d.Documents)),
	}
	for _, r := range d.Recipients {
		out.Recipients = append(out.Recipients, toRecipientResponse(r))
	}
	for _, link := range d.Documents {
		out.Documents = append(out.Documents, documentLinkResponse{
			DocumentID:   link.DocumentID.String(),
			DisplayOrder: link.DisplayOrder,
		})
	}
	if d.Sender != nil {
		out.Sender = &senderResponse{
			ID:    d.Sender.ID.String(),
			Name:  d.Sender.Name,
			Email: d.Sender.Email,
		}
	}
	return out
}

type envelopePageResponse struct {
	Envelopes []envelopeResponse `json:"envelopes"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
	HasMore   bool               `json:"has_more"`
}

type verifyAccessResponse struct {
	Verified  bool               `json:"verified"`
	Recipient *recipientResponse `json:"recipient,omitempty"`
}

type recipientsResponse struct {
	Recipients []recipientResponse `json:"recipients"`
}

type signResponse struct {
	Recipient         recipientResponse `json:"recipient"`
	EnvelopeCompleted bool              `json:"envelope_completed"`
}
