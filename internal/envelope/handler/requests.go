package handler

import (
	"signet/internal/envelope/models"
	"signet/internal/envelope/service"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

type recipientRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role"`
	SigningOrder int    `json:"signing_order,omitempty"`
}

func (r recipientRequest) toInput() (service.RecipientInput, error) {
	role, err := models.ParseRecipientRole(r.Role)
	if err != nil {
		return service.RecipientInput{}, err
	}
	return service.RecipientInput{
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Role:         role,
		SigningOrder: r.SigningOrder,
	}, nil
}

type createEnvelopeRequest struct {
	Subject        string             `json:"subject"`
	Message        string             `json:"message,omitempty"`
	SigningOrder   string             `json:"signing_order,omitempty"`
	ExpirationDays int                `json:"expiration_days,omitempty"`
	DocumentIDs    []string           `json:"document_ids"`
	Recipients     []recipientRequest `json:"recipients,omitempty"`
}

type updateEnvelopeRequest struct {
	Subject        *string `json:"subject,omitempty"`
	Message        *string `json:"message,omitempty"`
	SigningOrder   *string `json:"signing_order,omitempty"`
	ExpirationDays *int    `json:"expiration_days,omitempty"`
}

type voidEnvelopeRequest struct {
	Reason string `json:"reason"`
}

type declineRequest struct {
	Reason string `json:"reason"`
}

type signingOrderRequest struct {
	Recipients []signingOrderEntry `json:"recipients"`
}

type signingOrderEntry struct {
	RecipientID  string `json:"recipient_id"`
	SigningOrder int    `json:"signing_order"`
}

func (r signingOrderRequest) toUpdates() ([]service.SigningOrderUpdate, error) {
	updates := make([]service.SigningOrderUpdate, 0, len(r.Recipients))
	for _, e := range r.Recipients {
		recipientID, err := id.ParseRecipientID(e.RecipientID)
		if err != nil {
			return nil, err
		}
		updates = append(updates, service.SigningOrderUpdate{
			RecipientID:  recipientID,
			SigningOrder: e.SigningOrder,
		})
	}
	return updates, nil
}

type verifyAccessRequest struct {
	Email      string `json:"email"`
	AccessCode string `json:"access_code"`
}

func (r verifyAccessRequest) validate() error {
	if r.Email == "" || r.AccessCode == "" {
		return dErrors.New(dErrors.CodeValidation, "email and access_code are required")
	}
	return nil
}

func parseSigningOrder(raw string) (models.SigningOrder, error) {
	if raw == "" {
		return models.SigningOrderParallel, nil
	}
	return models.ParseSigningOrder(raw)
}
