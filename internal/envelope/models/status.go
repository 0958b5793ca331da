package models

import (
	dErrors "signet/pkg/domain-errors"
)

// EnvelopeStatus is the envelope lifecycle state.
//
// delivered and signed are representable for data written by earlier systems
// but no operation here produces them; they behave like sent for the purposes
// of completion, decline, and void.
type EnvelopeStatus string

const (
	EnvelopeStatusDraft     EnvelopeStatus = "draft"
	EnvelopeStatusSent      EnvelopeStatus = "sent"
	EnvelopeStatusDelivered EnvelopeStatus = "delivered"
	EnvelopeStatusSigned    EnvelopeStatus = "signed"
	EnvelopeStatusCompleted EnvelopeStatus = "completed"
	EnvelopeStatusDeclined  EnvelopeStatus = "declined"
	EnvelopeStatusVoided    EnvelopeStatus = "voided"
	EnvelopeStatusExpired   EnvelopeStatus = "expired"
)

var envelopeStatuses = map[EnvelopeStatus]struct{}{
	EnvelopeStatusDraft:     {},
	EnvelopeStatusSent:      {},
	EnvelopeStatusDelivered: {},
	EnvelopeStatusSigned:    {},
	EnvelopeStatusCompleted: {},
	EnvelopeStatusDeclined:  {},
	EnvelopeStatusVoided:    {},
	EnvelopeStatusExpired:   {},
}

// ParseEnvelopeStatus validates a status literal at a trust boundary.
func ParseEnvelopeStatus(s string) (EnvelopeStatus, error) {
	status := EnvelopeStatus(s)
	if _, ok := envelopeStatuses[status]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown envelope status %q", s)
	}
	return status, nil
}

// IsTerminal reports whether no further transition may leave this status.
func (s EnvelopeStatus) IsTerminal() bool {
	switch s {
	case EnvelopeStatusCompleted, EnvelopeStatusDeclined, EnvelopeStatusVoided, EnvelopeStatusExpired:
		return true
	}
	return false
}

// InFlight reports whether the envelope has been sent and may still progress:
// sent, plus the reserved delivered/signed values.
func (s EnvelopeStatus) InFlight() bool {
	switch s {
	case EnvelopeStatusSent, EnvelopeStatusDelivered, EnvelopeStatusSigned:
		return true
	}
	return false
}

func (s EnvelopeStatus) String() string { return string(s) }

// SigningOrder selects how signer notification is sequenced.
type SigningOrder string

const (
	SigningOrderParallel   SigningOrder = "parallel"
	SigningOrderSequential SigningOrder = "sequential"
)

func ParseSigningOrder(s string) (SigningOrder, error) {
	switch SigningOrder(s) {
	case SigningOrderParallel, SigningOrderSequential:
		return SigningOrder(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown signing order %q", s)
}

func (o SigningOrder) String() string { return string(o) }

// RecipientRole is the part a recipient plays in the workflow. Only signers
// gate completion; cc and approver recipients never block it.
type RecipientRole string

const (
	RecipientRoleSigner   RecipientRole = "signer"
	RecipientRoleCC       RecipientRole = "cc"
	RecipientRoleApprover RecipientRole = "approver"
)

func ParseRecipientRole(s string) (RecipientRole, error) {
	switch RecipientRole(s) {
	case RecipientRoleSigner, RecipientRoleCC, RecipientRoleApprover:
		return RecipientRole(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown recipient role %q", s)
}

func (r RecipientRole) String() string { return string(r) }

// RecipientStatus is the per-participant state. signed and declined are
// terminal.
type RecipientStatus string

const (
	RecipientStatusPending  RecipientStatus = "pending"
	RecipientStatusSent     RecipientStatus = "sent"
	RecipientStatusViewed   RecipientStatus = "viewed"
	RecipientStatusSigned   RecipientStatus = "signed"
	RecipientStatusDeclined RecipientStatus = "declined"
)

func ParseRecipientStatus(s string) (RecipientStatus, error) {
	switch RecipientStatus(s) {
	case RecipientStatusPending, RecipientStatusSent, RecipientStatusViewed,
		RecipientStatusSigned, RecipientStatusDeclined:
		return RecipientStatus(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown recipient status %q", s)
}

// IsTerminal reports whether the recipient can take no further action.
func (s RecipientStatus) IsTerminal() bool {
	return s == RecipientStatusSigned || s == RecipientStatusDeclined
}

func (s RecipientStatus) String() string { return string(s) }
