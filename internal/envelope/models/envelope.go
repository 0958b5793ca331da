package models

import (
	"strings"
	"time"

	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

// Envelope is the aggregate root for one signing request: documents,
// recipients and the workflow state that binds them.
//
// Invariants:
//   - Subject is non-empty and at most Policy.MaxSubjectLength characters
//   - Status transitions follow the lifecycle state machine; terminal
//     statuses (completed, declined, voided, expired) admit no exit
//   - ExpiresAt is assigned exactly once, at send time, and never before
//   - At most one of CompletedAt/DeclinedAt/VoidedAt/ExpiredAt is ever set
//   - Structure (documents, recipients) is frozen once the envelope leaves
//     draft; only recipient statuses keep evolving
//
// Version supports optimistic concurrency at the persistence boundary: every
// persisted mutation increments it, and stores refuse to overwrite a row whose
// version moved underneath the writer.
type Envelope struct {
	ID             id.EnvelopeID  `json:"id"`
	SenderID       id.UserID      `json:"sender_id"`
	Subject        string         `json:"subject"`
	Message        string         `json:"message,omitempty"`
	Status         EnvelopeStatus `json:"status"`
	SigningOrder   SigningOrder   `json:"signing_order"`
	ExpirationDays int            `json:"expiration_days"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	VoidReason     string         `json:"void_reason,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	SentAt         *time.Time     `json:"sent_at,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	DeclinedAt     *time.Time     `json:"declined_at,omitempty"`
	VoidedAt       *time.Time     `json:"voided_at,omitempty"`
	ExpiredAt      *time.Time     `json:"expired_at,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Version        int64          `json:"-"`
}

// ValidateSubject enforces the subject length policy.
func ValidateSubject(p Policy, subject string) error {
	if strings.TrimSpace(subject) == "" {
		return dErrors.New(dErrors.CodeValidation, "subject is required")
	}
	if len(subject) > p.MaxSubjectLength {
		return dErrors.Newf(dErrors.CodeValidation, "subject cannot exceed %d characters", p.MaxSubjectLength)
	}
	return nil
}

// ValidateMessage enforces the optional-message length policy.
func ValidateMessage(p Policy, message string) error {
	if len(message) > p.MaxMessageLength {
		return dErrors.Newf(dErrors.CodeValidation, "message cannot exceed %d characters", p.MaxMessageLength)
	}
	return nil
}

// ValidateExpirationDays enforces the expiration window policy.
func ValidateExpirationDays(p Policy, days int) error {
	if days < p.MinExpirationDays {
		return dErrors.Newf(dErrors.CodeValidation, "expiration must be at least %d day(s)", p.MinExpirationDays)
	}
	if days > p.MaxExpirationDays {
		return dErrors.Newf(dErrors.CodeValidation, "expiration cannot exceed %d days", p.MaxExpirationDays)
	}
	return nil
}

// NewEnvelope constructs a draft envelope, validating every field against the
// policy. Illegal envelopes are unrepresentable in memory: construction is the
// single validation point, not persistence.
func NewEnvelope(envelopeID id.EnvelopeID, senderID id.UserID, subject, message string, order SigningOrder, expirationDays int, p Policy, now time.Time) (*Envelope, error) {
	if err := ValidateSubject(p, subject); err != nil {
		return nil, err
	}
	if err := ValidateMessage(p, message); err != nil {
		return nil, err
	}
	if expirationDays == 0 {
		expirationDays = p.DefaultExpirationDays
	}
	if err := ValidateExpirationDays(p, expirationDays); err != nil {
		return nil, err
	}
	if order == "" {
		order = SigningOrderParallel
	}
	return &Envelope{
		ID:             envelopeID,
		SenderID:       senderID,
		Subject:        subject,
		Message:        message,
		Status:         EnvelopeStatusDraft,
		SigningOrder:   order,
		ExpirationDays: expirationDays,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanUpdate checks whether envelope fields may still change.
func (e *Envelope) CanUpdate() error {
	if e.Status != EnvelopeStatusDraft {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot update envelope with status %q", e.Status)
	}
	return nil
}

// CanSend checks the draft→sent transition.
func (e *Envelope) CanSend() error {
	if e.Status != EnvelopeStatusDraft {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot send envelope with status %q", e.Status)
	}
	return nil
}

// ApplySend transitions the envelope to sent and pins the expiration.
// ExpiresAt is set only here and only if unset. Call CanSend first.
func (e *Envelope) ApplySend(now time.Time) {
	e.Status = EnvelopeStatusSent
	e.SentAt = &now
	if e.ExpiresAt == nil {
		expires := now.AddDate(0, 0, e.ExpirationDays)
		e.ExpiresAt = &expires
	}
	e.UpdatedAt = now
}

// CanVoid checks the void transition: never from a terminal state, and never
// from draft (drafts are deleted, not voided).
func (e *Envelope) CanVoid() error {
	if e.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot void envelope with status %q", e.Status)
	}
	if e.Status == EnvelopeStatusDraft {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot void a draft envelope (delete it instead)")
	}
	return nil
}

// ApplyVoid records the sender's void. Call CanVoid first.
func (e *Envelope) ApplyVoid(reason string, now time.Time) {
	e.Status = EnvelopeStatusVoided
	e.VoidReason = reason
	e.VoidedAt = &now
	e.UpdatedAt = now
}

// ApplyComplete records that every signer reached a terminal status.
func (e *Envelope) ApplyComplete(now time.Time) {
	e.Status = EnvelopeStatusCompleted
	e.CompletedAt = &now
	e.UpdatedAt = now
}

// ApplyDecline aborts the whole envelope after a single recipient decline.
func (e *Envelope) ApplyDecline(now time.Time) {
	e.Status = EnvelopeStatusDeclined
	e.DeclinedAt = &now
	e.UpdatedAt = now
}

// ApplyExpire records that the expiration deadline passed unmet.
func (e *Envelope) ApplyExpire(now time.Time) {
	e.Status = EnvelopeStatusExpired
	e.ExpiredAt = &now
	e.UpdatedAt = now
}

// IsExpired reports whether the deadline has passed (or expiry was recorded).
func (e *Envelope) IsExpired(now time.Time) bool {
	if e.Status == EnvelopeStatusExpired {
		return true
	}
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}
