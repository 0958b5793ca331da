package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"signet/internal/envelope/models"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/sentinel"
	"signet/pkg/requestcontext"
)

// AddRecipient attaches a recipient to a draft envelope. The returned value
// carries the plaintext access code exactly once, for the sender to hand
// out; every later read is redacted.
func (s *Service) AddRecipient(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID, in RecipientInput) (*models.Recipient, error) {
	now := requestcontext.Now(ctx)

	rec, err := models.NewRecipient(id.NewRecipientID(), envelopeID, in.Name, in.Email, in.Phone, in.Role, in.SigningOrder, s.policy, now)
	if err != nil {
		return nil, asValidation(err)
	}

	_, err = s.store.Execute(ctx, envelopeID,
		func(w *models.Workflow) error {
			if w.Envelope.SenderID != callerID {
				return dErrors.New(dErrors.CodeForbidden, "only the sender can add recipients")
			}
			if err := w.Envelope.CanUpdate(); err != nil {
				return asValidation(err)
			}
			if len(w.Recipients) >= s.policy.MaxRecipients {
				return dErrors.Newf(dErrors.CodeValidation, "cannot exceed %d recipients per envelope", s.policy.MaxRecipients)
			}
			for _, existing := range w.Recipients {
				if strings.EqualFold(existing.Email, rec.Email) && existing.Role == rec.Role {
					return dErrors.Newf(dErrors.CodeConflict, "recipient %s already has role %q on this envelope", rec.Email, rec.Role)
				}
			}
			return nil
		},
		func(w *models.Workflow) {
			w.Recipients = append(w.Recipients, rec)
			w.Envelope.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, wrapExecuteErr(err)
	}

	s.logger.InfoContext(ctx, "recipient added",
		"envelope_id", envelopeID.String(),
		"recipient_id", rec.ID.String(),
		"role", string(rec.Role),
	)
	return rec, nil
}

// SigningOrderUpdate assigns one recipient to a signing-order group.
type SigningOrderUpdate struct {
	RecipientID  id.RecipientID
	SigningOrder int
}

// UpdateRecipientSigningOrder moves recipients to other signing-order groups
// while the envelope is still a draft. The batch is atomic: either every
// update applies or none does.
func (s *Service) UpdateRecipientSigningOrder(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID, updates []SigningOrderUpdate) ([]*models.Recipient, error) {
	now := requestcontext.Now(ctx)
	if len(updates) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one signing-order update is required")
	}
	for _, u := range updates {
		if err := models.ValidateSigningOrder(u.SigningOrder); err != nil {
			return nil, err
		}
	}

	var updated []*models.Recipient
	_, err := s.store.Execute(ctx, envelopeID,
		func(w *models.Workflow) error {
			if w.Envelope.SenderID != callerID {
				return dErrors.New(dErrors.CodeForbidden, "only the sender can reorder recipients")
			}
			if err := w.Envelope.CanUpdate(); err != nil {
				return asValidation(err)
			}
			for _, u := range updates {
				if w.Recipient(u.RecipientID) == nil {
					return dErrors.Newf(dErrors.CodeNotFound, "recipient %s not found", u.RecipientID)
				}
			}
			return nil
		},
		func(w *models.Workflow) {
			updated = make([]*models.Recipient, 0, len(updates))
			for _, u := range updates {
				r := w.Recipient(u.RecipientID)
				r.SigningOrder = u.SigningOrder
				r.UpdatedAt = now
				updated = append(updated, r)
			}
			w.Envelope.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, wrapExecuteErr(err)
	}
	out := make([]*models.Recipient, 0, len(updated))
	for _, r := range updated {
		out = append(out, r.Redact())
	}
	return out, nil
}

// MarkRecipientViewed records that a recipient opened the envelope. The call
// is idempotent: repeat views keep the first ViewedAt, and a view of a signed
// or declined recipient succeeds without touching the status.
func (s *Service) MarkRecipientViewed(ctx context.Context, envelopeID id.EnvelopeID, recipientID id.RecipientID) (*models.Recipient, error) {
	now := requestcontext.Now(ctx)

	var viewed *models.Recipient
	_, err := s.store.Execute(ctx, envelopeID,
		func(w *models.Workflow) error {
			if err := requireInFlight(w.Envelope); err != nil {
				return err
			}
			if w.Recipient(recipientID) == nil {
				return dErrors.New(dErrors.CodeNotFound, "recipient not found")
			}
			return nil
		},
		func(w *models.Workflow) {
			viewed = w.Recipient(recipientID)
			viewed.MarkViewed(now)
		},
	)
	if err != nil {
		return nil, wrapExecuteErr(err)
	}
	return viewed.Redact(), nil
}

// MarkRecipientSigned records a signature and runs the workflow consequences
// under the same lock: completion when no non-terminal signers remain, and
// under sequential order the advance of the next signing-order group. The
// second return reports whether this signature completed the envelope.
func (s *Service) MarkRecipientSigned(ctx context.Context, envelopeID id.EnvelopeID, recipientID id.RecipientID) (*models.Recipient, bool, error) {
	now := requestcontext.Now(ctx)

	var signed *models.Recipient
	w, err := s.store.Execute(ctx, envelopeID,
		func(w *models.Workflow) error {
			if err := requireInFlight(w.Envelope); err != nil {
				return err
			}
			r := w.Recipient(recipientID)
			if r == nil {
				return dErrors.New(dErrors.CodeNotFound, "recipient not found")
			}
			if err := r.CanSign(); err != nil {
				return asValidation(err)
			}
			return nil
		},
		func(w *models.Workflow) {
			signed = w.Recipient(recipientID)
			signed.MarkSigned(now)

			if w.PendingSigners() == 0 {
				w.Envelope.ApplyComplete(now)
				return
			}
			if w.Envelope.SigningOrder == models.SigningOrderSequential {
				for _, r := range nextPendingWave(w) {
					r.MarkSent(now)
					w.Advanced = append(w.Advanced, r)
				}
			}
		},
	)
	if err != nil {
		return nil, false, wrapExecuteErr(err)
	}

	for _, r := range w.Advanced {
		s.dispatchRecipientSent(ctx, w.Envelope, r)
	}
	completed := w.Envelope.Status == models.EnvelopeStatusCompleted
	if completed {
		if s.notifier != nil {
			s.notify(ctx, "envelope.completed", func() error {
				return s.notifier.EnvelopeCompleted(ctx, w.Envelope, w.Recipients)
			})
		}
		if s.metrics != nil {
			s.metrics.EnvelopesCompleted.Inc()
		}
	}

	s.logger.InfoContext(ctx, "recipient signed",
		"envelope_id", envelopeID.String(),
		"recipient_id", recipientID.String(),
		"envelope_status", string(w.Envelope.Status),
	)
	if s.metrics != nil {
		s.metrics.RecipientsSigned.Inc()
	}
	return signed.Redact(), completed, nil
}

// DeclineEnvelope records one recipient's refusal and aborts the whole
// envelope: a single decline is terminal for everyone.
func (s *Service) DeclineEnvelope(ctx context.Context, envelopeID id.EnvelopeID, recipientID id.RecipientID, reason string) (*models.Recipient, error) {
	now := requestcontext.Now(ctx)
	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "decline reason is required")
	}

	var declined *models.Recipient
	w, err := s.store.Execute(ctx, envelopeID,
		func(w *models.Workflow) error {
			if err := requireInFlight(w.Envelope); err != nil {
				return err
			}
			r := w.Recipient(recipientID)
			if r == nil {
				return dErrors.New(dErrors.CodeNotFound, "recipient not found")
			}
			if r.Status.IsTerminal() {
				return dErrors.Newf(dErrors.CodeValidation, "recipient already %s", r.Status)
			}
			return nil
		},
		func(w *models.Workflow) {
			declined = w.Recipient(recipientID)
			_ = declined.MarkDeclined(reason, now)
			w.Envelope.ApplyDecline(now)
		},
	)
	if err != nil {
		return nil, wrapExecuteErr(err)
	}

	if s.notifier != nil {
		s.notify(ctx, "envelope.declined", func() error {
			return s.notifier.EnvelopeDeclined(ctx, w.Envelope, w.Recipients)
		})
	}

	s.logger.InfoContext(ctx, "envelope declined",
		"envelope_id", envelopeID.String(),
		"recipient_id", recipientID.String(),
	)
	if s.metrics != nil {
		s.metrics.EnvelopesDeclined.Inc()
	}
	return declined.Redact(), nil
}

// VerifyRecipientAccess checks a presented access code and email against the
// envelope's recipients. Misses are deliberately flat: an unknown envelope, a
// wrong code, a mismatched email and an exhausted attempt budget all come
// back as (nil, false, nil) so callers cannot learn which part failed.
func (s *Service) VerifyRecipientAccess(ctx context.Context, envelopeID id.EnvelopeID, email, code string) (*models.Recipient, bool, error) {
	key := attemptKey(envelopeID, email)
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, key)
		if err != nil {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check verification attempts")
		}
		if !allowed {
			s.denyAccess(ctx, envelopeID, "attempts exhausted")
			return nil, false, nil
		}
	}

	rec, err := s.store.FindRecipientByAccessCodeHash(ctx, envelopeID, models.HashAccessCode(code))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.denyAccess(ctx, envelopeID, "no match")
			return nil, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify access code")
	}
	if !strings.EqualFold(rec.Email, email) {
		s.denyAccess(ctx, envelopeID, "email mismatch")
		return nil, false, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "failed to reset verification attempts",
				"envelope_id", envelopeID.String(),
				"error", err.Error(),
			)
		}
	}
	return rec.Redact(), true, nil
}

func (s *Service) denyAccess(ctx context.Context, envelopeID id.EnvelopeID, cause string) {
	s.logger.WarnContext(ctx, "recipient access verification denied",
		"envelope_id", envelopeID.String(),
		"cause", cause,
	)
	if s.metrics != nil {
		s.metrics.AccessVerifyDenied.Inc()
	}
}

func attemptKey(envelopeID id.EnvelopeID, email string) string {
	return fmt.Sprintf("verify:%s:%s", envelopeID, strings.ToLower(email))
}

// requireInFlight rejects recipient transitions on envelopes that are not
// live: drafts have not been sent, terminal envelopes are immutable.
func requireInFlight(e *models.Envelope) error {
	if e.Status == models.EnvelopeStatusDraft {
		return dErrors.New(dErrors.CodeValidation, "envelope has not been sent")
	}
	if e.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodeValidation, "envelope is %s and can no longer change", e.Status)
	}
	return nil
}

// nextPendingWave returns the lowest signing-order group of pending signers,
// but only once every signer at a lower order has reached a terminal status.
// One group signs at a time; a half-finished group never unlocks the next.
func nextPendingWave(w *models.Workflow) []*models.Recipient {
	min := 0
	for _, r := range w.Recipients {
		if r.Role != models.RecipientRoleSigner || r.Status != models.RecipientStatusPending {
			continue
		}
		if min == 0 || r.SigningOrder < min {
			min = r.SigningOrder
		}
	}
	if min == 0 {
		return nil
	}
	for _, r := range w.Recipients {
		if r.Role == models.RecipientRoleSigner && r.SigningOrder < min && !r.Status.IsTerminal() {
			return nil
		}
	}
	var wave []*models.Recipient
	for _, r := range w.Recipients {
		if r.Role == models.RecipientRoleSigner && r.Status == models.RecipientStatusPending && r.SigningOrder == min {
			wave = append(wave, r)
		}
	}
	return wave
}
