package service

import (
	"context"
	"errors"
	"strings"

	docmodels "signet/internal/document/models"
	"signet/internal/envelope/models"
	"signet/internal/identity"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/sentinel"
	"signet/pkg/requestcontext"
)

// RecipientInput is the caller-supplied shape of a recipient to add.
type RecipientInput struct {
	Name         string
	Email        string
	Phone        string
	Role         models.RecipientRole
	SigningOrder int
}

// CreateEnvelopeInput collects everything needed to open a draft.
type CreateEnvelopeInput struct {
	SenderID       id.UserID
	Subject        string
	Message        string
	SigningOrder   models.SigningOrder
	ExpirationDays int
	DocumentIDs    []id.DocumentID
	Recipients     []RecipientInput
}

// EnvelopeDetails is the full read model for one envelope.
type EnvelopeDetails struct {
	Envelope   *models.Envelope
	Recipients []*models.Recipient
	Documents  []*models.DocumentLink
	Sender     *identity.User
}

// CreateEnvelope validates and persists a draft envelope with its document
// links and any initial recipients. Nothing is notified until Send.
func (s *Service) CreateEnvelope(ctx context.Context, in CreateEnvelopeInput) (*models.Workflow, error) {
	now := requestcontext.Now(ctx)

	if len(in.DocumentIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one document is required")
	}
	if len(in.DocumentIDs) > s.policy.MaxDocuments {
		return nil, dErrors.Newf(dErrors.CodeValidation, "cannot exceed %d documents per envelope", s.policy.MaxDocuments)
	}
	seen := make(map[id.DocumentID]struct{}, len(in.DocumentIDs))
	for _, docID := range in.DocumentIDs {
		if _, dup := seen[docID]; dup {
			return nil, dErrors.New(dErrors.CodeValidation, "duplicate document ids are not allowed")
		}
		seen[docID] = struct{}{}
	}

	// Every attached document must exist, belong to the sender, and be
	// ready before it can enter an envelope.
	for _, docID := range in.DocumentIDs {
		doc, err := s.documents.GetDocument(ctx, docID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Newf(dErrors.CodeValidation, "document %s not found", docID)
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check document")
		}
		if doc.OwnerID != in.SenderID {
			return nil, dErrors.Newf(dErrors.CodeForbidden, "no access to document %s", docID)
		}
		if doc.Status != docmodels.DocumentStatusReady {
			return nil, dErrors.Newf(dErrors.CodeValidation, "document %s is not ready (status: %s)", docID, doc.Status)
		}
	}

	if len(in.Recipients) > s.policy.MaxRecipients {
		return nil, dErrors.Newf(dErrors.CodeValidation, "cannot exceed %d recipients per envelope", s.policy.MaxRecipients)
	}

	env, err := models.NewEnvelope(id.NewEnvelopeID(), in.SenderID, in.Subject, in.Message, in.SigningOrder, in.ExpirationDays, s.policy, now)
	if err != nil {
		return nil, asValidation(err)
	}

	links := make([]*models.DocumentLink, 0, len(in.DocumentIDs))
	for idx, docID := range in.DocumentIDs {
		link, err := models.NewDocumentLink(env.ID, docID, idx, now)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	w := &models.Workflow{Envelope: env}
	for _, rin := range in.Recipients {
		rec, err := models.NewRecipient(id.NewRecipientID(), env.ID, rin.Name, rin.Email, rin.Phone, rin.Role, rin.SigningOrder, s.policy, now)
		if err != nil {
			return nil, asValidation(err)
		}
		w.Recipients = append(w.Recipients, rec)
	}

	if err := s.store.CreateEnvelope(ctx, w, links); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create envelope")
	}

	s.logger.InfoContext(ctx, "envelope created",
		"envelope_id", env.ID.String(),
		"documents", len(links),
		"recipients", len(w.Recipients),
	)
	if s.metrics != nil {
		s.metrics.EnvelopesCreated.Inc()
	}
	return w, nil
}

// GetEnvelope loads the full read model with authorization: the caller must
// be the sender or share an email with one of the recipients. Plaintext
// access codes appear only for the sender, and only on explicit request.
func (s *Service) GetEnvelope(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID, includeAccessCodes bool) (*EnvelopeDetails, error) {
	w, err := s.store.GetWorkflow(ctx, envelopeID)
	if err != nil {
		return nil, wrapStoreErr(err, "envelope")
	}

	isSender := w.Envelope.SenderID == callerID
	if !isSender {
		caller, err := s.directory.GetUser(ctx, callerID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeForbidden, "no access to this envelope")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve caller")
		}
		match := false
		for _, r := range w.Recipients {
			if strings.EqualFold(r.Email, caller.Email) {
				match = true
				break
			}
		}
		if !match {
			return nil, dErrors.New(dErrors.CodeForbidden, "no access to this envelope")
		}
	}

	recipients := make([]*models.Recipient, 0, len(w.Recipients))
	for _, r := range w.Recipients {
		if isSender && includeAccessCodes {
			recipients = append(recipients, r)
			continue
		}
		recipients = append(recipients, r.Redact())
	}

	links, err := s.store.ListDocumentLinks(ctx, envelopeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load envelope documents")
	}

	sender, err := s.directory.GetUser(ctx, w.Envelope.SenderID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve sender")
	}

	return &EnvelopeDetails{
		Envelope:   w.Envelope,
		Recipients: recipients,
		Documents:  links,
		Sender:     sender,
	}, nil
}

// UpdateEnvelopeInput carries optional field updates; nil means unchanged.
type UpdateEnvelopeInput struct {
	Subject        *string
	Message        *string
	SigningOrder   *models.SigningOrder
	ExpirationDays *int
}

// UpdateEnvelope changes draft fields. Only the sender may update, only while
// the envelope is a draft, and each field is revalidated as at creation.
func (s *Service) UpdateEnvelope(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID, in UpdateEnvelopeInput) (*models.Envelope, error) {
	now := requestcontext.Now(ctx)

	w, err := s.store.Execute(ctx, envelopeID,
		func(w *models.Workflow) error {
			if w.Envelope.SenderID != callerID {
				return dErrors.New(dErrors.CodeForbidden, "only the sender can update the envelope")
			}
			if err := w.Envelope.CanUpdate(); err != nil {
				return asValidation(err)
			}
			if in.Subject != nil {
				if err := models.ValidateSubject(s.policy, *in.Subject); err != nil {
					return err
				}
			}
			if in.Message != nil {
				if err := models.ValidateMessage(s.policy, *in.Message); err != nil {
					return err
				}
			}
			if in.ExpirationDays != nil {
				if err := models.ValidateExpirationDays(s.policy, *in.ExpirationDays); err != nil {
					return err
				}
			}
			return nil
		},
		func(w *models.Workflow) {
			if in.Subject != nil {
				w.Envelope.Subject = *in.Subject
			}
			if in.Message != nil {
				w.Envelope.Message = *in.Message
			}
			if in.SigningOrder != nil {
				w.Envelope.SigningOrder = *in.SigningOrder
			}
			if in.ExpirationDays != nil {
				w.Envelope.ExpirationDays = *in.ExpirationDays
			}
			w.Envelope.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, wrapExecuteErr(err)
	}

	s.logger.InfoContext(ctx, "envelope updated", "envelope_id", envelopeID.String())
	return w.Envelope, nil
}

// SendEnvelope transitions draft→sent and fans notification out to the first
// wave of recipients: everyone under parallel order, only the lowest
// signing-order group of signers under sequential order.
func (s *Service) SendEnvelope(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID) (*models.Envelope, error) {
	now := requestcontext.Now(ctx)

	w, err := s.store.Execute(ctx, envelopeID,
		func(w *models.Workflow) error {
			if w.Envelope.SenderID != callerID {
				return dErrors.New(dErrors.CodeForbidden, "only the sender can send the envelope")
			}
			if err := w.Envelope.CanSend(); err != nil {
				return asValidation(err)
			}
			if len(w.Recipients) == 0 {
				return dErrors.New(dErrors.CodeValidation, "envelope must have at least one recipient")
			}
			if !w.HasSigner() {
				return dErrors.New(dErrors.CodeValidation, "envelope must have at least one signer")
			}
			return nil
		},
		func(w *models.Workflow) {
			w.Envelope.ApplySend(now)
			if w.Envelope.SigningOrder == models.SigningOrderSequential {
				for _, r := range w.SignersAt(w.MinSignerOrder()) {
					r.MarkSent(now)
					w.Advanced = append(w.Advanced, r)
				}
				return
			}
			for _, r := range w.Recipients {
				r.MarkSent(now)
				w.Advanced = append(w.Advanced, r)
			}
		},
	)
	if err != nil {
		return nil, wrapExecuteErr(err)
	}

	for _, r := range w.Advanced {
		s.dispatchRecipientSent(ctx, w.Envelope, r)
	}

	s.logger.InfoContext(ctx, "envelope sent",
		"envelope_id", envelopeID.String(),
		"notified", len(w.Advanced),
	)
	if s.metrics != nil {
		s.metrics.EnvelopesSent.Inc()
	}
	return w.Envelope, nil
}

// VoidEnvelope lets the sender abort an in-flight envelope with a reason.
// Terminal envelopes and drafts cannot be voided.
func (s *Service) VoidEnvelope(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID, reason string) (*models.Envelope, error) {
	now := requestcontext.Now(ctx)
	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "void reason is required")
	}

	w, err := s.store.Execute(ctx, envelopeID,
		func(w *models.Workflow) error {
			if w.Envelope.SenderID != callerID {
				return dErrors.New(dErrors.CodeForbidden, "only the sender can void the envelope")
			}
			return asValidation(w.Envelope.CanVoid())
		},
		func(w *models.Workflow) {
			w.Envelope.ApplyVoid(reason, now)
		},
	)
	if err != nil {
		return nil, wrapExecuteErr(err)
	}

	if s.notifier != nil {
		s.notify(ctx, "envelope.voided", func() error {
			return s.notifier.EnvelopeVoided(ctx, w.Envelope, w.Recipients)
		})
	}

	s.logger.InfoContext(ctx, "envelope voided", "envelope_id", envelopeID.String())
	if s.metrics != nil {
		s.metrics.EnvelopesVoided.Inc()
	}
	return w.Envelope, nil
}

// DeleteEnvelope removes a draft entirely, releasing its document links.
// Sent envelopes are voided, never deleted.
func (s *Service) DeleteEnvelope(ctx context.Context, envelopeID id.EnvelopeID, callerID id.UserID) error {
	w, err := s.store.GetWorkflow(ctx, envelopeID)
	if err != nil {
		return wrapStoreErr(err, "envelope")
	}
	if w.Envelope.SenderID != callerID {
		return dErrors.New(dErrors.CodeForbidden, "only the sender can delete the envelope")
	}
	if w.Envelope.Status != models.EnvelopeStatusDraft {
		return dErrors.Newf(dErrors.CodeValidation, "cannot delete envelope with status %q (void it instead)", w.Envelope.Status)
	}
	if err := s.store.DeleteEnvelope(ctx, envelopeID); err != nil {
		return wrapStoreErr(err, "envelope")
	}
	s.logger.InfoContext(ctx, "envelope deleted", "envelope_id", envelopeID.String())
	return nil
}

// EnvelopePage is one page of a listing.
type EnvelopePage struct {
	Envelopes []*models.Envelope
	Total     int
	HasMore   bool
}

// ListEnvelopes pages through the caller's envelopes, optionally filtered by
// status.
func (s *Service) ListEnvelopes(ctx context.Context, callerID id.UserID, status *models.EnvelopeStatus, page, pageSize int) (*EnvelopePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	envelopes, total, err := s.store.ListEnvelopes(ctx, ListFilter{
		SenderID: callerID,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list envelopes")
	}
	return &EnvelopePage{
		Envelopes: envelopes,
		Total:     total,
		HasMore:   page*pageSize < total,
	}, nil
}

// ExpireOverdue transitions every in-flight envelope whose deadline passed to
// expired, and reports how many it moved. The expiry sweeper calls this on a
// schedule; it is safe to run concurrently because each transition revalidates
// under the envelope lock.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	candidates, err := s.store.ListExpiredCandidates(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expiring envelopes")
	}

	expired := 0
	for _, envelopeID := range candidates {
		_, err := s.store.Execute(ctx, envelopeID,
			func(w *models.Workflow) error {
				if !w.Envelope.Status.InFlight() || !w.Envelope.IsExpired(now) {
					return sentinel.ErrInvalidState
				}
				return nil
			},
			func(w *models.Workflow) {
				w.Envelope.ApplyExpire(now)
			},
		)
		if err != nil {
			// A concurrent completion or void winning the race is
			// expected, not a sweep failure.
			if errors.Is(err, sentinel.ErrInvalidState) || errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return expired, dErrors.Wrap(err, dErrors.CodeInternal, "failed to expire envelope")
		}
		expired++
		s.logger.InfoContext(ctx, "envelope expired", "envelope_id", envelopeID.String())
		if s.metrics != nil {
			s.metrics.EnvelopesExpired.Inc()
		}
	}
	return expired, nil
}

// dispatchRecipientSent tells the notifier about one newly notified
// recipient, logging instead of failing.
func (s *Service) dispatchRecipientSent(ctx context.Context, env *models.Envelope, r *models.Recipient) {
	if s.notifier == nil {
		return
	}
	s.notify(ctx, "recipient.sent", func() error {
		return s.notifier.RecipientSent(ctx, env, r)
	})
}

// wrapExecuteErr translates Execute failures: coded domain errors from the
// validate callback pass through, sentinel errors map to their domain codes.
func wrapExecuteErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "envelope not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "envelope was modified concurrently, retry the request")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "envelope transition failed")
	}
}
