package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	docmodels "signet/internal/document/models"
	envelopemetrics "signet/internal/envelope/metrics"
	"signet/internal/envelope/models"
	"signet/internal/identity"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/sentinel"
)

// ListFilter narrows and pages an envelope listing.
type ListFilter struct {
	SenderID id.UserID
	Status   *models.EnvelopeStatus
	Page     int
	PageSize int
}

// Store persists the envelope aggregate. Mutating transitions go through
// Execute, which must hold the envelope's lock (mutex or SELECT ... FOR
// UPDATE) across both callbacks so concurrent transitions on one envelope
// cannot interleave: two simultaneous signs cannot both observe "zero pending
// signers" from a stale read, and a void cannot silently overwrite a sign.
type Store interface {
	// CreateEnvelope persists a fresh draft aggregate with its document
	// links atomically.
	CreateEnvelope(ctx context.Context, w *models.Workflow, links []*models.DocumentLink) error
	// GetWorkflow loads the aggregate for reading.
	GetWorkflow(ctx context.Context, envelopeID id.EnvelopeID) (*models.Workflow, error)
	// Execute runs validate then apply on the locked aggregate and persists
	// the result. A validate error aborts without persisting anything.
	Execute(ctx context.Context, envelopeID id.EnvelopeID, validate func(*models.Workflow) error, apply func(*models.Workflow)) (*models.Workflow, error)
	// DeleteEnvelope removes a draft aggregate and its document links.
	DeleteEnvelope(ctx context.Context, envelopeID id.EnvelopeID) error
	ListEnvelopes(ctx context.Context, filter ListFilter) ([]*models.Envelope, int, error)
	ListDocumentLinks(ctx context.Context, envelopeID id.EnvelopeID) ([]*models.DocumentLink, error)
	// CountLinksByDocument derives the in-use guard from live links.
	CountLinksByDocument(ctx context.Context, documentID id.DocumentID) (int, error)
	FindRecipientByAccessCodeHash(ctx context.Context, envelopeID id.EnvelopeID, hash string) (*models.Recipient, error)
	// ListExpiredCandidates returns in-flight envelopes whose deadline
	// passed as of now.
	ListExpiredCandidates(ctx context.Context, now time.Time) ([]id.EnvelopeID, error)
}

// DocumentGetter is the registry capability the workflow needs at envelope
// creation: existence, ownership and readiness of each attached document.
type DocumentGetter interface {
	GetDocument(ctx context.Context, documentID id.DocumentID) (*docmodels.Document, error)
}

// UserDirectory resolves a user id to display identity. Credential handling
// lives elsewhere entirely; the workflow only needs names and emails.
type UserDirectory interface {
	GetUser(ctx context.Context, userID id.UserID) (*identity.User, error)
}

// Notifier is told when the workflow decides a notification is due. Dispatch
// is best effort: failures are logged, never propagated, and never roll back
// a state transition.
type Notifier interface {
	RecipientSent(ctx context.Context, envelope *models.Envelope, recipient *models.Recipient) error
	EnvelopeCompleted(ctx context.Context, envelope *models.Envelope, recipients []*models.Recipient) error
	EnvelopeDeclined(ctx context.Context, envelope *models.Envelope, recipients []*models.Recipient) error
	EnvelopeVoided(ctx context.Context, envelope *models.Envelope, recipients []*models.Recipient) error
}

// AttemptLimiter bounds access-code verification tries. Exhausted budgets are
// indistinguishable from failed matches to the caller.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// Service orchestrates the envelope signing workflow: lifecycle transitions,
// authorization, recipient sequencing and completion detection.
type Service struct {
	store     Store
	documents DocumentGetter
	directory UserDirectory
	notifier  Notifier
	limiter   AttemptLimiter
	policy    models.Policy
	logger    *slog.Logger
	metrics   *envelopemetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *envelopemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAttemptLimiter(l AttemptLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// New constructs the workflow service. The policy is an explicit value, not
// ambient configuration, so tests can tighten limits per case.
func New(store Store, documents DocumentGetter, directory UserDirectory, policy models.Policy, opts ...Option) *Service {
	s := &Service{
		store:     store,
		documents: documents,
		directory: directory,
		policy:    policy,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy exposes the limits in force, for handlers that surface them.
func (s *Service) Policy() models.Policy { return s.policy }

// wrapStoreErr translates sentinel store errors into coded domain errors.
func wrapStoreErr(err error, entity string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "envelope was modified concurrently, retry the request")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+entity)
	}
}

// asValidation rewrites invariant violations into validation errors for the
// caller; anything else passes through untouched.
func asValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	return err
}

// notify runs fn and logs instead of propagating: workflow state is
// authoritative even when delivery fails.
func (s *Service) notify(ctx context.Context, event string, fn func() error) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.ErrorContext(ctx, "notification dispatch failed",
			"event", event,
			"error", err.Error(),
		)
	}
}
