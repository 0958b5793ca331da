package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"signet/internal/envelope/models"
	"signet/internal/envelope/service"
	id "signet/pkg/domain"
	"signet/pkg/platform/sentinel"
)

// InMemory keeps envelope aggregates in process memory. Each aggregate is
// guarded by its own mutex so Execute serializes transitions per envelope
// while unrelated envelopes proceed in parallel, matching the row-lock
// semantics of the Postgres store.
type InMemory struct {
	mu        sync.RWMutex
	envelopes map[id.EnvelopeID]*aggregate
}

type aggregate struct {
	lock     sync.Mutex
	workflow *models.Workflow
	links    []*models.DocumentLink
	version  int64
}

func NewInMemory() *InMemory {
	return &InMemory{envelopes: make(map[id.EnvelopeID]*aggregate)}
}

func (s *InMemory) CreateEnvelope(_ context.Context, w *models.Workflow, links []*models.DocumentLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.envelopes[w.Envelope.ID]; exists {
		return sentinel.ErrConflict
	}
	w.Envelope.Version = 1
	s.envelopes[w.Envelope.ID] = &aggregate{
		workflow: cloneWorkflow(w),
		links:    cloneLinks(links),
		version:  1,
	}
	return nil
}

func (s *InMemory) GetWorkflow(_ context.Context, envelopeID id.EnvelopeID) (*models.Workflow, error) {
	agg, err := s.get(envelopeID)
	if err != nil {
		return nil, err
	}
	agg.lock.Lock()
	defer agg.lock.Unlock()
	return cloneWorkflow(agg.workflow), nil
}

// Execute serializes on the aggregate's own lock: validate sees the current
// state, apply mutates a working copy, and the copy replaces the stored state
// only when both succeed.
func (s *InMemory) Execute(_ context.Context, envelopeID id.EnvelopeID, validate func(*models.Workflow) error, apply func(*models.Workflow)) (*models.Workflow, error) {
	agg, err := s.get(envelopeID)
	if err != nil {
		return nil, err
	}
	agg.lock.Lock()
	defer agg.lock.Unlock()

	working := cloneWorkflow(agg.workflow)
	if validate != nil {
		if err := validate(working); err != nil {
			return nil, err
		}
	}
	if apply != nil {
		apply(working)
	}

	agg.version++
	working.Envelope.Version = agg.version

	committed := cloneWorkflow(working)
	committed.Advanced = nil
	agg.workflow = committed
	return working, nil
}

func (s *InMemory) DeleteEnvelope(_ context.Context, envelopeID id.EnvelopeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.envelopes[envelopeID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.envelopes, envelopeID)
	return nil
}

func (s *InMemory) ListEnvelopes(_ context.Context, filter service.ListFilter) ([]*models.Envelope, int, error) {
	s.mu.RLock()
	matched := make([]*models.Envelope, 0)
	for _, agg := range s.envelopes {
		env := agg.workflow.Envelope
		if env.SenderID != filter.SenderID {
			continue
		}
		if filter.Status != nil && env.Status != *filter.Status {
			continue
		}
		matched = append(matched, cloneEnvelope(env))
	}
	s.mu.RUnlock()

	// Newest first, stable across pages.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() > matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return []*models.Envelope{}, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *InMemory) ListDocumentLinks(_ context.Context, envelopeID id.EnvelopeID) ([]*models.DocumentLink, error) {
	agg, err := s.get(envelopeID)
	if err != nil {
		return nil, err
	}
	agg.lock.Lock()
	defer agg.lock.Unlock()
	links := cloneLinks(agg.links)
	sort.Slice(links, func(i, j int) bool { return links[i].DisplayOrder < links[j].DisplayOrder })
	return links, nil
}

func (s *InMemory) CountLinksByDocument(_ context.Context, documentID id.DocumentID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, agg := range s.envelopes {
		for _, link := range agg.links {
			if link.DocumentID == documentID {
				n++
			}
		}
	}
	return n, nil
}

func (s *InMemory) FindRecipientByAccessCodeHash(_ context.Context, envelopeID id.EnvelopeID, hash string) (*models.Recipient, error) {
	agg, err := s.get(envelopeID)
	if err != nil {
		return nil, err
	}
	agg.lock.Lock()
	defer agg.lock.Unlock()
	for _, r := range agg.workflow.Recipients {
		if r.AccessCodeHash == hash {
			clone := *r
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListExpiredCandidates(_ context.Context, now time.Time) ([]id.EnvelopeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []id.EnvelopeID
	for envelopeID, agg := range s.envelopes {
		env := agg.workflow.Envelope
		if env.Status.InFlight() && env.IsExpired(now) {
			out = append(out, envelopeID)
		}
	}
	return out, nil
}

func (s *InMemory) get(envelopeID id.EnvelopeID) (*aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agg, ok := s.envelopes[envelopeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return agg, nil
}

func cloneWorkflow(w *models.Workflow) *models.Workflow {
	out := &models.Workflow{Envelope: cloneEnvelope(w.Envelope)}
	for _, r := range w.Recipients {
		clone := *r
		out.Recipients = append(out.Recipients, &clone)
	}
	return out
}

func cloneEnvelope(e *models.Envelope) *models.Envelope {
	clone := *e
	return &clone
}

func cloneLinks(links []*models.DocumentLink) []*models.DocumentLink {
	out := make([]*models.DocumentLink, 0, len(links))
	for _, l := range links {
		clone := *l
		out = append(out, &clone)
	}
	return out
}
