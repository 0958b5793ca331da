package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"signet/internal/envelope/models"
	"signet/internal/envelope/service"
	"signet/internal/envelope/store"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *store.InMemory
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *MemoryStoreSuite) newWorkflow(senderID id.UserID) (*models.Workflow, []*models.DocumentLink) {
	policy := models.DefaultPolicy()
	env, err := models.NewEnvelope(id.NewEnvelopeID(), senderID, "Subject", "", models.SigningOrderParallel, 0, policy, s.now)
	s.Require().NoError(err)
	rec, err := models.NewRecipient(id.NewRecipientID(), env.ID, "One", "one@example.com", "", models.RecipientRoleSigner, 1, policy, s.now)
	s.Require().NoError(err)
	link, err := models.NewDocumentLink(env.ID, id.NewDocumentID(), 0, s.now)
	s.Require().NoError(err)
	return &models.Workflow{Envelope: env, Recipients: []*models.Recipient{rec}}, []*models.DocumentLink{link}
}

func (s *MemoryStoreSuite) TestCreateAndGet() {
	w, links := s.newWorkflow(id.NewUserID())
	s.Require().NoError(s.store.CreateEnvelope(s.ctx, w, links))
	s.Equal(int64(1), w.Envelope.Version)

	loaded, err := s.store.GetWorkflow(s.ctx, w.Envelope.ID)
	s.Require().NoError(err)
	s.Equal(w.Envelope.Subject, loaded.Envelope.Subject)
	s.Len(loaded.Recipients, 1)

	s.Run("duplicate create conflicts", func() {
		s.ErrorIs(s.store.CreateEnvelope(s.ctx, w, links), sentinel.ErrConflict)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.GetWorkflow(s.ctx, id.NewEnvelopeID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestGetReturnsIsolatedCopy() {
	w, links := s.newWorkflow(id.NewUserID())
	s.Require().NoError(s.store.CreateEnvelope(s.ctx, w, links))

	loaded, err := s.store.GetWorkflow(s.ctx, w.Envelope.ID)
	s.Require().NoError(err)
	loaded.Envelope.Subject = "mutated outside the store"
	loaded.Recipients[0].Status = models.RecipientStatusSigned

	again, err := s.store.GetWorkflow(s.ctx, w.Envelope.ID)
	s.Require().NoError(err)
	s.Equal("Subject", again.Envelope.Subject)
	s.Equal(models.RecipientStatusPending, again.Recipients[0].Status)
}

func (s *MemoryStoreSuite) TestExecute() {
	w, links := s.newWorkflow(id.NewUserID())
	s.Require().NoError(s.store.CreateEnvelope(s.ctx, w, links))

	s.Run("validate failure leaves state untouched", func() {
		_, err := s.store.Execute(s.ctx, w.Envelope.ID,
			func(w *models.Workflow) error {
				return dErrors.New(dErrors.CodeValidation, "no")
			},
			func(w *models.Workflow) {
				w.Envelope.Subject = "should not persist"
			},
		)
		s.Require().Error(err)

		loaded, err := s.store.GetWorkflow(s.ctx, w.Envelope.ID)
		s.Require().NoError(err)
		s.Equal("Subject", loaded.Envelope.Subject)
		s.Equal(int64(1), loaded.Envelope.Version)
	})

	s.Run("apply persists and bumps version", func() {
		updated, err := s.store.Execute(s.ctx, w.Envelope.ID, nil,
			func(w *models.Workflow) {
				w.Envelope.ApplySend(s.now)
				w.Recipients[0].MarkSent(s.now)
			},
		)
		s.Require().NoError(err)
		s.Equal(int64(2), updated.Envelope.Version)

		loaded, err := s.store.GetWorkflow(s.ctx, w.Envelope.ID)
		s.Require().NoError(err)
		s.Equal(models.EnvelopeStatusSent, loaded.Envelope.Status)
		s.Equal(models.RecipientStatusSent, loaded.Recipients[0].Status)
	})

	s.Run("advanced bookkeeping is not persisted", func() {
		_, err := s.store.Execute(s.ctx, w.Envelope.ID, nil,
			func(w *models.Workflow) {
				w.Advanced = append(w.Advanced, w.Recipients[0])
			},
		)
		s.Require().NoError(err)
		loaded, err := s.store.GetWorkflow(s.ctx, w.Envelope.ID)
		s.Require().NoError(err)
		s.Nil(loaded.Advanced)
	})
}

func (s *MemoryStoreSuite) TestExecuteSerializesPerEnvelope() {
	w, links := s.newWorkflow(id.NewUserID())
	s.Require().NoError(s.store.CreateEnvelope(s.ctx, w, links))

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(s.ctx, w.Envelope.ID, nil,
				func(w *models.Workflow) {
					w.Envelope.ExpirationDays++
				},
			)
			s.NoError(err)
		}()
	}
	wg.Wait()

	loaded, err := s.store.GetWorkflow(s.ctx, w.Envelope.ID)
	s.Require().NoError(err)
	s.Equal(30+workers, loaded.Envelope.ExpirationDays)
	s.Equal(int64(1+workers), loaded.Envelope.Version)
}

func (s *MemoryStoreSuite) TestDelete() {
	w, links := s.newWorkflow(id.NewUserID())
	s.Require().NoError(s.store.CreateEnvelope(s.ctx, w, links))

	docID := links[0].DocumentID
	n, err := s.store.CountLinksByDocument(s.ctx, docID)
	s.Require().NoError(err)
	s.Equal(1, n)

	s.Require().NoError(s.store.DeleteEnvelope(s.ctx, w.Envelope.ID))
	_, err = s.store.GetWorkflow(s.ctx, w.Envelope.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// Links die with the envelope, releasing the document.
	n, err = s.store.CountLinksByDocument(s.ctx, docID)
	s.Require().NoError(err)
	s.Zero(n)

	s.ErrorIs(s.store.DeleteEnvelope(s.ctx, w.Envelope.ID), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestListEnvelopes() {
	senderID := id.NewUserID()
	otherID := id.NewUserID()
	for i := 0; i < 3; i++ {
		w, links := s.newWorkflow(senderID)
		w.Envelope.CreatedAt = s.now.Add(time.Duration(i) * time.Hour)
		s.Require().NoError(s.store.CreateEnvelope(s.ctx, w, links))
	}
	other, otherLinks := s.newWorkflow(otherID)
	s.Require().NoError(s.store.CreateEnvelope(s.ctx, other, otherLinks))

	envs, total, err := s.store.ListEnvelopes(s.ctx, service.ListFilter{SenderID: senderID, Page: 1, PageSize: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(envs, 2)
	s.True(envs[0].CreatedAt.After(envs[1].CreatedAt), "newest first")

	envs, total, err = s.store.ListEnvelopes(s.ctx, service.ListFilter{SenderID: senderID, Page: 2, PageSize: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(envs, 1)

	draft := models.EnvelopeStatusDraft
	envs, _, err = s.store.ListEnvelopes(s.ctx, service.ListFilter{SenderID: otherID, Status: &draft, Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Len(envs, 1)
}

func (s *MemoryStoreSuite) TestFindRecipientByAccessCodeHash() {
	w, links := s.newWorkflow(id.NewUserID())
	s.Require().NoError(s.store.CreateEnvelope(s.ctx, w, links))
	hash := w.Recipients[0].AccessCodeHash

	found, err := s.store.FindRecipientByAccessCodeHash(s.ctx, w.Envelope.ID, hash)
	s.Require().NoError(err)
	s.Equal(w.Recipients[0].ID, found.ID)

	_, err = s.store.FindRecipientByAccessCodeHash(s.ctx, w.Envelope.ID, models.HashAccessCode("000000"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestListExpiredCandidates() {
	w, links := s.newWorkflow(id.NewUserID())
	s.Require().NoError(s.store.CreateEnvelope(s.ctx, w, links))

	// Draft never expires.
	ids, err := s.store.ListExpiredCandidates(s.ctx, s.now.AddDate(2, 0, 0))
	s.Require().NoError(err)
	s.Empty(ids)

	_, err = s.store.Execute(s.ctx, w.Envelope.ID, nil, func(w *models.Workflow) {
		w.Envelope.ApplySend(s.now)
	})
	s.Require().NoError(err)

	ids, err = s.store.ListExpiredCandidates(s.ctx, s.now.AddDate(2, 0, 0))
	s.Require().NoError(err)
	s.Equal([]id.EnvelopeID{w.Envelope.ID}, ids)

	ids, err = s.store.ListExpiredCandidates(s.ctx, s.now)
	s.Require().NoError(err)
	s.Empty(ids)
}
