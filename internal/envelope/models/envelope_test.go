package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"signet/internal/envelope/models"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

type EnvelopeModelSuite struct {
	suite.Suite
	now    time.Time
	policy models.Policy
}

func TestEnvelopeModelSuite(t *testing.T) {
	suite.Run(t, new(EnvelopeModelSuite))
}

func (s *EnvelopeModelSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.policy = models.DefaultPolicy()
}

func (s *EnvelopeModelSuite) newDraft() *models.Envelope {
	env, err := models.NewEnvelope(id.NewEnvelopeID(), id.NewUserID(), "Subject", "", models.SigningOrderParallel, 0, s.policy, s.now)
	s.Require().NoError(err)
	return env
}

func (s *EnvelopeModelSuite) TestConstruction() {
	s.Run("applies defaults", func() {
		env := s.newDraft()
		s.Equal(models.EnvelopeStatusDraft, env.Status)
		s.Equal(s.policy.DefaultExpirationDays, env.ExpirationDays)
	})

	s.Run("rejects empty subject", func() {
		_, err := models.NewEnvelope(id.NewEnvelopeID(), id.NewUserID(), "  ", "", models.SigningOrderParallel, 0, s.policy, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects subject over the limit", func() {
		long := make([]byte, s.policy.MaxSubjectLength+1)
		for i := range long {
			long[i] = 'a'
		}
		_, err := models.NewEnvelope(id.NewEnvelopeID(), id.NewUserID(), string(long), "", models.SigningOrderParallel, 0, s.policy, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects expiration outside bounds", func() {
		_, err := models.NewEnvelope(id.NewEnvelopeID(), id.NewUserID(), "S", "", models.SigningOrderParallel, 366, s.policy, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = models.NewEnvelope(id.NewEnvelopeID(), id.NewUserID(), "S", "", models.SigningOrderParallel, -1, s.policy, s.now)
		s.Require().Error(err)
	})
}

func (s *EnvelopeModelSuite) TestSendTransition() {
	env := s.newDraft()
	s.Require().NoError(env.CanSend())

	env.ApplySend(s.now)
	s.Equal(models.EnvelopeStatusSent, env.Status)
	s.Require().NotNil(env.SentAt)
	s.Require().NotNil(env.ExpiresAt)
	s.Equal(s.now.AddDate(0, 0, env.ExpirationDays), *env.ExpiresAt)

	s.Error(env.CanSend())
	s.Error(env.CanUpdate())
}

func (s *EnvelopeModelSuite) TestVoidTransitions() {
	s.Run("draft cannot be voided", func() {
		env := s.newDraft()
		s.Error(env.CanVoid())
	})

	s.Run("sent can be voided once", func() {
		env := s.newDraft()
		env.ApplySend(s.now)
		s.Require().NoError(env.CanVoid())
		env.ApplyVoid("wrong counterparty", s.now)
		s.Equal(models.EnvelopeStatusVoided, env.Status)
		s.Equal("wrong counterparty", env.VoidReason)
		s.Error(env.CanVoid())
	})
}

func (s *EnvelopeModelSuite) TestTerminalStates() {
	terminal := []func(*models.Envelope){
		func(e *models.Envelope) { e.ApplyComplete(s.now) },
		func(e *models.Envelope) { e.ApplyDecline(s.now) },
		func(e *models.Envelope) { e.ApplyVoid("r", s.now) },
		func(e *models.Envelope) { e.ApplyExpire(s.now) },
	}
	for _, apply := range terminal {
		env := s.newDraft()
		env.ApplySend(s.now)
		apply(env)
		s.True(env.Status.IsTerminal())
		s.False(env.Status.InFlight())
		s.Error(env.CanSend())
		s.Error(env.CanUpdate())
		s.Error(env.CanVoid())
	}
}

func (s *EnvelopeModelSuite) TestIsExpired() {
	env := s.newDraft()
	s.False(env.IsExpired(s.now), "draft has no deadline")

	env.ApplySend(s.now)
	s.False(env.IsExpired(s.now))
	s.False(env.IsExpired(env.ExpiresAt.Add(-time.Second)))
	s.True(env.IsExpired(env.ExpiresAt.Add(time.Second)))
}
