package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"signet/internal/envelope/models"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

type RecipientModelSuite struct {
	suite.Suite
	now    time.Time
	policy models.Policy
}

func TestRecipientModelSuite(t *testing.T) {
	suite.Run(t, new(RecipientModelSuite))
}

func (s *RecipientModelSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.policy = models.DefaultPolicy()
}

func (s *RecipientModelSuite) newSigner() *models.Recipient {
	rec, err := models.NewRecipient(id.NewRecipientID(), id.NewEnvelopeID(), "Sig Ner", "signer@example.com", "", models.RecipientRoleSigner, 1, s.policy, s.now)
	s.Require().NoError(err)
	return rec
}

func (s *RecipientModelSuite) TestConstruction() {
	s.Run("generates a hashed access code", func() {
		rec := s.newSigner()
		s.Len(rec.AccessCode, s.policy.AccessCodeLength)
		s.Len(rec.AccessCodeHash, 64)
		s.Equal(models.HashAccessCode(rec.AccessCode), rec.AccessCodeHash)
		s.Equal(models.RecipientStatusPending, rec.Status)
	})

	s.Run("codes are numeric", func() {
		rec := s.newSigner()
		for _, c := range rec.AccessCode {
			s.True(c >= '0' && c <= '9')
		}
	})

	s.Run("defaults signing order to 1", func() {
		rec, err := models.NewRecipient(id.NewRecipientID(), id.NewEnvelopeID(), "N", "n@example.com", "", models.RecipientRoleCC, 0, s.policy, s.now)
		s.Require().NoError(err)
		s.Equal(1, rec.SigningOrder)
	})

	s.Run("rejects invalid email", func() {
		_, err := models.NewRecipient(id.NewRecipientID(), id.NewEnvelopeID(), "N", "not-an-email", "", models.RecipientRoleSigner, 1, s.policy, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects negative signing order", func() {
		_, err := models.NewRecipient(id.NewRecipientID(), id.NewEnvelopeID(), "N", "n@example.com", "", models.RecipientRoleSigner, -2, s.policy, s.now)
		s.Require().Error(err)
	})
}

func (s *RecipientModelSuite) TestVerifyAccessCode() {
	rec := s.newSigner()
	s.True(rec.VerifyAccessCode(rec.AccessCode))
	s.False(rec.VerifyAccessCode("999999"))
	s.False(rec.VerifyAccessCode(""))

	bare := &models.Recipient{}
	s.False(bare.VerifyAccessCode("123456"))
}

func (s *RecipientModelSuite) TestCanSign() {
	s.Run("signer in any live status can sign", func() {
		rec := s.newSigner()
		s.NoError(rec.CanSign())
		rec.MarkSent(s.now)
		s.NoError(rec.CanSign())
		rec.MarkViewed(s.now)
		s.NoError(rec.CanSign())
	})

	s.Run("cc and approver roles cannot sign", func() {
		for _, role := range []models.RecipientRole{models.RecipientRoleCC, models.RecipientRoleApprover} {
			rec, err := models.NewRecipient(id.NewRecipientID(), id.NewEnvelopeID(), "N", "n@example.com", "", role, 1, s.policy, s.now)
			s.Require().NoError(err)
			s.Error(rec.CanSign())
		}
	})

	s.Run("terminal recipients cannot sign again", func() {
		rec := s.newSigner()
		rec.MarkSigned(s.now)
		s.Error(rec.CanSign())

		declined := s.newSigner()
		s.Require().NoError(declined.MarkDeclined("no", s.now))
		s.Error(declined.CanSign())
	})
}

func (s *RecipientModelSuite) TestMarkViewed() {
	rec := s.newSigner()
	rec.MarkSent(s.now)

	rec.MarkViewed(s.now)
	s.Equal(models.RecipientStatusViewed, rec.Status)
	first := *rec.ViewedAt

	later := s.now.Add(time.Hour)
	rec.MarkViewed(later)
	s.Equal(models.RecipientStatusViewed, rec.Status)
	s.True(rec.ViewedAt.Equal(first), "first view timestamp is sticky")

	// A terminal recipient records the view time but never reverts status.
	rec.MarkSigned(later)
	rec.MarkViewed(later.Add(time.Hour))
	s.Equal(models.RecipientStatusSigned, rec.Status)
}

func (s *RecipientModelSuite) TestMarkDeclined() {
	rec := s.newSigner()
	s.Require().Error(rec.MarkDeclined("  ", s.now), "reason is mandatory")

	s.Require().NoError(rec.MarkDeclined("terms unacceptable", s.now))
	s.Equal(models.RecipientStatusDeclined, rec.Status)
	s.Equal("terms unacceptable", rec.DeclineReason)
	s.Require().NotNil(rec.DeclinedAt)
}

func (s *RecipientModelSuite) TestRedact() {
	rec := s.newSigner()
	clone := rec.Redact()
	s.Empty(clone.AccessCode)
	s.NotEmpty(clone.AccessCodeHash)
	s.NotEmpty(rec.AccessCode, "original is untouched")
	s.Equal(rec.ID, clone.ID)
}

func (s *RecipientModelSuite) TestGenerateAccessCodeSpread() {
	// Not a statistical test; just catches a constant generator.
	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		code, err := models.GenerateAccessCode(6)
		s.Require().NoError(err)
		s.Len(code, 6)
		seen[code] = true
	}
	s.Greater(len(seen), 1)
}
