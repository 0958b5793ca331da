package models

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

// Recipient is a participant in an envelope's signing workflow.
//
// Invariants:
//   - AccessCodeHash is assigned once at creation and never changes
//   - Only the signer role can reach the signed status
//   - AccessCode (plaintext) is transient: it is returned once to the sender
//     at creation and stripped from every other read path
type Recipient struct {
	ID             id.RecipientID  `json:"id"`
	EnvelopeID     id.EnvelopeID   `json:"envelope_id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone,omitempty"`
	Role           RecipientRole   `json:"role"`
	SigningOrder   int             `json:"signing_order"`
	Status         RecipientStatus `json:"status"`
	AccessCode     string          `json:"access_code,omitempty"`
	AccessCodeHash string          `json:"-"`
	DeclineReason  string          `json:"decline_reason,omitempty"`
	SentAt         *time.Time      `json:"sent_at,omitempty"`
	ViewedAt       *time.Time      `json:"viewed_at,omitempty"`
	SignedAt       *time.Time      `json:"signed_at,omitempty"`
	DeclinedAt     *time.Time      `json:"declined_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// GenerateAccessCode draws a numeric code from crypto/rand. A general-purpose
// PRNG is not acceptable here: the code is the only secret an unauthenticated
// recipient presents.
func GenerateAccessCode(length int) (string, error) {
	var b strings.Builder
	for range length {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate access code: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// HashAccessCode returns the hex SHA-256 of a plaintext code. Hashes, not
// plaintexts, are what stores index for lookup.
func HashAccessCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// ValidateRecipientName enforces the name length policy.
func ValidateRecipientName(p Policy, name string) error {
	if strings.TrimSpace(name) == "" {
		return dErrors.New(dErrors.CodeValidation, "recipient name is required")
	}
	if len(name) > p.MaxRecipientNameLength {
		return dErrors.Newf(dErrors.CodeValidation, "recipient name cannot exceed %d characters", p.MaxRecipientNameLength)
	}
	return nil
}

// ValidateRecipientEmail enforces well-formedness of the address.
func ValidateRecipientEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return dErrors.New(dErrors.CodeValidation, "recipient email is required")
	}
	if !govalidator.IsEmail(email) {
		return dErrors.New(dErrors.CodeValidation, "invalid email format")
	}
	return nil
}

// ValidateSigningOrder enforces the 1-based order. Ties are permitted: equal
// values form one signing-order group.
func ValidateSigningOrder(order int) error {
	if order < 1 {
		return dErrors.New(dErrors.CodeValidation, "signing order must be at least 1")
	}
	return nil
}

// NewRecipient constructs a pending recipient with a freshly generated access
// code. The plaintext code is present on the returned value exactly once.
func NewRecipient(recipientID id.RecipientID, envelopeID id.EnvelopeID, name, email, phone string, role RecipientRole, signingOrder int, p Policy, now time.Time) (*Recipient, error) {
	if err := ValidateRecipientName(p, name); err != nil {
		return nil, err
	}
	if err := ValidateRecipientEmail(email); err != nil {
		return nil, err
	}
	if signingOrder == 0 {
		signingOrder = 1
	}
	if err := ValidateSigningOrder(signingOrder); err != nil {
		return nil, err
	}
	code, err := GenerateAccessCode(p.AccessCodeLength)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate access code")
	}
	return &Recipient{
		ID:             recipientID,
		EnvelopeID:     envelopeID,
		Name:           name,
		Email:          email,
		Phone:          phone,
		Role:           role,
		SigningOrder:   signingOrder,
		Status:         RecipientStatusPending,
		AccessCode:     code,
		AccessCodeHash: HashAccessCode(code),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// VerifyAccessCode compares a presented code against the stored hash in
// constant time.
func (r *Recipient) VerifyAccessCode(code string) bool {
	if r.AccessCodeHash == "" {
		return false
	}
	presented := HashAccessCode(code)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(r.AccessCodeHash)) == 1
}

// CanSign checks the transition to signed: signers only, and never out of a
// terminal recipient status.
func (r *Recipient) CanSign() error {
	if r.Role != RecipientRoleSigner {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "recipient role %q cannot sign", r.Role)
	}
	switch r.Status {
	case RecipientStatusSigned:
		return dErrors.New(dErrors.CodeInvariantViolation, "recipient has already signed")
	case RecipientStatusDeclined:
		return dErrors.New(dErrors.CodeInvariantViolation, "recipient has declined")
	}
	return nil
}

// MarkSent records that the recipient was notified.
func (r *Recipient) MarkSent(now time.Time) {
	r.Status = RecipientStatusSent
	r.SentAt = &now
	r.UpdatedAt = now
}

// MarkViewed records the first open. Idempotent: the first ViewedAt is
// sticky, and terminal statuses are never reverted to viewed.
func (r *Recipient) MarkViewed(now time.Time) {
	if r.Status == RecipientStatusPending || r.Status == RecipientStatusSent {
		r.Status = RecipientStatusViewed
	}
	if r.ViewedAt == nil {
		r.ViewedAt = &now
	}
	r.UpdatedAt = now
}

// MarkSigned records the signature. Call CanSign first.
func (r *Recipient) MarkSigned(now time.Time) {
	r.Status = RecipientStatusSigned
	r.SignedAt = &now
	r.UpdatedAt = now
}

// MarkDeclined records the refusal with its mandatory reason.
func (r *Recipient) MarkDeclined(reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "decline reason is required")
	}
	r.Status = RecipientStatusDeclined
	r.DeclineReason = reason
	r.DeclinedAt = &now
	r.UpdatedAt = now
	return nil
}

// Redact strips the plaintext access code for read paths that must not leak
// it. Everyone but the sender (and the sender too, unless explicitly asked)
// sees redacted recipients.
func (r *Recipient) Redact() *Recipient {
	clone := *r
	clone.AccessCode = ""
	return &clone
}
