package domain

import (
	"github.com/google/uuid"

	dErrors "signet/pkg/domain-errors"
)

// Typed identifiers keep the compiler from ever accepting an envelope ID where
// a recipient ID is expected. All parsing happens at trust boundaries; inside
// the service layer an ID is assumed valid, non-nil.
type (
	UserID      uuid.UUID
	EnvelopeID  uuid.UUID
	RecipientID uuid.UUID
	DocumentID  uuid.UUID
)

// parseUUID enforces the boundary invariant: valid, non-empty, non-nil.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return id, nil
}

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s)
	return UserID(id), err
}

func ParseEnvelopeID(s string) (EnvelopeID, error) {
	id, err := parseUUID(s)
	return EnvelopeID(id), err
}

func ParseRecipientID(s string) (RecipientID, error) {
	id, err := parseUUID(s)
	return RecipientID(id), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	id, err := parseUUID(s)
	return DocumentID(id), err
}

func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id EnvelopeID) String() string  { return uuid.UUID(id).String() }
func (id RecipientID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id EnvelopeID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id RecipientID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// NewUserID and friends are convenience constructors for fresh identifiers.
func NewUserID() UserID           { return UserID(uuid.New()) }
func NewEnvelopeID() EnvelopeID   { return EnvelopeID(uuid.New()) }
func NewRecipientID() RecipientID { return RecipientID(uuid.New()) }
func NewDocumentID() DocumentID   { return DocumentID(uuid.New()) }
