package models

import (
	"time"

	"github.com/google/uuid"

	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

// DocumentLink associates a document with an envelope at a display position.
// Links are created when the envelope is, never mutated, and removed only by
// removing the whole envelope. The set of live links is the canonical record
// of document usage; the registry's in-use guard is derived from it.
type DocumentLink struct {
	ID           uuid.UUID     `json:"id"`
	EnvelopeID   id.EnvelopeID `json:"envelope_id"`
	DocumentID   id.DocumentID `json:"document_id"`
	DisplayOrder int           `json:"display_order"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewDocumentLink constructs a link at the given 0-indexed display position.
func NewDocumentLink(envelopeID id.EnvelopeID, documentID id.DocumentID, displayOrder int, now time.Time) (*DocumentLink, error) {
	if displayOrder < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "display order must be non-negative")
	}
	return &DocumentLink{
		ID:           uuid.New(),
		EnvelopeID:   envelopeID,
		DocumentID:   documentID,
		DisplayOrder: displayOrder,
		CreatedAt:    now,
	}, nil
}
