package models

import (
	"strings"
	"time"

	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

// DocumentStatus tracks processing of an uploaded file.
type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusFailed     DocumentStatus = "failed"
)

func ParseDocumentStatus(s string) (DocumentStatus, error) {
	switch DocumentStatus(s) {
	case DocumentStatusProcessing, DocumentStatusReady, DocumentStatusFailed:
		return DocumentStatus(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown document status %q", s)
}

// Document is registry metadata for an uploaded file. Bytes live behind the
// Storage capability; this entity only records what the workflow needs:
// ownership, readiness and deletion state. Whether a document is in use is
// derived from live envelope links, never cached on the row.
type Document struct {
	ID               id.DocumentID  `json:"id"`
	OwnerID          id.UserID      `json:"owner_id"`
	Name             string         `json:"name"`
	OriginalFilename string         `json:"original_filename"`
	StorageKey       string         `json:"storage_key"`
	ContentType      string         `json:"content_type"`
	SizeBytes        int64          `json:"size_bytes"`
	Checksum         string         `json:"checksum"`
	PageCount        int            `json:"page_count"`
	Status           DocumentStatus `json:"status"`
	FailureReason    string         `json:"failure_reason,omitempty"`
	UploadedAt       time.Time      `json:"uploaded_at"`
	DeletedAt        *time.Time     `json:"deleted_at,omitempty"`
}

// MaxFileSize bounds uploads at 50MB.
const MaxFileSize = 50 << 20

// ValidateName enforces a non-empty display name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return dErrors.New(dErrors.CodeValidation, "document name is required")
	}
	return nil
}

// ValidateSize rejects empty and oversized files.
func ValidateSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return dErrors.New(dErrors.CodeValidation, "file size must be greater than 0")
	}
	if sizeBytes > MaxFileSize {
		return dErrors.Newf(dErrors.CodeValidation, "file size exceeds the %dMB limit", MaxFileSize>>20)
	}
	return nil
}

// NewDocument registers file metadata in processing state.
func NewDocument(documentID id.DocumentID, ownerID id.UserID, name, originalFilename, storageKey, contentType string, sizeBytes int64, checksum string, now time.Time) (*Document, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateSize(sizeBytes); err != nil {
		return nil, err
	}
	return &Document{
		ID:               documentID,
		OwnerID:          ownerID,
		Name:             name,
		OriginalFilename: originalFilename,
		StorageKey:       storageKey,
		ContentType:      contentType,
		SizeBytes:        sizeBytes,
		Checksum:         checksum,
		Status:           DocumentStatusProcessing,
		UploadedAt:       now,
	}, nil
}

// MarkReady records successful processing.
func (d *Document) MarkReady(pageCount int) {
	d.Status = DocumentStatusReady
	d.PageCount = pageCount
	d.FailureReason = ""
}

// MarkFailed records a processing failure.
func (d *Document) MarkFailed(reason string) {
	d.Status = DocumentStatusFailed
	d.FailureReason = reason
}

// SoftDelete marks the document removed. The caller is responsible for the
// in-use guard; a deleted document is invisible to reads.
func (d *Document) SoftDelete(now time.Time) {
	d.DeletedAt = &now
}

// IsDeleted reports whether the document was soft-deleted.
func (d *Document) IsDeleted() bool { return d.DeletedAt != nil }
