package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"

	"signet/internal/document/models"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/sentinel"
	"signet/pkg/requestcontext"
)

// Store persists document metadata.
type Store interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	ListByOwner(ctx context.Context, ownerID id.UserID, page, pageSize int) ([]*models.Document, int, error)
}

// BlobStore holds document bytes under opaque keys.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// UsageCounter reports how many live envelope links reference a document.
// The count is derived from the canonical links at call time, so the guard
// can never drift from reality the way a stored counter could.
type UsageCounter interface {
	CountLinksByDocument(ctx context.Context, documentID id.DocumentID) (int, error)
}

// Service is the document registry: upload metadata, readiness, listing and
// guarded deletion.
type Service struct {
	store  Store
	blobs  BlobStore
	usage  UsageCounter
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, blobs BlobStore, usage UsageCounter, opts ...Option) *Service {
	s := &Service{
		store:  store,
		blobs:  blobs,
		usage:  usage,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadInput describes one incoming file.
type UploadInput struct {
	OwnerID          id.UserID
	Name             string
	OriginalFilename string
	ContentType      string
	SizeBytes        int64
	Content          io.Reader
}

// Upload stores the file bytes and registers metadata in processing state.
// The checksum is computed while streaming to the blob store.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*models.Document, error) {
	now := requestcontext.Now(ctx)
	if err := models.ValidateName(in.Name); err != nil {
		return nil, err
	}
	if err := models.ValidateSize(in.SizeBytes); err != nil {
		return nil, err
	}
	if in.Content == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "file content is required")
	}

	documentID := id.NewDocumentID()
	storageKey := in.OwnerID.String() + "/" + documentID.String()

	hasher := sha256.New()
	written, err := s.blobs.Put(ctx, storageKey, io.TeeReader(io.LimitReader(in.Content, models.MaxFileSize+1), hasher))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store file")
	}
	if written > models.MaxFileSize {
		_ = s.blobs.Delete(ctx, storageKey)
		return nil, dErrors.Newf(dErrors.CodeValidation, "file size exceeds the %dMB limit", models.MaxFileSize>>20)
	}
	checksum := hex.EncodeToString(hasher.Sum(nil))

	doc, err := models.NewDocument(documentID, in.OwnerID, in.Name, in.OriginalFilename, storageKey, in.ContentType, written, checksum, now)
	if err != nil {
		_ = s.blobs.Delete(ctx, storageKey)
		return nil, err
	}
	if err := s.store.Create(ctx, doc); err != nil {
		_ = s.blobs.Delete(ctx, storageKey)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register document")
	}

	s.logger.InfoContext(ctx, "document uploaded",
		"document_id", doc.ID.String(),
		"size_bytes", written,
	)
	return doc, nil
}

// GetDocument loads live (not soft-deleted) metadata by ID. Callers enforce
// their own ownership rules; the envelope workflow checks sender ownership
// itself.
func (s *Service) GetDocument(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	doc, err := s.store.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsDeleted() {
		return nil, sentinel.ErrNotFound
	}
	return doc, nil
}

// GetForOwner loads a document the caller owns.
func (s *Service) GetForOwner(ctx context.Context, documentID id.DocumentID, ownerID id.UserID) (*models.Document, error) {
	doc, err := s.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	if doc.OwnerID != ownerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "no access to this document")
	}
	return doc, nil
}

// OpenContent streams the stored bytes of a document the caller owns.
func (s *Service) OpenContent(ctx context.Context, documentID id.DocumentID, ownerID id.UserID) (io.ReadCloser, *models.Document, error) {
	doc, err := s.GetForOwner(ctx, documentID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open file")
	}
	return rc, doc, nil
}

// MarkProcessed records the outcome of background processing: ready with a
// page count, or failed with a reason.
func (s *Service) MarkProcessed(ctx context.Context, documentID id.DocumentID, pageCount int, failureReason string) (*models.Document, error) {
	doc, err := s.store.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	if failureReason != "" {
		doc.MarkFailed(failureReason)
	} else {
		doc.MarkReady(pageCount)
	}
	if err := s.store.Update(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update document")
	}
	return doc, nil
}

// DocumentPage is one page of an owner's documents.
type DocumentPage struct {
	Documents []*models.Document
	Total     int
	HasMore   bool
}

// ListDocuments pages through the owner's live documents, newest first.
func (s *Service) ListDocuments(ctx context.Context, ownerID id.UserID, page, pageSize int) (*DocumentPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	docs, total, err := s.store.ListByOwner(ctx, ownerID, page, pageSize)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return &DocumentPage{
		Documents: docs,
		Total:     total,
		HasMore:   page*pageSize < total,
	}, nil
}

// DeleteDocument soft-deletes a document the caller owns, unless any
// envelope still links it.
func (s *Service) DeleteDocument(ctx context.Context, documentID id.DocumentID, ownerID id.UserID) error {
	now := requestcontext.Now(ctx)
	doc, err := s.GetForOwner(ctx, documentID, ownerID)
	if err != nil {
		return err
	}

	inUse, err := s.usage.CountLinksByDocument(ctx, documentID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check document usage")
	}
	if inUse > 0 {
		return dErrors.Newf(dErrors.CodeConflict, "document is attached to %d envelope(s) and cannot be deleted", inUse)
	}

	doc.SoftDelete(now)
	if err := s.store.Update(ctx, doc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete document")
	}

	if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
		// Metadata is authoritative. An orphaned blob is recoverable;
		// failing the delete over it is not worth it.
		s.logger.WarnContext(ctx, "failed to delete stored file",
			"document_id", documentID.String(),
			"error", err.Error(),
		)
	}

	s.logger.InfoContext(ctx, "document deleted", "document_id", documentID.String())
	return nil
}
