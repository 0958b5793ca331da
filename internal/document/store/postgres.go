package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"signet/internal/document/models"
	id "signet/pkg/domain"
	"signet/pkg/platform/sentinel"
)

// PostgresStore persists document metadata in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectDocument = `
	SELECT id, owner_id, name, original_filename, storage_key, content_type,
	       size_bytes, checksum, page_count, status, failure_reason,
	       uploaded_at, deleted_at
	FROM documents`

func (s *PostgresStore) Create(ctx context.Context, doc *models.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (
			id, owner_id, name, original_filename, storage_key, content_type,
			size_bytes, checksum, page_count, status, failure_reason,
			uploaded_at, deleted_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		doc.ID.String(), doc.OwnerID.String(), doc.Name, doc.OriginalFilename,
		doc.StorageKey, doc.ContentType, doc.SizeBytes, doc.Checksum,
		doc.PageCount, string(doc.Status), doc.FailureReason,
		doc.UploadedAt, doc.DeletedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	return scanDocument(s.db.QueryRowContext(ctx, selectDocument+` WHERE id = $1`, documentID.String()))
}

func (s *PostgresStore) Update(ctx context.Context, doc *models.Document) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET
			name = $2, page_count = $3, status = $4, failure_reason = $5,
			deleted_at = $6
		WHERE id = $1`,
		doc.ID.String(), doc.Name, doc.PageCount, string(doc.Status),
		doc.FailureReason, doc.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID, page, pageSize int) ([]*models.Document, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE owner_id = $1 AND deleted_at IS NULL`,
		ownerID.String(),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := s.db.QueryContext(ctx,
		selectDocument+` WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY uploaded_at DESC, id DESC LIMIT $2 OFFSET $3`,
		ownerID.String(), pageSize, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	return docs, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		doc                  models.Document
		rawID, rawOwner, sta string
	)
	err := row.Scan(
		&rawID, &rawOwner, &doc.Name, &doc.OriginalFilename, &doc.StorageKey,
		&doc.ContentType, &doc.SizeBytes, &doc.Checksum, &doc.PageCount,
		&sta, &doc.FailureReason, &doc.UploadedAt, &doc.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	if doc.ID, err = id.ParseDocumentID(rawID); err != nil {
		return nil, err
	}
	if doc.OwnerID, err = id.ParseUserID(rawOwner); err != nil {
		return nil, err
	}
	doc.Status = models.DocumentStatus(sta)
	return &doc, nil
}
