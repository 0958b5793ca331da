package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"signet/internal/envelope/models"
	"signet/internal/envelope/service"
	id "signet/pkg/domain"
	"signet/pkg/platform/sentinel"
)

// PostgresStore persists envelope aggregates in PostgreSQL. Execute locks the
// envelope row with SELECT ... FOR UPDATE so concurrent transitions on one
// envelope serialize at the database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

func (s *PostgresStore) CreateEnvelope(ctx context.Context, w *models.Workflow, links []*models.DocumentLink) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create envelope: %w", err)
	}
	defer tx.Rollback()

	env := w.Envelope
	_, err = tx.ExecContext(ctx, `
		INSERT INTO envelopes (
			id, sender_id, subject, message, status, signing_order,
			expiration_days, void_reason, version,
			sent_at, completed_at, declined_at, voided_at, expired_at, expires_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		env.ID.String(), env.SenderID.String(), env.Subject, env.Message,
		string(env.Status), string(env.SigningOrder), env.ExpirationDays,
		env.VoidReason, 1,
		env.SentAt, env.CompletedAt, env.DeclinedAt, env.VoidedAt, env.ExpiredAt, env.ExpiresAt,
		env.CreatedAt, env.UpdatedAt,
	)
	if err != nil {
		return mapPQErr(err, "insert envelope")
	}

	for _, r := range w.Recipients {
		if err := upsertRecipient(ctx, tx, r); err != nil {
			return err
		}
	}
	for _, link := range links {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO envelope_documents (id, envelope_id, document_id, display_order, created_at)
			VALUES ($1,$2,$3,$4,$5)`,
			link.ID.String(), link.EnvelopeID.String(), link.DocumentID.String(),
			link.DisplayOrder, link.CreatedAt,
		)
		if err != nil {
			return mapPQErr(err, "insert envelope document")
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create envelope: %w", err)
	}
	env.Version = 1
	return nil
}

func (s *PostgresStore) GetWorkflow(ctx context.Context, envelopeID id.EnvelopeID) (*models.Workflow, error) {
	env, err := scanEnvelope(s.db.QueryRowContext(ctx, selectEnvelope+` WHERE id = $1`, envelopeID.String()))
	if err != nil {
		return nil, err
	}
	recipients, err := s.listRecipients(ctx, s.db, envelopeID)
	if err != nil {
		return nil, err
	}
	return &models.Workflow{Envelope: env, Recipients: recipients}, nil
}

func (s *PostgresStore) Execute(ctx context.Context, envelopeID id.EnvelopeID, validate func(*models.Workflow) error, apply func(*models.Workflow)) (*models.Workflow, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin envelope transition: %w", err)
	}
	defer tx.Rollback()

	env, err := scanEnvelope(tx.QueryRowContext(ctx, selectEnvelope+` WHERE id = $1 FOR UPDATE`, envelopeID.String()))
	if err != nil {
		return nil, err
	}
	recipients, err := s.listRecipients(ctx, tx, envelopeID)
	if err != nil {
		return nil, err
	}

	w := &models.Workflow{Envelope: env, Recipients: recipients}
	if validate != nil {
		if err := validate(w); err != nil {
			return nil, err
		}
	}
	if apply != nil {
		apply(w)
	}
	w.Envelope.Version++

	if err := updateEnvelope(ctx, tx, w.Envelope); err != nil {
		return nil, err
	}
	for _, r := range w.Recipients {
		if err := upsertRecipient(ctx, tx, r); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit envelope transition: %w", err)
	}
	return w, nil
}

func (s *PostgresStore) DeleteEnvelope(ctx context.Context, envelopeID id.EnvelopeID) error {
	// Recipients and document links go with the envelope via ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `DELETE FROM envelopes WHERE id = $1`, envelopeID.String())
	if err != nil {
		return mapPQErr(err, "delete envelope")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete envelope: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListEnvelopes(ctx context.Context, filter service.ListFilter) ([]*models.Envelope, int, error) {
	where := ` WHERE sender_id = $1`
	args := []any{filter.SenderID.String()}
	if filter.Status != nil {
		where += ` AND status = $2`
		args = append(args, string(*filter.Status))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM envelopes`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count envelopes: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize
	query := selectEnvelope + where + fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`, filter.PageSize, offset)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list envelopes: %w", err)
	}
	defer rows.Close()

	envelopes := make([]*models.Envelope, 0)
	for rows.Next() {
		env, err := scanEnvelope(rows)
		if err != nil {
			return nil, 0, err
		}
		envelopes = append(envelopes, env)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list envelopes: %w", err)
	}
	return envelopes, total, nil
}

func (s *PostgresStore) ListDocumentLinks(ctx context.Context, envelopeID id.EnvelopeID) ([]*models.DocumentLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, envelope_id, document_id, display_order, created_at
		FROM envelope_documents
		WHERE envelope_id = $1
		ORDER BY display_order`, envelopeID.String())
	if err != nil {
		return nil, fmt.Errorf("list envelope documents: %w", err)
	}
	defer rows.Close()

	links := make([]*models.DocumentLink, 0)
	for rows.Next() {
		var (
			link                           models.DocumentLink
			linkID, envelopeID, documentID string
		)
		if err := rows.Scan(&linkID, &envelopeID, &documentID, &link.DisplayOrder, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan envelope document: %w", err)
		}
		if link.ID, err = parseUUIDField(linkID, "link id"); err != nil {
			return nil, err
		}
		if link.EnvelopeID, err = id.ParseEnvelopeID(envelopeID); err != nil {
			return nil, err
		}
		if link.DocumentID, err = id.ParseDocumentID(documentID); err != nil {
			return nil, err
		}
		links = append(links, &link)
	}
	return links, rows.Err()
}

func (s *PostgresStore) CountLinksByDocument(ctx context.Context, documentID id.DocumentID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM envelope_documents WHERE document_id = $1`,
		documentID.String(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count document links: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) FindRecipientByAccessCodeHash(ctx context.Context, envelopeID id.EnvelopeID, hash string) (*models.Recipient, error) {
	row := s.db.QueryRowContext(ctx, selectRecipient+` WHERE envelope_id = $1 AND access_code_hash = $2`,
		envelopeID.String(), hash)
	return scanRecipient(row)
}

func (s *PostgresStore) ListExpiredCandidates(ctx context.Context, now time.Time) ([]id.EnvelopeID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM envelopes
		WHERE status IN ('sent','delivered','signed') AND expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return nil, fmt.Errorf("list expired envelopes: %w", err)
	}
	defer rows.Close()

	var out []id.EnvelopeID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan envelope id: %w", err)
		}
		envelopeID, err := id.ParseEnvelopeID(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, envelopeID)
	}
	return out, rows.Err()
}

const selectEnvelope = `
	SELECT id, sender_id, subject, message, status, signing_order,
	       expiration_days, void_reason, version,
	       sent_at, completed_at, declined_at, voided_at, expired_at, expires_at,
	       created_at, updated_at
	FROM envelopes`

const selectRecipient = `
	SELECT id, envelope_id, name, email, phone, role, signing_order, status,
	       access_code, access_code_hash, decline_reason,
	       sent_at, viewed_at, signed_at, declined_at, created_at, updated_at
	FROM envelope_recipients`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnvelope(row rowScanner) (*models.Envelope, error) {
	var (
		env                           models.Envelope
		rawID, rawSender, status, ord string
	)
	err := row.Scan(
		&rawID, &rawSender, &env.Subject, &env.Message, &status, &ord,
		&env.ExpirationDays, &env.VoidReason, &env.Version,
		&env.SentAt, &env.CompletedAt, &env.DeclinedAt, &env.VoidedAt, &env.ExpiredAt, &env.ExpiresAt,
		&env.CreatedAt, &env.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan envelope: %w", err)
	}
	if env.ID, err = id.ParseEnvelopeID(rawID); err != nil {
		return nil, err
	}
	if env.SenderID, err = id.ParseUserID(rawSender); err != nil {
		return nil, err
	}
	env.Status = models.EnvelopeStatus(status)
	env.SigningOrder = models.SigningOrder(ord)
	return &env, nil
}

func scanRecipient(row rowScanner) (*models.Recipient, error) {
	var (
		r                        models.Recipient
		rawID, rawEnvelope, role string
		status                   string
	)
	err := row.Scan(
		&rawID, &rawEnvelope, &r.Name, &r.Email, &r.Phone, &role, &r.SigningOrder, &status,
		&r.AccessCode, &r.AccessCodeHash, &r.DeclineReason,
		&r.SentAt, &r.ViewedAt, &r.SignedAt, &r.DeclinedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan recipient: %w", err)
	}
	if r.ID, err = id.ParseRecipientID(rawID); err != nil {
		return nil, err
	}
	if r.EnvelopeID, err = id.ParseEnvelopeID(rawEnvelope); err != nil {
		return nil, err
	}
	r.Role = models.RecipientRole(role)
	r.Status = models.RecipientStatus(status)
	return &r, nil
}

func (s *PostgresStore) listRecipients(ctx context.Context, q interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}, envelopeID id.EnvelopeID) ([]*models.Recipient, error) {
	rows, err := q.QueryContext(ctx, selectRecipient+` WHERE envelope_id = $1 ORDER BY signing_order, created_at`, envelopeID.String())
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	recipients := make([]*models.Recipient, 0)
	for rows.Next() {
		r, err := scanRecipient(rows)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

func updateEnvelope(ctx context.Context, tx *sql.Tx, env *models.Envelope) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE envelopes SET
			subject = $2, message = $3, status = $4, signing_order = $5,
			expiration_days = $6, void_reason = $7, version = $8,
			sent_at = $9, completed_at = $10, declined_at = $11,
			voided_at = $12, expired_at = $13, expires_at = $14, updated_at = $15
		WHERE id = $1 AND version = $8 - 1`,
		env.ID.String(), env.Subject, env.Message, string(env.Status),
		string(env.SigningOrder), env.ExpirationDays, env.VoidReason, env.Version,
		env.SentAt, env.CompletedAt, env.DeclinedAt, env.VoidedAt, env.ExpiredAt, env.ExpiresAt,
		env.UpdatedAt,
	)
	if err != nil {
		return mapPQErr(err, "update envelope")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update envelope: %w", err)
	}
	// The row lock makes a version mismatch impossible in practice; this
	// guards against writes that bypassed Execute.
	if n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func upsertRecipient(ctx context.Context, tx *sql.Tx, r *models.Recipient) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO envelope_recipients (
			id, envelope_id, name, email, phone, role, signing_order, status,
			access_code, access_code_hash, decline_reason,
			sent_at, viewed_at, signed_at, declined_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, email = EXCLUDED.email, phone = EXCLUDED.phone,
			role = EXCLUDED.role, signing_order = EXCLUDED.signing_order,
			status = EXCLUDED.status, decline_reason = EXCLUDED.decline_reason,
			sent_at = EXCLUDED.sent_at, viewed_at = EXCLUDED.viewed_at,
			signed_at = EXCLUDED.signed_at, declined_at = EXCLUDED.declined_at,
			updated_at = EXCLUDED.updated_at`,
		r.ID.String(), r.EnvelopeID.String(), r.Name, r.Email, r.Phone,
		string(r.Role), r.SigningOrder, string(r.Status),
		r.AccessCode, r.AccessCodeHash, r.DeclineReason,
		r.SentAt, r.ViewedAt, r.SignedAt, r.DeclinedAt, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return mapPQErr(err, "upsert recipient")
	}
	return nil
}

func parseUUIDField(raw, field string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("parse %s: %w", field, err)
	}
	return parsed, nil
}

func mapPQErr(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
