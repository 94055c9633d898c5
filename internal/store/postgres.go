package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver

	"mercatorio/internal/domain"
	"mercatorio/pkg/platform/sentinel"
)

// Postgres persists the entity graph in PostgreSQL. Isolation between
// concurrent requests relies on the database's own concurrency control;
// tax-id uniqueness is the UNIQUE constraint, surfaced as
// sentinel.ErrConflict.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle. The caller owns the handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Open connects to PostgreSQL via the pgx stdlib driver and verifies the
// connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (s *Postgres) CreateCreditor(ctx context.Context, creditor *domain.Creditor, claim *domain.Claim) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create creditor: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO creditors (name, tax_id, email, phone)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		creditor.Name, creditor.TaxID, creditor.Email, creditor.Phone,
	).Scan(&creditor.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tax id %s already registered: %w", creditor.TaxID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert creditor: %w", err)
	}

	claim.CreditorID = creditor.ID
	err = tx.QueryRowContext(ctx,
		`INSERT INTO claims (creditor_id, number, value, forum, published_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		claim.CreditorID, claim.Number, claim.Value, claim.Forum, claim.PublishedAt,
	).Scan(&claim.ID)
	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tax id %s already registered: %w", creditor.TaxID, sentinel.ErrConflict)
		}
		return fmt.Errorf("commit create creditor: %w", err)
	}
	return nil
}

func (s *Postgres) FindCreditor(ctx context.Context, id int64) (*domain.Creditor, error) {
	var c domain.Creditor
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, tax_id, email, phone FROM creditors WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.TaxID, &c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find creditor: %w", err)
	}
	return &c, nil
}

func (s *Postgres) GetGraph(ctx context.Context, id int64) (*domain.Graph, error) {
	creditor, err := s.FindCreditor(ctx, id)
	if err != nil {
		return nil, err
	}
	g := &domain.Graph{
		Creditor:     *creditor,
		Claims:       []domain.Claim{},
		Documents:    []domain.Document{},
		Certificates: []domain.Certificate{},
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, creditor_id, number, value, forum, published_at
		 FROM claims WHERE creditor_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.Claim
		if err := rows.Scan(&c.ID, &c.CreditorID, &c.Number, &c.Value, &c.Forum, &c.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		g.Claims = append(g.Claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}

	docRows, err := s.db.QueryContext(ctx,
		`SELECT id, creditor_id, category, artifact_path, received_at
		 FROM documents WHERE creditor_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer docRows.Close()
	for docRows.Next() {
		var d domain.Document
		if err := docRows.Scan(&d.ID, &d.CreditorID, &d.Category, &d.ArtifactPath, &d.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		g.Documents = append(g.Documents, d)
	}
	if err := docRows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	certs, err := s.listCertificates(ctx,
		`SELECT id, creditor_id, jurisdiction, origin, status, artifact_path, content_base64, received_at
		 FROM certificates WHERE creditor_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	g.Certificates = certs
	return g, nil
}

func (s *Postgres) ListCreditors(ctx context.Context) ([]domain.Creditor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, tax_id, email, phone FROM creditors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list creditors: %w", err)
	}
	defer rows.Close()

	out := []domain.Creditor{}
	for rows.Next() {
		var c domain.Creditor
		if err := rows.Scan(&c.ID, &c.Name, &c.TaxID, &c.Email, &c.Phone); err != nil {
			return nil, fmt.Errorf("scan creditor: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list creditors: %w", err)
	}
	return out, nil
}

func (s *Postgres) AddDocument(ctx context.Context, doc *domain.Document) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO documents (creditor_id, category, artifact_path, received_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		doc.CreditorID, doc.Category, doc.ArtifactPath, doc.ReceivedAt,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Postgres) AddCertificate(ctx context.Context, cert *domain.Certificate) error {
	err := s.db.QueryRowContext(ctx, insertCertificateSQL,
		cert.CreditorID, cert.Jurisdiction, cert.Origin, cert.Status,
		nullIfEmpty(cert.ArtifactPath), nullIfEmpty(cert.ContentBase64), cert.ReceivedAt,
	).Scan(&cert.ID)
	if err != nil {
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (s *Postgres) AddCertificates(ctx context.Context, certs []*domain.Certificate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin certificate batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, cert := range certs {
		err := tx.QueryRowContext(ctx, insertCertificateSQL,
			cert.CreditorID, cert.Jurisdiction, cert.Origin, cert.Status,
			nullIfEmpty(cert.ArtifactPath), nullIfEmpty(cert.ContentBase64), cert.ReceivedAt,
		).Scan(&cert.ID)
		if err != nil {
			return fmt.Errorf("insert certificate: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit certificate batch: %w", err)
	}
	return nil
}

func (s *Postgres) ListCertificatesByOrigin(ctx context.Context, creditorID int64, origin domain.CertificateOrigin) ([]domain.Certificate, error) {
	return s.listCertificates(ctx,
		`SELECT id, creditor_id, jurisdiction, origin, status, artifact_path, content_base64, received_at
		 FROM certificates WHERE creditor_id = $1 AND origin = $2 ORDER BY id`, creditorID, origin)
}

func (s *Postgres) UpdateCertificateResult(ctx context.Context, certID int64, status domain.CertificateStatus, contentBase64 string, receivedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE certificates SET status = $2, content_base64 = $3, received_at = $4 WHERE id = $1`,
		certID, status, nullIfEmpty(contentBase64), receivedAt)
	if err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("certificate %d: %w", certID, sentinel.ErrNotFound)
	}
	return nil
}

const insertCertificateSQL = `INSERT INTO certificates
	(creditor_id, jurisdiction, origin, status, artifact_path, content_base64, received_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

func (s *Postgres) listCertificates(ctx context.Context, query string, args ...any) ([]domain.Certificate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	out := []domain.Certificate{}
	for rows.Next() {
		var (
			c            domain.Certificate
			artifactPath sql.NullString
			content      sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.CreditorID, &c.Jurisdiction, &c.Origin, &c.Status,
			&artifactPath, &content, &c.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		c.ArtifactPath = artifactPath.String
		c.ContentBase64 = content.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
