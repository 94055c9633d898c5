// Package store owns persistence for the creditor entity graph. All
// mutations go through a Repository implementation; invariants that need the
// backing store's concurrency control (tax-id uniqueness, all-or-nothing
// certificate batches) live here rather than in services.
package store

import (
	"context"
	"time"

	"mercatorio/internal/domain"
)

// Repository is the full entity-graph contract. Services depend on narrow
// subsets of it declared on their side; this interface exists so main can
// treat the memory and postgres implementations uniformly.
type Repository interface {
	// CreateCreditor persists a creditor and its initial claim atomically,
	// assigning both IDs. Returns sentinel.ErrConflict (wrapped) when the
	// tax id is already registered.
	CreateCreditor(ctx context.Context, creditor *domain.Creditor, claim *domain.Claim) error

	// FindCreditor returns the creditor alone, sentinel.ErrNotFound if absent.
	FindCreditor(ctx context.Context, id int64) (*domain.Creditor, error)

	// GetGraph returns the creditor with all claims, documents and
	// certificates, sentinel.ErrNotFound if the creditor is absent.
	GetGraph(ctx context.Context, id int64) (*domain.Graph, error)

	// ListCreditors returns every creditor, ordered by id. Used by the
	// revalidation worker.
	ListCreditors(ctx context.Context) ([]domain.Creditor, error)

	// AddDocument persists a document, assigning its ID.
	AddDocument(ctx context.Context, doc *domain.Document) error

	// AddCertificate persists a single certificate, assigning its ID.
	AddCertificate(ctx context.Context, cert *domain.Certificate) error

	// AddCertificates persists a batch all-or-nothing, assigning IDs.
	AddCertificates(ctx context.Context, certs []*domain.Certificate) error

	// ListCertificatesByOrigin returns a creditor's certificates with the
	// given origin, ordered by id.
	ListCertificatesByOrigin(ctx context.Context, creditorID int64, origin domain.CertificateOrigin) ([]domain.Certificate, error)

	// UpdateCertificateResult refreshes status, inline content and received
	// timestamp of one certificate. Jurisdiction and origin never change.
	UpdateCertificateResult(ctx context.Context, certID int64, status domain.CertificateStatus, contentBase64 string, receivedAt time.Time) error
}
