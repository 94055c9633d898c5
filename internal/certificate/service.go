// Package certificate manages tax-clearance certificates: manual uploads,
// automatic fetches from the external registry, and revalidation of
// previously fetched records.
package certificate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"mercatorio/internal/domain"
	"mercatorio/internal/platform/metrics"
	"mercatorio/internal/registry"
	"mercatorio/internal/upload"
	dErrors "mercatorio/pkg/domain-errors"
	"mercatorio/pkg/platform/sentinel"
	"mercatorio/pkg/requestcontext"
)

var tracer = otel.Tracer("mercatorio/internal/certificate")

// Store is the slice of the repository this service needs.
type Store interface {
	FindCreditor(ctx context.Context, id int64) (*domain.Creditor, error)
	AddCertificate(ctx context.Context, cert *domain.Certificate) error
	AddCertificates(ctx context.Context, certs []*domain.Certificate) error
	ListCertificatesByOrigin(ctx context.Context, creditorID int64, origin domain.CertificateOrigin) ([]domain.Certificate, error)
	UpdateCertificateResult(ctx context.Context, certID int64, status domain.CertificateStatus, contentBase64 string, receivedAt time.Time) error
}

// Artifacts is the artifact-store surface used for manual uploads.
type Artifacts interface {
	StoreCertificate(creditorID int64, filename string, content io.Reader) (string, error)
	Remove(path string) error
}

// Service orchestrates the certificate workflows.
type Service struct {
	store          Store
	artifacts      Artifacts
	registry       registry.Client
	logger         *slog.Logger
	metrics        *metrics.Metrics
	maxUploadBytes int64
	cleanupOrphans bool
}

// Option configures optional service behavior.
type Option func(*Service)

// WithMaxUploadBytes overrides the upload size cap.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) { s.maxUploadBytes = n }
}

// WithOrphanCleanup enables best-effort artifact removal when a commit
// fails after the artifact write.
func WithOrphanCleanup() Option {
	return func(s *Service) { s.cleanupOrphans = true }
}

// NewService constructs the certificate service.
func NewService(store Store, artifacts Artifacts, reg registry.Client, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		store:          store,
		artifacts:      artifacts,
		registry:       reg,
		logger:         logger,
		metrics:        m,
		maxUploadBytes: upload.DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadManual registers a manually supplied certificate. The file is
// optional: a certificate can be declared by jurisdiction and status alone,
// with the artifact following later as a new record.
func (s *Service) UploadManual(ctx context.Context, creditorID int64, jurisdiction, status string, file upload.File) (int64, error) {
	ctx, span := tracer.Start(ctx, "certificate.UploadManual")
	defer span.End()
	span.SetAttributes(attribute.Int64("creditor.id", creditorID))

	if _, err := s.store.FindCreditor(ctx, creditorID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "creditor not found")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up creditor")
	}

	j, err := domain.ParseJurisdiction(jurisdiction)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid jurisdiction")
	}
	st, err := domain.ParseCertificateStatus(status)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid certificate status")
	}

	var path string
	if file.Content != nil {
		if err := upload.Validate(file, s.maxUploadBytes); err != nil {
			var rej *upload.RejectionError
			if errors.As(err, &rej) {
				s.metrics.ObserveUpload("certificate", "rejected")
				return 0, dErrors.New(dErrors.CodeBadRequest, rej.Message)
			}
			s.metrics.ObserveUpload("certificate", "error")
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate upload")
		}
		path, err = s.artifacts.StoreCertificate(creditorID, file.Filename, file.Content)
		if err != nil {
			s.metrics.ObserveUpload("certificate", "error")
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store certificate artifact")
		}
	}

	cert := &domain.Certificate{
		CreditorID:   creditorID,
		Jurisdiction: j,
		Origin:       domain.OriginManual,
		Status:       st,
		ArtifactPath: path,
		ReceivedAt:   requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.AddCertificate(ctx, cert); err != nil {
		s.metrics.ObserveUpload("certificate", "error")
		if path != "" {
			s.handleOrphan(ctx, path)
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist certificate")
	}

	s.metrics.ObserveUpload("certificate", "ok")
	return cert.ID, nil
}

// FetchAutomatic queries the external registry for the creditor's tax id
// and inserts every returned certificate in one atomic batch. Any failure,
// including a single unrecognized jurisdiction or status, inserts nothing.
// Returns the number of certificates inserted.
func (s *Service) FetchAutomatic(ctx context.Context, creditorID int64) (int, error) {
	ctx, span := tracer.Start(ctx, "certificate.FetchAutomatic")
	defer span.End()
	span.SetAttributes(attribute.Int64("creditor.id", creditorID))

	creditor, err := s.store.FindCreditor(ctx, creditorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "creditor not found")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up creditor")
	}

	results, err := s.registry.Query(ctx, creditor.TaxID)
	if err != nil {
		s.logger.WarnContext(ctx, "registry query failed",
			"creditor_id", creditorID, "error", err.Error())
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query certificate registry")
	}

	now := requestcontext.Now(ctx).UTC()
	certs := make([]*domain.Certificate, 0, len(results))
	for _, res := range results {
		cert, err := s.mapResult(creditorID, res, now)
		if err != nil {
			// One bad entry poisons the whole batch: recoverable, retried
			// on the next fetch once the registry is fixed.
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "registry returned an unrecognized certificate")
		}
		certs = append(certs, cert)
	}

	if len(certs) > 0 {
		if err := s.store.AddCertificates(ctx, certs); err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist fetched certificates")
		}
	}

	s.metrics.AddCertificatesFetched(len(certs))
	return len(certs), nil
}

// Refresh re-queries the registry for one creditor and applies the first
// matching result per already-stored automatic certificate. Jurisdiction and
// origin never change; only status, content and the received timestamp do.
func (s *Service) Refresh(ctx context.Context, creditor domain.Creditor) error {
	ctx, span := tracer.Start(ctx, "certificate.Refresh")
	defer span.End()
	span.SetAttributes(attribute.Int64("creditor.id", creditor.ID))

	existing, err := s.store.ListCertificatesByOrigin(ctx, creditor.ID, domain.OriginAutomatic)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list automatic certificates")
	}
	if len(existing) == 0 {
		return nil
	}

	results, err := s.registry.Query(ctx, creditor.TaxID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to query certificate registry")
	}

	now := requestcontext.Now(ctx).UTC()
	for _, cert := range existing {
		res, ok := firstByJurisdiction(results, cert.Jurisdiction)
		if !ok {
			continue
		}
		st, err := domain.ParseCertificateStatus(res.Status)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping unrecognized status during revalidation",
				"creditor_id", creditor.ID, "certificate_id", cert.ID, "status", res.Status)
			continue
		}
		if err := s.store.UpdateCertificateResult(ctx, cert.ID, st, res.ContentBase64, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update certificate")
		}
	}
	return nil
}

func (s *Service) mapResult(creditorID int64, res registry.CertificateResult, receivedAt time.Time) (*domain.Certificate, error) {
	j, err := domain.ParseJurisdiction(res.Jurisdiction)
	if err != nil {
		return nil, err
	}
	st, err := domain.ParseCertificateStatus(res.Status)
	if err != nil {
		return nil, err
	}
	return &domain.Certificate{
		CreditorID:    creditorID,
		Jurisdiction:  j,
		Origin:        domain.OriginAutomatic,
		Status:        st,
		ContentBase64: res.ContentBase64,
		ReceivedAt:    receivedAt,
	}, nil
}

func (s *Service) handleOrphan(ctx context.Context, path string) {
	if !s.cleanupOrphans {
		s.logger.WarnContext(ctx, "orphaned artifact left on disk after failed commit", "path", path)
		return
	}
	if err := s.artifacts.Remove(path); err != nil {
		s.logger.WarnContext(ctx, "failed to clean up orphaned artifact", "path", path, "error", err.Error())
	}
}

// firstByJurisdiction returns the first registry result matching the given
// jurisdiction. Duplicate jurisdictions in a registry response are possible;
// the first entry wins.
func firstByJurisdiction(results []registry.CertificateResult, j domain.Jurisdiction) (registry.CertificateResult, bool) {
	for _, res := range results {
		if res.Jurisdiction == string(j) {
			return res, true
		}
	}
	return registry.CertificateResult{}, false
}
