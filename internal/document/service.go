// Package document implements the personal-document ingestion workflow:
// validate the upload, store the artifact, persist the record. The pipeline
// is strictly linear; each failure maps to one terminal outcome.
package document

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"mercatorio/internal/domain"
	"mercatorio/internal/platform/metrics"
	"mercatorio/internal/upload"
	dErrors "mercatorio/pkg/domain-errors"
	"mercatorio/pkg/platform/sentinel"
	"mercatorio/pkg/requestcontext"
)

var tracer = otel.Tracer("mercatorio/internal/document")

// Store is the slice of the repository this service needs.
type Store interface {
	FindCreditor(ctx context.Context, id int64) (*domain.Creditor, error)
	AddDocument(ctx context.Context, doc *domain.Document) error
}

// Artifacts is the artifact-store surface the workflow uses.
type Artifacts interface {
	StoreDocument(creditorID int64, filename string, content io.Reader) (string, error)
	Remove(path string) error
}

// Service runs the document ingestion workflow.
type Service struct {
	store          Store
	artifacts      Artifacts
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

// WithOrphanCleanup makes the workflow best-effort delete the stored
// artifact when the subsequent commit fails. Off by default: the orphaned
// artifact is an accepted limitation, cleanup is a configurable policy.
func WithOrphanCleanup() Option {
	return func(s *Service) { s.cleanupOrphans = true }
}

// NewService constructs the document ingestion service.
func NewService(store Store, artifacts Artifacts, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		store:          store,
		artifacts:      artifacts,
		logger:         logger,
		metrics:        m,
		maxUploadBytes: upload.DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest validates and stores one document upload for a creditor and
// returns the new document id.
func (s *Service) Ingest(ctx context.Context, creditorID int64, category string, file upload.File) (int64, error) {
	ctx, span := tracer.Start(ctx, "document.Ingest")
	defer span.End()
	span.SetAttributes(attribute.Int64("creditor.id", creditorID))

	if _, err := s.store.FindCreditor(ctx, creditorID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "creditor not found")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up creditor")
	}

	cat, err := domain.ParseDocumentCategory(category)
	if err != nil {
		if category == "" {
			return 0, dErrors.New(dErrors.CodeBadRequest, "document category is required")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid document category")
	}

	// Documents require a file; the validator rejects a missing one.
	if err := upload.Validate(file, s.maxUploadBytes); err != nil {
		var rej *upload.RejectionError
		if errors.As(err, &rej) {
			s.metrics.ObserveUpload("document", "rejected")
			return 0, dErrors.New(dErrors.CodeBadRequest, rej.Message)
		}
		s.metrics.ObserveUpload("document", "error")
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate upload")
	}

	path, err := s.artifacts.StoreDocument(creditorID, file.Filename, file.Content)
	if err != nil {
		s.metrics.ObserveUpload("document", "error")
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store document artifact")
	}

	doc := &domain.Document{
		CreditorID:   creditorID,
		Category:     cat,
		ArtifactPath: path,
		ReceivedAt:   requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.AddDocument(ctx, doc); err != nil {
		s.metrics.ObserveUpload("document", "error")
		s.handleOrphan(ctx, path)
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist document")
	}

	s.metrics.ObserveUpload("document", "ok")
	return doc.ID, nil
}

// handleOrphan applies the configured cleanup policy for an artifact whose
// record never committed.
func (s *Service) handleOrphan(ctx context.Context, path string) {
	if !s.cleanupOrphans {
		s.logger.WarnContext(ctx, "orphaned artifact left on disk after failed commit", "path", path)
		return
	}
	if err := s.artifacts.Remove(path); err != nil {
		s.logger.WarnContext(ctx, "failed to clean up orphaned artifact", "path", path, "error", err.Error())
	}
}
