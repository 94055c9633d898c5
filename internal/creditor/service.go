// Package creditor implements creditor registration and record-graph
// retrieval.
package creditor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mercatorio/internal/domain"
	"mercatorio/internal/platform/metrics"
	dErrors "mercatorio/pkg/domain-errors"
	"mercatorio/pkg/platform/sentinel"
)

// Store is the slice of the repository this service needs.
type Store interface {
	CreateCreditor(ctx context.Context, creditor *domain.Creditor, claim *domain.Claim) error
	GetGraph(ctx context.Context, id int64) (*domain.Graph, error)
}

// Service orchestrates creditor lifecycle operations.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService constructs the creditor service.
func NewService(store Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, logger: logger, metrics: m}
}

// CreateRequest carries the data for a new creditor and its initial claim.
// A creditor is never created without a claim.
type CreateRequest struct {
	Name  string       `json:"name"`
	TaxID string       `json:"tax_id"`
	Email string       `json:"email"`
	Phone string       `json:"phone"`
	Claim ClaimRequest `json:"claim"`
}

// ClaimRequest is the initial claim nested in a creation request.
type ClaimRequest struct {
	Number          string  `json:"number"`
	Value           float64 `json:"value"`
	Forum           string  `json:"forum"`
	PublicationDate string  `json:"publication_date"`
}

func (r CreateRequest) validate() (time.Time, error) {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.TaxID) == "" ||
		strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Phone) == "" {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, "incomplete creditor data: name, tax_id, email and phone are required")
	}
	if strings.TrimSpace(r.Claim.Number) == "" || strings.TrimSpace(r.Claim.Forum) == "" || r.Claim.PublicationDate == "" {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, "incomplete claim data: number, value, forum and publication_date are required")
	}
	if r.Claim.Value <= 0 {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, "claim value must be positive")
	}
	publishedAt, err := time.Parse("2006-01-02", r.Claim.PublicationDate)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, "publication_date must be formatted as YYYY-MM-DD")
	}
	return publishedAt, nil
}

// Create registers a creditor together with its initial claim. A duplicate
// tax id is rejected by the store's uniqueness constraint and surfaces as an
// internal error: the workflow does not pre-check, it lets the backing store
// resolve the race.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Creditor, *domain.Claim, error) {
	publishedAt, err := req.validate()
	if err != nil {
		return nil, nil, err
	}

	creditor := &domain.Creditor{
		Name:  strings.TrimSpace(req.Name),
		TaxID: strings.TrimSpace(req.TaxID),
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	}
	claim := &domain.Claim{
		Number:      strings.TrimSpace(req.Claim.Number),
		Value:       req.Claim.Value,
		Forum:       strings.TrimSpace(req.Claim.Forum),
		PublishedAt: publishedAt,
	}

	if err := s.store.CreateCreditor(ctx, creditor, claim); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.logger.WarnContext(ctx, "creditor creation rejected by store",
				"tax_id", creditor.TaxID, "error", err.Error())
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register creditor")
	}

	s.metrics.IncrementCreditorsCreated()
	return creditor, claim, nil
}

// Get returns the full record graph for one creditor.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Graph, error) {
	g, err := s.store.GetGraph(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "creditor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load creditor")
	}
	return g, nil
}
