package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mercatorio/internal/domain"
	"mercatorio/pkg/platform/sentinel"
)

// Memory keeps the whole graph in maps behind one mutex. It backs unit tests
// and local development; it intentionally favors clarity over performance.
type Memory struct {
	mu sync.RWMutex

	creditors    map[int64]domain.Creditor
	claims       map[int64]domain.Claim
	documents    map[int64]domain.Document
	certificates map[int64]domain.Certificate
	taxIDs       map[string]int64

	nextID int64
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		creditors:    make(map[int64]domain.Creditor),
		claims:       make(map[int64]domain.Claim),
		documents:    make(map[int64]domain.Document),
		certificates: make(map[int64]domain.Certificate),
		taxIDs:       make(map[string]int64),
	}
}

func (s *Memory) CreateCreditor(_ context.Context, creditor *domain.Creditor, claim *domain.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.taxIDs[creditor.TaxID]; taken {
		return fmt.Errorf("tax id %s already registered: %w", creditor.TaxID, sentinel.ErrConflict)
	}

	creditor.ID = s.issueID()
	claim.ID = s.issueID()
	claim.CreditorID = creditor.ID

	s.creditors[creditor.ID] = *creditor
	s.claims[claim.ID] = *claim
	s.taxIDs[creditor.TaxID] = creditor.ID
	return nil
}

func (s *Memory) FindCreditor(_ context.Context, id int64) (*domain.Creditor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.creditors[id]; ok {
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) GetGraph(_ context.Context, id int64) (*domain.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.creditors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	g := &domain.Graph{
		Creditor:     c,
		Claims:       []domain.Claim{},
		Documents:    []domain.Document{},
		Certificates: []domain.Certificate{},
	}
	for _, claim := range s.claims {
		if claim.CreditorID == id {
			g.Claims = append(g.Claims, claim)
		}
	}
	for _, doc := range s.documents {
		if doc.CreditorID == id {
			g.Documents = append(g.Documents, doc)
		}
	}
	for _, cert := range s.certificates {
		if cert.CreditorID == id {
			g.Certificates = append(g.Certificates, cert)
		}
	}
	sort.Slice(g.Claims, func(i, j int) bool { return g.Claims[i].ID < g.Claims[j].ID })
	sort.Slice(g.Documents, func(i, j int) bool { return g.Documents[i].ID < g.Documents[j].ID })
	sort.Slice(g.Certificates, func(i, j int) bool { return g.Certificates[i].ID < g.Certificates[j].ID })
	return g, nil
}

func (s *Memory) ListCreditors(_ context.Context) ([]domain.Creditor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Creditor, 0, len(s.creditors))
	for _, c := range s.creditors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) AddDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.creditors[doc.CreditorID]; !ok {
		return fmt.Errorf("creditor %d: %w", doc.CreditorID, sentinel.ErrNotFound)
	}
	doc.ID = s.issueID()
	s.documents[doc.ID] = *doc
	return nil
}

func (s *Memory) AddCertificate(_ context.Context, cert *domain.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCertificateLocked(cert)
}

func (s *Memory) AddCertificates(_ context.Context, certs []*domain.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching state so the insert stays
	// all-or-nothing.
	for _, cert := range certs {
		if _, ok := s.creditors[cert.CreditorID]; !ok {
			return fmt.Errorf("creditor %d: %w", cert.CreditorID, sentinel.ErrNotFound)
		}
	}
	for _, cert := range certs {
		if err := s.addCertificateLocked(cert); err != nil {
			return err
		}
	}
	return nil
}

func (s *Memory) addCertificateLocked(cert *domain.Certificate) error {
	if _, ok := s.creditors[cert.CreditorID]; !ok {
		return fmt.Errorf("creditor %d: %w", cert.CreditorID, sentinel.ErrNotFound)
	}
	cert.ID = s.issueID()
	s.certificates[cert.ID] = *cert
	return nil
}

func (s *Memory) ListCertificatesByOrigin(_ context.Context, creditorID int64, origin domain.CertificateOrigin) ([]domain.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Certificate
	for _, cert := range s.certificates {
		if cert.CreditorID == creditorID && cert.Origin == origin {
			out = append(out, cert)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) UpdateCertificateResult(_ context.Context, certID int64, status domain.CertificateStatus, contentBase64 string, receivedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cert, ok := s.certificates[certID]
	if !ok {
		return fmt.Errorf("certificate %d: %w", certID, sentinel.ErrNotFound)
	}
	cert.Status = status
	cert.ContentBase64 = contentBase64
	cert.ReceivedAt = receivedAt
	s.certificates[certID] = cert
	return nil
}

func (s *Memory) issueID() int64 {
	s.nextID++
	return s.nextID
}
