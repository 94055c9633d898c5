package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercatorio/internal/domain"
	"mercatorio/pkg/platform/sentinel"
)

func newTestCreditor(taxID string) (*domain.Creditor, *domain.Claim) {
	return &domain.Creditor{
			Name:  "Maria Silva",
			TaxID: taxID,
			Email: "maria@example.com",
			Phone: "11999999999",
		}, &domain.Claim{
			Number:      "0001234-56.2020.8.26.0050",
			Value:       50000.00,
			Forum:       "TJSP",
			PublishedAt: time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC),
		}
}

func TestMemoryCreateCreditorAssignsIDs(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	creditor, claim := newTestCreditor("12345678900")
	require.NoError(t, s.CreateCreditor(ctx, creditor, claim))

	assert.NotZero(t, creditor.ID)
	assert.NotZero(t, claim.ID)
	assert.Equal(t, creditor.ID, claim.CreditorID)
}

func TestMemoryCreateCreditorDuplicateTaxID(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	first, firstClaim := newTestCreditor("12345678900")
	require.NoError(t, s.CreateCreditor(ctx, first, firstClaim))

	second, secondClaim := newTestCreditor("12345678900")
	err := s.CreateCreditor(ctx, second, secondClaim)
	require.ErrorIs(t, err, sentinel.ErrConflict)

	// The rejected creditor must not be visible.
	creditors, err := s.ListCreditors(ctx)
	require.NoError(t, err)
	assert.Len(t, creditors, 1)
}

func TestMemoryConcurrentDuplicateTaxID(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			creditor, claim := newTestCreditor("98765432100")
			err := s.CreateCreditor(ctx, creditor, claim)
			if err == nil {
				successes.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(goroutines-1), conflicts.Load())
}

func TestMemoryGetGraph(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	creditor, claim := newTestCreditor("12345678900")
	require.NoError(t, s.CreateCreditor(ctx, creditor, claim))

	doc := &domain.Document{
		CreditorID:   creditor.ID,
		Category:     domain.DocumentIdentity,
		ArtifactPath: "/uploads/creditor_1/rg.pdf",
		ReceivedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.AddDocument(ctx, doc))

	certs := []*domain.Certificate{
		{CreditorID: creditor.ID, Jurisdiction: domain.JurisdictionFederal, Origin: domain.OriginAutomatic, Status: domain.StatusNegative, ContentBase64: "YQ==", ReceivedAt: time.Now().UTC()},
		{CreditorID: creditor.ID, Jurisdiction: domain.JurisdictionLabor, Origin: domain.OriginAutomatic, Status: domain.StatusPositive, ContentBase64: "Yg==", ReceivedAt: time.Now().UTC()},
	}
	require.NoError(t, s.AddCertificates(ctx, certs))

	g, err := s.GetGraph(ctx, creditor.ID)
	require.NoError(t, err)
	assert.Equal(t, creditor.TaxID, g.TaxID)
	require.Len(t, g.Claims, 1)
	assert.Equal(t, claim.Number, g.Claims[0].Number)
	assert.Len(t, g.Documents, 1)
	assert.Len(t, g.Certificates, 2)

	_, err = s.GetGraph(ctx, 9999)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryAddDocumentMissingCreditor(t *testing.T) {
	s := NewMemory()
	err := s.AddDocument(context.Background(), &domain.Document{CreditorID: 42})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryAddCertificatesAllOrNothing(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	creditor, claim := newTestCreditor("12345678900")
	require.NoError(t, s.CreateCreditor(ctx, creditor, claim))

	batch := []*domain.Certificate{
		{CreditorID: creditor.ID, Jurisdiction: domain.JurisdictionFederal, Origin: domain.OriginAutomatic, Status: domain.StatusNegative},
		{CreditorID: 9999, Jurisdiction: domain.JurisdictionLabor, Origin: domain.OriginAutomatic, Status: domain.StatusPositive},
	}
	err := s.AddCertificates(ctx, batch)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	certs, err := s.ListCertificatesByOrigin(ctx, creditor.ID, domain.OriginAutomatic)
	require.NoError(t, err)
	assert.Empty(t, certs, "failed batch must not leave partial inserts")
}

func TestMemoryUpdateCertificateResult(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	creditor, claim := newTestCreditor("12345678900")
	require.NoError(t, s.CreateCreditor(ctx, creditor, claim))

	cert := &domain.Certificate{
		CreditorID:    creditor.ID,
		Jurisdiction:  domain.JurisdictionFederal,
		Origin:        domain.OriginAutomatic,
		Status:        domain.StatusPending,
		ContentBase64: "b2xk",
	}
	require.NoError(t, s.AddCertificate(ctx, cert))

	refreshedAt := time.Now().UTC()
	require.NoError(t, s.UpdateCertificateResult(ctx, cert.ID, domain.StatusNegative, "bm92bw==", refreshedAt))

	certs, err := s.ListCertificatesByOrigin(ctx, creditor.ID, domain.OriginAutomatic)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, domain.StatusNegative, certs[0].Status)
	assert.Equal(t, "bm92bw==", certs[0].ContentBase64)
	assert.Equal(t, refreshedAt, certs[0].ReceivedAt)
	// Jurisdiction and origin never change.
	assert.Equal(t, domain.JurisdictionFederal, certs[0].Jurisdiction)
	assert.Equal(t, domain.OriginAutomatic, certs[0].Origin)

	err = s.UpdateCertificateResult(ctx, 9999, domain.StatusNegative, "", refreshedAt)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
