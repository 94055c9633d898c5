// Package registry talks to the external tax-clearance registry. The
// registry keys its lookups on the creditor's tax id and returns one
// candidate certificate per jurisdiction it knows about.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"mercatorio/internal/platform/metrics"
)

var tracer = otel.Tracer("mercatorio/internal/registry")

// CertificateResult is one registry entry for a tax id. Jurisdiction and
// Status are the registry's raw strings; the certificate workflow decodes
// them against the closed domain enums.
type CertificateResult struct {
	Jurisdiction  string `json:"jurisdiction"`
	Status        string `json:"status"`
	ContentBase64 string `json:"content_base64"`
}

// Client queries the registry for certificates by tax id.
type Client interface {
	Query(ctx context.Context, taxID string) ([]CertificateResult, error)
}

// HTTPClient is the production Client backed by the registry's HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics
}

// NewHTTPClient builds a registry client for the given base URL.
func NewHTTPClient(baseURL string, m *metrics.Metrics) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		metrics: m,
	}
}

// Query fetches all certificate entries the registry holds for taxID.
func (c *HTTPClient) Query(ctx context.Context, taxID string) ([]CertificateResult, error) {
	ctx, span := tracer.Start(ctx, "registry.Query")
	defer span.End()
	span.SetAttributes(attribute.String("registry.base_url", c.baseURL))

	u := fmt.Sprintf("%s/api/registry/certificates?tax_id=%s", c.baseURL, url.QueryEscape(taxID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	c.metrics.ObserveRegistryQuery(start)
	if err != nil {
		return nil, fmt.Errorf("query registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var body struct {
		Certificates []CertificateResult `json:"certificates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}
	return body.Certificates, nil
}
