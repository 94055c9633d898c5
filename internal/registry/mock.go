package registry

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mercatorio/internal/transport/http/shared"
	dErrors "mercatorio/pkg/domain-errors"
)

// MockHandler serves a deterministic stand-in for the external registry so
// the service runs end to end without outbound connectivity. It always knows
// two certificates per tax id: a clear federal one and a labor one with
// outstanding debts.
type MockHandler struct{}

// NewMockHandler constructs the built-in registry stub.
func NewMockHandler() *MockHandler {
	return &MockHandler{}
}

// Register mounts the mock registry endpoint on the chi router.
func (h *MockHandler) Register(r chi.Router) {
	r.Get("/api/registry/certificates", h.handleQuery)
}

func (h *MockHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	taxID := r.URL.Query().Get("tax_id")
	if taxID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "tax_id query parameter is required"))
		return
	}

	content := base64.StdEncoding.EncodeToString(
		[]byte(fmt.Sprintf("Mock clearance certificate for %s", taxID)))

	shared.WriteJSON(w, http.StatusOK, map[string][]CertificateResult{
		"certificates": {
			{Jurisdiction: "federal", Status: "negative", ContentBase64: content},
			{Jurisdiction: "labor", Status: "positive", ContentBase64: content},
		},
	})
}
