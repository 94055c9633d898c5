package creditor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercatorio/internal/domain"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newTestService()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(svc, logger).Register(r)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleCreateReturnsIDs(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/creditors", validRequest())
	require.Equal(t, http.StatusCreated, w.Code)

	var body map[string]int64
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.NotZero(t, body["creditor_id"])
	assert.NotZero(t, body["claim_id"])
	assert.NotEqual(t, body["creditor_id"], body["claim_id"])
}

func TestHandleCreateRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/creditors", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCreateIncompleteData(t *testing.T) {
	router := newTestRouter(t)

	req := validRequest()
	req.Email = ""
	w := postJSON(t, router, "/api/creditors", req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "bad_request", body["error"])
	assert.Contains(t, body["error_description"], "required")
}

func TestHandleCreateDuplicateTaxID(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/creditors", validRequest())
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, router, "/api/creditors", validRequest())
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "internal_error", body["error"])
	_, leaked := body["error_description"]
	assert.False(t, leaked, "internal errors must not carry details")
}

func TestHandleGetReturnsGraph(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/creditors", validRequest())
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]int64
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/creditors/%d", created["creditor_id"]), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var g domain.Graph
	require.NoError(t, json.NewDecoder(w.Body).Decode(&g))
	assert.Equal(t, "Maria Silva", g.Creditor.Name)
	assert.Equal(t, "123.456.789-00", g.Creditor.TaxID)
	require.Len(t, g.Claims, 1)
	assert.Equal(t, 150000.50, g.Claims[0].Value)
	assert.NotNil(t, g.Documents)
	assert.NotNil(t, g.Certificates)
}

func TestHandleGetUnknownAndInvalidIDs(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/creditors/999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/creditors/abc", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
