package certificate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mercatorio/internal/registry"
)

func newTestRouter(t *testing.T, f *fixture) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(f.svc, logger).Register(r)
	return r
}

func certificateForm(t *testing.T, jurisdiction, status, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("jurisdiction", jurisdiction))
	require.NoError(t, mw.WriteField("status", status))
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandleUploadManualWithFile(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f)
	c := f.seedCreditor(t)

	body, contentType := certificateForm(t, "federal", "negative", "cnd.pdf", pdfContent)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/creditors/%d/certificates", c.ID), body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]int64
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotZero(t, resp["certificate_id"])
}

func TestHandleUploadManualWithoutFile(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f)
	c := f.seedCreditor(t)

	body, contentType := certificateForm(t, "municipal", "pending", "", nil)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/creditors/%d/certificates", c.ID), body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandleUploadManualBadJurisdiction(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f)
	c := f.seedCreditor(t)

	body, contentType := certificateForm(t, "cosmic", "negative", "", nil)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/creditors/%d/certificates", c.ID), body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Contains(t, resp["error_description"], "jurisdiction")
}

func TestHandleFetchReturnsCount(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f)
	c := f.seedCreditor(t)

	f.reg.On("Query", mock.Anything, c.TaxID).Return([]registry.CertificateResult{
		{Jurisdiction: "federal", Status: "negative", ContentBase64: "Zm9v"},
		{Jurisdiction: "labor", Status: "positive", ContentBase64: "YmFy"},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/creditors/%d/certificates/fetch", c.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]int
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 2, resp["certificates_fetched"])
}

func TestHandleFetchRegistryDown(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f)
	c := f.seedCreditor(t)

	f.reg.On("Query", mock.Anything, c.TaxID).Return(nil, fmt.Errorf("dial tcp: connection refused"))

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/creditors/%d/certificates/fetch", c.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "internal_error", resp["error"])
	_, leaked := resp["error_description"]
	assert.False(t, leaked)
}

func TestHandleFetchUnknownCreditor(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(t, f)

	req := httptest.NewRequest(http.MethodPost, "/api/creditors/404/certificates/fetch", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
