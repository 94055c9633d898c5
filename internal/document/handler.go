package document

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mercatorio/internal/transport/http/shared"
	"mercatorio/internal/upload"
	dErrors "mercatorio/pkg/domain-errors"
	"mercatorio/pkg/requestcontext"
)

// Handler wires the document upload endpoint to the service.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs an HTTP handler for document routes.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the document routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/creditors/{creditorID}/documents", h.handleUpload)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := shared.ParseCreditorID(chi.URLParam(r, "creditorID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	file, err := formFile(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	docID, err := h.service.Ingest(ctx, id, r.FormValue("category"), file)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "document ingestion failed",
				"request_id", requestcontext.RequestID(ctx),
				"creditor_id", id,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]int64{"document_id": docID})
}

// formFile extracts the uploaded file from the multipart form. An absent
// file is not an error here: presence is enforced by the validation
// pipeline so the rejection message stays uniform.
func formFile(r *http.Request) (upload.File, error) {
	f, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return upload.File{}, nil
		}
		return upload.File{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed multipart request")
	}
	return upload.File{Content: f, Filename: header.Filename}, nil
}
