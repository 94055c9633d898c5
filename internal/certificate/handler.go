package certificate

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

// Handler wires the certificate endpoints to the service.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs an HTTP handler for certificate routes.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the certificate routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/creditors/{creditorID}/certificates", h.handleUploadManual)
	r.Post("/api/creditors/{creditorID}/certificates/fetch", h.handleFetch)
}

func (h *Handler) handleUploadManual(w http.ResponseWriter, r *http.Request) {
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

	certID, err := h.service.UploadManual(ctx, id, r.FormValue("jurisdiction"), r.FormValue("status"), file)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "manual certificate upload failed",
				"request_id", requestcontext.RequestID(ctx),
				"creditor_id", id,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]int64{"certificate_id": certID})
}

func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := shared.ParseCreditorID(chi.URLParam(r, "creditorID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	count, err := h.service.FetchAutomatic(ctx, id)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "automatic certificate fetch failed",
				"request_id", requestcontext.RequestID(ctx),
				"creditor_id", id,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]int{"certificates_fetched": count})
}

// formFile extracts the optional certificate file from the multipart form.
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
