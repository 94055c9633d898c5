package creditor

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mercatorio/internal/transport/http/shared"
	dErrors "mercatorio/pkg/domain-errors"
	"mercatorio/pkg/requestcontext"
)

// Handler wires creditor endpoints to the service.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs an HTTP handler for creditor routes.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the creditor routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/creditors", h.handleCreate)
	r.Get("/api/creditors/{creditorID}", h.handleGet)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	creditor, claim, err := h.service.Create(ctx, req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeBadRequest) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create creditor",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]int64{
		"creditor_id": creditor.ID,
		"claim_id":    claim.ID,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseCreditorID(chi.URLParam(r, "creditorID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	g, err := h.service.Get(r.Context(), id)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(r.Context(), "failed to load creditor",
				"request_id", requestcontext.RequestID(r.Context()),
				"creditor_id", id,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, g)
}
