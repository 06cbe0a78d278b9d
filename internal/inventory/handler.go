package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-erp/atlas-erp/internal/platform/httpx"
	"github.com/atlas-erp/atlas-erp/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers stock costing endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Post("/receipts", h.receive)
		r.Post("/consumptions", h.consume)
		r.Get("/products/{productID}/valuation", h.valuation)
		r.Get("/products/{productID}/movements", h.movements)
	})
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	var in ReceiveInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	scope, _ := shared.ScopeFromContext(r.Context())
	in.ActorID = scope.ActorID
	movement, err := h.service.Receive(r.Context(), in)
	if err != nil {
		h.logger.Warn("receive stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) consume(w http.ResponseWriter, r *http.Request) {
	var in ConsumeInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	scope, _ := shared.ScopeFromContext(r.Context())
	in.ActorID = scope.ActorID
	movement, err := h.service.Consume(r.Context(), in)
	if err != nil {
		h.logger.Warn("consume stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) valuation(w http.ResponseWriter, r *http.Request) {
	productID, businessID, ok := h.scopeParams(w, r)
	if !ok {
		return
	}
	v, err := h.service.Valuation(r.Context(), businessID, productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) movements(w http.ResponseWriter, r *http.Request) {
	productID, businessID, ok := h.scopeParams(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	movements, err := h.service.Movements(r.Context(), businessID, productID, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": movements})
}

func (h *Handler) scopeParams(w http.ResponseWriter, r *http.Request) (productID, businessID int64, ok bool) {
	productID, _ = strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	businessID, _ = strconv.ParseInt(r.URL.Query().Get("business_id"), 10, 64)
	if productID <= 0 || businessID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id and product id are required")
		return 0, 0, false
	}
	return productID, businessID, true
}
