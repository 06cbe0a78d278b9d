package adjustments

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

// MountRoutes registers adjustment producer endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/adjustments", func(r chi.Router) {
		r.Post("/opening-balances/{yearID}", h.importOpeningBalances)
		r.Post("/bank", h.postBankAdjustment)
		r.Get("/bank", h.listBankAdjustments)
	})
}

func (h *Handler) importOpeningBalances(w http.ResponseWriter, r *http.Request) {
	yearID, _ := strconv.ParseInt(chi.URLParam(r, "yearID"), 10, 64)
	if yearID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid fiscal year id")
		return
	}
	var in OpeningBalancesInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	in.FiscalYearID = yearID
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	scope, _ := shared.ScopeFromContext(r.Context())
	in.ActorID = scope.ActorID
	result, err := h.service.ImportOpeningBalances(r.Context(), in)
	if err != nil {
		h.logger.Warn("import opening balances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) postBankAdjustment(w http.ResponseWriter, r *http.Request) {
	var in BankAdjustmentInput
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
	result, err := h.service.PostBankAdjustment(r.Context(), in)
	if err != nil {
		h.logger.Warn("post bank adjustment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) listBankAdjustments(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(r.URL.Query().Get("business_id"), 10, 64)
	bankAccountID, _ := strconv.ParseInt(r.URL.Query().Get("bank_account_id"), 10, 64)
	if businessID <= 0 || bankAccountID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id and bank_account_id are required")
		return
	}
	adjustments, err := h.service.ListBankAdjustments(r.Context(), businessID, bankAccountID)
	if err != nil {
		h.logger.Error("list bank adjustments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"adjustments": adjustments})
}
