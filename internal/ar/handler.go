package ar

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

// MountRoutes registers receivable write-off endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/receivables", func(r chi.Router) {
		r.Post("/invoices/{invoiceID}/write-off", h.writeOff)
		r.Get("/bad-debts", h.listBadDebts)
		r.Get("/bad-debts/{id}", h.getBadDebt)
		r.Post("/bad-debts/{id}/recoveries", h.recordRecovery)
	})
}

func (h *Handler) writeOff(w http.ResponseWriter, r *http.Request) {
	invoiceID, _ := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	if invoiceID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid invoice id")
		return
	}
	var in WriteOffInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	in.InvoiceID = invoiceID
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	scope, _ := shared.ScopeFromContext(r.Context())
	in.ActorID = scope.ActorID
	result, err := h.service.WriteOff(r.Context(), in)
	if err != nil {
		h.logger.Warn("write off invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) recordRecovery(w http.ResponseWriter, r *http.Request) {
	badDebtID, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if badDebtID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid bad debt id")
		return
	}
	var in RecoveryInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	in.BadDebtID = badDebtID
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	scope, _ := shared.ScopeFromContext(r.Context())
	in.ActorID = scope.ActorID
	result, err := h.service.RecordRecovery(r.Context(), in)
	if err != nil {
		h.logger.Warn("record recovery", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) getBadDebt(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	businessID, _ := strconv.ParseInt(r.URL.Query().Get("business_id"), 10, 64)
	if id <= 0 || businessID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id and bad debt id are required")
		return
	}
	bd, err := h.service.GetBadDebt(r.Context(), businessID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bd)
}

func (h *Handler) listBadDebts(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(r.URL.Query().Get("business_id"), 10, 64)
	if businessID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id is required")
		return
	}
	debts, err := h.service.ListBadDebts(r.Context(), businessID)
	if err != nil {
		h.logger.Error("list bad debts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bad_debts": debts})
}
