package periods

import (
	"context"
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

// MountRoutes registers fiscal calendar endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/fiscal", func(r chi.Router) {
		r.Post("/years", h.openYear)
		r.Get("/years", h.listYears)
		r.Get("/years/{id}/periods", h.listPeriods)
		r.Post("/years/{id}/close", h.closeYear)
		r.Post("/periods/{id}/lock", h.lockPeriod)
		r.Post("/periods/{id}/close", h.closePeriod)
	})
}

func (h *Handler) openYear(w http.ResponseWriter, r *http.Request) {
	var in OpenYearInput
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
	year, periods, err := h.service.OpenYear(r.Context(), in)
	if err != nil {
		h.logger.Warn("open fiscal year", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"year": year, "periods": periods})
}

func (h *Handler) listYears(w http.ResponseWriter, r *http.Request) {
	businessID := queryInt64(r, "business_id")
	if businessID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id is required")
		return
	}
	years, err := h.service.ListYears(r.Context(), businessID)
	if err != nil {
		h.logger.Error("list fiscal years", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"years": years})
}

func (h *Handler) listPeriods(w http.ResponseWriter, r *http.Request) {
	yearID := pathID(r, "id")
	businessID := queryInt64(r, "business_id")
	if yearID <= 0 || businessID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id and year id are required")
		return
	}
	periods, err := h.service.ListPeriods(r.Context(), businessID, yearID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"periods": periods})
}

func (h *Handler) closeYear(w http.ResponseWriter, r *http.Request) {
	yearID := pathID(r, "id")
	if yearID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid year id")
		return
	}
	var in CloseYearInput
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
	result, err := h.service.CloseYear(r.Context(), in)
	if err != nil {
		h.logger.Warn("close fiscal year", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	status := http.StatusCreated
	if result.AlreadyClosed {
		status = http.StatusOK
	}
	httpx.JSON(w, status, result)
}

func (h *Handler) lockPeriod(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.LockPeriod)
}

func (h *Handler) closePeriod(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ClosePeriod)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, in TransitionInput) (FiscalPeriod, error)) {
	periodID := pathID(r, "id")
	if periodID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid period id")
		return
	}
	var in TransitionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	in.PeriodID = periodID
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	scope, _ := shared.ScopeFromContext(r.Context())
	in.ActorID = scope.ActorID
	period, err := fn(r.Context(), in)
	if err != nil {
		h.logger.Warn("period transition", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func pathID(r *http.Request, key string) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	return id
}

func queryInt64(r *http.Request, key string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return v
}
