package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atlas-erp/atlas-erp/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the derived report endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/trial-balance", h.trialBalance)
		r.Get("/income-statement", h.incomeStatement)
		r.Get("/trial-balance/snapshots", h.snapshots)
	})
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	businessID := queryInt64(r, "business_id")
	if businessID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id is required")
		return
	}
	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}
	tb, err := h.service.TrialBalance(r.Context(), businessID, asOf)
	if err != nil {
		h.logger.Error("trial balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	businessID := queryInt64(r, "business_id")
	if businessID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id is required")
		return
	}
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "to must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "to precedes from")
		return
	}
	is, err := h.service.IncomeStatement(r.Context(), businessID, from, to)
	if err != nil {
		h.logger.Error("income statement", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, is)
}

func (h *Handler) snapshots(w http.ResponseWriter, r *http.Request) {
	businessID := queryInt64(r, "business_id")
	if businessID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id is required")
		return
	}
	limit := int(queryInt64(r, "limit"))
	snaps, err := h.service.Snapshots(r.Context(), businessID, limit)
	if err != nil {
		h.logger.Error("list snapshots", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snaps)
}

func queryInt64(r *http.Request, key string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return v
}
