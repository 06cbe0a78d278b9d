package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

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

// MountRoutes registers ledger endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Post("/transactions", h.post)
		r.Get("/transactions", h.list)
		r.Get("/transactions/{id}", h.get)
		r.Post("/transactions/{id}/reverse", h.reverse)
		r.Get("/accounts/{accountID}/balance", h.balance)
	})
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var in PostingInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	in.Closing = false
	scope, _ := shared.ScopeFromContext(r.Context())
	in.ActorID = scope.ActorID
	posted, err := h.service.Post(r.Context(), in)
	if err != nil {
		h.logger.Warn("post transaction", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, posted)
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid transaction id")
		return
	}
	var in ReverseInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	in.TransactionID = id
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	scope, _ := shared.ScopeFromContext(r.Context())
	in.ActorID = scope.ActorID
	posted, err := h.service.Reverse(r.Context(), in)
	if err != nil {
		h.logger.Warn("reverse transaction", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, posted)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid transaction id")
		return
	}
	businessID := queryInt64(r, "business_id")
	if businessID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id is required")
		return
	}
	t, err := h.service.Get(r.Context(), businessID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	businessID := queryInt64(r, "business_id")
	if businessID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id is required")
		return
	}
	limit := int(queryInt64(r, "limit"))
	offset := int(queryInt64(r, "offset"))
	transactions, err := h.service.List(r.Context(), businessID, limit, offset)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil || accountID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid account id")
		return
	}
	businessID := queryInt64(r, "business_id")
	if businessID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id is required")
		return
	}
	var asOf time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		asOf, err = time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "as_of must be YYYY-MM-DD")
			return
		}
	}
	b, err := h.service.Balance(r.Context(), BalanceQuery{BusinessID: businessID, AccountID: accountID, AsOf: asOf})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func queryInt64(r *http.Request, key string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return v
}
