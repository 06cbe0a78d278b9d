package integration

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/platform/httpx"
	"github.com/atlas-erp/atlas-erp/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	hooks    *Hooks
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, hooks *Hooks) *Handler {
	return &Handler{logger: logger, hooks: hooks, validate: validator.New()}
}

type goodsReceivedRequest struct {
	BusinessID int64           `json:"business_id" validate:"required"`
	ProductID  int64           `json:"product_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	OccurredAt time.Time       `json:"occurred_at" validate:"required"`
	Reference  string          `json:"reference"`
	Memo       string          `json:"memo"`
}

type goodsSoldRequest struct {
	BusinessID int64           `json:"business_id" validate:"required"`
	ProductID  int64           `json:"product_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	OccurredAt time.Time       `json:"occurred_at" validate:"required"`
	Reference  string          `json:"reference"`
	Memo       string          `json:"memo"`
}

// MountRoutes registers the goods-movement bridge endpoints used by
// upstream sales and procurement systems.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/goods", func(r chi.Router) {
		r.Post("/received", h.goodsReceived)
		r.Post("/sold", h.goodsSold)
	})
}

func (h *Handler) goodsReceived(w http.ResponseWriter, r *http.Request) {
	var in goodsReceivedRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	scope, _ := shared.ScopeFromContext(r.Context())
	result, err := h.hooks.RecordGoodsReceived(r.Context(), GoodsReceivedInput{
		BusinessID: in.BusinessID,
		ProductID:  in.ProductID,
		Quantity:   in.Quantity,
		UnitCost:   in.UnitCost,
		OccurredAt: in.OccurredAt,
		Reference:  in.Reference,
		Memo:       in.Memo,
		ActorID:    scope.ActorID,
	})
	if err != nil {
		h.logger.Warn("record goods received", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) goodsSold(w http.ResponseWriter, r *http.Request) {
	var in goodsSoldRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	scope, _ := shared.ScopeFromContext(r.Context())
	result, err := h.hooks.RecordGoodsSold(r.Context(), GoodsSoldInput{
		BusinessID: in.BusinessID,
		ProductID:  in.ProductID,
		Quantity:   in.Quantity,
		OccurredAt: in.OccurredAt,
		Reference:  in.Reference,
		Memo:       in.Memo,
		ActorID:    scope.ActorID,
	})
	if err != nil {
		h.logger.Warn("record goods sold", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}
