package accounts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-erp/atlas-erp/internal/platform/httpx"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// CreateInput is the payload for registering a chart account.
type CreateInput struct {
	BusinessID int64       `json:"business_id" validate:"required"`
	Code       string      `json:"code" validate:"required"`
	Name       string      `json:"name" validate:"required"`
	Type       AccountType `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
}

// MountRoutes registers chart-of-accounts endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{ref}", h.resolve)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(r.URL.Query().Get("business_id"), 10, 64)
	if businessID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id is required")
		return
	}
	var (
		list []Account
		err  error
	)
	if t := r.URL.Query().Get("type"); t != "" {
		list, err = h.service.ListByType(r.Context(), businessID, AccountType(t))
	} else {
		list, err = h.service.List(r.Context(), businessID)
	}
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	businessID, _ := strconv.ParseInt(r.URL.Query().Get("business_id"), 10, 64)
	if businessID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "business_id is required")
		return
	}
	account, err := h.service.Resolve(r.Context(), businessID, chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.Create(r.Context(), Account{
		BusinessID: in.BusinessID,
		Code:       in.Code,
		Name:       in.Name,
		Type:       in.Type,
		IsActive:   true,
	})
	if err != nil {
		h.logger.Error("create account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}
