package credit

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sparkquest/arcade-api/internal/middleware"
	"github.com/sparkquest/arcade-api/internal/pkg/errorhandler"
	"github.com/sparkquest/arcade-api/internal/pkg/response"
	"github.com/sparkquest/arcade-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

type grantRequest struct {
	UserID      string `json:"user_id" validate:"required,uuid"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	TxType      string `json:"tx_type" validate:"grant_type"`
	ReferenceID string `json:"reference_id" validate:"omitempty,max=128"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Balance handles GET /credits/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	balance, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		errorhandler.BackendUnavailable(r.Context(), w, err)
		return
	}

	response.OK(w, map[string]interface{}{"balance": balance})
}

// Transactions handles GET /credits/transactions
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	page := Pagination{Limit: limit, Offset: offset}

	items, err := h.svc.ListTransactions(r.Context(), userID, page)
	if err != nil {
		errorhandler.BackendUnavailable(r.Context(), w, err)
		return
	}

	response.WithMeta(w, items, response.Meta{Total: len(items), Limit: limit, Offset: offset})
}

// Grant handles POST /admin/credits/grant
func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	userID := uuid.MustParse(req.UserID)
	meta := Meta{
		ReferenceType: "admin",
		ReferenceID:   req.ReferenceID,
		Description:   req.Description,
	}

	balance, err := h.svc.Grant(r.Context(), userID, req.Amount, TxType(req.TxType), meta)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidTxType):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrDuplicateReference):
			response.Conflict(w, "reference_id already applied")
		default:
			errorhandler.BackendUnavailable(r.Context(), w, err)
		}
		return
	}

	response.OK(w, map[string]interface{}{"user_id": userID, "balance": balance})
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/balance", h.Balance)
	r.Get("/transactions", h.Transactions)
	return r
}

// AdminRoutes are mounted under /admin/credits.
func (h *Handler) AdminRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware, middleware.RequireAdmin())
	r.Post("/grant", h.Grant)
	return r
}
