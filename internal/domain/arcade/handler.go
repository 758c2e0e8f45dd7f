package arcade

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sparkquest/arcade-api/internal/domain/credit"
	"github.com/sparkquest/arcade-api/internal/middleware"
	"github.com/sparkquest/arcade-api/internal/pkg/errorhandler"
	"github.com/sparkquest/arcade-api/internal/pkg/response"
	"github.com/sparkquest/arcade-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type purchaseRequest struct {
	GameID          string `json:"game_id" validate:"required,uuid"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`
}

// Durations handles GET /arcade/durations
func (h *Handler) Durations(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]interface{}{"durations": h.svc.Durations()})
}

// Quote handles GET /arcade/games/{gameID}/quote?minutes=
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}
	gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		response.BadRequest(w, "invalid game id")
		return
	}
	minutes, err := strconv.Atoi(r.URL.Query().Get("minutes"))
	if err != nil {
		response.BadRequest(w, "minutes is required")
		return
	}

	q, err := h.svc.Quote(r.Context(), userID, gameID, minutes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, q)
}

// Purchase handles POST /arcade/sessions
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req purchaseRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	handle, err := h.svc.Purchase(r.Context(), userID, uuid.MustParse(req.GameID), req.DurationMinutes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, handle)
}

// ListActive handles GET /arcade/sessions
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	items, err := h.svc.ListActive(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, items)
}

// Get handles GET /arcade/sessions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionParams(w, r)
	if !ok {
		return
	}

	handle, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, handle)
}

// End handles POST /arcade/sessions/{id}/end
func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionParams(w, r)
	if !ok {
		return
	}

	handle, err := h.svc.End(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, handle)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, credit.ErrInsufficientFunds):
		response.InsufficientFunds(w, "not enough credits for this session")
	case errors.Is(err, ErrInvalidDuration):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrGameNotFound), errors.Is(err, ErrSessionNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrSessionNotActive):
		response.Conflict(w, err.Error())
	default:
		errorhandler.BackendUnavailable(r.Context(), w, err)
	}
}

func sessionParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid session id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/durations", h.Durations)
	r.Get("/games/{gameID}/quote", h.Quote)
	r.Post("/sessions", h.Purchase)
	r.Get("/sessions", h.ListActive)
	r.Get("/sessions/{id}", h.Get)
	r.Post("/sessions/{id}/end", h.End)
	return r
}
