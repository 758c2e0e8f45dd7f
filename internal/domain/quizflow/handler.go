package quizflow

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sparkquest/arcade-api/internal/domain/credit"
	"github.com/sparkquest/arcade-api/internal/domain/quiz"
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

type startRequest struct {
	ContentItemID string `json:"content_item_id" validate:"required,uuid"`
}

type progressRequest struct {
	ElapsedSeconds  float64 `json:"elapsed_seconds" validate:"gte=0"`
	DurationSeconds float64 `json:"duration_seconds" validate:"required,gt=0"`
}

type answerRequest struct {
	QuestionIndex *int `json:"question_index" validate:"required,gte=0"`
	Option        *int `json:"option" validate:"required,gte=0,lt=4"`
}

// Start handles POST /quiz-sessions
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req startRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.svc.Start(r.Context(), userID, uuid.MustParse(req.ContentItemID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, NewView(sess, h.svc.Rules()))
}

// Get handles GET /quiz-sessions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionParams(w, r)
	if !ok {
		return
	}

	sess, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, NewView(sess, h.svc.Rules()))
}

// Progress handles POST /quiz-sessions/{id}/progress
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionParams(w, r)
	if !ok {
		return
	}

	var req progressRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.svc.RecordProgress(r.Context(), userID, id, req.ElapsedSeconds, req.DurationSeconds)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, NewView(sess, h.svc.Rules()))
}

// BeginQuiz handles POST /quiz-sessions/{id}/quiz
func (h *Handler) BeginQuiz(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionParams(w, r)
	if !ok {
		return
	}

	sess, err := h.svc.BeginQuiz(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, NewView(sess, h.svc.Rules()))
}

// Answer handles POST /quiz-sessions/{id}/answers
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionParams(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if !decode(w, r, &req) {
		return
	}

	sess, fb, err := h.svc.Answer(r.Context(), userID, id, *req.QuestionIndex, *req.Option)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, map[string]interface{}{
		"feedback": fb,
		"session":  NewView(sess, h.svc.Rules()),
	})
}

// Retry handles POST /quiz-sessions/{id}/retry
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionParams(w, r)
	if !ok {
		return
	}

	sess, err := h.svc.Retry(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, NewView(sess, h.svc.Rules()))
}

// Claim handles POST /quiz-sessions/{id}/claim
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionParams(w, r)
	if !ok {
		return
	}

	sess, res, err := h.svc.Claim(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, map[string]interface{}{
		"claim":   res,
		"session": NewView(sess, h.svc.Rules()),
	})
}

// Cancel handles DELETE /quiz-sessions/{id}
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionParams(w, r)
	if !ok {
		return
	}

	if err := h.svc.Cancel(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		response.NotFound(w, "quiz session not found")
	case errors.Is(err, ErrContentNotFound):
		response.NotFound(w, "content item not found")
	case errors.Is(err, ErrInvalidProgress), errors.Is(err, ErrInvalidAnswer):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrVideoNotComplete),
		errors.Is(err, ErrAnswerLocked), errors.Is(err, ErrNotClaimable), errors.Is(err, ErrQuizNotLoaded):
		response.Conflict(w, err.Error())
	case errors.Is(err, quiz.ErrQuizUnavailable):
		errorhandler.HandleError(r.Context(), w, http.StatusServiceUnavailable, "QUIZ_UNAVAILABLE", "Quiz could not be loaded, please retry", err)
	case errors.Is(err, credit.ErrInsufficientFunds):
		response.InsufficientFunds(w, err.Error())
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

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := response.DecodeJSON(r.Body, v); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return false
	}
	if errs := validator.Validate(v); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return false
	}
	return true
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Start)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Cancel)
		r.Post("/progress", h.Progress)
		r.Post("/quiz", h.BeginQuiz)
		r.Post("/answers", h.Answer)
		r.Post("/retry", h.Retry)
		r.Post("/claim", h.Claim)
	})
	return r
}
