package completion

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sparkquest/arcade-api/internal/middleware"
	"github.com/sparkquest/arcade-api/internal/pkg/errorhandler"
	"github.com/sparkquest/arcade-api/internal/pkg/response"
)

type Handler struct {
	tracker *Tracker
}

func NewHandler(tracker *Tracker) *Handler {
	return &Handler{tracker: tracker}
}

// List handles GET /completions
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	records, err := h.tracker.ListByUser(r.Context(), userID)
	if err != nil {
		errorhandler.BackendUnavailable(r.Context(), w, err)
		return
	}

	response.OK(w, records)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.List)
	return r
}
