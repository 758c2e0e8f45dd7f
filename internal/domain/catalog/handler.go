package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sparkquest/arcade-api/internal/domain/quiz"
	"github.com/sparkquest/arcade-api/internal/middleware"
	"github.com/sparkquest/arcade-api/internal/pkg/errorhandler"
	"github.com/sparkquest/arcade-api/internal/pkg/response"
	"github.com/sparkquest/arcade-api/internal/pkg/storage"
	"github.com/sparkquest/arcade-api/internal/pkg/validator"
)

// Handler serves the published catalog from the reader snapshot.
type Handler struct {
	reader *Reader
}

func NewHandler(reader *Reader) *Handler {
	return &Handler{reader: reader}
}

func filterFromRequest(r *http.Request) Filter {
	q := r.URL.Query()
	return Filter{Category: q.Get("category"), Search: q.Get("q")}
}

// ListContent handles GET /catalog/content
func (h *Handler) ListContent(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.reader.Content(filterFromRequest(r)))
}

// ListGames handles GET /catalog/games
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.reader.Games(filterFromRequest(r)))
}

// ListPlatforms handles GET /catalog/platforms
func (h *Handler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.reader.Platforms(filterFromRequest(r)))
}

// GetContent handles GET /catalog/content/{id}
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid content id")
		return
	}

	item, err := h.reader.ContentItem(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	response.OK(w, item)
}

// GetGame handles GET /catalog/games/{id}
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid game id")
		return
	}

	game, err := h.reader.Game(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	response.OK(w, game)
}

func (h *Handler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "catalog entry not found")
		return
	}
	errorhandler.BackendUnavailable(r.Context(), w, err)
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/content", h.ListContent)
	r.Get("/content/{id}", h.GetContent)
	r.Get("/games", h.ListGames)
	r.Get("/games/{id}", h.GetGame)
	r.Get("/platforms", h.ListPlatforms)
	return r
}

// AdminHandler is the staff surface for catalog writes.
type AdminHandler struct {
	svc *AdminService
}

func NewAdminHandler(svc *AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// List handles GET /admin/catalog/{collection}
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	c := Collection(chi.URLParam(r, "collection"))
	if err := validator.ValidateVar(string(c), "collection"); err != nil {
		response.BadRequest(w, "unknown collection")
		return
	}

	items, err := h.svc.List(r.Context(), c)
	if err != nil {
		errorhandler.BackendUnavailable(r.Context(), w, err)
		return
	}
	response.OK(w, items)
}

// SaveContent handles POST /admin/catalog/content and PUT /admin/catalog/content/{id}
func (h *AdminHandler) SaveContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	item := req.toItem()
	if !applyID(w, r, &item.ID) {
		return
	}

	if err := h.svc.SaveContent(r.Context(), item); err != nil {
		if errors.Is(err, quiz.ErrInvalidQuiz) {
			response.ValidationError(w, map[string]string{"authored_quiz": err.Error()})
			return
		}
		errorhandler.BackendUnavailable(r.Context(), w, err)
		return
	}
	response.OK(w, item)
}

// SaveGame handles POST /admin/catalog/games and PUT /admin/catalog/games/{id}
func (h *AdminHandler) SaveGame(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if !req.CostPerMinute.IsPositive() {
		response.ValidationError(w, map[string]string{"cost_per_minute": "must be greater than zero"})
		return
	}
	game := req.toGame()
	if !applyID(w, r, &game.ID) {
		return
	}

	if err := h.svc.SaveGame(r.Context(), game); err != nil {
		errorhandler.BackendUnavailable(r.Context(), w, err)
		return
	}
	response.OK(w, game)
}

// SavePlatform handles POST /admin/catalog/platforms and PUT /admin/catalog/platforms/{id}
func (h *AdminHandler) SavePlatform(w http.ResponseWriter, r *http.Request) {
	var req PlatformRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	platform := req.toPlatform()
	if !applyID(w, r, &platform.ID) {
		return
	}

	if err := h.svc.SavePlatform(r.Context(), platform); err != nil {
		errorhandler.BackendUnavailable(r.Context(), w, err)
		return
	}
	response.OK(w, platform)
}

func (h *AdminHandler) uploadArtwork(c Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			response.BadRequest(w, "invalid id")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, storage.MaxArtworkSize+1<<20)
		file, _, err := r.FormFile("file")
		if err != nil {
			response.BadRequest(w, "multipart field 'file' is required")
			return
		}
		defer file.Close()

		art, err := h.svc.UploadArtwork(r.Context(), c, id, file)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				response.NotFound(w, "catalog entry not found")
			case errors.Is(err, storage.ErrEmptyFile), errors.Is(err, storage.ErrFileTooLarge), errors.Is(err, storage.ErrInvalidMimeType):
				response.BadRequest(w, err.Error())
			default:
				errorhandler.BackendUnavailable(r.Context(), w, err)
			}
			return
		}

		response.JSON(w, http.StatusAccepted, map[string]interface{}{
			"artwork_id": art.ID,
			"status":     art.ProcessStatus,
		})
	}
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
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

func applyID(w http.ResponseWriter, r *http.Request, dst *uuid.UUID) bool {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		return true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(w, "invalid id")
		return false
	}
	*dst = id
	return true
}

func (h *AdminHandler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware, middleware.RequireAdmin())

	r.Get("/{collection}", h.List)
	r.Post("/content", h.SaveContent)
	r.Put("/content/{id}", h.SaveContent)
	r.Post("/games", h.SaveGame)
	r.Put("/games/{id}", h.SaveGame)
	r.Post("/games/{id}/artwork", h.uploadArtwork(CollectionGames))
	r.Post("/platforms", h.SavePlatform)
	r.Put("/platforms/{id}", h.SavePlatform)
	r.Post("/platforms/{id}/artwork", h.uploadArtwork(CollectionPlatforms))
	return r
}
