package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/groceryguru/internal/recipe"
	ws "github.com/dukerupert/groceryguru/internal/websocket"
)

type RecipeHandler struct {
	svc       *recipe.Service
	hub       Broadcaster
	maxUpload int64
	logger    *slog.Logger
}

func NewRecipeHandler(svc *recipe.Service, hub Broadcaster, maxUpload int64, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{svc: svc, hub: orNop(hub), maxUpload: maxUpload, logger: logger}
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

type commentRequest struct {
	Body string `json:"body"`
}

type importRequest struct {
	URL string `json:"url"`
}

func (h *RecipeHandler) notify(owner int64, entity, action string, id int64, extra map[string]any) {
	h.hub.BroadcastTo(owner, ws.NewMessage(entity, action, id, extra))
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.svc.List(r.Context(), personID(r))
	if err != nil {
		writeServiceError(w, h.logger, err, "list recipes")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(recipes))
}

func (h *RecipeHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.svc.ListByCategory(r.Context(), personID(r), r.PathValue("category"))
	if err != nil {
		writeServiceError(w, h.logger, err, "list recipes")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(recipes))
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recipe.Input
	if !decodeJSON(w, r, &req) {
		return
	}

	owner := personID(r)
	rec, err := h.svc.Create(r.Context(), owner, req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create recipe")
		return
	}

	h.notify(owner, "recipe", "created", rec.ID, nil)
	writeJSON(w, http.StatusCreated, rec)
}

// Import creates a recipe from a web page.
func (h *RecipeHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	owner := personID(r)
	detail, err := h.svc.Import(r.Context(), owner, req.URL)
	if err != nil {
		writeServiceError(w, h.logger, err, "import recipe")
		return
	}

	h.notify(owner, "recipe", "created", detail.ID, map[string]any{"imported": true})
	writeJSON(w, http.StatusCreated, detail)
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	detail, err := h.svc.Get(r.Context(), personID(r), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "get recipe")
		return
	}
	detail.Comments = nonNil(detail.Comments)
	detail.Images = nonNil(detail.Images)
	writeJSON(w, http.StatusOK, detail)
}

func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req recipe.Input
	if !decodeJSON(w, r, &req) {
		return
	}

	owner := personID(r)
	rec, err := h.svc.Update(r.Context(), owner, id, req)
	if err != nil {
		writeServiceError(w, h.logger, err, "update recipe")
		return
	}

	h.notify(owner, "recipe", "updated", rec.ID, nil)
	writeJSON(w, http.StatusOK, rec)
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	owner := personID(r)
	if err := h.svc.SoftDelete(r.Context(), owner, id); err != nil {
		writeServiceError(w, h.logger, err, "delete recipe")
		return
	}

	h.notify(owner, "recipe", "deleted", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) Rate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req ratingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	owner := personID(r)
	rec, err := h.svc.Rate(r.Context(), owner, id, req.Rating)
	if err != nil {
		writeServiceError(w, h.logger, err, "rate recipe")
		return
	}

	h.notify(owner, "recipe", "rated", rec.ID, map[string]any{"rating": req.Rating})
	writeJSON(w, http.StatusOK, rec)
}

func (h *RecipeHandler) Comment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	owner := personID(r)
	c, err := h.svc.Comment(r.Context(), owner, id, req.Body)
	if err != nil {
		writeServiceError(w, h.logger, err, "add comment")
		return
	}

	h.notify(owner, "recipe_comment", "created", c.ID, map[string]any{"recipe_id": id})
	writeJSON(w, http.StatusCreated, c)
}

func (h *RecipeHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	commentID, err := parseIDParam(r, "comment_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment_id")
		return
	}

	owner := personID(r)
	if err := h.svc.DeleteComment(r.Context(), owner, id, commentID); err != nil {
		writeServiceError(w, h.logger, err, "delete comment")
		return
	}

	h.notify(owner, "recipe_comment", "deleted", commentID, map[string]any{"recipe_id": id})
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage accepts a multipart form with an "image" file field.
func (h *RecipeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	// Leave room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	file, _, err := r.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	owner := personID(r)
	img, err := h.svc.AddImage(r.Context(), owner, id, file)
	if err != nil {
		writeServiceError(w, h.logger, err, "upload image")
		return
	}

	h.notify(owner, "recipe_image", "created", img.ID, map[string]any{"recipe_id": id})
	writeJSON(w, http.StatusCreated, img)
}

func (h *RecipeHandler) Image(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	imageID, err := parseIDParam(r, "image_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image_id")
		return
	}

	img, body, err := h.svc.OpenImage(r.Context(), personID(r), id, imageID)
	if err != nil {
		writeServiceError(w, h.logger, err, "open image")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("stream image", "image_id", imageID, "error", err)
	}
}

func (h *RecipeHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	imageID, err := parseIDParam(r, "image_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image_id")
		return
	}

	owner := personID(r)
	if err := h.svc.DeleteImage(r.Context(), owner, id, imageID); err != nil {
		writeServiceError(w, h.logger, err, "delete image")
		return
	}

	h.notify(owner, "recipe_image", "deleted", imageID, map[string]any{"recipe_id": id})
	w.WriteHeader(http.StatusNoContent)
}
