// Package handler exposes the lifecycle controller over HTTP. Form and
// listing UIs call these endpoints; they never talk to the media store or
// the repository directly.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/embrace-blog/embrace/internal/auth"
	"github.com/embrace-blog/embrace/internal/config"
	"github.com/embrace-blog/embrace/internal/media"
	"github.com/embrace-blog/embrace/internal/model"
	"github.com/embrace-blog/embrace/internal/post"
	"github.com/embrace-blog/embrace/internal/repository"
	"github.com/embrace-blog/embrace/internal/sse"
	"github.com/embrace-blog/embrace/internal/util"
)

var handlerLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	handlerLogger = l
}

type Handler struct {
	ctrl   *post.Controller
	repo   repository.PostRepository
	store  media.Store
	authP  auth.AuthProvider
	events *sse.Clients
}

func New(ctrl *post.Controller, repo repository.PostRepository, store media.Store, authP auth.AuthProvider, events *sse.Clients) *Handler {
	return &Handler{
		ctrl:   ctrl,
		repo:   repo,
		store:  store,
		authP:  authP,
		events: events,
	}
}

// postView is the JSON shape returned to the UI.
type postView struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Content         string `json:"content"`
	Status          string `json:"status"`
	FeaturedImageID string `json:"featured_image_id,omitempty"`
	PreviewURL      string `json:"preview_url,omitempty"`
	AuthorID        string `json:"author_id"`
	CreatedDate     string `json:"created_at"`
	ModifiedDate    string `json:"modified_at"`
}

func (h *Handler) view(p *model.Post) postView {
	v := postView{
		ID:              string(p.ID),
		Title:           p.Title,
		Slug:            p.Slug,
		Content:         string(p.Content),
		Status:          string(p.Status),
		FeaturedImageID: string(p.FeaturedImageID),
		AuthorID:        string(p.AuthorID),
		CreatedDate:     p.CreatedDate.Format("2006-01-02T15:04:05Z07:00"),
		ModifiedDate:    p.ModifiedDate.Format("2006-01-02T15:04:05Z07:00"),
	}
	if p.FeaturedImageID != "" {
		v.PreviewURL = h.store.PreviewURL(p.FeaturedImageID)
	}
	return v
}

// ServeCreatePost handles POST /api/posts/new (multipart form).
func (h *Handler) ServeCreatePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	actor, err := h.authP.ActorFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	payload := post.CreatePayload{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		Status:  model.Status(r.FormValue("status")),
		Slug:    r.FormValue("slug"),
		Actor:   actor,
	}

	image, err := h.readImage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.Image = image

	created, err := h.ctrl.Create(r.Context(), payload)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, h.view(created))
}

// ServePost handles PUT and DELETE on /api/posts/{id}.
func (h *Handler) ServePost(w http.ResponseWriter, r *http.Request) {
	actor, err := h.authP.ActorFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := model.PostID(r.PathValue("id"))
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		payload := post.UpdatePayload{Actor: actor}
		if v, ok := formValue(r, "title"); ok {
			payload.Title = &v
		}
		if v, ok := formValue(r, "content"); ok {
			payload.Content = &v
		}
		if v, ok := formValue(r, "slug"); ok {
			payload.Slug = &v
		}
		if v, ok := formValue(r, "status"); ok {
			status := model.Status(v)
			payload.Status = &status
		}

		image, err := h.readImage(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		payload.Image = image

		updated, err := h.ctrl.Update(r.Context(), id, payload)
		if err != nil {
			h.writeFailure(w, err)
			return
		}

		h.writeJSON(w, http.StatusOK, h.view(updated))
	case http.MethodDelete:
		outcome, err := h.ctrl.Delete(r.Context(), id, actor)
		if err != nil {
			h.writeFailure(w, err)
			return
		}

		resp := map[string]any{"deleted": true}
		if outcome.CleanupWarning != nil {
			resp["warning"] = outcome.CleanupWarning.Error()
		}
		h.writeJSON(w, http.StatusOK, resp)
	default:
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
	}
}

// ServePostBySlug handles the public read path, GET /posts/{slug}.
func (h *Handler) ServePostBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		http.NotFound(w, r)
		return
	}

	p, err := h.repo.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		handlerLogger.Error().Err(err).Str("slug", slug).Msg("Error fetching post")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	// Cache busting for readers: the ETag tracks content edits.
	w.Header().Set(config.HETag, util.ContentHash([]byte(p.Content)))
	w.Header().Set(config.HCacheControl, "no-cache")
	h.writeJSON(w, http.StatusOK, h.view(p))
}

// ServePostList handles GET /api/posts?status=active.
func (h *Handler) ServePostList(w http.ResponseWriter, r *http.Request) {
	status := model.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = model.StatusActive
	}
	if !status.Valid() {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	posts, err := h.repo.ListByStatus(r.Context(), status)
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Error listing posts")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	views := make([]postView, 0, len(posts))
	for i := range posts {
		views = append(views, h.view(&posts[i]))
	}
	h.writeJSON(w, http.StatusOK, views)
}

// ServeMediaPreview redirects GET /media/{id}/preview to the store's URL.
// A backend failure shows up as a broken link, not an application error.
func (h *Handler) ServeMediaPreview(w http.ResponseWriter, r *http.Request) {
	id := model.MediaID(r.PathValue("id"))
	if id == "" {
		http.NotFound(w, r)
		return
	}

	url := h.store.PreviewURL(id)
	if url == "" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// ServeEvents handles the SSE stream for listing screens.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, "text/event-stream")
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &sse.Client{Msg: make(chan sse.Event, 8)}
	h.events.Add(client)
	defer h.events.Delete(client)

	for {
		select {
		case event := <-client.Msg:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, event.Slug)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (h *Handler) readImage(r *http.Request) (*post.ImageUpload, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading image field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("error reading image data: %w", err)
	}

	return &post.ImageUpload{
		Data:        data,
		ContentType: header.Header.Get(config.HCType),
	}, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		handlerLogger.Error().Err(err).Msg("Error encoding response")
	}
}

// writeFailure maps controller failure kinds to HTTP statuses.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, post.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, post.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, post.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, post.ErrConflict):
		http.Error(w, "Slug already taken", http.StatusConflict)
	case errors.Is(err, post.ErrInFlight):
		http.Error(w, "Operation already in progress", http.StatusTooManyRequests)
	case errors.Is(err, post.ErrMediaUpload), errors.Is(err, post.ErrPostCreate):
		handlerLogger.Error().Err(err).Msg("Lifecycle operation failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		handlerLogger.Error().Err(err).Msg("Unexpected error")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
	}
}

func formValue(r *http.Request, key string) (string, bool) {
	if r.Form == nil {
		r.ParseMultipartForm(32 << 20)
	}
	vals, ok := r.Form[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}
