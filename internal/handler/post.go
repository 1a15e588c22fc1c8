package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/linkup/internal/apperror"
	"github.com/sakif/linkup/internal/auth"
	"github.com/sakif/linkup/internal/service"
)

// PostHandler serves the feed and every post mutation.
//
// The handler only parses and renders. Validation, ownership and the like
// toggle all live in PostService.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

type createPostRequest struct {
	Text     string `json:"text" validate:"required"`
	ImageURL string `json:"imageUrl" validate:"omitempty,max=2048"`
}

func (r *createPostRequest) normalize() {
	r.Text = strings.TrimSpace(r.Text)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
}

type textRequest struct {
	Text string `json:"text" validate:"required"`
}

func (r *textRequest) normalize() {
	r.Text = strings.TrimSpace(r.Text)
}

// HandleFeed returns every post, newest first.
//
// HTTP: GET /api/posts
// Auth: Optional. A logged-in caller gets likedByMe filled in.
func (h *PostHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	posts, err := h.posts.Feed(r.Context(), viewerID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// HandleCreate publishes a post owned by the caller.
//
// HTTP: POST /api/posts
// REQUEST BODY: {"text": "hello", "imageUrl": "/uploads/..."}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.Create(r.Context(), userID, req.Text, req.ImageURL)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// HandleUpdate replaces a post's text. Only the author may do this.
//
// HTTP: PUT /api/posts/{id}
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.Update(r.Context(), userID, chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes a post with its likes and comments. Only the author
// may do this.
//
// HTTP: DELETE /api/posts/{id}
// RESPONSE: 200 {"ok": true}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// HandleLike toggles the caller's like and returns the updated post.
//
// HTTP: POST /api/posts/{id}/like
func (h *PostHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	post, err := h.posts.ToggleLike(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleComment appends a comment and returns the updated post.
//
// HTTP: POST /api/posts/{id}/comments
// REQUEST BODY: {"text": "nice"}
func (h *PostHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.AddComment(r.Context(), userID, chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// requireUserID reads the identity RequireAuth stored. It writes a 401 and
// returns false if there is none.
func requireUserID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, logger, apperror.Unauthorized("authentication required"))
		return "", false
	}
	return userID, true
}
