package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sakif/linkup/internal/apperror"
	"github.com/sakif/linkup/internal/auth"
	"github.com/sakif/linkup/internal/model"
	"github.com/sakif/linkup/internal/repository"
)

// Validation limits, in characters.
const (
	MaxPostLength    = 5000
	MaxCommentLength = 2000
	MaxImageURLLen   = 2048
)

// PostService enforces the posting rules: text validation, ownership for
// edits and deletes, and the per-viewer likedByMe flag.
type PostService struct {
	posts  repository.PostRepository
	events EventRecorder
	logger *slog.Logger
}

// NewPostService creates a PostService. events may be nil.
func NewPostService(posts repository.PostRepository, events EventRecorder, logger *slog.Logger) *PostService {
	return &PostService{
		posts:  posts,
		events: recorderOrNop(events),
		logger: logger,
	}
}

// Feed returns every post, newest first. viewerID may be empty for an
// anonymous caller.
func (s *PostService) Feed(ctx context.Context, viewerID string) ([]model.Post, error) {
	posts, err := s.posts.List(ctx, repository.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("service/post: listing feed: %w", err)
	}
	markLikedBy(posts, viewerID)
	return posts, nil
}

// Create publishes a post by authorID.
func (s *PostService) Create(ctx context.Context, authorID, text, imageURL string) (*model.Post, error) {
	text, err := validateText("text", text, MaxPostLength)
	if err != nil {
		return nil, err
	}
	imageURL, err = validateImageURL(imageURL)
	if err != nil {
		return nil, err
	}

	post := &model.Post{Author: model.Author{ID: authorID}, Text: text, ImageURL: imageURL}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, s.wrap("creating post", err)
	}

	s.events.PostEvent(EventPostCreate)
	s.logger.Info("post created", slog.String("postID", post.ID), slog.String("authorID", authorID))

	// Reload so the author's name is resolved the same way every read does it.
	return s.reload(ctx, post.ID, authorID)
}

// Update replaces the text of a post. Only the author may do it; a
// forbidden attempt changes nothing.
func (s *PostService) Update(ctx context.Context, actorID, postID, text string) (*model.Post, error) {
	text, err := validateText("text", text, MaxPostLength)
	if err != nil {
		return nil, err
	}

	if _, err := s.ownedPost(ctx, actorID, postID); err != nil {
		return nil, err
	}

	if err := s.posts.UpdateText(ctx, postID, text); err != nil {
		return nil, s.wrap("updating post", err)
	}

	s.events.PostEvent(EventPostUpdate)
	s.logger.Info("post updated", slog.String("postID", postID))
	return s.reload(ctx, postID, actorID)
}

// Delete removes a post together with its comments and likes. Only the
// author may do it.
func (s *PostService) Delete(ctx context.Context, actorID, postID string) error {
	if _, err := s.ownedPost(ctx, actorID, postID); err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return s.wrap("deleting post", err)
	}

	s.events.PostEvent(EventPostDelete)
	s.logger.Info("post deleted", slog.String("postID", postID))
	return nil
}

// ToggleLike adds the actor to the post's like-set, or removes them if they
// were already in it. Any authenticated user may like any post.
func (s *PostService) ToggleLike(ctx context.Context, actorID, postID string) (*model.Post, error) {
	liked, err := s.posts.ToggleLike(ctx, postID, actorID)
	if err != nil {
		return nil, s.wrap("toggling like", err)
	}

	if liked {
		s.events.PostEvent(EventPostLike)
	} else {
		s.events.PostEvent(EventPostUnlike)
	}
	s.logger.Debug("like toggled", slog.String("postID", postID), slog.Bool("liked", liked))
	return s.reload(ctx, postID, actorID)
}

// AddComment appends a comment by actorID and returns the updated post.
func (s *PostService) AddComment(ctx context.Context, actorID, postID, text string) (*model.Post, error) {
	text, err := validateText("text", text, MaxCommentLength)
	if err != nil {
		return nil, err
	}

	c := &model.Comment{PostID: postID, Author: model.Author{ID: actorID}, Text: text}
	if err := s.posts.AddComment(ctx, c); err != nil {
		return nil, s.wrap("adding comment", err)
	}

	s.events.PostEvent(EventComment)
	s.logger.Info("comment added", slog.String("postID", postID), slog.String("commentID", c.ID))
	return s.reload(ctx, postID, actorID)
}

// ownedPost loads a post and runs the ownership check before the caller
// mutates anything.
func (s *PostService) ownedPost(ctx context.Context, actorID, postID string) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, s.wrap("loading post", err)
	}
	if err := auth.CheckOwnership(actorID, post.Author.ID); err != nil {
		s.logger.Warn("ownership check failed",
			slog.String("postID", postID),
			slog.String("actorID", actorID),
		)
		return nil, err
	}
	return post, nil
}

func (s *PostService) reload(ctx context.Context, postID, viewerID string) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, s.wrap("reloading post", err)
	}
	post.LikedByMe = likedBy(post, viewerID)
	return post, nil
}

// wrap passes domain errors through and prefixes everything else.
func (s *PostService) wrap(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("service/post: %s: %w", op, err)
}

func markLikedBy(posts []model.Post, viewerID string) {
	for i := range posts {
		posts[i].LikedByMe = likedBy(&posts[i], viewerID)
	}
}

func likedBy(p *model.Post, viewerID string) bool {
	if viewerID == "" {
		return false
	}
	for _, id := range p.Likes {
		if auth.SameUser(id, viewerID) {
			return true
		}
	}
	return false
}

func validateText(field, text string, max int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	if utf8.RuneCountInString(text) > max {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", field, max))
	}
	return text, nil
}

// validateImageURL accepts an empty value, an absolute http(s) URL, or a
// server-relative path such as the /uploads/... URLs the upload endpoint
// hands out.
func validateImageURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if len(raw) > MaxImageURLLen {
		return "", apperror.ValidationFailed("imageUrl", "image URL is too long")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", apperror.ValidationFailed("imageUrl", "image URL is not valid")
	}
	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		if u.Host == "" {
			return "", apperror.ValidationFailed("imageUrl", "image URL is not valid")
		}
	case u.Scheme == "" && u.Host == "" && strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//"):
	default:
		return "", apperror.ValidationFailed("imageUrl", "image URL must be http(s) or a server path")
	}
	return raw, nil
}
