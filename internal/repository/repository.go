// Package repository declares the storage contracts the services depend on.
//
// Services see only these interfaces; internal/repository/sqlite is the
// production implementation and the service tests use in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/linkup/internal/model"
)

// UserRepository is the Credential Store.
type UserRepository interface {
	// Create assigns an ID and timestamps and inserts u. An email that is
	// already registered (in any casing) yields apperror.ErrConflict.
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail looks up by normalized email and includes the credential.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateCredential(ctx context.Context, userID string, cred model.Credential) error
}

// ListOptions filters PostRepository.List. The zero value lists every post.
type ListOptions struct {
	AuthorID string
}

// PostRepository is the Content Store. Posts come back with author and
// comment-author names resolved and with non-nil Likes and Comments.
type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// List returns posts newest first.
	List(ctx context.Context, opts ListOptions) ([]model.Post, error)
	UpdateText(ctx context.Context, id, text string) error
	// Delete removes the post together with its comments and likes.
	Delete(ctx context.Context, id string) error
	// ToggleLike adds userID to the post's like-set when absent and removes
	// it when present, atomically. It reports whether the user now likes it.
	ToggleLike(ctx context.Context, postID, userID string) (liked bool, err error)
	// AddComment assigns an ID and timestamp and appends c to its post.
	AddComment(ctx context.Context, c *model.Comment) error
}
