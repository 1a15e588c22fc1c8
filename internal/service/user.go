package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/linkup/internal/model"
	"github.com/sakif/linkup/internal/repository"
)

// UserService serves profile pages.
type UserService struct {
	users  repository.UserRepository
	posts  repository.PostRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, posts repository.PostRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, posts: posts, logger: logger}
}

// Profile returns a user and their posts, newest first. viewerID drives
// likedByMe and may be empty.
func (s *UserService) Profile(ctx context.Context, userID, viewerID string) (*model.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.List(ctx, repository.ListOptions{AuthorID: user.ID})
	if err != nil {
		return nil, fmt.Errorf("service/user: listing posts for %s: %w", user.ID, err)
	}
	markLikedBy(posts, viewerID)

	return &model.Profile{
		User: model.ProfileUser{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
		Posts: posts,
	}, nil
}
