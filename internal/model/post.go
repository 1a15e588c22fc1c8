package model

import "time"

// Author is the denormalized view of a user embedded in posts and comments.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Post is a text post with an optional image, a like-set and embedded
// comments.
//
// Likes holds user IDs. It behaves as a set: membership means "liked" and the
// store guarantees no duplicates. Comments are ordered newest first.
//
// Both slices are always non-nil when a Post leaves the repository so the
// JSON shows [] instead of null.
type Post struct {
	ID        string    `json:"id"`
	Author    Author    `json:"user"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Likes     []string  `json:"likes"`
	LikedByMe bool      `json:"likedByMe"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment belongs to exactly one Post and is deleted with it.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"-"`
	Author    Author    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
