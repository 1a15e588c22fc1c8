package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/linkup/internal/apperror"
	"github.com/sakif/linkup/internal/model"
	"github.com/sakif/linkup/internal/repository"
)

var _ repository.PostRepository = (*PostStore)(nil)

// PostStore is the Content Store: posts, their like-sets and comments.
//
// Author names are never copied into posts or comments. They are resolved
// with a JOIN on every read, so a renamed user shows up under the new name
// everywhere.
type PostStore struct {
	db *sql.DB
}

// postFilter is a WHERE clause over the posts table (aliased p) together with
// its arguments. The same filter drives the posts, likes and comments
// queries of one load.
type postFilter struct {
	where string
	args  []any
}

func allPosts() postFilter               { return postFilter{} }
func postByID(id string) postFilter      { return postFilter{where: "WHERE p.id = ?", args: []any{id}} }
func postsByAuthor(id string) postFilter { return postFilter{where: "WHERE p.author_id = ?", args: []any{id}} }

// Create inserts a new post. The ID and timestamps are generated here and
// written back into p; Likes and Comments start empty.
func (s *PostStore) Create(ctx context.Context, p *model.Post) error {
	now := time.Now().UTC()
	p.ID = xid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Likes = []string{}
	p.Comments = []model.Comment{}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, text, image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Author.ID,
		p.Text,
		p.ImageURL,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", p.Author.ID)
		}
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}

// GetByID retrieves one post with its likes and comments.
// Returns apperror.ErrNotFound if the post does not exist.
func (s *PostStore) GetByID(ctx context.Context, id string) (*model.Post, error) {
	posts, err := loadPosts(ctx, s.db, postByID(id))
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	if len(posts) == 0 {
		return nil, apperror.NotFound("post", id)
	}
	return &posts[0], nil
}

// List returns posts newest first, optionally restricted to one author.
func (s *PostStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	f := allPosts()
	if opts.AuthorID != "" {
		f = postsByAuthor(opts.AuthorID)
	}

	posts, err := loadPosts(ctx, s.db, f)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	return posts, nil
}

// UpdateText replaces a post's text and bumps updated_at.
func (s *PostStore) UpdateText(ctx context.Context, id, text string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE posts SET text = ?, updated_at = ? WHERE id = ?`,
		text, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", id, err)
	}
	return requireAffected(result, "post", id)
}

// Delete removes a post. ON DELETE CASCADE takes its likes and comments
// with it.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}
	return requireAffected(result, "post", id)
}

// ToggleLike flips userID's membership in the post's like-set.
// touchPost has already proven the post exists, so a foreign key failure on
// the insert means userID has no account.
//
// The read and the write happen in one transaction: two concurrent toggles
// by the same user serialize, so the set never holds a duplicate and never
// loses an update.
func (s *PostStore) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	var liked bool
	err := WithTx(ctx, s.db, func(ctx context.Context, tx DBTX) error {
		if err := touchPost(ctx, tx, postID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID,
		)
		if err != nil {
			return fmt.Errorf("removing like: %w", err)
		}
		removed, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if removed > 0 {
			liked = false
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_likes (post_id, user_id, liked_at) VALUES (?, ?, ?)`,
			postID, userID, time.Now().UTC(),
		); err != nil {
			if isForeignKeyViolation(err) {
				return apperror.NotFound("user", userID)
			}
			return fmt.Errorf("adding like: %w", err)
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, wrapTxErr("toggling like on post "+postID, err)
	}
	return liked, nil
}

// AddComment appends a comment to its post. The ID and timestamp are
// generated here and written back into c.
func (s *PostStore) AddComment(ctx context.Context, c *model.Comment) error {
	c.ID = xid.New().String()
	c.CreatedAt = time.Now().UTC()

	err := WithTx(ctx, s.db, func(ctx context.Context, tx DBTX) error {
		if err := touchPost(ctx, tx, c.PostID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO comments (id, post_id, author_id, text, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.PostID, c.Author.ID, c.Text, c.CreatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperror.NotFound("user", c.Author.ID)
			}
			return fmt.Errorf("inserting comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return wrapTxErr("adding comment to post "+c.PostID, err)
	}
	return nil
}

// touchPost bumps updated_at and doubles as the existence check for the
// like and comment writes.
func touchPost(ctx context.Context, q DBTX, id string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE posts SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("touching post: %w", err)
	}
	return requireAffected(result, "post", id)
}

// loadPosts reads the posts matching f, newest first, and fills in their
// like-sets and comments. Each query's rows are drained and closed before
// the next one starts.
func loadPosts(ctx context.Context, q DBTX, f postFilter) ([]model.Post, error) {
	posts, err := queryPosts(ctx, q, f)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	index := make(map[string]*model.Post, len(posts))
	for i := range posts {
		index[posts[i].ID] = &posts[i]
	}

	if err := queryLikes(ctx, q, f, index); err != nil {
		return nil, err
	}
	if err := queryComments(ctx, q, f, index); err != nil {
		return nil, err
	}
	return posts, nil
}

func queryPosts(ctx context.Context, q DBTX, f postFilter) ([]model.Post, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT p.id, p.author_id, u.name, p.text, p.image_url, p.created_at, p.updated_at
		 FROM posts p JOIN users u ON u.id = p.author_id
		 `+f.where+`
		 ORDER BY p.seq DESC`,
		f.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p := model.Post{Likes: []string{}, Comments: []model.Comment{}}
		if err := rows.Scan(
			&p.ID, &p.Author.ID, &p.Author.Name, &p.Text, &p.ImageURL,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}
	return posts, nil
}

func queryLikes(ctx context.Context, q DBTX, f postFilter, index map[string]*model.Post) error {
	rows, err := q.QueryContext(ctx,
		`SELECT l.post_id, l.user_id
		 FROM post_likes l JOIN posts p ON p.id = l.post_id
		 `+f.where+`
		 ORDER BY l.rowid`,
		f.args...,
	)
	if err != nil {
		return fmt.Errorf("querying likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID, userID string
		if err := rows.Scan(&postID, &userID); err != nil {
			return fmt.Errorf("scanning like row: %w", err)
		}
		if p, ok := index[postID]; ok {
			p.Likes = append(p.Likes, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating likes: %w", err)
	}
	return nil
}

func queryComments(ctx context.Context, q DBTX, f postFilter, index map[string]*model.Post) error {
	rows, err := q.QueryContext(ctx,
		`SELECT c.id, c.post_id, c.author_id, u.name, c.text, c.created_at
		 FROM comments c
		 JOIN posts p ON p.id = c.post_id
		 JOIN users u ON u.id = c.author_id
		 `+f.where+`
		 ORDER BY c.seq DESC`,
		f.args...,
	)
	if err != nil {
		return fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.Author.ID, &c.Author.Name, &c.Text, &c.CreatedAt,
		); err != nil {
			return fmt.Errorf("scanning comment row: %w", err)
		}
		if p, ok := index[c.PostID]; ok {
			p.Comments = append(p.Comments, c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating comments: %w", err)
	}
	return nil
}

// requireAffected turns "zero rows affected" into apperror.NotFound.
func requireAffected(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// wrapTxErr adds the sqlite prefix to a transaction failure but passes
// domain errors through untouched.
func wrapTxErr(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}
