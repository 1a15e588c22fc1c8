package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/linkup/internal/apperror"
	"github.com/sakif/linkup/internal/model"
	"github.com/sakif/linkup/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory repositories. A fake (not a mock framework) keeps
// the behaviour visible: you can read exactly what "the database" does.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserRepo implements repository.UserRepository.
type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]*model.User

	// set to a non-nil error to simulate a database failure
	getByEmailErr error
	createErr     error
	updateCredErr error

	credentialUpdates int
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, dup := f.byEmail[email]; dup {
		return apperror.Conflict("email already registered")
	}
	u.ID = xid.New().String()
	u.Email = email
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	stored := *u
	f.byID[u.ID] = &stored
	f.byEmail[email] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getByEmailErr != nil {
		return nil, f.getByEmailErr
	}
	u, ok := f.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpdateCredential(_ context.Context, userID string, cred model.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateCredErr != nil {
		return f.updateCredErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	u.Credential = cred
	f.credentialUpdates++
	return nil
}

// fakePostRepo implements repository.PostRepository. Author names are
// resolved from the user fake, the way the SQL join does it.
type fakePostRepo struct {
	mu    sync.Mutex
	users *fakeUserRepo
	seq   int
	posts map[string]*fakePost

	listErr   error
	deleteErr error
}

type fakePost struct {
	seq      int
	post     model.Post
	likes    []string
	comments []model.Comment // oldest first
}

var _ repository.PostRepository = (*fakePostRepo)(nil)

func newFakePostRepo(users *fakeUserRepo) *fakePostRepo {
	return &fakePostRepo{users: users, posts: make(map[string]*fakePost)}
}

func (f *fakePostRepo) authorName(id string) string {
	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	if u, ok := f.users.byID[id]; ok {
		return u.Name
	}
	return ""
}

func (f *fakePostRepo) Create(_ context.Context, p *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p.ID = xid.New().String()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	p.Likes = []string{}
	p.Comments = []model.Comment{}
	f.posts[p.ID] = &fakePost{seq: f.seq, post: *p, likes: []string{}}
	return nil
}

func (f *fakePostRepo) snapshot(fp *fakePost) model.Post {
	p := fp.post
	p.Author.Name = f.authorName(p.Author.ID)
	p.Likes = append([]string{}, fp.likes...)
	p.Comments = make([]model.Comment, 0, len(fp.comments))
	for i := len(fp.comments) - 1; i >= 0; i-- {
		c := fp.comments[i]
		c.Author.Name = f.authorName(c.Author.ID)
		p.Comments = append(p.Comments, c)
	}
	return p
}

func (f *fakePostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fp, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	p := f.snapshot(fp)
	return &p, nil
}

func (f *fakePostRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	matched := make([]*fakePost, 0, len(f.posts))
	for _, fp := range f.posts {
		if opts.AuthorID == "" || fp.post.Author.ID == opts.AuthorID {
			matched = append(matched, fp)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })

	out := make([]model.Post, 0, len(matched))
	for _, fp := range matched {
		out = append(out, f.snapshot(fp))
	}
	return out, nil
}

func (f *fakePostRepo) UpdateText(_ context.Context, id, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fp, ok := f.posts[id]
	if !ok {
		return apperror.NotFound("post", id)
	}
	fp.post.Text = text
	fp.post.UpdatedAt = time.Now()
	return nil
}

func (f *fakePostRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound("post", id)
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepo) ToggleLike(_ context.Context, postID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fp, ok := f.posts[postID]
	if !ok {
		return false, apperror.NotFound("post", postID)
	}
	for i, id := range fp.likes {
		if id == userID {
			fp.likes = append(fp.likes[:i], fp.likes[i+1:]...)
			return false, nil
		}
	}
	fp.likes = append(fp.likes, userID)
	return true, nil
}

func (f *fakePostRepo) AddComment(_ context.Context, c *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fp, ok := f.posts[c.PostID]
	if !ok {
		return apperror.NotFound("post", c.PostID)
	}
	c.ID = xid.New().String()
	c.CreatedAt = time.Now()
	fp.comments = append(fp.comments, *c)
	return nil
}

// recordingEvents is an EventRecorder that remembers what it saw.
type recordingEvents struct {
	mu   sync.Mutex
	auth []string
	post []string
}

func (r *recordingEvents) AuthEvent(event, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auth = append(r.auth, event+":"+outcome)
}

func (r *recordingEvents) PostEvent(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.post = append(r.post, event)
}
