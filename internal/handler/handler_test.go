package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/linkup/internal/auth"
	"github.com/sakif/linkup/internal/handler"
	"github.com/sakif/linkup/internal/model"
	sqliteRepo "github.com/sakif/linkup/internal/repository/sqlite"
	"github.com/sakif/linkup/internal/service"
)

// testEnv wires real services over an in-memory database, so handler tests
// exercise the same paths as production minus the network.
type testEnv struct {
	router http.Handler
	tokens *auth.TokenService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqliteRepo.New(context.Background(), sqliteRepo.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	logger := discardLogger()
	authSvc := service.NewAuthService(db.Users(), tokens, auth.NewPasswordServiceForTest(4), nil, logger)
	postSvc := service.NewPostService(db.Posts(), nil, logger)
	userSvc := service.NewUserService(db.Users(), db.Posts(), logger)

	authH := handler.NewAuthHandler(authSvc, logger)
	postH := handler.NewPostHandler(postSvc, logger)
	userH := handler.NewUserHandler(userSvc, logger)

	r := chi.NewRouter()
	r.Post("/api/auth/register", authH.HandleRegister)
	r.Post("/api/auth/login", authH.HandleLogin)
	r.With(auth.RequireAuth(tokens)).Get("/api/auth/me", authH.HandleMe)
	r.With(auth.OptionalAuth(tokens)).Get("/api/posts", postH.HandleFeed)
	r.With(auth.OptionalAuth(tokens)).Get("/api/users/{id}", userH.HandleProfile)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Post("/api/posts", postH.HandleCreate)
		r.Put("/api/posts/{id}", postH.HandleUpdate)
		r.Delete("/api/posts/{id}", postH.HandleDelete)
		r.Post("/api/posts/{id}/like", postH.HandleLike)
		r.Post("/api/posts/{id}/comments", postH.HandleComment)
	})

	return &testEnv{router: r, tokens: tokens}
}

// do sends a request with an optional JSON body and bearer token.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// register creates an account and returns it; the test fails on non-201.
func (e *testEnv) register(t *testing.T, name, email, password string) model.PublicUser {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var u model.PublicUser
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
	return u
}

// signup registers and logs in, returning the user and a token.
func (e *testEnv) signup(t *testing.T, name, email string) (model.PublicUser, string) {
	t.Helper()
	u := e.register(t, name, email, "pw-"+name)
	rr := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "pw-" + name,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	return u, res.Token
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}
