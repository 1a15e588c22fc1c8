// Package service contains the business rules.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services take repository interfaces, never *sqlite types, so the tests in
// this package run against in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sakif/linkup/internal/apperror"
	"github.com/sakif/linkup/internal/auth"
	"github.com/sakif/linkup/internal/model"
	"github.com/sakif/linkup/internal/repository"
)

// MaxNameLength bounds display names.
const MaxNameLength = 100

// errBadCredentials is deliberately identical for an unknown email and a
// wrong password.
var errBadCredentials = apperror.Unauthorized("invalid email or password")

// AuthService handles registration, login and identity lookups.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt), TokenService (JWT)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	events    EventRecorder
	logger    *slog.Logger

	// decoy is hashed once and verified against when the email is unknown,
	// so that both login failures cost one bcrypt comparison.
	decoyOnce sync.Once
	decoy     model.Credential
}

// NewAuthService creates an AuthService. events may be nil.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	events EventRecorder,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		events:    recorderOrNop(events),
		logger:    logger,
	}
}

// AuthResult bundles the user and the issued token.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates an account.
//
// The email is trimmed and lower-cased before anything else, so
// "Ada@Example.com" and "ada@example.com" are the same account and the
// second registration fails with a Conflict.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	user, err := s.register(ctx, name, email, password)
	if err != nil {
		s.events.AuthEvent(EventRegister, outcomeFailure)
		return nil, err
	}
	s.events.AuthEvent(EventRegister, outcomeSuccess)
	return user, nil
}

func (s *AuthService) register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}

	// Fast path for the common case. The UNIQUE index still catches a
	// concurrent registration that slips between this check and Create.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	cred, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{Name: name, Email: email, Credential: cred}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	return user, nil
}

// Login checks the password and issues a token with the default lifetime.
//
// An unknown email and a wrong password produce the same Unauthorized
// error, and both pay for one bcrypt comparison, so neither the message nor
// the timing tells an attacker which emails exist.
//
// A digest made with an outdated algorithm or cost is replaced on the way
// through. Failing to store the upgrade is logged and does not fail the
// login.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	res, err := s.login(ctx, email, password)
	if err != nil {
		s.events.AuthEvent(EventLogin, outcomeFailure)
		return nil, err
	}
	s.events.AuthEvent(EventLogin, outcomeSuccess)
	return res, nil
}

func (s *AuthService) login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.Verify(s.decoyCredential(), password)
			s.logger.Debug("login failed", slog.String("reason", "unknown email"))
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if !s.passwords.Verify(user.Credential, password) {
		s.logger.Debug("login failed", slog.String("userID", user.ID), slog.String("reason", "wrong password"))
		return nil, errBadCredentials
	}

	if s.passwords.NeedsRehash(user.Credential) {
		s.upgradeCredential(ctx, user, password)
	}

	token, err := s.tokens.Generate(auth.Identity{UserID: user.ID, Email: user.Email, Name: user.Name})
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) upgradeCredential(ctx context.Context, user *model.User, password string) {
	cred, err := s.passwords.Hash(password)
	if err == nil {
		err = s.users.UpdateCredential(ctx, user.ID, cred)
	}
	if err != nil {
		s.logger.Warn("credential upgrade failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	user.Credential = cred
	s.logger.Info("credential upgraded", slog.String("userID", user.ID))
}

func (s *AuthService) decoyCredential() model.Credential {
	s.decoyOnce.Do(func() {
		s.decoy, _ = s.passwords.Hash("linkup-decoy-password")
	})
	return s.decoy
}

// Me returns the current record for the authenticated user. The lookup is
// live, so a token for a deleted user yields NotFound.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("authentication required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	return user, nil
}

// ValidateToken is a thin delegation to TokenService.Validate so non-HTTP
// callers need only this package.
func (s *AuthService) ValidateToken(token string) (auth.Identity, error) {
	return s.tokens.Validate(token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
