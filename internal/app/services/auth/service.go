package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"villarent/internal/app/apperr"
	"villarent/internal/app/identity"
	domainauth "villarent/internal/domain/auth"
	domainuser "villarent/internal/domain/user"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrPasswordTooShort   = errors.New("auth: password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("auth: password must be at most 72 bytes")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// rehasher is implemented by hashers that can tell an outdated hash apart.
type rehasher interface {
	NeedsRehash(hash string) bool
}

// tokenShape is implemented by generators that can reject foreign tokens
// without a session store round trip.
type tokenShape interface {
	WellFormed(token string) bool
}

// Service authenticates back-office users and resolves session tokens.
type Service struct {
	Users      domainuser.Repository
	Sessions   domainauth.SessionStore
	Passwords  PasswordHasher
	Tokens     TokenGenerator
	SessionTTL time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User    *domainuser.User
	Session *domainauth.Session
}

type AdminParams struct {
	Email    string
	Name     string
	Phone    string
	Password string
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email := domainuser.NormalizeEmail(params.Email)
	if email == "" {
		return nil, apperr.Wrap(apperr.KindUnauthorized, ErrInvalidCredentials)
	}
	user, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindUnauthorized, ErrInvalidCredentials)
		}
		return nil, err
	}
	if err := s.Passwords.Compare(user.PasswordHash, params.Password); err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, ErrInvalidCredentials)
	}
	s.upgradeHash(ctx, user, params.Password)
	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user authenticated", "user_id", user.ID, "role", user.Role)
	}
	return &AuthResult{User: user, Session: session}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, domainauth.Token(token)); err != nil && !errors.Is(err, domainauth.ErrSessionNotFound) {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("session terminated")
	}
	return nil
}

// ResolveToken turns a bearer token into a principal. Expired sessions and
// sessions of deleted users are dropped.
func (s *Service) ResolveToken(ctx context.Context, token string) (identity.Principal, error) {
	if err := s.ensureDependencies(); err != nil {
		return identity.Principal{}, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return identity.Principal{}, domainauth.ErrTokenRequired
	}
	if shape, ok := s.Tokens.(tokenShape); ok && !shape.WellFormed(token) {
		return identity.Principal{}, domainauth.ErrSessionNotFound
	}
	session, err := s.Sessions.Get(ctx, domainauth.Token(token))
	if err != nil {
		return identity.Principal{}, err
	}
	if session.Expired(s.now()) {
		_ = s.Sessions.Delete(ctx, session.Token)
		return identity.Principal{}, domainauth.ErrSessionNotFound
	}
	user, err := s.Users.ByID(ctx, session.UserID)
	if err != nil {
		_ = s.Sessions.Delete(ctx, session.Token)
		if errors.Is(err, domainuser.ErrNotFound) {
			return identity.Principal{}, domainauth.ErrSessionNotFound
		}
		return identity.Principal{}, err
	}
	return identity.Principal{
		UserID: string(user.ID),
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
		Token:  token,
	}, nil
}

// EnsureAdmin creates an admin account or promotes and re-keys an existing
// user with the same email.
func (s *Service) EnsureAdmin(ctx context.Context, params AdminParams) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(params.Password) < 8 {
		return nil, apperr.Validation(ErrPasswordTooShort)
	}
	if len(params.Password) > 72 {
		return nil, apperr.Validation(ErrPasswordTooLong)
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user, err := s.Users.ByEmail(ctx, domainuser.NormalizeEmail(params.Email))
	switch {
	case errors.Is(err, domainuser.ErrNotFound):
		user, err = domainuser.NewUser(domainuser.CreateParams{
			ID:           domainuser.ID(uuid.NewString()),
			Email:        params.Email,
			Name:         params.Name,
			Phone:        params.Phone,
			PasswordHash: hash,
			Role:         domainuser.RoleAdmin,
			CreatedAt:    now,
		})
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		user.Promote(now)
		if err := user.SetPasswordHash(hash, now); err != nil {
			return nil, err
		}
	}
	if err := s.Users.Save(ctx, user); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("admin account ready", "user_id", user.ID, "email", user.Email)
	}
	return user, nil
}

// upgradeHash re-hashes the password after a successful login when the stored
// hash was made with weaker settings. Failures are logged and never block the login.
func (s *Service) upgradeHash(ctx context.Context, user *domainuser.User, password string) {
	r, ok := s.Passwords.(rehasher)
	if !ok || !r.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.Passwords.Hash(password)
	if err == nil {
		err = user.SetPasswordHash(hash, s.now())
	}
	if err == nil {
		err = s.Users.Save(ctx, user)
	}
	if err != nil && s.Logger != nil {
		s.Logger.Warn("password rehash failed", "user_id", user.ID, "err", err)
	}
}

func (s *Service) issueSession(ctx context.Context, user *domainuser.User) (*domainauth.Session, error) {
	token, err := s.Tokens.NewToken()
	if err != nil {
		return nil, err
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:  domainauth.Token(token),
		UserID: user.ID,
		Role:   user.Role,
		TTL:    s.sessionTTL(),
		Now:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 24 * time.Hour
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Users == nil:
		return errors.New("auth: user repository required")
	case s.Sessions == nil:
		return errors.New("auth: session store required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token generator required")
	default:
		return nil
	}
}
