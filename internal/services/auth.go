package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
	"golang.org/x/oauth2"
)

const (
	// ClientID identifies the CLI at the token endpoint.
	ClientID = "stagelist-cli"

	// RefreshWindow is how close to expiry a session is refreshed.
	RefreshWindow = 5 * time.Minute
)

// DefaultSignInDelays are the waits before the second and third sign-in attempt after sign-up.
var DefaultSignInDelays = []time.Duration{500 * time.Millisecond, time.Second}

// SessionEventKind classifies a session change.
type SessionEventKind int

const (
	SignedIn SessionEventKind = iota
	SignedOut
	Refreshed
	Expired
)

func (k SessionEventKind) String() string {
	switch k {
	case SignedIn:
		return "signed-in"
	case SignedOut:
		return "signed-out"
	case Refreshed:
		return "refreshed"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// SessionEvent is published to subscribers whenever the session changes.
type SessionEvent struct {
	Kind    SessionEventKind
	Session *models.AuthSession // nil after sign-out or expiry
}

// SignedInNow reports whether the event leaves the client with a usable session.
func (e SessionEvent) SignedInNow() bool { return e.Session != nil }

// AuthService signs users in against the backend's OAuth2 token endpoint and keeps the session fresh.
type AuthService struct {
	api         *APIService
	oauth       *oauth2.Config
	store       SessionStore
	logger      *log.Logger
	fingerprint func() string
	now         func() time.Time
	delays      []time.Duration

	mu     sync.Mutex
	nextID int
	subs   map[int]func(SessionEvent)
}

// AuthOption configures an [AuthService].
type AuthOption func(*AuthService)

// WithAuthLogger sets the service logger.
func WithAuthLogger(l *log.Logger) AuthOption { return func(s *AuthService) { s.logger = l } }

// WithFingerprint replaces the device fingerprint used for remember-me.
func WithFingerprint(fn func() string) AuthOption { return func(s *AuthService) { s.fingerprint = fn } }

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) AuthOption { return func(s *AuthService) { s.now = fn } }

// WithSignInDelays replaces [DefaultSignInDelays].
func WithSignInDelays(d ...time.Duration) AuthOption {
	return func(s *AuthService) { s.delays = d }
}

// NewAuthService creates an AuthService for the backend behind api.
func NewAuthService(api *APIService, store SessionStore, opts ...AuthOption) *AuthService {
	s := &AuthService{
		api: api,
		oauth: &oauth2.Config{
			ClientID: ClientID,
			Endpoint: oauth2.Endpoint{
				TokenURL:  api.BaseURL() + "/auth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:       store,
		logger:      log.Default(),
		fingerprint: shared.DeviceFingerprint,
		now:         time.Now,
		delays:      DefaultSignInDelays,
		subs:        make(map[int]func(SessionEvent)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for session events and returns a function that removes it.
func (s *AuthService) Subscribe(fn func(SessionEvent)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *AuthService) publish(ev SessionEvent) {
	s.mu.Lock()
	subs := make([]func(SessionEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("session changed", "event", ev.Kind)
	for _, fn := range subs {
		fn(ev)
	}
}

// oauthContext routes token requests through the API's HTTP client.
func (s *AuthService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.api.HTTPClient())
}

// SignIn exchanges email and password for a session. With remember set, the email is kept for the next sign-in.
func (s *AuthService) SignIn(ctx context.Context, email, password string, remember bool) (*models.AuthSession, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrInvalidInput)
	}

	tok, err := s.oauth.PasswordCredentialsToken(s.oauthContext(ctx), email, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, describeTokenError(err))
	}

	session := sessionFromToken(tok, &models.AuthSession{Email: email})
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	if remember {
		entry := &models.RememberMe{Email: email, Fingerprint: s.fingerprint(), SavedAt: s.now().UTC()}
		if err := s.store.SaveRememberMe(ctx, entry); err != nil {
			s.logger.Warn("failed to remember email", "error", err)
		}
	} else if err := s.store.ClearRememberMe(ctx); err != nil {
		s.logger.Warn("failed to clear remembered email", "error", err)
	}

	s.publish(SessionEvent{Kind: SignedIn, Session: session})
	return session, nil
}

// SignUp creates an account and then signs in, retrying while the new account propagates.
func (s *AuthService) SignUp(ctx context.Context, email, password, name string, remember bool) (*models.AuthSession, error) {
	body := map[string]string{"email": strings.TrimSpace(email), "password": password, "name": name}

	if err := s.api.JSON(ctx, http.MethodPost, "/signup", body, nil); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	var lastErr error
	for attempt := 0; attempt <= len(s.delays); attempt++ {
		if attempt > 0 {
			s.logger.Debug("retrying sign-in after sign-up", "attempt", attempt+1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.delays[attempt-1]):
			}
		}

		session, err := s.SignIn(ctx, email, password, remember)
		if err == nil {
			return session, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("account created but sign-in failed: %w", lastErr)
}

// SignOut discards the persisted session. The remembered email is kept.
func (s *AuthService) SignOut(ctx context.Context) error {
	if err := s.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	s.publish(SessionEvent{Kind: SignedOut})
	return nil
}

// Session returns the persisted session, refreshing it when fewer than [RefreshWindow] remain.
// No session, or a failed refresh, yields [shared.ErrNotAuthenticated].
func (s *AuthService) Session(ctx context.Context) (*models.AuthSession, error) {
	current, err := s.store.LoadSession(ctx)
	if err != nil {
		return nil, err
	}

	src := oauth2.ReuseTokenSourceWithExpiry(current.Token(), &sessionRefresher{svc: s, ctx: ctx, session: current}, RefreshWindow)
	tok, err := src.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == current.AccessToken {
		return current, nil
	}
	return sessionFromToken(tok, current), nil
}

// TokenSource yields the access token of the current session, refreshing as needed.
func (s *AuthService) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSourceFunc(func() (*oauth2.Token, error) {
		session, err := s.Session(ctx)
		if err != nil {
			return nil, err
		}
		return session.Token(), nil
	})
}

// RememberedEmail returns the remembered email when the entry is fresh and was saved on this device.
func (s *AuthService) RememberedEmail(ctx context.Context) (string, bool) {
	entry, err := s.store.LoadRememberMe(ctx)
	if err != nil || entry == nil {
		return "", false
	}
	if !entry.Valid(s.fingerprint(), s.now()) {
		return "", false
	}
	return entry.Email, true
}

// sessionRefresher exchanges the stored refresh token for a new token and persists the result.
type sessionRefresher struct {
	svc     *AuthService
	ctx     context.Context
	session *models.AuthSession
}

func (r *sessionRefresher) Token() (*oauth2.Token, error) {
	s := r.svc
	if r.session.RefreshToken == "" {
		s.expire(r.ctx)
		return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, shared.ErrNoRefreshToken)
	}

	tok, err := s.oauth.TokenSource(s.oauthContext(r.ctx), &oauth2.Token{RefreshToken: r.session.RefreshToken}).Token()
	if err != nil {
		s.logger.Warn("session refresh failed", "error", describeTokenError(err))
		s.expire(r.ctx)
		return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, shared.ErrRefreshFailed)
	}

	refreshed := sessionFromToken(tok, r.session)
	if err := s.store.SaveSession(r.ctx, refreshed); err != nil {
		return nil, err
	}
	s.publish(SessionEvent{Kind: Refreshed, Session: refreshed})
	return tok, nil
}

func (s *AuthService) expire(ctx context.Context) {
	if err := s.store.ClearSession(ctx); err != nil {
		s.logger.Warn("failed to clear expired session", "error", err)
	}
	s.publish(SessionEvent{Kind: Expired})
}

type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) { return f() }

// sessionFromToken builds a session from a token response, keeping identity fields from prev when the response omits them.
func sessionFromToken(tok *oauth2.Token, prev *models.AuthSession) *models.AuthSession {
	session := &models.AuthSession{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		Expiry:       tok.Expiry.UTC(),
	}
	if prev != nil {
		session.UserID, session.Email = prev.UserID, prev.Email
		if session.RefreshToken == "" {
			session.RefreshToken = prev.RefreshToken
		}
	}
	if uid, ok := tok.Extra("user_id").(string); ok && uid != "" {
		session.UserID = uid
	}
	if email, ok := tok.Extra("email").(string); ok && email != "" {
		session.Email = email
	}
	return session
}

func describeTokenError(err error) string {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		if rErr.ErrorDescription != "" {
			return rErr.ErrorDescription
		}
		if rErr.ErrorCode != "" {
			return rErr.ErrorCode
		}
		if rErr.Response != nil {
			return fmt.Sprintf("token endpoint returned status %d", rErr.Response.StatusCode)
		}
	}
	return err.Error()
}
