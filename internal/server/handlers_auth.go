package server

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/desertthunder/stagelist/internal/kvstore"
	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
)

// MinPasswordLength is the shortest password signup accepts.
const MinPasswordLength = 6

// MaxPasswordLength is bcrypt's input limit in bytes.
const MaxPasswordLength = 72

const duplicateEmailMessage = "An account with this email already exists. Please sign in instead."

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	switch {
	case req.Email == "" || req.Password == "":
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	case !emailPattern.MatchString(req.Email):
		writeError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	case len(req.Password) < MinPasswordLength:
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	case len(req.Password) > MaxPasswordLength:
		writeError(w, http.StatusBadRequest, "Password must be at most 72 bytes long")
		return
	}

	s.signupMu.Lock()
	user, err := s.users.Create(r.Context(), req.Email, req.Password, req.Name)
	s.signupMu.Unlock()

	switch {
	case errors.Is(err, shared.ErrUserExists):
		writeError(w, http.StatusBadRequest, duplicateEmailMessage)
		return
	case err != nil:
		s.logger.Error("signup failed", "email", req.Email, "err", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred during signup")
		return
	}

	s.logger.Info("account created", "user", user.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    map[string]string{"id": user.ID, "email": user.Email, "name": user.Name},
	})
}

// handleToken is the OAuth2 token endpoint for the password and refresh_token grants.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		oauthError(w, "invalid_request", "Malformed form body")
		return
	}

	var (
		user models.User
		err  error
	)
	ctx := r.Context()
	switch r.PostForm.Get("grant_type") {
	case "password":
		email, password := r.PostForm.Get("username"), r.PostForm.Get("password")
		if email == "" || password == "" {
			oauthError(w, "invalid_request", "Email and password are required")
			return
		}
		user, err = s.users.Authenticate(ctx, email, password)
		if errors.Is(err, shared.ErrAuthFailed) {
			oauthError(w, "invalid_grant", "Invalid email or password")
			return
		}
	case "refresh_token":
		claims, verr := s.tokens.Verify(r.PostForm.Get("refresh_token"), TokenTypeRefresh)
		if verr != nil {
			oauthError(w, "invalid_grant", "Invalid refresh token")
			return
		}
		user, err = s.users.ByID(ctx, claims.UserID)
		if errors.Is(err, kvstore.ErrNotFound) {
			oauthError(w, "invalid_grant", "Account no longer exists")
			return
		}
	case "":
		oauthError(w, "invalid_request", "grant_type is required")
		return
	default:
		oauthError(w, "unsupported_grant_type", "")
		return
	}
	if err != nil {
		s.logger.Error("token grant failed", "grant", r.PostForm.Get("grant_type"), "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	s.writeTokens(w, user)
}

func (s *Server) writeTokens(w http.ResponseWriter, user models.User) {
	pair, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("failed to issue tokens", "user", user.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  pair.AccessToken,
		"token_type":    "bearer",
		"refresh_token": pair.RefreshToken,
		"expires_in":    int(pair.ExpiresIn.Seconds()),
		"user_id":       user.ID,
		"email":         user.Email,
	})
}
