package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mwhitby/homehub-core/internal/auth"
)

// credentialsRequest is the request body for register and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is the response body for register and login.
type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        auth.Summary `json:"user"`
}

// changePasswordRequest is the request body for POST /auth/change-password.
type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// handleRegistrationAllowed reports whether the one-time admin bootstrap
// is still open. Public by design: the login screen uses it to decide
// whether to show the registration form.
func (s *Server) handleRegistrationAllowed(w http.ResponseWriter, r *http.Request) {
	open, err := s.auth.RegistrationOpen(r.Context())
	if err != nil {
		writeInternalError(w, "failed to check registration state")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"allowed": open})
}

// handleRegister creates the bootstrap admin account. Open only while no
// admin exists.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	token, account, err := s.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRegistrationClosed):
			writeForbidden(w, "registration is closed")
		case errors.Is(err, auth.ErrAccountExists):
			writeConflict(w, "email already registered")
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeValidationError(w, "email is required")
		default:
			s.logger.Error("registration failed", "error", err)
			writeInternalError(w, "registration failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, s.tokenResponse(token, account))
}

// handleLogin authenticates credentials and returns a bearer token.
// The must_change_password flag on the returned user tells the client to
// force a password change before showing the dashboard.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	token, account, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeUnauthorized(w, "invalid email or password")
			return
		}
		s.logger.Error("login failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, s.tokenResponse(token, account))
}

// handleMe returns the authenticated account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r.Context())
	if account == nil {
		writeUnauthorized(w, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, account.Summary())
}

// handleChangePassword re-proves the current password and sets a new one.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r.Context())
	if account == nil {
		writeUnauthorized(w, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	err := s.auth.ChangePassword(r.Context(), account, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeUnauthorized(w, "current password is incorrect")
		case errors.Is(err, auth.ErrPasswordTooShort):
			writeValidationError(w, "password must be at least 6 characters")
		default:
			s.logger.Error("password change failed", "error", err)
			writeInternalError(w, "password change failed")
		}
		return
	}

	updated, err := s.auth.GetAccount(r.Context(), account.Email)
	if err != nil {
		writeInternalError(w, "password change failed")
		return
	}
	writeJSON(w, http.StatusOK, updated.Summary())
}

// tokenResponse builds the standard token envelope.
func (s *Server) tokenResponse(token string, account *auth.Account) tokenResponse {
	return tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.auth.Tokens().TTL().Seconds()),
		User:        account.Summary(),
	}
}
