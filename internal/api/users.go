package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mwhitby/homehub-core/internal/auth"
)

// createUserRequest is the request body for POST /auth/users.
type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// updateUserRequest is the request body for PATCH /auth/users/{email}.
// Absent fields are left unchanged.
type updateUserRequest struct {
	Password *string `json:"password"`
	IsAdmin  *bool   `json:"is_admin"`
}

// handleListUsers returns all accounts as summaries, never hashes.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.auth.ListAccounts(r.Context())
	if err != nil {
		s.logger.Error("listing accounts failed", "error", err)
		writeInternalError(w, "failed to list users")
		return
	}

	summaries := make([]auth.Summary, 0, len(accounts))
	for i := range accounts {
		summaries = append(summaries, accounts[i].Summary())
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleCreateUser creates an account on behalf of an admin. The new
// account must change its password on first login.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	account, err := s.auth.CreateAccount(r.Context(), req.Email, req.Password, req.IsAdmin)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountExists):
			writeConflict(w, "email already registered")
		case errors.Is(err, auth.ErrPasswordTooShort):
			writeValidationError(w, "password must be at least 6 characters")
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeValidationError(w, "email is required")
		default:
			s.logger.Error("creating account failed", "error", err)
			writeInternalError(w, "failed to create user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, account.Summary())
}

// handleGetUser returns a single account summary.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	account, err := s.auth.GetAccount(r.Context(), email)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("fetching account failed", "error", err)
		writeInternalError(w, "failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, account.Summary())
}

// handleUpdateUser applies a partial update. Setting a password through
// this path flags the account to change it at next login.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	account, err := s.auth.UpdateAccount(r.Context(), email, auth.AccountUpdate{
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountNotFound):
			writeNotFound(w, "user not found")
		case errors.Is(err, auth.ErrPasswordTooShort):
			writeValidationError(w, "password must be at least 6 characters")
		default:
			s.logger.Error("updating account failed", "error", err)
			writeInternalError(w, "failed to update user")
		}
		return
	}

	writeJSON(w, http.StatusOK, account.Summary())
}

// handleDeleteUser removes an account. Deleting the last admin reopens
// registration; admins can also delete themselves.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	existed, err := s.auth.DeleteAccount(r.Context(), email)
	if err != nil {
		s.logger.Error("deleting account failed", "error", err)
		writeInternalError(w, "failed to delete user")
		return
	}
	if !existed {
		writeNotFound(w, "user not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
