package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mwhitby/homehub-core/internal/infrastructure/logging"
)

// Service wires the password hasher, token issuer, and account store into
// the operations the API exposes. It owns the registration bootstrap rule:
// self-service registration is open only while no admin account exists,
// and the check-then-create pair is serialized so concurrent first
// registrations cannot both succeed.
type Service struct {
	store  Store
	tokens *TokenIssuer
	logger *logging.Logger

	// mu serializes registration and admin account creation so the
	// gate check and the insert happen atomically.
	mu sync.Mutex
}

// NewService creates an auth service.
func NewService(store Store, tokens *TokenIssuer, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:  store,
		tokens: tokens,
		logger: logger.With("component", "auth"),
	}
}

// Tokens exposes the token issuer for callers that need TTL metadata.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

// RegistrationOpen reports whether self-service registration is allowed.
// The state is derived, never stored: open while no admin account exists.
// Deleting the last admin reopens registration.
func (s *Service) RegistrationOpen(ctx context.Context) (bool, error) {
	hasAdmin, err := s.store.AnyAdmin(ctx)
	if err != nil {
		return false, err
	}
	return !hasAdmin, nil
}

// Register creates the bootstrap admin account and returns a signed token
// for it. It fails with ErrRegistrationClosed once any admin exists, for
// any input: the gate is checked before anything else so a closed gate
// never reads as a validation error. The bootstrap password is accepted
// as given (no minimum length); the account starts with
// must_change_password set, and the forced rotation enforces the minimum.
func (s *Service) Register(ctx context.Context, email, password string) (string, *Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hasAdmin, err := s.store.AnyAdmin(ctx)
	if err != nil {
		return "", nil, err
	}
	if hasAdmin {
		return "", nil, ErrRegistrationClosed
	}

	email = NormalizeEmail(email)
	if email == "" {
		return "", nil, ErrInvalidCredentials
	}

	if _, err := s.store.Get(ctx, email); err == nil {
		return "", nil, ErrAccountExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return "", nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", nil, fmt.Errorf("hashing password: %w", err)
	}

	account := &Account{
		Email:              email,
		PasswordHash:       hash,
		IsAdmin:            true,
		MustChangePassword: true,
	}
	if err := s.store.Create(ctx, account); err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(account.Email)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("bootstrap admin registered", "email", account.Email)
	return token, account, nil
}

// Login verifies credentials and returns a signed token. A token is
// always issued on a correct password; the must_change_password flag on
// the returned account tells the client whether to force a password
// change before anything else.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Account, error) {
	account, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !VerifyPassword(password, account.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.Email)
	if err != nil {
		return "", nil, err
	}

	return token, account, nil
}

// Authenticate resolves a bearer token to the live account it names.
// A syntactically valid token whose account has since been deleted is an
// authentication failure, not a lookup error.
func (s *Service) Authenticate(ctx context.Context, token string) (*Account, error) {
	email, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	account, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	return account, nil
}

// RequireAdmin checks that the account currently holds admin privileges.
// The check reads the live flag, so revoking admin takes effect on the
// next request even for tokens issued earlier.
func (s *Service) RequireAdmin(account *Account) error {
	if account == nil || !account.IsAdmin {
		return ErrNotAdmin
	}
	return nil
}

// ChangePassword re-proves the current password and sets a new one,
// clearing must_change_password. A wrong current password is
// ErrInvalidCredentials, distinct from a too-short new password.
func (s *Service) ChangePassword(ctx context.Context, account *Account, currentPassword, newPassword string) error {
	if !VerifyPassword(currentPassword, account.PasswordHash) {
		return ErrInvalidCredentials
	}
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	mustChange := false
	_, err = s.store.Update(ctx, account.Email, Patch{
		PasswordHash:       &hash,
		MustChangePassword: &mustChange,
	})
	if err != nil {
		return err
	}

	s.logger.Info("password changed", "email", account.Email)
	return nil
}

// CreateAccount creates an account on behalf of an admin. The new account
// starts with must_change_password set so the first login forces a
// rotation. ErrAccountExists if the email is already taken.
func (s *Service) CreateAccount(ctx context.Context, email, password string, isAdmin bool) (*Account, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Get(ctx, email); err == nil {
		return nil, ErrAccountExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	account := &Account{
		Email:              email,
		PasswordHash:       hash,
		IsAdmin:            isAdmin,
		MustChangePassword: true,
	}
	if err := s.store.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account created", "email", account.Email, "is_admin", account.IsAdmin)
	return account, nil
}

// AccountUpdate describes an admin-initiated partial update.
type AccountUpdate struct {
	Password *string
	IsAdmin  *bool
}

// UpdateAccount applies an admin-initiated partial update. Setting a
// password through this path marks the account must_change_password: an
// admin-assigned password is provisional until the owner rotates it.
func (s *Service) UpdateAccount(ctx context.Context, email string, update AccountUpdate) (*Account, error) {
	var patch Patch

	if update.Password != nil {
		if len(*update.Password) < MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hash, err := HashPassword(*update.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		mustChange := true
		patch.PasswordHash = &hash
		patch.MustChangePassword = &mustChange
	}
	patch.IsAdmin = update.IsAdmin

	account, err := s.store.Update(ctx, email, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("account updated", "email", account.Email)
	return account, nil
}

// DeleteAccount removes an account. It reports whether the account
// existed. Deleting the last admin reopens registration; that is the
// designed recovery path, not an error.
func (s *Service) DeleteAccount(ctx context.Context, email string) (bool, error) {
	existed, err := s.store.Delete(ctx, email)
	if err != nil {
		return false, err
	}
	if existed {
		s.logger.Info("account deleted", "email", NormalizeEmail(email))
	}
	return existed, nil
}

// GetAccount fetches a single account by email.
func (s *Service) GetAccount(ctx context.Context, email string) (*Account, error) {
	return s.store.Get(ctx, email)
}

// ListAccounts returns every account.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.store.List(ctx)
}

// ResetAll deletes every account and returns how many were removed.
// Exposed only through the dev endpoints; registration reopens afterwards.
func (s *Service) ResetAll(ctx context.Context) (int, error) {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("all accounts cleared", "count", n)
	return n, nil
}
