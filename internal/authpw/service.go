// Package authpw provides email/password and federated authentication.
package authpw

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lumen/api/internal/store"
)

// AuthError carries a stable code the HTTP layer translates into the
// user-facing message. Codes mirror the client's friendly-error table.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

var (
	ErrUserNotFound  = &AuthError{Code: "USER_NOT_FOUND", Message: "No account found with this email."}
	ErrWrongPassword = &AuthError{Code: "WRONG_PASSWORD", Message: "Incorrect password. Try again."}
	ErrInvalidEmail  = &AuthError{Code: "INVALID_EMAIL", Message: "Invalid email address."}
	ErrEmailInUse    = &AuthError{Code: "EMAIL_IN_USE", Message: "This email is already in use. Try logging in."}
	ErrWeakPassword  = &AuthError{Code: "WEAK_PASSWORD", Message: "Password too weak. Use at least 6 characters."}
	ErrResetInvalid  = &AuthError{Code: "RESET_INVALID", Message: "Invalid or expired reset token."}
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserStore defines the storage interface for auth
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) error
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error
	CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error
	GetPasswordReset(ctx context.Context, token string) (string, error)
	MarkPasswordResetUsed(ctx context.Context, token string) error
}

// Service provides credential authentication over a UserStore.
type Service struct {
	store  UserStore
	google *GoogleVerifier
}

func NewService(store UserStore, google *GoogleVerifier) *Service {
	return &Service{store: store, google: google}
}

type Credentials struct {
	Email    string
	Password string
}

// Register creates a new password-backed account.
func (s *Service) Register(ctx context.Context, creds Credentials) (store.User, error) {
	email := strings.TrimSpace(strings.ToLower(creds.Email))
	if !emailPattern.MatchString(email) {
		return store.User{}, ErrInvalidEmail
	}
	if len(creds.Password) < 6 {
		return store.User{}, ErrWeakPassword
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return store.User{}, ErrEmailInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := store.User{
		ID:           generateID(),
		Email:        email,
		DisplayName:  displayNameFromEmail(email),
		PasswordHash: string(hash),
		Provider:     "password",
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return store.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// SignIn authenticates an email/password pair.
func (s *Service) SignIn(ctx context.Context, creds Credentials) (store.User, error) {
	email := strings.TrimSpace(strings.ToLower(creds.Email))
	if !emailPattern.MatchString(email) {
		return store.User{}, ErrInvalidEmail
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return store.User{}, ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return store.User{}, ErrWrongPassword
	}
	return user, nil
}

// GoogleAuthURL returns the consent-screen URL to start the federated flow,
// or an empty string when Google sign-in is not configured.
func (s *Service) GoogleAuthURL(state string) string {
	if s.google == nil {
		return ""
	}
	return s.google.AuthURL(state)
}

// SignInWithGoogle exchanges an OAuth authorization code and signs the
// federated identity in, creating the account on first use.
func (s *Service) SignInWithGoogle(ctx context.Context, code string) (store.User, error) {
	if s.google == nil {
		return store.User{}, &AuthError{Code: "FEDERATED_UNAVAILABLE", Message: "Google sign-in is not configured."}
	}

	identity, err := s.google.Exchange(ctx, code)
	if err != nil {
		return store.User{}, &AuthError{Code: "FEDERATED_FAILED", Message: "Google sign-in failed. Try again."}
	}

	if user, err := s.store.GetUserByEmail(ctx, identity.Email); err == nil {
		return user, nil
	}

	user := store.User{
		ID:          generateID(),
		Email:       identity.Email,
		DisplayName: identity.Name,
		Provider:    "google",
	}
	if user.DisplayName == "" {
		user.DisplayName = displayNameFromEmail(identity.Email)
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return store.User{}, fmt.Errorf("create federated user: %w", err)
	}
	return user, nil
}

// RequestPasswordReset creates a reset token. It returns an empty token (and
// no error) for unknown emails so callers never learn whether one exists.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := s.store.CreatePasswordReset(ctx, user.ID, token, time.Now().Add(1*time.Hour)); err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword sets a new password for the user behind a reset token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrResetInvalid
	}
	if len(newPassword) < 6 {
		return ErrWeakPassword
	}

	userID, err := s.store.GetPasswordReset(ctx, token)
	if err != nil {
		return ErrResetInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	// Password is already reset; a failure here only leaves the token live
	// until its one-hour expiry.
	_ = s.store.MarkPasswordResetUsed(ctx, token)
	return nil
}

func displayNameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

// generateToken creates a secure random token
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// generateID creates a simple ID
func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return "usr_" + hex.EncodeToString(b)
}
