package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/storefront/accounts/internal/shared"
)

// UserStore persists accounts. Email uniqueness is enforced by the store.
type UserStore interface {
	Create(ctx context.Context, in NewUser) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id int64, patch UserPatch) (*User, error)
}

// CredentialHasher hashes passwords and verifies candidates against a hash.
type CredentialHasher interface {
	Hash(password string) (string, error)
	Verify(hash, candidate string) (bool, error)
}

// SessionStore is the request-scoped handle on the caller's server-side session.
type SessionStore interface {
	UserID() (int64, bool)
	Establish(ctx context.Context, userID int64) error
	Destroy(ctx context.Context) error
}

var (
	errAccountAbsent    = shared.NewClientError(shared.ErrInvalidCredentials, "User does not exist, Auth failed")
	errPasswordMismatch = shared.NewClientError(shared.ErrInvalidCredentials, "Invalid user, Auth failed")
)

// Service wraps account business rules.
type Service struct {
	users    UserStore
	hasher   CredentialHasher
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(users UserStore, hasher CredentialHasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{
		users:    users,
		hasher:   hasher,
		validate: validate,
		logger:   logger,
	}
}

// Register creates an account. No session is established.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*PublicUser, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.check(req); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil && existing != nil:
		return nil, shared.ErrDuplicateAccount
	case err != nil && !errors.Is(err, shared.ErrNotFound):
		return nil, fmt.Errorf("account: lookup email: %w", err)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	// Two concurrent registrations may both pass the lookup; the unique index
	// rejects the second insert with ErrDuplicateAccount.
	user, err := s.users.Create(ctx, NewUser{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		PhoneNumber:  req.PhoneNumber,
		Address:      req.Address,
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicateAccount) {
			return nil, err
		}
		return nil, fmt.Errorf("account: create user: %w", err)
	}
	return user.Public(), nil
}

// Login verifies credentials and binds sess to the user.
func (s *Service) Login(ctx context.Context, sess SessionStore, req LoginRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := s.check(req); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errAccountAbsent
		}
		return s.loginFailure(err, req.Email)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, req.Password)
	if err != nil {
		return s.loginFailure(err, req.Email)
	}
	if !ok {
		return errPasswordMismatch
	}

	if sess == nil {
		return s.loginFailure(errors.New("session unavailable"), req.Email)
	}
	if err := sess.Establish(ctx, user.ID); err != nil {
		return s.loginFailure(err, req.Email)
	}
	return nil
}

// Authorize is the gate every protected operation passes first.
func (s *Service) Authorize(sess SessionStore) (int64, error) {
	if sess == nil {
		return 0, shared.ErrUnauthorized
	}
	id, ok := sess.UserID()
	if !ok {
		return 0, shared.ErrUnauthorized
	}
	return id, nil
}

// Info returns the authenticated user's profile.
func (s *Service) Info(ctx context.Context, sess SessionStore) (*PublicUser, error) {
	userID, err := s.Authorize(sess)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// UpdateProfile changes the supplied profile fields; omitted fields keep their value.
func (s *Service) UpdateProfile(ctx context.Context, sess SessionStore, req UpdateProfileRequest) (*PublicUser, error) {
	userID, err := s.Authorize(sess)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := s.check(req); err != nil {
		return nil, err
	}

	user, err := s.users.Update(ctx, userID, UserPatch{
		Username:    req.Username,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// UpdateAddress overwrites the address only and returns the stored value.
func (s *Service) UpdateAddress(ctx context.Context, sess SessionStore, req UpdateAddressRequest) (string, error) {
	userID, err := s.Authorize(sess)
	if err != nil {
		return "", err
	}
	if err := s.check(req); err != nil {
		return "", err
	}

	user, err := s.users.Update(ctx, userID, UserPatch{Address: &req.Address})
	if err != nil {
		return "", err
	}
	return user.Address, nil
}

// Logout destroys the caller's session.
func (s *Service) Logout(ctx context.Context, sess SessionStore) error {
	if _, err := s.Authorize(sess); err != nil {
		return err
	}
	if err := sess.Destroy(ctx); err != nil {
		s.logger.Error("destroy session", slog.Any("error", err))
		return fmt.Errorf("account: logout: %w", err)
	}
	return nil
}

func (s *Service) loginFailure(err error, email string) error {
	s.logger.Error("login failed", slog.Any("error", err), slog.String("email", email))
	return shared.NewAppError(err, 0)
}

func (s *Service) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("account: validate: %w", err)
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		fields[fieldErr.Field()] = fieldErr.Tag()
	}
	return &shared.ValidationError{Fields: fields}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
