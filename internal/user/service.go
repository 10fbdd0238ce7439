// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/templates/user-api/internal/core"
)

type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

type TokenIssuer interface {
	Issue(subject string) (string, error)
}

type Service struct {
	repo      Repository
	validator *Validator
	hasher    Hasher
	issuer    TokenIssuer
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewService(
	repo Repository,
	hasher Hasher,
	issuer TokenIssuer,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:      repo,
		validator: NewValidator(),
		hasher:    hasher,
		issuer:    issuer,
		logger:    logger,
		tracer:    otel.Tracer("user-api/user"),
		now:       time.Now,
	}
}

// Register creates an active user with a freshly issued token. Failures that
// are not lifecycle errors come back as UnexpectedFailure.
func (s *Service) Register(
	ctx context.Context,
	candidate *User,
) (*SavedUserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "user.Register")
	defer span.End()

	saved, err := s.register(ctx, candidate)
	if err != nil {
		err = asError(err)
		core.SetSpanError(ctx, err)
		return nil, err
	}

	return saved, nil
}

func (s *Service) register(
	ctx context.Context,
	candidate *User,
) (*SavedUserResponse, error) {
	if candidate == nil {
		return nil, ErrMissingData
	}

	_, found, err := s.LookupByEmail(ctx, candidate.Email)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, ErrDuplicateEmail
	}

	if err := s.validator.Validate(candidate); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(candidate.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.Issue(candidate.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	phones := candidate.Phones
	if phones == nil {
		phones = []Phone{}
	}

	u := &User{
		Name:      candidate.Name,
		Email:     candidate.Email,
		Password:  hash,
		CreatedAt: s.now(),
		IsActive:  true,
		Token:     &token,
		Phones:    phones,
	}

	if err := s.repo.Save(ctx, u); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	core.AddSpanEvent(ctx, "user.registered", attribute.String("user_id", u.ID))
	s.logger.Info("user registered", "user_id", u.ID, "email", u.Email)

	saved := ToSavedUserResponse(u)
	return &saved, nil
}

// EnsureUser registers candidate unless its email is already taken.
func (s *Service) EnsureUser(ctx context.Context, candidate *User) (bool, error) {
	if candidate == nil {
		return false, ErrMissingData
	}

	_, found, err := s.LookupByEmail(ctx, candidate.Email)
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}

	if _, err := s.Register(ctx, candidate); err != nil {
		return false, err
	}

	return true, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "user.GetByID")
	defer span.End()

	return s.load(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, found, err := s.LookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("get user by email: %w", ErrNotFound)
	}

	return u, nil
}

// LookupByEmail reports a missing user as found == false instead of an error.
func (s *Service) LookupByEmail(
	ctx context.Context,
	email string,
) (*User, bool, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup user by email: %w", err)
	}

	return u, true, nil
}

func (s *Service) ListAll(ctx context.Context) ([]UserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "user.ListAll")
	defer span.End()

	users, err := s.repo.FindAll(ctx)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	return ToUserResponseList(users), nil
}

// Update applies name, phones and password changes. Phones are replaced
// wholesale: a nil or empty slice clears them. The email can never change.
func (s *Service) Update(
	ctx context.Context,
	id string,
	changes UpdateUserRequest,
) (*UserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "user.Update",
		trace.WithAttributes(attribute.String("user_id", id)),
	)
	defer span.End()

	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if changes.Email != nil && *changes.Email != u.Email {
		return nil, ErrEmailImmutable
	}

	u.Name = changes.Name
	u.Phones = toPhones(changes.Phones)

	if changes.Password != nil {
		candidate := *u
		candidate.Password = *changes.Password
		if err := s.validator.Validate(&candidate); err != nil {
			return nil, err
		}

		if !s.hasher.Verify(*changes.Password, u.Password) {
			hash, hashErr := s.hashPassword(*changes.Password)
			if hashErr != nil {
				return nil, hashErr
			}
			u.Password = hash
		}
	} else if err := s.validator.ValidateProfile(u); err != nil {
		return nil, err
	}

	u.touch(s.now())

	if err := s.repo.Save(ctx, u); err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("user updated", "user_id", u.ID)

	resp := ToUserResponse(u)
	return &resp, nil
}

func (s *Service) RecordLogin(ctx context.Context, id, token string) error {
	ctx, span := s.tracer.Start(ctx, "user.RecordLogin")
	defer span.End()

	u, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	u.Token = &token
	u.LastLoginAt = &now
	u.touch(now)

	if err := s.repo.Save(ctx, u); err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("record login: %w", err)
	}

	s.logger.Info("login recorded", "user_id", u.ID)
	return nil
}

func (s *Service) SetActive(
	ctx context.Context,
	id string,
	active bool,
) (*UserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "user.SetActive",
		trace.WithAttributes(attribute.Bool("active", active)),
	)
	defer span.End()

	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	u.IsActive = active
	u.touch(s.now())

	if err := s.repo.Save(ctx, u); err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("set active: %w", err)
	}

	s.logger.Info("user activation changed", "user_id", u.ID, "active", active)

	resp := ToUserResponse(u)
	return &resp, nil
}

func (s *Service) Activate(ctx context.Context, id string) (*UserResponse, error) {
	return s.SetActive(ctx, id, true)
}

func (s *Service) Deactivate(ctx context.Context, id string) (*UserResponse, error) {
	return s.SetActive(ctx, id, false)
}

// Principal resolves the identity behind a token subject.
func (s *Service) Principal(ctx context.Context, email string) (*Principal, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return &Principal{
		UserID:   u.ID,
		Email:    u.Email,
		Roles:    u.RoleNames(),
		IsActive: u.IsActive,
	}, nil
}

func (s *Service) Count(ctx context.Context) (int, int, error) {
	return s.repo.Count(ctx)
}

// hashPassword reports inputs the configured algorithm cannot hash as an
// invalid password format.
func (s *Service) hashPassword(plain string) (string, error) {
	hash, err := s.hasher.Hash(plain)
	if errors.Is(err, core.ErrPasswordTooLong) {
		return "", InvalidFormat("password")
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (s *Service) load(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, &Error{Kind: KindNotFound, Err: err}
	}
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("load user: %w", err)
	}

	return u, nil
}
