package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/models"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/validation"
	"github.com/google/uuid"
)

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var credentialMessages = validation.Messages{
	"email.required":    "Invalid email format",
	"email.email":       "Invalid email format",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters",
}

// Session is the outcome of a successful register or login.
type Session struct {
	User   *models.User
	Token  string
	Claims *auth.Claims
}

type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      *auth.HashPool
	issuer      *auth.Issuer
	validator   *validation.Validator
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
	dummyErr  error
}

func NewUserService(m repomanager.RepositoryManager, hasher *auth.HashPool, issuer *auth.Issuer, v *validation.Validator) *UserService {
	return &UserService{
		repomanager: m,
		hasher:      hasher,
		issuer:      issuer,
		validator:   v,
		now:         time.Now,
	}
}

// Register creates the account and opens a session for it. A duplicate email
// yields common.ErrEmailTaken; the store enforces this even when two
// registrations race past the pre-check.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validator.Struct(in, credentialMessages); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users()

	_, err := repo.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, common.ErrEmailTaken
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, common.NewValidationError("password", "Password is too long")
		}
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("error generating id: %w", err)
	}

	user, err := repo.Create(ctx, &models.User{
		ID:           id.String(),
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	})
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.openSession(user)
}

// Login checks the credentials. Unknown email and wrong password are
// reported identically as common.ErrInvalidCredentials, and both run one
// password verification.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validator.Struct(in, credentialMessages); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users().GetUserByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("error searching user: %w", err)
		}

		dummy, derr := s.dummy(ctx)
		if derr != nil {
			return nil, fmt.Errorf("error hashing password: %w", derr)
		}
		if _, err := s.hasher.Verify(ctx, in.Password, dummy); err != nil {
			return nil, fmt.Errorf("error verifying password: %w", err)
		}
		return nil, common.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("error verifying password: %w", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.openSession(user)
}

func (s *UserService) openSession(user *models.User) (*Session, error) {
	token, claims, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("error issuing session: %w", err)
	}
	return &Session{User: user, Token: token, Claims: claims}, nil
}

func (s *UserService) dummy(ctx context.Context) (string, error) {
	s.dummyOnce.Do(func() {
		s.dummyHash, s.dummyErr = s.hasher.Hash(context.WithoutCancel(ctx), "decision-keeper-timing-guard")
	})
	return s.dummyHash, s.dummyErr
}
