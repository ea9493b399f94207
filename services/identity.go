package services

import (
	"context"
	"coursehub/apperror"
	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/repository"
	"coursehub/validators"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type SignupInput struct {
	FirstName string `json:"firstName" validate:"required,min=3"`
	LastName  string `json:"lastName" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// Normalize trims names and lower-cases the email before validation and lookup.
func (in *SignupInput) Normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is a freshly minted credential for an authenticated principal.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type IdentityService struct {
	users     *repository.UserRepository
	secrets   map[string][]byte
	cost      int
	dummyHash []byte
	now       func() time.Time
}

// NewIdentityService builds the service. secrets holds the signing key per role.
func NewIdentityService(users *repository.UserRepository, secrets map[string][]byte, cost int) *IdentityService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// compared against when the email is unknown so both failures cost the same
	dummy, _ := bcrypt.GenerateFromPassword([]byte("coursehub-unknown-account"), cost)
	return &IdentityService{
		users:     users,
		secrets:   secrets,
		cost:      cost,
		dummyHash: dummy,
		now:       time.Now,
	}
}

func roleLabel(role string) string {
	if role == models.RoleAdmin {
		return "Admin"
	}
	return "User"
}

// Signup registers a principal with role. Shape is checked before the store is touched.
func (s *IdentityService) Signup(ctx context.Context, role string, in SignupInput) (*models.User, error) {
	in.Normalize()
	if errs := validators.Struct(in); errs != nil {
		return nil, apperror.Validation("Validation failed!", errs)
	}

	if _, err := s.users.FindByEmail(ctx, in.Email, role); err == nil {
		return nil, apperror.Conflict(roleLabel(role) + " already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("Failed to check existing account", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, apperror.Internal("Failed to hash password", err)
	}

	user := &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Role:      role,
		Password:  string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict(roleLabel(role) + " already exists")
		}
		return nil, apperror.Internal("Failed to create account", err)
	}

	logger.Log.WithFields(logrus.Fields{"userId": user.ID, "role": role}).Info("account created")
	return user, nil
}

// Login checks credentials and mints a session. Unknown email and wrong password fail identically.
func (s *IdentityService) Login(ctx context.Context, role string, in LoginInput) (*Session, error) {
	invalid := apperror.Authentication("Invalid credentials")
	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.users.FindByEmail(ctx, email, role)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Internal("Failed to load account", err)
		}
		bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, invalid
	}

	now := s.now()
	token, expiresAt, err := middleware.GenerateJWT(user.ID, role, user.Email, s.secrets[role], now)
	if err != nil {
		return nil, apperror.Internal("Failed to generate token", err)
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		logger.Log.WithField("userId", user.ID).WithError(err).Warn("failed to record last login")
	}
	user.LastLogin = &now

	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
