// Package users manages accounts: signup, password login, lookup and
// deletion.
package users

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gamenight-backend/internal/apperr"
	"gamenight-backend/internal/models"
	"gamenight-backend/internal/store"
)

const (
	minPasswordLen    = 8
	defaultFindLimit  = 20
	maxFindLimit      = 100
	maxUsernameLength = 64
)

type Service struct {
	db   *gorm.DB
	log  *slog.Logger
	cost int
}

func New(db *gorm.DB, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, log: log, cost: bcrypt.DefaultCost}
}

// WithCost returns a copy of s hashing with the given bcrypt cost.
func (s *Service) WithCost(cost int) *Service {
	c := *s
	c.cost = cost
	return &c
}

type SignupInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case username == "" || len(username) > maxUsernameLength || strings.ContainsAny(username, " @:"):
		return nil, apperr.Validation("username must be 1-64 characters without spaces, '@' or ':'")
	case !validEmail(email):
		return nil, apperr.Validation("email is invalid")
	case len(in.Password) < minPasswordLen:
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}
	u := &models.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("username or email already taken")
		}
		return nil, err
	}
	s.log.InfoContext(ctx, "user signed up", "user_id", u.ID)
	return u, nil
}

// Authenticate checks a password against the account found by email or
// username.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	u, err := store.GetUserByLogin(s.db.WithContext(ctx), login)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthenticated("invalid credentials")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperr.Unauthenticated("invalid credentials")
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return store.GetUser(s.db.WithContext(ctx), id)
}

// Find matches users by partial username and/or email.
func (s *Service) Find(ctx context.Context, username, email string, limit int) ([]models.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" && email == "" {
		return nil, apperr.Validation("username or email filter is required")
	}
	if limit <= 0 {
		limit = defaultFindLimit
	}
	return store.FilterUsers(s.db.WithContext(ctx), username, email, min(limit, maxFindLimit))
}

// Delete removes the account together with its friendships. Event
// memberships are left in place and show the member id from then on.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		return store.DeleteUser(tx, id)
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
