package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blogapi/apperr"
	"blogapi/models"
	"blogapi/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

const (
	userNotFound   = "User not found"
	badCredentials = "Invalid email or password"

	MinPasswordLength = 6
	// bcrypt only hashes the first 72 bytes and refuses anything longer.
	MaxPasswordLength = 72
)

type Registration struct {
	Email    string
	Password string
	Name     string
}

type UserService struct {
	base
	users store.Collection
	cost  int
}

func NewUserService(users store.Collection, opts Options) *UserService {
	return &UserService{
		base:  newBase("users", opts),
		users: users,
		cost:  bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with the default role. A taken email is a Conflict.
func (s *UserService) Register(ctx context.Context, r Registration) (models.User, error) {
	email := normalizeEmail(r.Email)
	if email == "" || !strings.Contains(email, "@") {
		return models.User{}, apperr.Validation("a valid email is required")
	}
	if len(r.Password) < MinPasswordLength {
		return models.User{}, apperr.Validation("password must be at least %d characters", MinPasswordLength)
	}
	if len(r.Password) > MaxPasswordLength {
		return models.User{}, apperr.Validation("password must be at most %d bytes", MaxPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now()
	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(r.Name),
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	id, err := s.users.Insert(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return models.User{}, apperr.Conflict("Email already in use")
		}
		return models.User{}, apperr.Store("insert user", err)
	}
	user.ID = id

	s.log.WithField("userId", id.Hex()).Info("user registered")
	return user, nil
}

// Authenticate checks an email and password pair. Unknown emails and wrong
// passwords give the same Unauthorized error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.User{}, apperr.Unauthorized(badCredentials)
		}
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, apperr.Unauthorized(badCredentials)
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	oid, err := store.ParseID(id)
	if err != nil {
		return models.User{}, apperr.NotFound(userNotFound)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := s.users.FindByID(ctx, oid, &user); err != nil {
		return models.User{}, lookupErr(err, "find user", userNotFound)
	}
	return user, nil
}

// CurrentRole returns the stored role of the user id names.
func (s *UserService) CurrentRole(ctx context.Context, id string) (string, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (s *UserService) List(ctx context.Context, page Pagination) ([]models.User, int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	users := []models.User{}
	if err := s.users.FindMany(ctx, store.Filter{}, page.findOptions(), &users); err != nil {
		return nil, 0, apperr.Store("list users", err)
	}
	total, err := s.users.Count(ctx, store.Filter{})
	if err != nil {
		return nil, 0, apperr.Store("count users", err)
	}
	return users, total, nil
}

// SetRole changes the role of the user with the given email.
func (s *UserService) SetRole(ctx context.Context, email, role string) (models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return models.User{}, apperr.Validation("unknown role %q", role)
	}
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	set := bson.M{"role": role, "updatedAt": s.now()}
	var saved models.User
	if err := s.users.UpdateByID(ctx, user.ID, set, store.UpdateOptions{}, &saved); err != nil {
		return models.User{}, lookupErr(err, "update user", userNotFound)
	}

	s.log.WithFields(logrus.Fields{"userId": saved.ID.Hex(), "role": role}).Info("user role changed")
	return saved, nil
}

func (s *UserService) findByEmail(ctx context.Context, email string) (models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := s.users.FindOne(ctx, store.Filter{"email": normalizeEmail(email)}, &user); err != nil {
		return models.User{}, lookupErr(err, "find user", userNotFound)
	}
	return user, nil
}
