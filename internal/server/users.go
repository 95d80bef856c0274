package server

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/recruitflow/recruitflow/internal/db"
)

// userStore is the persistence surface account management needs. *db.Store
// implements it; tests substitute a fake.
type userStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash, role string) (int64, error)
	GetUser(ctx context.Context, userID int64) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	GetUserRole(ctx context.Context, userID int64) (string, error)
	CreateCandidate(ctx context.Context, userID int64) (int64, error)
}

// userDatabase runs user operations, transactionally or standalone
type userDatabase interface {
	Store() userStore
	WithTx(ctx context.Context, fn func(userStore) error) error
}

type pgUserDatabase struct {
	db *db.DB
}

func (p pgUserDatabase) Store() userStore {
	return p.db.Store()
}

func (p pgUserDatabase) WithTx(ctx context.Context, fn func(userStore) error) error {
	return p.db.WithTx(ctx, func(s *db.Store) error { return fn(s) })
}

// UserService handles account registration and credential checks.
type UserService struct {
	db userDatabase
}

// NewUserService creates a new user service.
func NewUserService(database *db.DB) *UserService {
	return &UserService{db: pgUserDatabase{db: database}}
}

// Register creates a user account. Candidate accounts also get their candidate
// profile row so applications can reference it immediately.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*db.User, error) {
	role := req.Role
	if role == "" {
		role = db.RoleCandidate
	}
	if !db.ValidRole(role) {
		return nil, &ErrValidation{Field: "role", Message: "unknown role"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	email := strings.ToLower(req.Email)
	var user *db.User
	err = s.db.WithTx(ctx, func(store userStore) error {
		existing, err := store.GetUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return &ErrEmailAlreadyExists{Email: req.Email}
		}

		id, err := store.CreateUser(ctx, req.Name, email, string(hash), role)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return &ErrEmailAlreadyExists{Email: req.Email}
			}
			return err
		}

		if role == db.RoleCandidate {
			if _, err := store.CreateCandidate(ctx, id); err != nil {
				return err
			}
		}

		user, err = store.GetUser(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns the account.
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*db.User, error) {
	user, err := s.db.Store().GetUserByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, &ErrInvalidCredentials{}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &ErrInvalidCredentials{}
	}
	return user, nil
}

// GetUserRole implements middleware.RoleLookup against the canonical user row.
func (s *UserService) GetUserRole(ctx context.Context, userID int64) (string, error) {
	return s.db.Store().GetUserRole(ctx, userID)
}
