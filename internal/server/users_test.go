package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/recruitflow/recruitflow/internal/db"
)

// fakeUserStore is an in-memory userStore for account tests
type fakeUserStore struct {
	users      map[int64]*db.User
	candidates map[int64]int64 // candidate id -> user id
	nextID     int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:      map[int64]*db.User{},
		candidates: map[int64]int64{},
		nextID:     100,
	}
}

func (f *fakeUserStore) CreateUser(_ context.Context, name, email, passwordHash, role string) (int64, error) {
	f.nextID++
	f.users[f.nextID] = &db.User{
		ID: f.nextID, Name: name, Email: email, PasswordHash: passwordHash, Role: role, IsActive: true,
	}
	return f.nextID, nil
}

func (f *fakeUserStore) GetUser(_ context.Context, userID int64) (*db.User, error) {
	return f.users[userID], nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetUserRole(_ context.Context, userID int64) (string, error) {
	if u := f.users[userID]; u != nil {
		return u.Role, nil
	}
	return "", nil
}

func (f *fakeUserStore) CreateCandidate(_ context.Context, userID int64) (int64, error) {
	f.nextID++
	f.candidates[f.nextID] = userID
	return f.nextID, nil
}

func (f *fakeUserStore) candidateForUser(userID int64) bool {
	for _, uid := range f.candidates {
		if uid == userID {
			return true
		}
	}
	return false
}

type fakeUserDatabase struct {
	store *fakeUserStore
}

func (f fakeUserDatabase) Store() userStore {
	return f.store
}

func (f fakeUserDatabase) WithTx(_ context.Context, fn func(userStore) error) error {
	return fn(f.store)
}

func TestRegister_CreatesCandidateAccount(t *testing.T) {
	store := newFakeUserStore()
	svc := &UserService{db: fakeUserDatabase{store: store}}

	user, err := svc.Register(context.Background(), &RegisterRequest{
		Name:     "Dana",
		Email:    "Dana@Example.COM",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.Equal(t, db.RoleCandidate, user.Role)
	assert.True(t, user.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))
	assert.True(t, store.candidateForUser(user.ID))
}

func TestRegister_StaffAccountsSkipCandidateProfile(t *testing.T) {
	store := newFakeUserStore()
	svc := &UserService{db: fakeUserDatabase{store: store}}

	user, err := svc.Register(context.Background(), &RegisterRequest{
		Name:     "Robin",
		Email:    "robin@example.com",
		Password: "correct-horse",
		Role:     db.RoleHR,
	})
	require.NoError(t, err)
	assert.Equal(t, db.RoleHR, user.Role)
	assert.False(t, store.candidateForUser(user.ID))
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	store := newFakeUserStore()
	svc := &UserService{db: fakeUserDatabase{store: store}}

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Name: "Dana", Email: "dana@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), &RegisterRequest{
		Name: "Other", Email: "DANA@example.com", Password: "correct-horse",
	})
	var exists *ErrEmailAlreadyExists
	assert.ErrorAs(t, err, &exists)
}

func TestRegister_UnknownRoleRejected(t *testing.T) {
	svc := &UserService{db: fakeUserDatabase{store: newFakeUserStore()}}

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Name: "Dana", Email: "dana@example.com", Password: "correct-horse", Role: "superuser",
	})
	var validation *ErrValidation
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "role", validation.Field)
}

func TestLogin_VerifiesPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := &UserService{db: fakeUserDatabase{store: store}}
	_, err := svc.Register(context.Background(), &RegisterRequest{
		Name: "Dana", Email: "dana@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), &LoginRequest{Email: "Dana@Example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.Email)

	_, err = svc.Login(context.Background(), &LoginRequest{Email: "dana@example.com", Password: "wrong"})
	var badCreds *ErrInvalidCredentials
	assert.ErrorAs(t, err, &badCreds)
}

func TestLogin_DeactivatedAccountRejected(t *testing.T) {
	store := newFakeUserStore()
	svc := &UserService{db: fakeUserDatabase{store: store}}
	user, err := svc.Register(context.Background(), &RegisterRequest{
		Name: "Dana", Email: "dana@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)
	store.users[user.ID].IsActive = false

	_, err = svc.Login(context.Background(), &LoginRequest{Email: "dana@example.com", Password: "correct-horse"})
	var badCreds *ErrInvalidCredentials
	assert.ErrorAs(t, err, &badCreds)
}
