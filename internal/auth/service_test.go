package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

type memoryRepo struct {
	users    map[string]*User
	sessions map[string]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]*User), sessions: make(map[string]int64)}
}

func (r *memoryRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) CreateSession(_ context.Context, id string, userID int64, _ time.Time, _, _ string) error {
	r.sessions[id] = userID
	return nil
}

func (r *memoryRepo) DeleteSession(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func seedUser(t *testing.T, repo *memoryRepo, email, password string, role shared.Role, active bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &User{
		ID:           int64(len(repo.users) + 1),
		Email:        email,
		Name:         "Employee",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     active,
	}
	repo.users[email] = u
	return u
}

func TestAuthenticate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	seedUser(t, repo, "cashier@store.test", "s3cretpass", shared.RoleCashier, true)

	user, err := svc.Authenticate(context.Background(), "cashier@store.test", "s3cretpass")
	require.NoError(t, err)
	require.Equal(t, shared.RoleCashier, user.Role)
}

func TestAuthenticateFailures(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	seedUser(t, repo, "cashier@store.test", "s3cretpass", shared.RoleCashier, true)
	seedUser(t, repo, "gone@store.test", "s3cretpass", shared.RoleAccountant, false)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "nobody@store.test", "s3cretpass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "cashier@store.test", "wrongpass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "gone@store.test", "s3cretpass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestActorByID(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	u := seedUser(t, repo, "keeper@store.test", "s3cretpass", shared.RoleStockKeeper, true)
	inactive := seedUser(t, repo, "gone@store.test", "s3cretpass", shared.RoleAccountant, false)
	ctx := context.Background()

	actor, err := svc.ActorByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, actor.ID)
	require.Equal(t, shared.RoleStockKeeper, actor.Role)

	_, err = svc.ActorByID(ctx, inactive.ID)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)

	_, err = svc.ActorByID(ctx, 404)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.RegisterSession(ctx, "sess-1", 7, time.Now().Add(time.Hour), "127.0.0.1", "test"))
	require.EqualValues(t, 7, repo.sessions["sess-1"])
	require.NoError(t, svc.RemoveSession(ctx, "sess-1"))
	require.Empty(t, repo.sessions)
}
