package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskline/internal/codec"
	"taskline/internal/domain"
	"taskline/internal/errs"
	"taskline/internal/repo"
	"taskline/internal/session"
)

var (
	ada = domain.User{ID: "u-1", Username: "ada", PasswordHash: "$argon2id$v=19$m=65536,t=1,p=2$c2FsdA$aGFzaA", Role: domain.RoleAdmin}
	bob = domain.User{ID: "u-2", Username: "bob", PasswordHash: "h", Role: domain.RoleMate}
)

func newStore(t *testing.T) (*session.Store, repo.Store[domain.Session]) {
	t.Helper()
	backing := repo.NewFileStore(t.TempDir(), codec.Sessions, zerolog.Nop())
	s := session.New(backing)
	s.Now = func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) }
	return s, backing
}

func TestCurrentWhenLoggedOut(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Current(context.Background())
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestSetCurrentReplacesSession(t *testing.T) {
	ctx := context.Background()
	s, backing := newStore(t)

	_, err := s.SetCurrent(ctx, ada)
	require.NoError(t, err)
	_, err = s.SetCurrent(ctx, bob)
	require.NoError(t, err)

	all, err := backing.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, bob, all[0].User)

	cur, err := s.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, bob, cur.User)
	assert.Equal(t, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), cur.StartedAt)
}

func TestClearCurrent(t *testing.T) {
	ctx := context.Background()
	s, backing := newStore(t)

	require.NoError(t, s.ClearCurrent(ctx))

	_, err := s.SetCurrent(ctx, ada)
	require.NoError(t, err)
	require.NoError(t, s.ClearCurrent(ctx))
	require.NoError(t, s.ClearCurrent(ctx))

	all, err := backing.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = s.Current(ctx)
	assert.True(t, errs.Is(err, errs.NotFound))
}
