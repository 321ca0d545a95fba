package repo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskline/internal/codec"
	"taskline/internal/db"
	"taskline/internal/docdb"
	"taskline/internal/domain"
	"taskline/internal/errs"
	"taskline/internal/migrate"
	"taskline/internal/repo"
)

type storeFactory func(t *testing.T) repo.Store[domain.Task]

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"file": func(t *testing.T) repo.Store[domain.Task] {
			return repo.NewFileStore(t.TempDir(), codec.Tasks, zerolog.Nop())
		},
		"memory": func(t *testing.T) repo.Store[domain.Task] {
			return repo.NewDocumentStore[domain.Task](docdb.NewMemory("tasks"), codec.Tasks)
		},
		"sqlite": func(t *testing.T) repo.Store[domain.Task] {
			conn, err := db.Open(db.Config{Workspace: t.TempDir()})
			require.NoError(t, err)
			t.Cleanup(func() { conn.Close() })
			require.NoError(t, migrate.Migrate(context.Background(), conn))
			return repo.NewDocumentStore[domain.Task](docdb.NewSQLite(conn, "tasks"), codec.Tasks)
		},
	}
}

func newTask(n int) domain.Task {
	return domain.Task{
		ID:          fmt.Sprintf("t-%d", n),
		Title:       fmt.Sprintf("task %d", n),
		Description: "details, more details",
		StateID:     "s-1",
		ProjectID:   "p-1",
		CreatorID:   "u-1",
		CreatedAt:   time.Date(2024, 1, 1, 12, 0, n, 0, time.UTC),
	}
}

func TestStoreContract(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("empty list bootstraps", func(t *testing.T) {
				s := factory(t)
				items, err := s.List(ctx)
				require.NoError(t, err)
				assert.Empty(t, items)
				require.NoError(t, s.Add(ctx, newTask(1)))
			})

			t.Run("add then get", func(t *testing.T) {
				s := factory(t)
				want := newTask(1)
				require.NoError(t, s.Add(ctx, want))
				got, ok, err := s.Get(ctx, want.ID)
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, want, got)
			})

			t.Run("get absent is not an error", func(t *testing.T) {
				s := factory(t)
				_, ok, err := s.Get(ctx, "missing")
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("list keeps insertion order across updates", func(t *testing.T) {
				s := factory(t)
				for i := 1; i <= 3; i++ {
					require.NoError(t, s.Add(ctx, newTask(i)))
				}
				changed := newTask(2)
				changed.Title = "renamed"
				require.NoError(t, s.Update(ctx, changed))

				items, err := s.List(ctx)
				require.NoError(t, err)
				require.Len(t, items, 3)
				assert.Equal(t, []string{"t-1", "t-2", "t-3"}, ids(items))
				assert.Equal(t, "renamed", items[1].Title)
			})

			t.Run("update absent fails and leaves contents", func(t *testing.T) {
				s := factory(t)
				require.NoError(t, s.Add(ctx, newTask(1)))
				before, err := s.List(ctx)
				require.NoError(t, err)

				err = s.Update(ctx, newTask(9))
				require.Error(t, err)
				assert.True(t, errs.Is(err, errs.NotFound))

				after, err := s.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, before, after)
			})

			t.Run("delete absent fails and leaves contents", func(t *testing.T) {
				s := factory(t)
				require.NoError(t, s.Add(ctx, newTask(1)))
				before, err := s.List(ctx)
				require.NoError(t, err)

				err = s.Delete(ctx, "t-9")
				assert.ErrorIs(t, err, repo.ErrNotFound)

				after, err := s.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, before, after)
			})

			t.Run("delete removes record", func(t *testing.T) {
				s := factory(t)
				require.NoError(t, s.Add(ctx, newTask(1)))
				require.NoError(t, s.Add(ctx, newTask(2)))
				require.NoError(t, s.Delete(ctx, "t-1"))

				ok, err := repo.Exists[domain.Task](ctx, s, "t-1")
				require.NoError(t, err)
				assert.False(t, ok)
				items, err := s.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"t-2"}, ids(items))
			})

			t.Run("duplicate id", func(t *testing.T) {
				s := factory(t)
				require.NoError(t, s.Add(ctx, newTask(1)))
				err := s.Add(ctx, newTask(1))
				assert.True(t, errs.Is(err, errs.DuplicateKey), "got %v", err)
			})

			t.Run("filter and must get", func(t *testing.T) {
				s := factory(t)
				for i := 1; i <= 4; i++ {
					task := newTask(i)
					if i%2 == 0 {
						task.ProjectID = "p-2"
					}
					require.NoError(t, s.Add(ctx, task))
				}
				got, err := repo.Filter[domain.Task](ctx, s, func(t domain.Task) bool { return t.ProjectID == "p-2" })
				require.NoError(t, err)
				assert.Equal(t, []string{"t-2", "t-4"}, ids(got))

				_, err = repo.MustGet[domain.Task](ctx, s, "task", "nope")
				assert.True(t, errs.Is(err, errs.NotFound))
			})

			t.Run("canceled context", func(t *testing.T) {
				s := factory(t)
				canceled, cancel := context.WithCancel(ctx)
				cancel()
				_, err := s.List(canceled)
				assert.True(t, errs.Is(err, errs.OperationFailure), "got %v", err)
				err = s.Add(canceled, newTask(1))
				assert.True(t, errs.Is(err, errs.OperationFailure), "got %v", err)
			})

			t.Run("expired deadline", func(t *testing.T) {
				s := factory(t)
				expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
				defer cancel()
				_, err := s.List(expired)
				assert.True(t, errs.Is(err, errs.Timeout), "got %v", err)
			})
		})
	}
}

func ids(items []domain.Task) []string {
	res := make([]string, 0, len(items))
	for _, v := range items {
		res = append(res, v.ID)
	}
	return res
}
