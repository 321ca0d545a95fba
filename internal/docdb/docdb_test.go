package docdb_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskline/internal/db"
	"taskline/internal/docdb"
	"taskline/internal/migrate"
)

func openSQLite(t *testing.T, name string) *docdb.SQLite {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(context.Background(), conn))
	return docdb.NewSQLite(conn, name)
}

func TestCollections(t *testing.T) {
	colls := map[string]func(t *testing.T) docdb.Collection{
		"memory": func(t *testing.T) docdb.Collection { return docdb.NewMemory("users", "username") },
		"sqlite": func(t *testing.T) docdb.Collection { return openSQLite(t, "users") },
	}
	for name, open := range colls {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := open(t)

			all, err := c.All(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)

			require.NoError(t, c.Insert(ctx, "u-1", docdb.Document{"id": "u-1", "username": "ada"}))
			require.NoError(t, c.Insert(ctx, "u-2", docdb.Document{"id": "u-2", "username": "bob"}))

			err = c.Insert(ctx, "u-1", docdb.Document{"id": "u-1", "username": "eve"})
			var de *docdb.Error
			require.True(t, errors.As(err, &de), "got %v", err)
			assert.Equal(t, docdb.CodeDuplicate, de.Code)

			err = c.Insert(ctx, "u-3", docdb.Document{"id": "u-3", "username": "ada"})
			require.True(t, errors.As(err, &de), "got %v", err)
			assert.Equal(t, docdb.CodeDuplicate, de.Code)

			n, err := c.Replace(ctx, "u-2", docdb.Document{"id": "u-2", "username": "robert"})
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
			n, err = c.Replace(ctx, "nope", docdb.Document{"id": "nope"})
			require.NoError(t, err)
			assert.Zero(t, n)

			doc, ok, err := c.Get(ctx, "u-2")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "robert", doc["username"])

			n, err = c.Delete(ctx, "u-1")
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
			n, err = c.Delete(ctx, "u-1")
			require.NoError(t, err)
			assert.Zero(t, n)

			all, err = c.All(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "u-2", all[0]["id"])
		})
	}
}

func TestSQLiteCollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	users := openSQLite(t, "users")
	sessions := docdb.NewSQLite(users.DB, "session")

	require.NoError(t, users.Insert(ctx, "x", docdb.Document{"id": "x", "username": "ada"}))
	require.NoError(t, sessions.Insert(ctx, "x", docdb.Document{"id": "x", "username": "ada"}))

	all, err := sessions.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestClassifyPostgres(t *testing.T) {
	cases := []struct {
		err  error
		want docdb.Code
	}{
		{&pgconn.PgError{Code: pgerrcode.UniqueViolation}, docdb.CodeDuplicate},
		{&pgconn.PgError{Code: pgerrcode.QueryCanceled}, docdb.CodeTimeout},
		{&pgconn.PgError{Code: pgerrcode.InvalidPassword}, docdb.CodeAuth},
		{&pgconn.PgError{Code: pgerrcode.InvalidAuthorizationSpecification}, docdb.CodeAuth},
		{&pgconn.PgError{Code: pgerrcode.UndefinedTable}, docdb.CodeOther},
		{fmt.Errorf("exec: %w", context.DeadlineExceeded), docdb.CodeTimeout},
		{errors.New("connection reset"), docdb.CodeOther},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, docdb.ClassifyPostgres(tc.err), "%v", tc.err)
	}
}

func TestClassifySQLiteForeignError(t *testing.T) {
	assert.Equal(t, docdb.CodeOther, docdb.ClassifySQLite(errors.New("boom")))
	assert.Equal(t, docdb.CodeTimeout, docdb.ClassifySQLite(context.DeadlineExceeded))
}
