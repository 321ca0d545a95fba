package docdb

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Collection = (*Postgres)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
    seq        BIGSERIAL PRIMARY KEY,
    collection TEXT  NOT NULL,
    id         TEXT  NOT NULL,
    body       JSONB NOT NULL,
    UNIQUE (collection, id)
);
CREATE UNIQUE INDEX IF NOT EXISTS documents_users_username
    ON documents ((body->>'username')) WHERE collection = 'users';
`

// EnsurePostgresSchema creates the documents table when missing.
func EnsurePostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return &Error{Code: ClassifyPostgres(err), Op: "schema", Collection: "documents", Err: err}
	}
	return nil
}

// Postgres stores documents as JSONB rows of the documents table.
type Postgres struct {
	Pool *pgxpool.Pool
	name string
}

func NewPostgres(pool *pgxpool.Pool, name string) *Postgres {
	return &Postgres{Pool: pool, name: name}
}

func (p *Postgres) Name() string { return p.name }

func (p *Postgres) Insert(ctx context.Context, id string, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	const insertDocumentQuery = `
INSERT INTO documents (collection, id, body)
VALUES ($1, $2, $3::jsonb)
`
	if _, err := p.Pool.Exec(ctx, insertDocumentQuery, p.name, id, string(body)); err != nil {
		return p.fail("insert", err)
	}
	return nil
}

func (p *Postgres) All(ctx context.Context) ([]Document, error) {
	const selectDocumentsQuery = `
SELECT body::text
FROM documents
WHERE collection = $1
ORDER BY seq
`
	rows, err := p.Pool.Query(ctx, selectDocumentsQuery, p.name)
	if err != nil {
		return nil, p.fail("find", err)
	}
	defer rows.Close()
	var res []Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, p.fail("find", err)
		}
		doc, err := decodeBody(p.name, body)
		if err != nil {
			return nil, err
		}
		res = append(res, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, p.fail("find", err)
	}
	return res, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (Document, bool, error) {
	const selectDocumentByIDQuery = `
SELECT body::text
FROM documents
WHERE collection = $1 AND id = $2
`
	var body string
	err := p.Pool.QueryRow(ctx, selectDocumentByIDQuery, p.name, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, p.fail("find", err)
	}
	doc, err := decodeBody(p.name, body)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (p *Postgres) Replace(ctx context.Context, id string, doc Document) (int64, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return 0, err
	}
	const replaceDocumentQuery = `
UPDATE documents
SET body = $1::jsonb
WHERE collection = $2 AND id = $3
`
	tag, err := p.Pool.Exec(ctx, replaceDocumentQuery, string(body), p.name, id)
	if err != nil {
		return 0, p.fail("replace", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Delete(ctx context.Context, id string) (int64, error) {
	const deleteDocumentQuery = `
DELETE FROM documents
WHERE collection = $1 AND id = $2
`
	tag, err := p.Pool.Exec(ctx, deleteDocumentQuery, p.name, id)
	if err != nil {
		return 0, p.fail("delete", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) fail(op string, err error) error {
	return &Error{Code: ClassifyPostgres(err), Op: op, Collection: p.name, Err: err}
}

// ClassifyPostgres maps a pgx error onto a Code.
func ClassifyPostgres(err error) Code {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return CodeTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return CodeDuplicate
		case pgErr.Code == pgerrcode.QueryCanceled, pgErr.Code == pgerrcode.LockNotAvailable:
			return CodeTimeout
		case pgerrcode.IsInvalidAuthorizationSpecification(pgErr.Code),
			pgErr.Code == pgerrcode.InsufficientPrivilege:
			return CodeAuth
		}
	}
	return CodeOther
}
