package docdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"taskline/internal/errs"
)

var _ Collection = (*SQLite)(nil)

// SQLite stores documents as JSON rows of the shared documents table
// created by the migrate package.
type SQLite struct {
	DB   *sql.DB
	name string
}

func NewSQLite(db *sql.DB, name string) *SQLite {
	return &SQLite{DB: db, name: name}
}

func (s *SQLite) Name() string { return s.name }

func (s *SQLite) Insert(ctx context.Context, id string, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO documents(collection,id,body) VALUES (?,?,?)`, s.name, id, string(body))
	if err != nil {
		return s.fail("insert", err)
	}
	return nil
}

func (s *SQLite) All(ctx context.Context) ([]Document, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT body FROM documents WHERE collection=? ORDER BY seq`, s.name)
	if err != nil {
		return nil, s.fail("find", err)
	}
	defer rows.Close()
	var res []Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, s.fail("find", err)
		}
		doc, err := decodeBody(s.name, body)
		if err != nil {
			return nil, err
		}
		res = append(res, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("find", err)
	}
	return res, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (Document, bool, error) {
	var body string
	err := s.DB.QueryRowContext(ctx, `SELECT body FROM documents WHERE collection=? AND id=?`, s.name, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.fail("find", err)
	}
	doc, err := decodeBody(s.name, body)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (s *SQLite) Replace(ctx context.Context, id string, doc Document) (int64, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return 0, err
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE documents SET body=? WHERE collection=? AND id=?`, string(body), s.name, id)
	if err != nil {
		return 0, s.fail("replace", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.fail("replace", err)
	}
	return n, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM documents WHERE collection=? AND id=?`, s.name, id)
	if err != nil {
		return 0, s.fail("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.fail("delete", err)
	}
	return n, nil
}

func (s *SQLite) fail(op string, err error) error {
	return &Error{Code: ClassifySQLite(err), Op: op, Collection: s.name, Err: err}
}

// ClassifySQLite maps a driver error onto a Code.
func ClassifySQLite(err error) Code {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return CodeOther
	}
	code := se.Code()
	switch code & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		if code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return CodeDuplicate
		}
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return CodeTimeout
	case sqlite3.SQLITE_AUTH, sqlite3.SQLITE_PERM:
		return CodeAuth
	}
	return CodeOther
}

func decodeBody(collection, body string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, errs.E(errs.MalformedRecord, collection+".decode", err)
	}
	return doc, nil
}
