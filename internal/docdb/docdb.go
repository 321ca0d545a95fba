// Package docdb is the capability boundary to document stores. A Collection
// holds one entity type; documents are matched on their identifier.
//
// Backends report failures as *Error so callers can classify them without
// knowing which database sits behind the collection.
package docdb

import (
	"context"
	"fmt"
)

// Document is one stored record: the identifier under "id" plus one field
// per attribute.
type Document map[string]any

// Collection is a named set of documents keyed by identifier. All returns
// documents in insertion order. Replace and Delete report affected counts.
type Collection interface {
	Name() string
	Insert(ctx context.Context, id string, doc Document) error
	All(ctx context.Context) ([]Document, error)
	Get(ctx context.Context, id string) (Document, bool, error)
	Replace(ctx context.Context, id string, doc Document) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// Code classifies a backend failure.
type Code int

const (
	CodeOther Code = iota
	CodeDuplicate
	CodeTimeout
	CodeAuth
)

func (c Code) String() string {
	switch c {
	case CodeDuplicate:
		return "duplicate"
	case CodeTimeout:
		return "timeout"
	case CodeAuth:
		return "auth"
	default:
		return "other"
	}
}

// Error is the failure family every backend reports.
type Error struct {
	Code       Code
	Op         string
	Collection string
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Collection, e.Op, e.Code)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Collection, e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
