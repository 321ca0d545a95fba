package repo

import (
	"context"
	"errors"
	"fmt"

	"taskline/internal/codec"
	"taskline/internal/docdb"
	"taskline/internal/errs"
)

var _ Store[struct{}] = (*DocumentStore[struct{}])(nil)

// DocumentStore keeps one entity type in a document collection matched on
// the identifier field.
type DocumentStore[T any] struct {
	coll  docdb.Collection
	codec codec.Codec[T]
}

func NewDocumentStore[T any](coll docdb.Collection, c codec.Codec[T]) *DocumentStore[T] {
	return &DocumentStore[T]{coll: coll, codec: c}
}

func (s *DocumentStore[T]) Add(ctx context.Context, v T) error {
	op := s.op("add")
	doc, err := s.codec.EncodeDocument(v)
	if err != nil {
		return Translate(op, err)
	}
	return Translate(op, s.coll.Insert(ctx, s.codec.ID(v), doc))
}

func (s *DocumentStore[T]) List(ctx context.Context) ([]T, error) {
	op := s.op("list")
	docs, err := s.coll.All(ctx)
	if err != nil {
		return nil, Translate(op, err)
	}
	items := make([]T, 0, len(docs))
	for i, doc := range docs {
		v, err := s.codec.DecodeDocument(doc)
		if err != nil {
			return nil, &errs.Error{
				Kind: errs.MalformedRecord,
				Op:   op,
				Msg:  fmt.Sprintf("document %d of %s: malformed record", i+1, s.coll.Name()),
				Err:  err,
			}
		}
		items = append(items, v)
	}
	return items, nil
}

func (s *DocumentStore[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	op := s.op("get")
	doc, ok, err := s.coll.Get(ctx, id)
	if err != nil {
		return zero, false, Translate(op, err)
	}
	if !ok {
		return zero, false, nil
	}
	v, err := s.codec.DecodeDocument(doc)
	if err != nil {
		return zero, false, Translate(op, err)
	}
	return v, true, nil
}

func (s *DocumentStore[T]) Update(ctx context.Context, v T) error {
	op := s.op("update")
	doc, err := s.codec.EncodeDocument(v)
	if err != nil {
		return Translate(op, err)
	}
	id := s.codec.ID(v)
	n, err := s.coll.Replace(ctx, id, doc)
	if err != nil {
		return Translate(op, err)
	}
	if n == 0 {
		return errs.NotFoundf(op, entityName(s.codec.Collection()), id)
	}
	return nil
}

func (s *DocumentStore[T]) Delete(ctx context.Context, id string) error {
	op := s.op("delete")
	n, err := s.coll.Delete(ctx, id)
	if err != nil {
		return Translate(op, err)
	}
	if n == 0 {
		return errs.NotFoundf(op, entityName(s.codec.Collection()), id)
	}
	return nil
}

func (s *DocumentStore[T]) op(name string) string { return s.codec.Collection() + "." + name }

// Translate maps a document backend failure onto the shared kinds.
// Failures that are already classified pass through; anything outside the
// docdb error family becomes errs.UnknownFailure.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *errs.Error
	if errors.As(err, &classified) {
		return err
	}
	var de *docdb.Error
	if !errors.As(err, &de) {
		return &errs.Error{Kind: errs.UnknownFailure, Op: op, Msg: "unexpected backend failure", Err: err}
	}
	switch de.Code {
	case docdb.CodeDuplicate:
		return &errs.Error{Kind: errs.DuplicateKey, Op: op, Msg: "duplicate key", Err: err}
	case docdb.CodeTimeout:
		return &errs.Error{Kind: errs.Timeout, Op: op, Msg: "backend timed out", Err: err}
	case docdb.CodeAuth:
		return &errs.Error{Kind: errs.AuthFailure, Op: op, Msg: "backend rejected credentials", Err: err}
	default:
		return &errs.Error{Kind: errs.OperationFailure, Op: op, Msg: "backend operation failed", Err: err}
	}
}
