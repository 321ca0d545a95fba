// Package repo holds the record store contract and its two backends: a
// delimited text file per entity type and a document collection.
//
// Both backends report failures with the kinds of package errs, so callers
// never see an *os.PathError or a driver error directly.
package repo

import (
	"context"
	"errors"
	"strings"

	"taskline/internal/errs"
)

// Store is the CRUD contract shared by every backend. Get reports an absent
// record as (zero, false, nil); Update and Delete fail with errs.NotFound.
// List returns records in insertion order.
type Store[T any] interface {
	Reader[T]
	Add(ctx context.Context, v T) error
	Update(ctx context.Context, v T) error
	Delete(ctx context.Context, id string) error
}

// Reader is the read half of Store.
type Reader[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, bool, error)
}

var ErrNotFound = errs.ErrNotFound

// Exists reports whether a record with id is present.
func Exists[T any](ctx context.Context, s Reader[T], id string) (bool, error) {
	_, ok, err := s.Get(ctx, id)
	return ok, err
}

// Filter returns the records of s matching keep, preserving order.
func Filter[T any](ctx context.Context, s Reader[T], keep func(T) bool) ([]T, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]T, 0, len(all))
	for _, v := range all {
		if keep(v) {
			res = append(res, v)
		}
	}
	return res, nil
}

// MustGet is Get with an absent record reported as errs.NotFound.
func MustGet[T any](ctx context.Context, s Reader[T], entity, id string) (T, error) {
	v, ok, err := s.Get(ctx, id)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, errs.NotFoundf("get", entity, id)
	}
	return v, nil
}

func entityName(collection string) string {
	return strings.TrimSuffix(collection, "s")
}

func ctxFailure(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.E(errs.Timeout, op, err)
	}
	return errs.E(errs.OperationFailure, op, err)
}
