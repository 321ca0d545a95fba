package repo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"taskline/internal/codec"
	"taskline/internal/errs"
)

// FileExt is the extension of record files.
const FileExt = ".tbl"

var _ Store[struct{}] = (*FileStore[struct{}])(nil)

// FileStore keeps one entity type in one delimited text file. Every
// operation reads the whole file; every mutation rewrites it.
//
// The mutex serializes read-modify-write cycles within this process only.
// Two processes mutating the same file can still lose an update.
type FileStore[T any] struct {
	path   string
	codec  codec.Codec[T]
	logger zerolog.Logger
	rename func(oldpath, newpath string) error

	mu sync.Mutex
}

// NewFileStore returns a store over dir/<collection>.tbl. The file is
// created on first access.
func NewFileStore[T any](dir string, c codec.Codec[T], logger zerolog.Logger) *FileStore[T] {
	return &FileStore[T]{
		path:   filepath.Join(dir, c.Collection()+FileExt),
		codec:  c,
		logger: logger.With().Str("store", c.Collection()).Logger(),
		rename: os.Rename,
	}
}

// Path returns the backing file.
func (s *FileStore[T]) Path() string { return s.path }

func (s *FileStore[T]) List(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll(ctx, s.op("list"))
}

func (s *FileStore[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	items, err := s.List(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, v := range items {
		if s.codec.ID(v) == id {
			return v, true, nil
		}
	}
	return zero, false, nil
}

func (s *FileStore[T]) Add(ctx context.Context, v T) error {
	op := s.op("add")
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.readAll(ctx, op)
	if err != nil {
		return err
	}
	id := s.codec.ID(v)
	if s.indexOf(items, id) >= 0 {
		return &errs.Error{Kind: errs.DuplicateKey, Op: op, Entity: s.entity(), ID: id, Msg: s.entity() + " already exists"}
	}
	return s.writeAll(op, append(items, v))
}

func (s *FileStore[T]) Update(ctx context.Context, v T) error {
	op := s.op("update")
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.readAll(ctx, op)
	if err != nil {
		return err
	}
	id := s.codec.ID(v)
	i := s.indexOf(items, id)
	if i < 0 {
		return errs.NotFoundf(op, s.entity(), id)
	}
	items[i] = v
	return s.writeAll(op, items)
}

func (s *FileStore[T]) Delete(ctx context.Context, id string) error {
	op := s.op("delete")
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.readAll(ctx, op)
	if err != nil {
		return err
	}
	i := s.indexOf(items, id)
	if i < 0 {
		return errs.NotFoundf(op, s.entity(), id)
	}
	return s.writeAll(op, append(items[:i], items[i+1:]...))
}

func (s *FileStore[T]) readAll(ctx context.Context, op string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, ctxFailure(op, err)
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, s.bootstrap(op)
	}
	if err != nil {
		return nil, errs.E(errs.ReadFailure, op, err)
	}
	var items []T
	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		v, err := s.codec.DecodeLine(line)
		if err != nil {
			return nil, &errs.Error{
				Kind: errs.MalformedRecord,
				Op:   op,
				Msg:  fmt.Sprintf("%s:%d: malformed record", s.path, n+1),
				Err:  err,
			}
		}
		items = append(items, v)
	}
	return items, nil
}

func (s *FileStore[T]) bootstrap(op string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errs.E(errs.WriteFailure, op, err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errs.E(errs.WriteFailure, op, err)
	}
	if err := f.Close(); err != nil {
		return errs.E(errs.WriteFailure, op, err)
	}
	s.logger.Debug().Str("path", s.path).Msg("created store file")
	return nil
}

// writeAll replaces the file contents. The new content goes to a temporary
// file in the same directory which is then renamed over the old one, so a
// crash leaves either the old or the new record set.
func (s *FileStore[T]) writeAll(op string, items []T) error {
	var buf bytes.Buffer
	for _, v := range items {
		line, err := s.codec.EncodeLine(v)
		if err != nil {
			return err
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errs.E(errs.WriteFailure, op, err)
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) error {
		tmp.Close()
		os.Remove(tmpName)
		return errs.E(errs.WriteFailure, op, cause)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errs.E(errs.WriteFailure, op, err)
	}
	if err := s.rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errs.E(errs.WriteFailure, op, err)
	}
	s.logger.Debug().Int("records", len(items)).Msg("rewrote store file")
	return nil
}

func (s *FileStore[T]) indexOf(items []T, id string) int {
	for i, v := range items {
		if s.codec.ID(v) == id {
			return i
		}
	}
	return -1
}

func (s *FileStore[T]) op(name string) string { return s.codec.Collection() + "." + name }

func (s *FileStore[T]) entity() string { return entityName(s.codec.Collection()) }
