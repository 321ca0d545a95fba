// Package session holds the single "current user" slot used by login and
// logout. An empty slot means nobody is logged in.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskline/internal/domain"
	"taskline/internal/errs"
	"taskline/internal/repo"
)

type Store struct {
	mu    sync.Mutex
	store repo.Store[domain.Session]

	Now   func() time.Time
	NewID func() string
}

func New(store repo.Store[domain.Session]) *Store {
	return &Store{store: store, Now: time.Now, NewID: uuid.NewString}
}

// SetCurrent replaces whatever session exists with one for u. Between the
// delete and the add the slot is briefly empty to other processes.
func (s *Store) SetCurrent(ctx context.Context, u domain.User) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clear(ctx); err != nil {
		return domain.Session{}, err
	}
	sess := domain.Session{ID: s.NewID(), User: u, StartedAt: s.Now().UTC()}
	if err := s.store.Add(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// ClearCurrent logs out. It is not an error when nobody is logged in.
func (s *Store) ClearCurrent(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clear(ctx)
}

// Current returns the logged-in session or errs.NotFound.
func (s *Store) Current(ctx context.Context) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.List(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if len(all) == 0 {
		return domain.Session{}, errs.Errorf(errs.NotFound, "session.current", "not logged in")
	}
	return all[len(all)-1], nil
}

func (s *Store) clear(ctx context.Context) error {
	all, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	for _, sess := range all {
		if err := s.store.Delete(ctx, sess.ID); err != nil && !errs.Is(err, errs.NotFound) {
			return err
		}
	}
	return nil
}
