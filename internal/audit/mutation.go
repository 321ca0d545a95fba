package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskline/internal/domain"
	"taskline/internal/repo"
)

// WriteError reports that a mutation committed but its audit entry could
// not be written. The primary change is not rolled back.
type WriteError struct {
	Entry domain.AuditLogEntry
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s %s committed but audit entry was not written: %v",
		e.Entry.Action, e.Entry.EntityType, e.Entry.EntityID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// IsUncertain reports whether err means "mutation succeeded, audit uncertain".
func IsUncertain(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}

// Describer renders the human-readable change text of an entry. before is
// nil for creates, after is nil for deletes.
type Describer[T any] func(action domain.Action, before, after *T) string

// Mutation wraps a record store so that each successful Add, Update or
// Delete appends exactly one audit entry. A failed store call writes nothing
// and its error is returned unchanged.
type Mutation[T any] struct {
	store    repo.Store[T]
	trail    *Trail
	entity   domain.EntityType
	id       func(T) string
	describe Describer[T]

	Now    func() time.Time
	NewID  func() string
	Logger zerolog.Logger
}

func NewMutation[T any](store repo.Store[T], trail *Trail, entity domain.EntityType, id func(T) string, describe Describer[T]) *Mutation[T] {
	return &Mutation[T]{
		store:    store,
		trail:    trail,
		entity:   entity,
		id:       id,
		describe: describe,
		Now:      time.Now,
		NewID:    uuid.NewString,
		Logger:   zerolog.Nop(),
	}
}

func (m *Mutation[T]) List(ctx context.Context) ([]T, error) {
	return m.store.List(ctx)
}

func (m *Mutation[T]) Get(ctx context.Context, id string) (T, bool, error) {
	return m.store.Get(ctx, id)
}

func (m *Mutation[T]) Add(ctx context.Context, actorID string, v T) error {
	if err := m.store.Add(ctx, v); err != nil {
		return err
	}
	return m.record(ctx, actorID, domain.ActionCreate, m.id(v), nil, &v)
}

func (m *Mutation[T]) Update(ctx context.Context, actorID string, v T) error {
	before, found, err := m.store.Get(ctx, m.id(v))
	if err != nil {
		return err
	}
	if err := m.store.Update(ctx, v); err != nil {
		return err
	}
	var prev *T
	if found {
		prev = &before
	}
	return m.record(ctx, actorID, domain.ActionUpdate, m.id(v), prev, &v)
}

func (m *Mutation[T]) Delete(ctx context.Context, actorID, id string) error {
	before, found, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	var prev *T
	if found {
		prev = &before
	}
	return m.record(ctx, actorID, domain.ActionDelete, id, prev, nil)
}

func (m *Mutation[T]) record(ctx context.Context, actorID string, action domain.Action, targetID string, before, after *T) error {
	entry := domain.AuditLogEntry{
		ID:         m.NewID(),
		ActorID:    actorID,
		EntityType: m.entity,
		EntityID:   targetID,
		Action:     action,
		Timestamp:  m.Now().UTC(),
	}
	if m.describe != nil {
		entry.Description = m.describe(action, before, after)
	}
	if err := m.trail.Append(ctx, entry); err != nil {
		m.Logger.Error().
			Err(err).
			Str("entity_type", string(entry.EntityType)).
			Str("entity_id", entry.EntityID).
			Str("action", string(entry.Action)).
			Msg("failed to write audit entry")
		return &WriteError{Entry: entry, Err: err}
	}
	m.Logger.Debug().
		Str("entity_type", string(entry.EntityType)).
		Str("entity_id", entry.EntityID).
		Str("action", string(entry.Action)).
		Str("actor_id", actorID).
		Msg("recorded audit entry")
	return nil
}
