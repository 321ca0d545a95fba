// Package audit records one entry per successful mutation of a tracked
// entity. The trail is append-only: nothing here updates or removes an
// entry once written.
package audit

import (
	"context"

	"taskline/internal/domain"
	"taskline/internal/repo"
)

// Trail is the append-only view over the audit store.
type Trail struct {
	store repo.Store[domain.AuditLogEntry]
}

func NewTrail(store repo.Store[domain.AuditLogEntry]) *Trail {
	return &Trail{store: store}
}

// Append persists one entry.
func (t *Trail) Append(ctx context.Context, e domain.AuditLogEntry) error {
	return t.store.Add(ctx, e)
}

// Filter narrows Entries. Zero fields match everything; Limit keeps the
// newest entries.
type Filter struct {
	EntityType domain.EntityType
	EntityID   string
	Action     domain.Action
	ActorID    string
	Limit      int
}

func (f Filter) match(e domain.AuditLogEntry) bool {
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && e.EntityID != f.EntityID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	return true
}

// Entries returns matching entries oldest first.
func (t *Trail) Entries(ctx context.Context, f Filter) ([]domain.AuditLogEntry, error) {
	res, err := repo.Filter[domain.AuditLogEntry](ctx, t.store, f.match)
	if err != nil {
		return nil, err
	}
	if f.Limit > 0 && len(res) > f.Limit {
		res = res[len(res)-f.Limit:]
	}
	return res, nil
}
