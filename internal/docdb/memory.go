package docdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var _ Collection = (*Memory)(nil)

// Memory is an in-process collection. Fields listed in unique must hold
// distinct values across documents, mirroring the unique indexes of the
// SQL backends.
type Memory struct {
	name   string
	unique []string

	mu   sync.RWMutex
	ids  []string
	docs map[string]Document
}

func NewMemory(name string, unique ...string) *Memory {
	return &Memory{name: name, unique: unique, docs: map[string]Document{}}
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) Insert(ctx context.Context, id string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return m.fail("insert", ctxCode(err), err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; ok {
		return m.fail("insert", CodeDuplicate, fmt.Errorf("id %s exists", id))
	}
	if err := m.checkUnique(id, doc); err != nil {
		return m.fail("insert", CodeDuplicate, err)
	}
	m.ids = append(m.ids, id)
	m.docs[id] = clone(doc)
	return nil
}

func (m *Memory) All(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, m.fail("find", ctxCode(err), err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]Document, 0, len(m.ids))
	for _, id := range m.ids {
		res = append(res, clone(m.docs[id]))
	}
	return res, nil
}

func (m *Memory) Get(ctx context.Context, id string) (Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, m.fail("find", ctxCode(err), err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, false, nil
	}
	return clone(doc), true, nil
}

func (m *Memory) Replace(ctx context.Context, id string, doc Document) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, m.fail("replace", ctxCode(err), err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return 0, nil
	}
	if err := m.checkUnique(id, doc); err != nil {
		return 0, m.fail("replace", CodeDuplicate, err)
	}
	m.docs[id] = clone(doc)
	return 1, nil
}

func (m *Memory) Delete(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, m.fail("delete", ctxCode(err), err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return 0, nil
	}
	delete(m.docs, id)
	for i, v := range m.ids {
		if v == id {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (m *Memory) checkUnique(id string, doc Document) error {
	for _, field := range m.unique {
		val, ok := doc[field]
		if !ok {
			continue
		}
		for otherID, other := range m.docs {
			if otherID != id && other[field] == val {
				return fmt.Errorf("%s %v exists", field, val)
			}
		}
	}
	return nil
}

func (m *Memory) fail(op string, code Code, err error) error {
	return &Error{Code: code, Op: op, Collection: m.name, Err: err}
}

// ctxCode maps a context error the way the SQL backends classify it: only an
// expired deadline counts as a timeout.
func ctxCode(err error) Code {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeOther
}

func clone(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
