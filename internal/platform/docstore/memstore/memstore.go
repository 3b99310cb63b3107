// Package memstore is an in-process document store used in tests and local development.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"schoolops/internal/platform/docstore"
)

type Store struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	docs     map[docstore.Kind]map[string][]byte
	clock    *docstore.Clock
	failNext error
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.clock = docstore.NewClock(now)
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		docs:  map[docstore.Kind]map[string][]byte{},
		clock: docstore.NewClock(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailNextCommit makes the next commit fail with err before any write is applied.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Count returns the number of documents of kind.
func (s *Store) Count(kind docstore.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs[kind])
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) Get(ctx context.Context, kind docstore.Kind, id string) (docstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[kind][id]
	if !ok {
		return docstore.Snapshot{}, docstore.ErrNotFound
	}
	return docstore.Snapshot{Kind: kind, ID: id, Data: clone(data)}, nil
}

func (s *Store) Find(ctx context.Context, q docstore.Query) ([]docstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Empty() {
		return nil, nil
	}
	filters, err := normalizeFilters(q.Filters)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	type candidate struct {
		snap docstore.Snapshot
		obj  map[string]any
	}
	var matches []candidate
	for id, data := range s.docs[q.Kind] {
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil {
			s.mu.RUnlock()
			return nil, fmt.Errorf("memstore: decode %s/%s: %w", q.Kind, id, err)
		}
		if !matchAll(obj, filters) {
			continue
		}
		matches = append(matches, candidate{snap: docstore.Snapshot{Kind: q.Kind, ID: id, Data: clone(data)}, obj: obj})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].snap.ID < matches[j].snap.ID })
	sort.SliceStable(matches, func(i, j int) bool {
		for _, order := range q.Orders {
			cmp := compare(lookup(matches[i].obj, order.Field), lookup(matches[j].obj, order.Field))
			if cmp == 0 {
				continue
			}
			if order.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	if q.Max > 0 && len(matches) > q.Max {
		matches = matches[:q.Max]
	}
	out := make([]docstore.Snapshot, len(matches))
	for i, m := range matches {
		out[i] = m.snap
	}
	return out, nil
}

func (s *Store) Commit(ctx context.Context, batch *docstore.Batch) error {
	if _, err := batch.Ops(); err != nil {
		return err
	}
	if batch.Len() == 0 {
		return docstore.ErrBatchEmpty
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.apply(ctx, batch)
}

// RunTransaction serialises read-modify-write units: only one runs at a time, and
// plain commits wait for it, so reads inside fn cannot go stale before the apply.
func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	batch := docstore.NewBatch()
	if err := fn(ctx, s, batch); err != nil {
		return err
	}
	return s.apply(ctx, batch)
}

func (s *Store) apply(ctx context.Context, batch *docstore.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ops, err := batch.Ops()
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}

	at := s.clock.Next()
	type key struct {
		kind docstore.Kind
		id   string
	}
	pending := map[key][]byte{}
	current := func(k key) ([]byte, bool) {
		if data, ok := pending[k]; ok {
			return data, true
		}
		data, ok := s.docs[k.kind][k.id]
		return data, ok
	}

	for _, op := range ops {
		k := key{kind: op.Kind, id: op.ID}
		data, err := docstore.Stamp(op.Data, op.ServerTime, at)
		if err != nil {
			return err
		}
		existing, exists := current(k)
		switch op.Type {
		case docstore.OpCreate:
			if exists {
				return fmt.Errorf("%w: %s/%s", docstore.ErrAlreadyExists, op.Kind, op.ID)
			}
		case docstore.OpUpdate:
			if !exists {
				return fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, op.Kind, op.ID)
			}
			if data, err = docstore.Merge(existing, data); err != nil {
				return err
			}
		}
		pending[k] = data
	}

	for k, data := range pending {
		if s.docs[k.kind] == nil {
			s.docs[k.kind] = map[string][]byte{}
		}
		s.docs[k.kind][k.id] = data
	}
	return nil
}

func normalizeFilters(filters []docstore.Filter) ([]docstore.Filter, error) {
	out := make([]docstore.Filter, len(filters))
	for i, f := range filters {
		values := make([]any, len(f.Values))
		for j, v := range f.Values {
			norm, err := docstore.Normalize(v)
			if err != nil {
				return nil, err
			}
			values[j] = norm
		}
		out[i] = docstore.Filter{Field: f.Field, Op: f.Op, Values: values}
	}
	return out, nil
}

func matchAll(obj map[string]any, filters []docstore.Filter) bool {
	for _, f := range filters {
		value := lookup(obj, f.Field)
		matched := false
		for _, candidate := range f.Values {
			if compare(value, candidate) == 0 && value != nil {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func lookup(obj map[string]any, field string) any {
	var current any = obj
	for _, part := range docstore.SplitPath(field) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

// compare orders nil < bool < number < string; mixed or composite values compare by JSON text.
func compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case nil:
		return 0
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default:
		ja, _ := json.Marshal(a)
		jb, _ := json.Marshal(b)
		switch {
		case string(ja) < string(jb):
			return -1
		case string(ja) > string(jb):
			return 1
		default:
			return 0
		}
	}
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}

func clone(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
