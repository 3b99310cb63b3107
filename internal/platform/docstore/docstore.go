// Package docstore is the typed document gateway every engine reads and writes through.
//
// Reads go through Get and Find. Writes are staged on a Batch and become visible
// only when the whole batch commits; a failed commit leaves nothing behind.
// RunTransaction combines both for read-modify-write units such as counters.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Kind string

// TimeLayout is RFC 3339 with fixed-width nanoseconds so stamped values sort as text.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	ErrNotFound      = errors.New("docstore: document not found")
	ErrAlreadyExists = errors.New("docstore: document already exists")
	// ErrBatchEmpty is returned by Commit when nothing was staged.
	ErrBatchEmpty = errors.New("docstore: batch has no operations")
)

// Reader is the read side of the gateway, also handed to transaction callbacks.
type Reader interface {
	Get(ctx context.Context, kind Kind, id string) (Snapshot, error)
	Find(ctx context.Context, q Query) ([]Snapshot, error)
}

// TxFunc reads through tx and stages writes on batch. Returning an error aborts the unit.
type TxFunc func(ctx context.Context, tx Reader, batch *Batch) error

type Gateway interface {
	Reader
	Commit(ctx context.Context, batch *Batch) error
	RunTransaction(ctx context.Context, fn TxFunc) error
	Ping(ctx context.Context) error
}

type Snapshot struct {
	Kind Kind
	ID   string
	Data []byte
}

func (s Snapshot) Decode(dst any) error {
	if err := json.Unmarshal(s.Data, dst); err != nil {
		return fmt.Errorf("decode %s/%s: %w", s.Kind, s.ID, err)
	}
	return nil
}

// Load fetches one document and decodes it into T.
func Load[T any](ctx context.Context, r Reader, kind Kind, id string) (T, error) {
	var out T
	snap, err := r.Get(ctx, kind, id)
	if err != nil {
		return out, err
	}
	err = snap.Decode(&out)
	return out, err
}

// LoadAll runs q and decodes every result into T, preserving order.
func LoadAll[T any](ctx context.Context, r Reader, q Query) ([]T, error) {
	snaps, err := r.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(snaps))
	for _, snap := range snaps {
		var item T
		if err := snap.Decode(&item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Exists reports whether kind/id is present.
func Exists(ctx context.Context, r Reader, kind Kind, id string) (bool, error) {
	_, err := r.Get(ctx, kind, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// SplitPath turns a dotted field path into its segments.
func SplitPath(field string) []string {
	return strings.Split(field, ".")
}

// Nest builds {"a":{"b":value}} for the path "a.b".
func Nest(field string, value any) map[string]any {
	parts := SplitPath(field)
	out := map[string]any{parts[len(parts)-1]: value}
	for i := len(parts) - 2; i >= 0; i-- {
		out = map[string]any{parts[i]: out}
	}
	return out
}

// Normalize converts typed values (named strings, ints, decimals) into their JSON shape
// so every backend compares the same representation.
func Normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stamp writes at into each named field of the JSON object data.
func Stamp(data []byte, fields []string, at time.Time) ([]byte, error) {
	if len(fields) == 0 {
		return data, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = map[string]any{}
	}
	for _, field := range fields {
		obj[field] = at.UTC().Format(TimeLayout)
	}
	return json.Marshal(obj)
}

// Merge applies patch's top-level keys over base.
func Merge(base, patch []byte) ([]byte, error) {
	var obj, changes map[string]any
	if err := json.Unmarshal(base, &obj); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, &changes); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = map[string]any{}
	}
	for key, value := range changes {
		obj[key] = value
	}
	return json.Marshal(obj)
}

// Clock hands out commit timestamps that never move backwards.
type Clock struct {
	now  func() time.Time
	last time.Time
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Next must be called with the owning store's commit lock held.
func (c *Clock) Next() time.Time {
	at := c.now().UTC()
	if !at.After(c.last) {
		at = c.last.Add(time.Microsecond)
	}
	c.last = at
	return at
}
