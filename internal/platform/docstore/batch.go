package docstore

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type OpType string

const (
	// OpCreate fails the batch when the key already exists.
	OpCreate OpType = "create"
	// OpSet writes the whole document, creating or replacing it.
	OpSet OpType = "set"
	// OpUpdate merges top-level fields into an existing document.
	OpUpdate OpType = "update"
)

type Op struct {
	Type       OpType
	Kind       Kind
	ID         string
	Data       []byte
	ServerTime []string
}

// Batch accumulates writes that commit all-or-nothing.
type Batch struct {
	ops []Op
	err error
}

func NewBatch() *Batch {
	return &Batch{}
}

// Create stages a new document. An empty id is replaced by a generated one, which is returned.
func (b *Batch) Create(kind Kind, id string, doc any, serverTime ...string) string {
	if id == "" {
		id = uuid.NewString()
	}
	b.stage(OpCreate, kind, id, doc, serverTime)
	return id
}

func (b *Batch) Set(kind Kind, id string, doc any, serverTime ...string) {
	b.stage(OpSet, kind, id, doc, serverTime)
}

func (b *Batch) Update(kind Kind, id string, fields map[string]any, serverTime ...string) {
	b.stage(OpUpdate, kind, id, fields, serverTime)
}

func (b *Batch) Len() int {
	return len(b.ops)
}

// Ops returns the staged operations, or the first staging error.
func (b *Batch) Ops() ([]Op, error) {
	if b.err != nil {
		return nil, b.err
	}
	out := make([]Op, len(b.ops))
	copy(out, b.ops)
	return out, nil
}

func (b *Batch) stage(op OpType, kind Kind, id string, doc any, serverTime []string) {
	if b.err != nil {
		return
	}
	if id == "" {
		b.err = fmt.Errorf("docstore: %s %s requires an id", op, kind)
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		b.err = fmt.Errorf("docstore: encode %s/%s: %w", kind, id, err)
		return
	}
	b.ops = append(b.ops, Op{Type: op, Kind: kind, ID: id, Data: data, ServerTime: serverTime})
}
