// Package pgstore keeps documents as JSONB rows in a single PostgreSQL table.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"schoolops/internal/platform/docstore"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	DB *pgxpool.Pool

	clockMu sync.Mutex
	clock   *docstore.Clock
}

func New(db *pgxpool.Pool) *Store {
	return &Store{DB: db, clock: docstore.NewClock(nil)}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

func (s *Store) Get(ctx context.Context, kind docstore.Kind, id string) (docstore.Snapshot, error) {
	return reader{q: s.DB}.Get(ctx, kind, id)
}

func (s *Store) Find(ctx context.Context, q docstore.Query) ([]docstore.Snapshot, error) {
	return reader{q: s.DB}.Find(ctx, q)
}

func (s *Store) Commit(ctx context.Context, batch *docstore.Batch) error {
	if _, err := batch.Ops(); err != nil {
		return err
	}
	if batch.Len() == 0 {
		return docstore.ErrBatchEmpty
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return s.apply(ctx, tx, batch)
	})
}

// RunTransaction reads with row locks so a concurrent unit touching the same
// documents waits until this one commits or rolls back.
func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		batch := docstore.NewBatch()
		if err := fn(ctx, reader{q: tx, forUpdate: true}, batch); err != nil {
			return err
		}
		return s.apply(ctx, tx, batch)
	})
}

func (s *Store) inTx(ctx context.Context, work func(tx pgx.Tx) error) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := work(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) apply(ctx context.Context, tx pgx.Tx, batch *docstore.Batch) error {
	ops, err := batch.Ops()
	if err != nil || len(ops) == 0 {
		return err
	}

	s.clockMu.Lock()
	at := s.clock.Next()
	s.clockMu.Unlock()

	for _, op := range ops {
		data, err := docstore.Stamp(op.Data, op.ServerTime, at)
		if err != nil {
			return err
		}
		switch op.Type {
		case docstore.OpCreate:
			tag, err := tx.Exec(ctx, `
        INSERT INTO documents (kind, id, data, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$4)
        ON CONFLICT (kind, id) DO NOTHING
      `, string(op.Kind), op.ID, data, at)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: %s/%s", docstore.ErrAlreadyExists, op.Kind, op.ID)
			}
		case docstore.OpSet:
			if _, err := tx.Exec(ctx, `
        INSERT INTO documents (kind, id, data, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$4)
        ON CONFLICT (kind, id)
        DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
      `, string(op.Kind), op.ID, data, at); err != nil {
				return err
			}
		case docstore.OpUpdate:
			tag, err := tx.Exec(ctx, `
        UPDATE documents SET data = data || $3::jsonb, updated_at = $4
        WHERE kind = $1 AND id = $2
      `, string(op.Kind), op.ID, data, at)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, op.Kind, op.ID)
			}
		default:
			return fmt.Errorf("pgstore: unknown op %q", op.Type)
		}
	}
	return nil
}

type reader struct {
	q         querier
	forUpdate bool
}

func (r reader) Get(ctx context.Context, kind docstore.Kind, id string) (docstore.Snapshot, error) {
	query := "SELECT data FROM documents WHERE kind = $1 AND id = $2"
	if r.forUpdate {
		query += " FOR UPDATE"
	}
	var data []byte
	err := r.q.QueryRow(ctx, query, string(kind), id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return docstore.Snapshot{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Snapshot{}, err
	}
	return docstore.Snapshot{Kind: kind, ID: id, Data: data}, nil
}

func (r reader) Find(ctx context.Context, q docstore.Query) ([]docstore.Snapshot, error) {
	if q.Empty() {
		return nil, nil
	}
	query, args, err := buildFind(q)
	if err != nil {
		return nil, err
	}
	if r.forUpdate {
		query += " FOR UPDATE"
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []docstore.Snapshot
	for rows.Next() {
		snap := docstore.Snapshot{Kind: q.Kind}
		if err := rows.Scan(&snap.ID, &snap.Data); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// buildFind translates equality into JSONB containment so numbers and strings keep their types.
func buildFind(q docstore.Query) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("SELECT id, data FROM documents WHERE kind = $1")
	args := []any{string(q.Kind)}
	next := func(arg any) string {
		args = append(args, arg)
		return "$" + strconv.Itoa(len(args))
	}

	for _, f := range q.Filters {
		clauses := make([]string, 0, len(f.Values))
		for _, value := range f.Values {
			norm, err := docstore.Normalize(value)
			if err != nil {
				return "", nil, err
			}
			contained, err := json.Marshal(docstore.Nest(f.Field, norm))
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, "data @> "+next(contained)+"::jsonb")
		}
		if len(clauses) == 1 {
			sb.WriteString(" AND " + clauses[0])
		} else {
			sb.WriteString(" AND (" + strings.Join(clauses, " OR ") + ")")
		}
	}

	orders := make([]string, 0, len(q.Orders)+1)
	for _, o := range q.Orders {
		expr := "data #> " + next(docstore.SplitPath(o.Field)) + "::text[]"
		if o.Desc {
			expr += " DESC"
		}
		orders = append(orders, expr)
	}
	orders = append(orders, "id")
	sb.WriteString(" ORDER BY " + strings.Join(orders, ", "))

	if q.Max > 0 {
		sb.WriteString(" LIMIT " + next(q.Max))
	}
	return sb.String(), args, nil
}
