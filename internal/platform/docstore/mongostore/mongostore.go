// Package mongostore keeps one MongoDB collection per document kind. Batches and
// transactions use multi-document session transactions, so the server must run
// as a replica set.
package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schoolops/internal/platform/docstore"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database

	clockMu sync.Mutex
	clock   *docstore.Clock
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return New(client, database), nil
}

func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database), clock: docstore.NewClock(nil)}
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Get(ctx context.Context, kind docstore.Kind, id string) (docstore.Snapshot, error) {
	return get(ctx, s.db, kind, id)
}

func (s *Store) Find(ctx context.Context, q docstore.Query) ([]docstore.Snapshot, error) {
	return find(ctx, s.db, q)
}

func (s *Store) Commit(ctx context.Context, batch *docstore.Batch) error {
	ops, err := batch.Ops()
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return docstore.ErrBatchEmpty
	}
	return s.inTx(ctx, func(sc mongo.SessionContext) error {
		return s.apply(sc, ops)
	})
}

func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	return s.inTx(ctx, func(sc mongo.SessionContext) error {
		batch := docstore.NewBatch()
		if err := fn(sc, txReader{db: s.db}, batch); err != nil {
			return err
		}
		ops, err := batch.Ops()
		if err != nil {
			return err
		}
		return s.apply(sc, ops)
	})
}

// inTx runs work in a single transaction attempt. Transient failures are returned,
// not retried.
func (s *Store) inTx(ctx context.Context, work func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.Background())

	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := work(sc); err != nil {
			_ = sc.AbortTransaction(context.Background())
			return err
		}
		return sc.CommitTransaction(context.Background())
	})
}

func (s *Store) apply(ctx context.Context, ops []docstore.Op) error {
	s.clockMu.Lock()
	at := s.clock.Next()
	s.clockMu.Unlock()

	for _, op := range ops {
		data, err := docstore.Stamp(op.Data, op.ServerTime, at)
		if err != nil {
			return err
		}
		fields, err := toFields(data)
		if err != nil {
			return err
		}
		coll := s.db.Collection(string(op.Kind))
		switch op.Type {
		case docstore.OpCreate:
			fields["_id"] = op.ID
			if _, err := coll.InsertOne(ctx, fields); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return fmt.Errorf("%w: %s/%s", docstore.ErrAlreadyExists, op.Kind, op.ID)
				}
				return err
			}
		case docstore.OpSet:
			fields["_id"] = op.ID
			if _, err := coll.ReplaceOne(ctx, bson.M{"_id": op.ID}, fields, options.Replace().SetUpsert(true)); err != nil {
				return err
			}
		case docstore.OpUpdate:
			res, err := coll.UpdateOne(ctx, bson.M{"_id": op.ID}, bson.M{"$set": fields})
			if err != nil {
				return err
			}
			if res.MatchedCount == 0 {
				return fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, op.Kind, op.ID)
			}
		default:
			return fmt.Errorf("mongostore: unknown op %q", op.Type)
		}
	}
	return nil
}

type txReader struct {
	db *mongo.Database
}

func (r txReader) Get(ctx context.Context, kind docstore.Kind, id string) (docstore.Snapshot, error) {
	return get(ctx, r.db, kind, id)
}

func (r txReader) Find(ctx context.Context, q docstore.Query) ([]docstore.Snapshot, error) {
	return find(ctx, r.db, q)
}

func get(ctx context.Context, db *mongo.Database, kind docstore.Kind, id string) (docstore.Snapshot, error) {
	var doc bson.M
	err := db.Collection(string(kind)).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.Snapshot{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Snapshot{}, err
	}
	return toSnapshot(kind, doc)
}

func find(ctx context.Context, db *mongo.Database, q docstore.Query) ([]docstore.Snapshot, error) {
	if q.Empty() {
		return nil, nil
	}
	filter, err := buildFilter(q.Filters)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(buildSort(q.Orders))
	if q.Max > 0 {
		opts.SetLimit(int64(q.Max))
	}

	cursor, err := db.Collection(string(q.Kind)).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []docstore.Snapshot
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		snap, err := toSnapshot(q.Kind, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, cursor.Err()
}

func buildFilter(filters []docstore.Filter) (bson.D, error) {
	filter := bson.D{}
	for _, f := range filters {
		values := make(bson.A, 0, len(f.Values))
		for _, v := range f.Values {
			norm, err := docstore.Normalize(v)
			if err != nil {
				return nil, err
			}
			values = append(values, norm)
		}
		if f.Op == docstore.OpIn {
			filter = append(filter, bson.E{Key: f.Field, Value: bson.M{"$in": values}})
			continue
		}
		filter = append(filter, bson.E{Key: f.Field, Value: values[0]})
	}
	return filter, nil
}

func buildSort(orders []docstore.Order) bson.D {
	sort := bson.D{}
	for _, o := range orders {
		dir := 1
		if o.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: o.Field, Value: dir})
	}
	return append(sort, bson.E{Key: "_id", Value: 1})
}

func toFields(data []byte) (bson.M, error) {
	var fields bson.M
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = bson.M{}
	}
	return fields, nil
}

func toSnapshot(kind docstore.Kind, doc bson.M) (docstore.Snapshot, error) {
	id, _ := doc["_id"].(string)
	delete(doc, "_id")
	data, err := json.Marshal(doc)
	if err != nil {
		return docstore.Snapshot{}, err
	}
	return docstore.Snapshot{Kind: kind, ID: id, Data: data}, nil
}
