package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolops/internal/platform/docstore"
)

type pupil struct {
	ID     string `json:"id"`
	Class  string `json:"class"`
	Status string `json:"status"`
	Age    int    `json:"age"`
}

const kindPupil docstore.Kind = "pupils"

func seed(t *testing.T, s *Store, pupils ...pupil) {
	t.Helper()
	b := docstore.NewBatch()
	for _, p := range pupils {
		b.Set(kindPupil, p.ID, p)
	}
	require.NoError(t, s.Commit(context.Background(), b))
}

func TestFindFiltersOrdersAndLimits(t *testing.T) {
	s := New()
	seed(t, s,
		pupil{ID: "a", Class: "JSS1", Status: "Active", Age: 12},
		pupil{ID: "b", Class: "JSS1", Status: "Inactive", Age: 11},
		pupil{ID: "c", Class: "JSS1", Status: "Active", Age: 10},
		pupil{ID: "d", Class: "JSS2", Status: "Active", Age: 13},
	)
	ctx := context.Background()

	got, err := docstore.LoadAll[pupil](ctx, s, docstore.From(kindPupil).Where("class", "JSS1").Where("status", "Active").OrderBy("age"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)

	got, err = docstore.LoadAll[pupil](ctx, s, docstore.From(kindPupil).WhereIn("id", "a", "d").OrderByDesc("age").Limit(1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d", got[0].ID)

	got, err = docstore.LoadAll[pupil](ctx, s, docstore.From(kindPupil).Where("age", 11))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	snaps, err := s.Find(ctx, docstore.From(kindPupil).WhereIn("id"))
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestCommitIsAllOrNothing(t *testing.T) {
	s := New()
	seed(t, s, pupil{ID: "a", Class: "JSS1"})
	ctx := context.Background()

	b := docstore.NewBatch()
	b.Create(kindPupil, "z", pupil{ID: "z"})
	b.Create(kindPupil, "a", pupil{ID: "a"})
	err := s.Commit(ctx, b)
	require.ErrorIs(t, err, docstore.ErrAlreadyExists)

	_, err = s.Get(ctx, kindPupil, "z")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	boom := errors.New("disk full")
	s.FailNextCommit(boom)
	b = docstore.NewBatch()
	b.Create(kindPupil, "y", pupil{ID: "y"})
	require.ErrorIs(t, s.Commit(ctx, b), boom)
	assert.Equal(t, 1, s.Count(kindPupil))
}

func TestUpdateMergesAndStampsServerTime(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(WithClock(func() time.Time { return fixed }))
	seed(t, s, pupil{ID: "a", Class: "JSS1", Age: 10})
	ctx := context.Background()

	b := docstore.NewBatch()
	b.Update(kindPupil, "a", map[string]any{"age": 11}, "updatedAt")
	require.NoError(t, s.Commit(ctx, b))

	var doc map[string]any
	snap, err := s.Get(ctx, kindPupil, "a")
	require.NoError(t, err)
	require.NoError(t, snap.Decode(&doc))
	assert.Equal(t, "JSS1", doc["class"])
	assert.Equal(t, float64(11), doc["age"])
	assert.NotEqual(t, fixed.Format(docstore.TimeLayout), doc["updatedAt"], "second commit must move past the first stamp")

	b = docstore.NewBatch()
	b.Update(kindPupil, "missing", map[string]any{"age": 1})
	assert.ErrorIs(t, s.Commit(ctx, b), docstore.ErrNotFound)
}

func TestRunTransactionAbortsOnCallbackError(t *testing.T) {
	s := New()
	ctx := context.Background()
	stop := errors.New("stop")
	err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Reader, b *docstore.Batch) error {
		b.Create(kindPupil, "a", pupil{ID: "a"})
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 0, s.Count(kindPupil))

	err = s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Reader, b *docstore.Batch) error {
		exists, err := docstore.Exists(ctx, tx, kindPupil, "a")
		if err != nil || exists {
			return errors.New("unexpected state")
		}
		b.Create(kindPupil, "a", pupil{ID: "a"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count(kindPupil))
}

func TestCommitEmptyBatch(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.Commit(context.Background(), docstore.NewBatch()), docstore.ErrBatchEmpty)
}
