package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/db/memory"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/store"
)

func result(id string, mean float64) models.AnalysisResult {
	return models.AnalysisResult{
		DatasetID: id,
		Analysis:  models.AnalysisAgricultureHotspot,
		Timestamp: "2024-05-01T00:00:00Z",
		Stats:     models.Stats{"NDVI_mean": mean},
	}
}

func ids(rs []models.AnalysisResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.DatasetID
	}
	return out
}

func newCache(t *testing.T) (*ResultCache, *memory.Store) {
	t.Helper()
	kv := memory.New(0)
	return New(store.New(kv)), kv
}

func TestUpsert_Caps(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 19, 20, 21, 40} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			c, _ := newCache(t)
			for i := 1; i <= n; i++ {
				require.NoError(t, c.Upsert(ctx, result(fmt.Sprintf("r%d", i), 0.5)))
			}
			assert.Len(t, c.LoadAll(ctx), min(n, MaxResults))
		})
	}
}

func TestUpsert_Dedup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := newCache(t)

	require.NoError(t, c.Upsert(ctx, result("a", 0.1)))
	require.NoError(t, c.Upsert(ctx, result("b", 0.2)))
	require.NoError(t, c.Upsert(ctx, result("a", 0.9)))

	all := c.LoadAll(ctx)
	assert.Equal(t, []string{"b", "a"}, ids(all))
	assert.InDelta(t, 0.9, all[1].Stats["NDVI_mean"], 1e-12)
}

func TestUpsert_EvictsOldestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := newCache(t)

	var want []string
	for i := 1; i <= 25; i++ {
		id := fmt.Sprintf("r%d", i)
		require.NoError(t, c.Upsert(ctx, result(id, 0.5)))
		if i >= 6 {
			want = append(want, id)
		}
	}
	assert.Equal(t, want, ids(c.LoadAll(ctx)))
}

func TestUpsertBatch_MatchesRepeatedUpsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	batch := []models.AnalysisResult{result("x", 0.1), result("y", 0.2), result("x", 0.3)}
	for i := 0; i < 22; i++ {
		batch = append(batch, result(fmt.Sprintf("b%d", i), 0.4))
	}

	one, _ := newCache(t)
	for _, r := range batch {
		require.NoError(t, one.Upsert(ctx, r))
	}

	writes := 0
	kv := memory.New(0)
	kv.FailSet = func(string, []byte) error { writes++; return nil }
	many := New(store.New(kv))
	require.NoError(t, many.UpsertBatch(ctx, batch))

	assert.Equal(t, ids(one.LoadAll(ctx)), ids(many.LoadAll(ctx)))
	assert.Equal(t, 1, writes)
}

func TestLoadAll_DegradesToEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, kv := newCache(t)

	assert.Empty(t, c.LoadAll(ctx))
	assert.NotNil(t, c.LoadAll(ctx))

	require.NoError(t, kv.Set(ctx, store.KeyAnalysisResults, []byte(`{"version":1,"data":{not json`)))
	assert.Empty(t, c.LoadAll(ctx))

	// misaligned series inside a stored result makes the whole value unusable
	bad := `{"version":1,"data":[{"dataset_id":"a","series":{"dates":["d1"],"mean":[1,2]}}]}`
	require.NoError(t, kv.Set(ctx, store.KeyAnalysisResults, []byte(bad)))
	assert.Empty(t, c.LoadAll(ctx))

	kv.SetAvailable(false)
	assert.Empty(t, c.LoadAll(ctx))
}

func TestPersist_QuotaRetryDropsOldest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, kv := newCache(t)
	obs := &countingObserver{}
	c.SetObserver(obs)

	calls := 0
	kv.FailSet = func(string, []byte) error {
		calls++
		if calls == 1 {
			return &db.StorageError{Name: db.QuotaExceededName, Err: fmt.Errorf("full")}
		}
		return nil
	}

	require.NoError(t, c.Persist(ctx, []models.AnalysisResult{result("a", 1), result("b", 2), result("c", 3)}))
	assert.Equal(t, []string{"b", "c"}, ids(c.LoadAll(ctx)))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, obs.quota)
	assert.Equal(t, 0, obs.abandoned)
}

func TestPersist_AbandonsAfterSecondQuotaFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, kv := newCache(t)
	obs := &countingObserver{}
	c.SetObserver(obs)

	require.NoError(t, c.Upsert(ctx, result("keep", 1)))

	kv.FailSet = func(string, []byte) error {
		return &db.StorageError{Code: db.QuotaExceededCode, Err: fmt.Errorf("full")}
	}

	err := c.Upsert(ctx, result("new", 2))
	require.ErrorIs(t, err, ErrPersistAbandoned)
	assert.True(t, db.IsQuotaError(err))
	assert.Equal(t, 1, obs.abandoned)

	kv.FailSet = nil
	assert.Equal(t, []string{"keep"}, ids(c.LoadAll(ctx)))
}

func TestPersist_OtherErrorsAreReturned(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, kv := newCache(t)

	boom := fmt.Errorf("disk on fire")
	kv.FailSet = func(string, []byte) error { return boom }

	err := c.Upsert(ctx, result("a", 1))
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrPersistAbandoned)
}

func TestPersist_UnavailableIsNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, kv := newCache(t)
	kv.SetAvailable(false)

	require.NoError(t, c.Upsert(ctx, result("a", 1)))
	require.NoError(t, c.Clear(ctx))
	assert.Empty(t, c.LoadAll(ctx))
}

func TestPersist_QuotaWithRealBackendLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	twoEncoded, err := store.Encode([]models.AnalysisResult{result("r00", 0.5), result("r01", 0.5)})
	require.NoError(t, err)

	// room for two results but not three
	kv := memory.New(int64(len(twoEncoded)) + 30)
	c := New(store.New(kv))

	require.NoError(t, c.Upsert(ctx, result("r00", 0.5)))
	require.NoError(t, c.Upsert(ctx, result("r01", 0.5)))
	require.NoError(t, c.Upsert(ctx, result("r02", 0.5)))

	assert.Equal(t, []string{"r01", "r02"}, ids(c.LoadAll(ctx)))
}

func TestClear_OnlyRemovesResults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := memory.New(0)
	s := store.New(kv)
	c := New(s)

	require.NoError(t, c.Upsert(ctx, result("a", 1)))
	require.NoError(t, s.Put(ctx, store.KeyDatasets, []models.Dataset{{ID: "a"}}))
	require.NoError(t, s.Put(ctx, store.KeySeriesResults, []int{1}))

	require.NoError(t, c.Clear(ctx))
	assert.Empty(t, c.LoadAll(ctx))

	keys, err := kv.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{store.KeyDatasets, store.KeySeriesResults}, keys)
}

func TestFind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := newCache(t)
	require.NoError(t, c.Upsert(ctx, result("a", 0.3)))

	r, ok := c.Find(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "a", r.DatasetID)

	_, ok = c.Find(ctx, "missing")
	assert.False(t, ok)
}

type countingObserver struct {
	upserted, evicted, quota, abandoned int
}

func (o *countingObserver) Upserted(n int) { o.upserted += n }
func (o *countingObserver) Evicted(n int)  { o.evicted += n }
func (o *countingObserver) QuotaExceeded(retried bool) {
	if retried {
		o.abandoned++
		return
	}
	o.quota++
}
