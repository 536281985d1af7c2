package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// mockRegistry returns a fixed branch list or error.
type mockRegistry struct {
	branches []Branch
	err      error
	listFunc func(ctx context.Context) ([]Branch, error)
}

func (m *mockRegistry) ActiveBranches(ctx context.Context) ([]Branch, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return m.branches, m.err
}

// mockSource serves readings per branch external ID.
type mockSource struct {
	readings  map[string][]StockReading
	errs      map[string]error
	fetchFunc func(ctx context.Context, branch Branch) ([]StockReading, error)
}

func (m *mockSource) FetchStock(ctx context.Context, branch Branch) ([]StockReading, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, branch)
	}
	if err, ok := m.errs[branch.ExternalID]; ok {
		return nil, err
	}
	return m.readings[branch.ExternalID], nil
}

type storeKey struct {
	productID string
	branchID  uint
}

// memStore is an in-memory InventoryStore keyed like the real table.
type memStore struct {
	mu      sync.Mutex
	records map[storeKey]*InventoryRecord
	nextID  uint
	fail    map[string]error
	calls   int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[storeKey]*InventoryRecord), fail: make(map[string]error)}
}

func (s *memStore) Upsert(ctx context.Context, productID string, branchID uint, level decimal.Decimal, now time.Time) (*InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if err, ok := s.fail[productID]; ok {
		return nil, err
	}

	key := storeKey{productID, branchID}
	rec, ok := s.records[key]
	if !ok {
		s.nextID++
		rec = &InventoryRecord{ID: s.nextID, ProductID: productID, BranchID: branchID}
		s.records[key] = rec
	}
	rec.StockLevel = level
	rec.LastUpdated = now
	rec.LastSync = now
	cp := *rec
	return &cp, nil
}

func (s *memStore) level(productID string, branchID uint) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[storeKey{productID, branchID}]
	if !ok {
		return decimal.Zero, false
	}
	return rec.StockLevel, true
}

// mockRunLogger records every run passed to it.
type mockRunLogger struct {
	mock.Mock
	mu   sync.Mutex
	runs []RunRecord
}

func (m *mockRunLogger) RecordRun(ctx context.Context, rec *RunRecord) error {
	args := m.Called(ctx, rec)
	m.mu.Lock()
	m.runs = append(m.runs, *rec)
	m.mu.Unlock()
	return args.Error(0)
}

func newRunLogger(err error) *mockRunLogger {
	m := new(mockRunLogger)
	m.On("RecordRun", mock.Anything, mock.AnythingOfType("*reconcile.RunRecord")).Return(err)
	return m
}

func reading(id, qty string) StockReading {
	return StockReading{ProductID: id, Quantity: decimal.RequireFromString(qty)}
}

func TestRun_OneBranchFetchFails(t *testing.T) {
	registry := &mockRegistry{branches: []Branch{
		{ID: 1, Name: "A", ExternalID: "a", Active: true},
		{ID: 2, Name: "B", ExternalID: "b", Active: true},
	}}
	source := &mockSource{
		readings: map[string][]StockReading{"a": {reading("p1", "3"), reading("p2", "4.5")}},
		errs:     map[string]error{"b": fmt.Errorf("%w: dial tcp: connection refused", ErrSourceUnavailable)},
	}
	store := newMemStore()
	runs := newRunLogger(nil)

	summary := NewOrchestrator(registry, source, store, runs).Run(context.Background())

	assert.True(t, summary.Success)
	assert.Equal(t, 2, summary.BranchesSynced)
	assert.Equal(t, 2, summary.TotalUpdated)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, BranchSyncResult{Branch: "A", ProductsUpdated: 2, Status: BranchStatusSuccess}, summary.Results[0])
	assert.Equal(t, "B", summary.Results[1].Branch)
	assert.Equal(t, 0, summary.Results[1].ProductsUpdated)
	assert.Equal(t, BranchStatusError, summary.Results[1].Status)
	assert.Contains(t, summary.Results[1].Error, "connection refused")
	assert.False(t, summary.AuditFailed)

	require.Len(t, runs.runs, 1)
	rec := runs.runs[0]
	assert.Equal(t, SyncTypeInventory, rec.SyncType)
	assert.Equal(t, RunStatusCompleted, rec.Status)
	assert.Equal(t, 2, rec.TotalRecords)
	assert.Equal(t, summary.Results, rec.Details)
	assert.Empty(t, rec.ErrorMessage)
	assert.False(t, rec.CompletedAt.Before(rec.StartedAt))

	level, ok := store.level("p2", 1)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("4.5").Equal(level))
}

func TestRun_BranchListUnavailable(t *testing.T) {
	registry := &mockRegistry{err: errors.New("connection reset by peer")}
	store := newMemStore()
	runs := newRunLogger(nil)

	summary := NewOrchestrator(registry, &mockSource{}, store, runs).Run(context.Background())

	assert.False(t, summary.Success)
	assert.Contains(t, summary.Error, "connection reset by peer")
	assert.Contains(t, summary.Error, ErrBranchListUnavailable.Error())
	assert.Nil(t, summary.Results)
	assert.Equal(t, 0, summary.BranchesSynced)
	assert.Equal(t, 0, store.calls)

	require.Len(t, runs.runs, 1)
	rec := runs.runs[0]
	assert.Equal(t, RunStatusFailed, rec.Status)
	assert.Empty(t, rec.Details)
	assert.Equal(t, summary.Error, rec.ErrorMessage)
}

func TestRun_EmptyReadings(t *testing.T) {
	registry := &mockRegistry{branches: []Branch{{ID: 1, Name: "A", ExternalID: "a"}}}
	source := &mockSource{readings: map[string][]StockReading{"a": {}}}
	runs := newRunLogger(nil)

	summary := NewOrchestrator(registry, source, newMemStore(), runs).Run(context.Background())

	assert.True(t, summary.Success)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, BranchStatusSuccess, summary.Results[0].Status)
	assert.Equal(t, 0, summary.Results[0].ProductsUpdated)
	assert.Equal(t, 0, summary.TotalUpdated)
}

func TestRun_NoBranches(t *testing.T) {
	runs := newRunLogger(nil)
	summary := NewOrchestrator(&mockRegistry{}, &mockSource{}, newMemStore(), runs).Run(context.Background())

	assert.True(t, summary.Success)
	assert.Equal(t, 0, summary.BranchesSynced)
	assert.Empty(t, summary.Results)
	require.Len(t, runs.runs, 1)
	assert.Equal(t, RunStatusCompleted, runs.runs[0].Status)
}

func TestRun_IsolationAndOrdering(t *testing.T) {
	const n = 12
	branches := make([]Branch, n)
	readings := make(map[string][]StockReading, n)
	for i := range branches {
		ext := fmt.Sprintf("ext-%d", i)
		branches[i] = Branch{ID: uint(i + 1), Name: fmt.Sprintf("branch-%02d", i), ExternalID: ext}
		for j := 0; j <= i%3; j++ {
			readings[ext] = append(readings[ext], reading(fmt.Sprintf("p%d", j), "1"))
		}
	}

	source := &mockSource{fetchFunc: func(ctx context.Context, b Branch) ([]StockReading, error) {
		// Finish in reverse order to make ordering observable.
		time.Sleep(time.Duration(n-int(b.ID)) * time.Millisecond)
		if b.ExternalID == "ext-5" {
			return nil, &SourceError{Code: "30", Message: "storage not found"}
		}
		return readings[b.ExternalID], nil
	}}

	summary := NewOrchestrator(&mockRegistry{branches: branches}, source, newMemStore(), newRunLogger(nil),
		WithConcurrency(4),
	).Run(context.Background())

	require.True(t, summary.Success)
	require.Len(t, summary.Results, n)
	assert.Equal(t, n, summary.BranchesSynced)

	sum := 0
	for i, r := range summary.Results {
		assert.Equal(t, branches[i].Name, r.Branch)
		if i == 5 {
			assert.Equal(t, BranchStatusError, r.Status)
			assert.Contains(t, r.Error, "storage not found")
			assert.Equal(t, 0, r.ProductsUpdated)
			continue
		}
		assert.Equal(t, BranchStatusSuccess, r.Status)
		assert.Equal(t, i%3+1, r.ProductsUpdated)
		sum += r.ProductsUpdated
	}
	assert.Equal(t, sum, summary.TotalUpdated)
}

func TestRun_Idempotent(t *testing.T) {
	registry := &mockRegistry{branches: []Branch{{ID: 7, Name: "A", ExternalID: "a"}}}
	source := &mockSource{readings: map[string][]StockReading{"a": {reading("p1", "10"), reading("p2", "0.25")}}}
	store := newMemStore()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	orch := NewOrchestrator(registry, source, store, newRunLogger(nil), WithClock(now))

	first := orch.Run(context.Background())
	firstSync := store.records[storeKey{"p1", 7}].LastSync
	second := orch.Run(context.Background())

	assert.Equal(t, first.TotalUpdated, second.TotalUpdated)
	assert.Len(t, store.records, 2)
	level, _ := store.level("p1", 7)
	assert.True(t, decimal.NewFromInt(10).Equal(level))
	level, _ = store.level("p2", 7)
	assert.True(t, decimal.RequireFromString("0.25").Equal(level))
	assert.True(t, store.records[storeKey{"p1", 7}].LastSync.After(firstSync))
}

func TestRun_UpsertFailures(t *testing.T) {
	registry := &mockRegistry{branches: []Branch{
		{ID: 1, Name: "partial", ExternalID: "a"},
		{ID: 2, Name: "total", ExternalID: "b"},
		{ID: 3, Name: "clean", ExternalID: "c"},
	}}
	source := &mockSource{readings: map[string][]StockReading{
		"a": {reading("ok-1", "1"), reading("bad", "2"), reading("ok-2", "3")},
		"b": {reading("bad", "1"), reading("worse", "1")},
		"c": {reading("ok-3", "1")},
	}}
	store := newMemStore()
	store.fail["bad"] = fmt.Errorf("%w: constraint violation", ErrUpsertFailure)
	store.fail["worse"] = fmt.Errorf("%w: lock wait timeout", ErrUpsertFailure)

	summary := NewOrchestrator(registry, source, store, newRunLogger(nil), WithConcurrency(1)).Run(context.Background())

	require.Len(t, summary.Results, 3)

	partial := summary.Results[0]
	assert.Equal(t, BranchStatusSuccess, partial.Status)
	assert.Equal(t, 2, partial.ProductsUpdated)
	assert.Equal(t, 1, partial.ProductsFailed)
	assert.Contains(t, partial.Error, "1 of 3 upserts failed")

	total := summary.Results[1]
	assert.Equal(t, BranchStatusError, total.Status)
	assert.Equal(t, 0, total.ProductsUpdated)
	assert.Equal(t, 2, total.ProductsFailed)
	assert.Contains(t, total.Error, "all 2 upserts failed")

	assert.Equal(t, BranchSyncResult{Branch: "clean", ProductsUpdated: 1, Status: BranchStatusSuccess}, summary.Results[2])
	assert.Equal(t, 3, summary.TotalUpdated)

	_, ok := store.level("ok-2", 1)
	assert.True(t, ok, "products after a failed upsert are still written")
}

func TestRun_FetchTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	registry := &mockRegistry{branches: []Branch{
		{ID: 1, Name: "stuck", ExternalID: "stuck"},
		{ID: 2, Name: "fine", ExternalID: "fine"},
	}}
	source := &mockSource{fetchFunc: func(ctx context.Context, b Branch) ([]StockReading, error) {
		if b.ExternalID == "stuck" {
			// Ignores ctx on purpose.
			<-release
			return nil, nil
		}
		return []StockReading{reading("p", "1")}, nil
	}}

	start := time.Now()
	summary := NewOrchestrator(registry, source, newMemStore(), newRunLogger(nil),
		WithFetchTimeout(50*time.Millisecond),
	).Run(context.Background())

	assert.Less(t, time.Since(start), 5*time.Second)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, BranchStatusError, summary.Results[0].Status)
	assert.Contains(t, summary.Results[0].Error, "timed out")
	assert.Contains(t, summary.Results[0].Error, ErrSourceUnavailable.Error())
	assert.Equal(t, BranchStatusSuccess, summary.Results[1].Status)
	assert.Equal(t, 1, summary.TotalUpdated)
}

func TestRun_ContextDeadlineWrappedAsUnavailable(t *testing.T) {
	registry := &mockRegistry{branches: []Branch{{ID: 1, Name: "slow", ExternalID: "slow"}}}
	source := &mockSource{fetchFunc: func(ctx context.Context, b Branch) ([]StockReading, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	summary := NewOrchestrator(registry, source, newMemStore(), newRunLogger(nil),
		WithFetchTimeout(20*time.Millisecond),
	).Run(context.Background())

	require.Len(t, summary.Results, 1)
	assert.Equal(t, BranchStatusError, summary.Results[0].Status)
	assert.Contains(t, summary.Results[0].Error, ErrSourceUnavailable.Error())
}

func TestRun_AuditWriteFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	registry := &mockRegistry{branches: []Branch{{ID: 1, Name: "A", ExternalID: "a"}}}
	source := &mockSource{readings: map[string][]StockReading{"a": {reading("p1", "1")}}}
	runs := newRunLogger(fmt.Errorf("%w: table sync_logs is read only", ErrAuditWriteFailure))

	orch := NewOrchestrator(registry, source, newMemStore(), runs, WithLogger(zap.New(core)))
	summary := orch.Run(context.Background())

	assert.True(t, summary.Success)
	assert.True(t, summary.AuditFailed)
	assert.Equal(t, 1, summary.TotalUpdated)
	assert.Equal(t, int64(1), orch.AuditFailures())

	failures := logs.FilterField(zap.Bool("audit_write_failed", true)).All()
	assert.Len(t, failures, 1)
}

func TestRun_AuditWriteFailureAfterFailedRun(t *testing.T) {
	registry := &mockRegistry{err: errors.New("db down")}
	runs := newRunLogger(errors.New("db still down"))

	orch := NewOrchestrator(registry, &mockSource{}, newMemStore(), runs)
	summary := orch.Run(context.Background())

	assert.False(t, summary.Success)
	assert.True(t, summary.AuditFailed)
	assert.Contains(t, summary.Message, "could not be recorded")
	assert.Contains(t, summary.Error, "db down")
	assert.Equal(t, int64(1), orch.AuditFailures())
}

func TestRun_PanicsAreContained(t *testing.T) {
	t.Run("SourcePanic", func(t *testing.T) {
		registry := &mockRegistry{branches: []Branch{
			{ID: 1, Name: "boom", ExternalID: "boom"},
			{ID: 2, Name: "ok", ExternalID: "ok"},
		}}
		source := &mockSource{fetchFunc: func(ctx context.Context, b Branch) ([]StockReading, error) {
			if b.ExternalID == "boom" {
				panic("nil map")
			}
			return []StockReading{reading("p", "2")}, nil
		}}

		summary := NewOrchestrator(registry, source, newMemStore(), newRunLogger(nil)).Run(context.Background())

		assert.True(t, summary.Success)
		require.Len(t, summary.Results, 2)
		assert.Equal(t, BranchStatusError, summary.Results[0].Status)
		assert.Contains(t, summary.Results[0].Error, "panicked")
		assert.Equal(t, BranchStatusSuccess, summary.Results[1].Status)
	})

	t.Run("RegistryPanic", func(t *testing.T) {
		registry := &mockRegistry{listFunc: func(ctx context.Context) ([]Branch, error) {
			panic("registry exploded")
		}}
		runs := newRunLogger(nil)

		summary := NewOrchestrator(registry, &mockSource{}, newMemStore(), runs).Run(context.Background())

		assert.False(t, summary.Success)
		assert.Contains(t, summary.Error, "registry exploded")
		require.Len(t, runs.runs, 1)
		assert.Equal(t, RunStatusFailed, runs.runs[0].Status)
	})
}

func TestRun_IgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	registry := &mockRegistry{branches: []Branch{{ID: 1, Name: "A", ExternalID: "a"}}}
	source := &mockSource{fetchFunc: func(ctx context.Context, b Branch) ([]StockReading, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []StockReading{reading("p", "1")}, nil
	}}

	summary := NewOrchestrator(registry, source, newMemStore(), newRunLogger(nil)).Run(ctx)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, BranchStatusSuccess, summary.Results[0].Status)
}

// panicStore panics for the listed products and defers to memStore otherwise.
type panicStore struct {
	*memStore
	panics map[string]bool
}

func (s *panicStore) Upsert(ctx context.Context, productID string, branchID uint, level decimal.Decimal, now time.Time) (*InventoryRecord, error) {
	if s.panics[productID] {
		panic("Cannot create a Decimal from +Inf")
	}
	return s.memStore.Upsert(ctx, productID, branchID, level, now)
}

// panicOn returns a logger that panics when msg is written.
func panicOn(msg string) *zap.Logger {
	core, _ := observer.New(zapcore.DebugLevel)
	return zap.New(core, zap.Hooks(func(e zapcore.Entry) error {
		if e.Message == msg {
			panic("logger exploded")
		}
		return nil
	}))
}

func TestRun_StorePanicFailsOnlyThatProduct(t *testing.T) {
	registry := &mockRegistry{branches: []Branch{{ID: 1, Name: "A", ExternalID: "a"}}}
	source := &mockSource{readings: map[string][]StockReading{
		"a": {reading("p1", "1"), reading("p2", "3")},
	}}
	store := &panicStore{memStore: newMemStore(), panics: map[string]bool{"p1": true}}

	orch := NewOrchestrator(registry, source, store, newRunLogger(nil))
	for i := 0; i < 2; i++ {
		summary := orch.Run(context.Background())

		require.True(t, summary.Success)
		require.Len(t, summary.Results, 1)
		res := summary.Results[0]
		assert.Equal(t, BranchStatusSuccess, res.Status)
		assert.Equal(t, 1, res.ProductsUpdated)
		assert.Equal(t, 1, res.ProductsFailed)
		assert.Contains(t, res.Error, "1 of 2 upserts failed")
		assert.Contains(t, res.Error, "+Inf")
	}

	lvl, ok := store.level("p2", 1)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(3).Equal(lvl))
	_, ok = store.level("p1", 1)
	assert.False(t, ok)
}

func TestRun_BranchPanicKeepsCounts(t *testing.T) {
	registry := &mockRegistry{branches: []Branch{{ID: 1, Name: "A", ExternalID: "a"}}}
	source := &mockSource{readings: map[string][]StockReading{
		"a": {reading("p1", "1"), reading("p2", "3")},
	}}
	store := newMemStore()
	store.fail["p1"] = ErrUpsertFailure

	summary := NewOrchestrator(registry, source, store, newRunLogger(nil), WithLogger(panicOn("Branch synced"))).
		Run(context.Background())

	require.Len(t, summary.Results, 1)
	res := summary.Results[0]
	assert.Equal(t, BranchStatusError, res.Status)
	assert.Contains(t, res.Error, "branch sync panicked")
	assert.Equal(t, 1, res.ProductsUpdated)
	assert.Equal(t, 1, res.ProductsFailed)
}

func TestRun_LatePanicDoesNotRecordTwice(t *testing.T) {
	registry := &mockRegistry{branches: []Branch{{ID: 1, Name: "A", ExternalID: "a"}}}
	source := &mockSource{readings: map[string][]StockReading{"a": {reading("p1", "1")}}}
	runs := newRunLogger(nil)

	summary := NewOrchestrator(registry, source, newMemStore(), runs, WithLogger(panicOn("Inventory sync completed"))).
		Run(context.Background())

	assert.False(t, summary.Success)
	assert.Contains(t, summary.Error, "logger exploded")
	assert.False(t, summary.AuditFailed)
	runs.AssertNumberOfCalls(t, "RecordRun", 1)
	require.Len(t, runs.runs, 1)
	assert.Equal(t, RunStatusCompleted, runs.runs[0].Status)
}
