package integrity

import (
	"context"
	"strings"
	"testing"
	"time"

	"herdapi/internal/cache"
	"herdapi/internal/resource"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB counts round trips and answers the batched existence probe with
// canned per-edge flags.
type fakeDB struct {
	calls   int
	lastSQL string
	flags   []bool
	err     error
}

type fakeRow struct {
	flags []bool
	err   error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		if i < len(r.flags) {
			*(d.(*bool)) = r.flags[i]
		}
	}
	return nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.calls++
	f.lastSQL = sql
	return &fakeRow{flags: f.flags, err: f.err}
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("guard must not use Query")
}

func (f *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("guard must not use Exec")
}

func animalsGraph() *resource.Graph {
	g := resource.NewGraph()
	g.Add(resource.Edge{Parent: "animals", Child: "treatments", Table: "treatments", Field: "animal_id", Column: "animal_id"})
	g.Add(resource.Edge{Parent: "animals", Child: "vaccinations", Table: "vaccinations", Field: "animal_id", Column: "animal_id"})
	g.Add(resource.Edge{Parent: "animals", Child: "animals", Table: "animals", Field: "mother_id", Column: "mother_id", Nullable: true})
	g.Add(resource.Edge{Parent: "animals", Child: "animals", Table: "animals", Field: "father_id", Column: "father_id", Nullable: true})
	return g
}

func newTestGuard(fdb *fakeDB, ttl time.Duration) *Guard {
	return NewGuard(fdb, animalsGraph(), cache.NewMemory(), ttl)
}

func TestCheckSingleRoundTripForAllEdges(t *testing.T) {
	fdb := &fakeDB{flags: []bool{false, false, false, false}}
	g := newTestGuard(fdb, time.Minute)

	report, err := g.Check(context.Background(), "animals", 7)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.Blocked {
		t.Fatalf("expected unblocked, got %+v", report)
	}
	if fdb.calls != 1 {
		t.Fatalf("expected exactly one round trip for 4 edges, got %d", fdb.calls)
	}
	if n := strings.Count(fdb.lastSQL, "EXISTS (SELECT 1 FROM"); n != 4 {
		t.Fatalf("expected 4 EXISTS probes in one statement, got %d: %s", n, fdb.lastSQL)
	}
}

func TestCheckSelfEdgeProbesOneHopOnly(t *testing.T) {
	fdb := &fakeDB{flags: []bool{false, false, true, false}}
	g := newTestGuard(fdb, time.Minute)

	report, err := g.Check(context.Background(), "animals", 7)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.Blocked {
		t.Fatal("expected self edge to block")
	}
	if fdb.calls != 1 {
		t.Fatalf("self edge must not recurse, got %d calls", fdb.calls)
	}
	if !strings.Contains(fdb.lastSQL, "FROM animals WHERE mother_id") {
		t.Fatalf("expected self-edge probe, got: %s", fdb.lastSQL)
	}
}

func TestCheckReportsAllBlockingEdgesInOrder(t *testing.T) {
	fdb := &fakeDB{flags: []bool{true, false, true, false}}
	g := newTestGuard(fdb, time.Minute)

	report, err := g.Check(context.Background(), "animals", 7)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	want := &Report{
		Blocked: true,
		BlockingEdges: []BlockedEdge{
			{Child: "treatments", CountHint: CountHintAtLeastOne},
			{Child: "animals", CountHint: CountHintAtLeastOne},
		},
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckNoEdgesNeverHitsStore(t *testing.T) {
	fdb := &fakeDB{}
	g := newTestGuard(fdb, time.Minute)

	report, err := g.Check(context.Background(), "breeds", 1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.Blocked || fdb.calls != 0 {
		t.Fatalf("leaf resource must be trivially deletable: %+v, calls=%d", report, fdb.calls)
	}
}

func TestCheckStoreErrorSurfacesNeverFalseNegative(t *testing.T) {
	fdb := &fakeDB{err: context.DeadlineExceeded}
	g := newTestGuard(fdb, time.Minute)

	_, err := g.Check(context.Background(), "animals", 7)
	if err == nil {
		t.Fatal("a failed probe must surface as an error, not as blocked=false")
	}
}

func TestCheckCachedWithinTTL(t *testing.T) {
	fdb := &fakeDB{flags: []bool{true, false, false, false}}
	g := newTestGuard(fdb, time.Minute)
	ctx := context.Background()

	first, err := g.Check(ctx, "animals", 7)
	if err != nil {
		t.Fatalf("first Check: %v", err)
	}
	second, err := g.Check(ctx, "animals", 7)
	if err != nil {
		t.Fatalf("second Check: %v", err)
	}

	if fdb.calls != 1 {
		t.Fatalf("second check within TTL must come from cache, got %d calls", fdb.calls)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cached report must be identical (-first +second):\n%s", diff)
	}
}

func TestCheckRecomputesAfterTTL(t *testing.T) {
	fdb := &fakeDB{flags: []bool{false, false, false, false}}
	g := newTestGuard(fdb, 10*time.Millisecond)
	ctx := context.Background()

	if _, err := g.Check(ctx, "animals", 7); err != nil {
		t.Fatalf("Check: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, err := g.Check(ctx, "animals", 7); err != nil {
		t.Fatalf("Check: %v", err)
	}

	if fdb.calls != 2 {
		t.Fatalf("expected recompute after TTL, got %d calls", fdb.calls)
	}
}

func TestInvalidateForWriteDropsParentEntry(t *testing.T) {
	fdb := &fakeDB{flags: []bool{false, false, false, false}}
	g := newTestGuard(fdb, time.Minute)
	ctx := context.Background()

	if _, err := g.Check(ctx, "animals", 7); err != nil {
		t.Fatalf("Check: %v", err)
	}

	// a treatment row appears for animal 7; its write invalidates the parent
	fdb.flags = []bool{true, false, false, false}
	g.InvalidateForWrite(ctx, "treatments", 100, map[string]any{"animal_id": int64(7)})

	report, err := g.Check(ctx, "animals", 7)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.Blocked {
		t.Fatal("check after dependent write must not serve the stale verdict")
	}
	if fdb.calls != 2 {
		t.Fatalf("expected recompute after invalidation, got %d calls", fdb.calls)
	}
}

func TestCheckEndToEndScenario(t *testing.T) {
	// animals with a single dependent edge from treatments.animal_id
	graph := resource.NewGraph()
	graph.Add(resource.Edge{Parent: "animals", Child: "treatments", Table: "treatments", Field: "animal_id", Column: "animal_id"})
	fdb := &fakeDB{flags: []bool{false}}
	g := NewGuard(fdb, graph, cache.NewMemory(), time.Minute)
	ctx := context.Background()

	report, err := g.Check(ctx, "animals", 7)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.Blocked {
		t.Fatal("no treatments yet, animal 7 must be deletable")
	}

	// one treatment row with animal_id=7 inserted
	fdb.flags = []bool{true}
	g.InvalidateForWrite(ctx, "treatments", 1, map[string]any{"animal_id": int64(7)})

	report, err = g.Check(ctx, "animals", 7)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	want := &Report{Blocked: true, BlockingEdges: []BlockedEdge{{Child: "treatments", CountHint: CountHintAtLeastOne}}}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}

	// the treatment row deleted again
	fdb.flags = []bool{false}
	g.InvalidateForWrite(ctx, "treatments", 1, map[string]any{"animal_id": int64(7)})

	report, err = g.Check(ctx, "animals", 7)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.Blocked {
		t.Fatal("after removing the dependent row the animal must be deletable again")
	}
}

func TestBlockedHelper(t *testing.T) {
	fdb := &fakeDB{flags: []bool{false, true, false, false}}
	g := newTestGuard(fdb, time.Minute)

	blocked, err := g.Blocked(context.Background(), "animals", 7)
	if err != nil {
		t.Fatalf("Blocked: %v", err)
	}
	if !blocked {
		t.Fatal("expected blocked=true")
	}
}

func TestBlockedErrorNamesChildren(t *testing.T) {
	err := &BlockedError{
		Resource: "animals",
		ID:       7,
		Report: &Report{Blocked: true, BlockingEdges: []BlockedEdge{
			{Child: "treatments", CountHint: CountHintAtLeastOne},
		}},
	}
	if !strings.Contains(err.Error(), "treatments") {
		t.Fatalf("error must name blocking children: %s", err.Error())
	}
}
