// Package integrity implements the referential-integrity pre-check for
// deletes: a single batched existence query over the dependency graph, with
// a short-TTL cache in front of it. The database's own FK constraints stay
// the final authority; this guard exists so callers can refuse (and explain)
// a doomed delete before issuing it.
package integrity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"herdapi/internal/cache"
	"herdapi/internal/db"
	"herdapi/internal/logger"
	"herdapi/internal/resource"

	"github.com/Masterminds/squirrel"
)

// CountHintAtLeastOne is the only count granularity the batched check
// produces: the EXISTS probe stops at the first dependent row.
const CountHintAtLeastOne = "at_least_one"

// BlockedEdge names one child resource currently holding rows that
// reference the checked id.
type BlockedEdge struct {
	Child     string `json:"child_resource"`
	CountHint string `json:"count_hint"`
}

// Report is the integrity verdict for one (resource, id) pair.
type Report struct {
	Blocked       bool          `json:"blocked"`
	BlockingEdges []BlockedEdge `json:"blocking_edges"`
}

// BlockedError is returned to delete callers when the report blocks.
type BlockedError struct {
	Resource string
	ID       int64
	Report   *Report
}

func (e *BlockedError) Error() string {
	children := make([]string, 0, len(e.Report.BlockingEdges))
	for _, edge := range e.Report.BlockingEdges {
		children = append(children, edge.Child)
	}
	return fmt.Sprintf("%s/%d is referenced by: %v", e.Resource, e.ID, children)
}

type Guard struct {
	q     db.Querier
	graph *resource.Graph
	store cache.Store
	ttl   time.Duration
}

func NewGuard(q db.Querier, graph *resource.Graph, store cache.Store, ttl time.Duration) *Guard {
	return &Guard{q: q, graph: graph, store: store, ttl: ttl}
}

func cacheKey(res string, id int64) string {
	return fmt.Sprintf("guard:%s:%d", res, id)
}

// Check returns the full report for (res, id), served from cache within the
// TTL window. A store failure during the probe surfaces as an error, never
// as "not blocked".
func (g *Guard) Check(ctx context.Context, res string, id int64) (*Report, error) {
	edges := g.graph.DependentsOf(res)
	if len(edges) == 0 {
		return &Report{Blocked: false, BlockingEdges: []BlockedEdge{}}, nil
	}

	raw, err := g.store.GetOrCompute(ctx, cacheKey(res, id), g.ttl, func(ctx context.Context) ([]byte, error) {
		report, err := g.checkNow(ctx, edges, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(report)
	})
	if err != nil {
		return nil, err
	}

	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("guard cache entry for %s/%d: %w", res, id, err)
	}
	return &report, nil
}

// Blocked is the yes/no variant for callers that do not need the edge list.
func (g *Guard) Blocked(ctx context.Context, res string, id int64) (bool, error) {
	report, err := g.Check(ctx, res, id)
	if err != nil {
		return false, err
	}
	return report.Blocked, nil
}

// checkNow issues the batched probe: one SELECT with a per-edge
// EXISTS(SELECT 1 ...) column, a single round trip however many edges the
// resource has. Self-edges probe one hop only; the child table may be the
// parent's own.
func (g *Guard) checkNow(ctx context.Context, edges []resource.Edge, id int64) (*Report, error) {
	sb := squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar)
	for _, edge := range edges {
		sb = sb.Column(squirrel.Expr(
			fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s = ? LIMIT 1)", edge.Table, edge.Column),
			id,
		))
	}

	sqlStr, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}
	logger.Debug("guard_sql", logger.Fields{"sql": sqlStr, "args": args})

	flags := make([]bool, len(edges))
	dest := make([]any, len(edges))
	for i := range flags {
		dest[i] = &flags[i]
	}
	if err := g.q.QueryRow(ctx, sqlStr, args...).Scan(dest...); err != nil {
		return nil, fmt.Errorf("integrity check: %w", err)
	}

	report := &Report{BlockingEdges: []BlockedEdge{}}
	for i, blocked := range flags {
		if !blocked {
			continue
		}
		report.Blocked = true
		report.BlockingEdges = append(report.BlockingEdges, BlockedEdge{
			Child:     edges[i].Child,
			CountHint: CountHintAtLeastOne,
		})
	}
	return report, nil
}

// InvalidateForWrite drops the cache entries a write makes stale: the
// written row itself, and every parent row it references through a
// dependency edge. Row values come from the written payload (FK columns).
func (g *Guard) InvalidateForWrite(ctx context.Context, res string, id int64, row map[string]any) {
	keys := []string{cacheKey(res, id)}
	for _, edge := range g.graph.EdgesFrom(res) {
		parentID, ok := asInt64(row[edge.Field])
		if !ok {
			continue
		}
		keys = append(keys, cacheKey(edge.Parent, parentID))
	}
	if err := g.store.Invalidate(ctx, keys...); err != nil {
		logger.Warn("guard_invalidate_failed", logger.Fields{
			"resource": res,
			"id":       id,
			"error":    err.Error(),
		})
	}
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	}
	return 0, false
}
