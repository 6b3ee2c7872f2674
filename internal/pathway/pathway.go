// Package pathway implements multi-hop pathway analysis over the drug
// intelligence graph: bounded-depth enumeration of drug-target-disease paths,
// relevance ranking, and assembly of the final deduplicated result set.
//
// The engine is storage-agnostic: it only consumes the graph.Accessor
// lookups, so it runs identically against Neo4j and the in-memory graph.
package pathway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/athena-graph/athena/internal/graph"
	"github.com/athena-graph/athena/pkg/logger"
)

// ScoreMode selects the relevance function applied to discovered paths.
type ScoreMode string

const (
	// ScoreWeightedProduct ranks by the product of edge weights.
	ScoreWeightedProduct ScoreMode = "weighted-product"
	// ScoreShortestFirst divides the weight product by the hop count,
	// penalizing longer chains.
	ScoreShortestFirst ScoreMode = "shortest-first"
	// ScoreUnweightedCount ignores weights entirely; ordering falls to the
	// deterministic tie-breakers (shorter first, then lexical).
	ScoreUnweightedCount ScoreMode = "unweighted-count"
)

// ParseScoreMode validates a mode string, defaulting to weighted-product
// when empty.
func ParseScoreMode(s string) (ScoreMode, error) {
	switch ScoreMode(s) {
	case "":
		return ScoreWeightedProduct, nil
	case ScoreWeightedProduct, ScoreShortestFirst, ScoreUnweightedCount:
		return ScoreMode(s), nil
	}
	return "", fmt.Errorf("%w: unknown scoring mode %q", ErrInvalidRequest, s)
}

// Request describes one traversal. Zero values for MaxHops, Mode and Limit
// take the engine defaults.
type Request struct {
	Sources        []string
	TargetLabel    string
	MaxHops        int
	RelTypes       []string
	Mode           ScoreMode
	Limit          int
	IncludeZeroHop bool
}

// Path is an ordered alternation of nodes and edges. len(Nodes) is always
// len(Edges)+1; no node id repeats.
type Path struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// Length is the number of hops.
func (p Path) Length() int { return len(p.Edges) }

// Key is the ordered node-id sequence, used for deduplication and lexical
// tie-breaking. The separator cannot appear in ids.
func (p Path) Key() string {
	ids := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	return strings.Join(ids, "\x1f")
}

// RankedPath annotates a path with its relevance score.
type RankedPath struct {
	Path
	Score float64 `json:"score"`
}

// Result is the ordered outcome of one traversal: paths sorted by descending
// score, ties broken by shorter length then lexical node-id order.
type Result struct {
	Paths []RankedPath
}

// Config bounds engine behavior.
type Config struct {
	DefaultMaxHops int           // applied when Request.MaxHops is zero
	HardMaxHops    int           // requests beyond this are invalid
	DefaultLimit   int           // applied when Request.Limit is zero
	Timeout        time.Duration // wall-clock cap per traversal
	RetryBackoff   time.Duration // pause before the single accessor retry
}

// Engine runs traversal requests. It holds no per-request state; concurrent
// Traverse calls are independent.
type Engine struct {
	accessor graph.Accessor
	cfg      Config
	logger   *logger.Logger
}

// NewEngine creates a pathway engine over the given accessor.
func NewEngine(accessor graph.Accessor, cfg Config, log *logger.Logger) *Engine {
	if cfg.DefaultMaxHops == 0 {
		cfg.DefaultMaxHops = 4
	}
	if cfg.HardMaxHops == 0 {
		cfg.HardMaxHops = 8
	}
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if log == nil {
		log = logger.New("info", false)
	}
	return &Engine{accessor: accessor, cfg: cfg, logger: log}
}

// Traverse executes one traversal request start to finish. It either returns
// a complete ranked result or exactly one error from the package taxonomy;
// no partial results are ever returned.
func (e *Engine) Traverse(ctx context.Context, req Request) (*Result, error) {
	req, err := e.normalize(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	// Resolve every source up front: a missing id fails the whole request
	// before any traversal work happens.
	sources := make([]graph.Node, len(req.Sources))
	for i, id := range req.Sources {
		node, err := e.getNodeWithRetry(ctx, id)
		if err != nil {
			return nil, err
		}
		sources[i] = node
	}

	start := time.Now()

	// Each source's sub-traversal is independent; explore them in parallel
	// and merge afterwards so parallelism cannot affect ordering.
	perSource := make([][]Path, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			enum := newEnumerator(e, req)
			paths, err := enum.enumerate(gctx, src)
			if err != nil {
				return err
			}
			perSource[i] = paths
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, e.classify(ctx, err)
	}

	ranker := newRanker(req.Mode)
	var ranked []RankedPath
	for _, paths := range perSource {
		for _, p := range paths {
			if score, ok := ranker.Score(p); ok {
				ranked = append(ranked, RankedPath{Path: p, Score: score})
			}
		}
	}

	result := assemble(ranked, req.Limit)

	e.logger.Debug("traversal complete",
		"sources", len(req.Sources),
		"target_label", req.TargetLabel,
		"max_hops", req.MaxHops,
		"paths", len(result.Paths),
		"elapsed", time.Since(start),
	)

	return result, nil
}

func (e *Engine) normalize(ctx context.Context, req Request) (Request, error) {
	if len(req.Sources) == 0 {
		return req, fmt.Errorf("%w: at least one source node is required", ErrInvalidRequest)
	}
	if req.TargetLabel == "" {
		return req, fmt.Errorf("%w: target label is required", ErrInvalidRequest)
	}

	if req.MaxHops == 0 {
		req.MaxHops = e.cfg.DefaultMaxHops
	}
	if req.MaxHops < 1 || req.MaxHops > e.cfg.HardMaxHops {
		return req, fmt.Errorf("%w: maxHops must be between 1 and %d, got %d",
			ErrInvalidRequest, e.cfg.HardMaxHops, req.MaxHops)
	}

	if req.Mode == "" {
		req.Mode = ScoreWeightedProduct
	} else if _, err := ParseScoreMode(string(req.Mode)); err != nil {
		return req, err
	}

	if req.Limit == 0 {
		req.Limit = e.cfg.DefaultLimit
	}
	if req.Limit < 1 {
		return req, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidRequest, req.Limit)
	}

	if len(req.RelTypes) > 0 {
		known, err := e.accessor.RelationshipTypes(ctx)
		if err != nil {
			return req, fmt.Errorf("%w: %v", ErrAccessorFailure, err)
		}
		knownSet := make(map[string]struct{}, len(known))
		for _, t := range known {
			knownSet[t] = struct{}{}
		}
		for _, t := range req.RelTypes {
			if _, ok := knownSet[t]; !ok {
				return req, fmt.Errorf("%w: unknown relationship type %q", ErrInvalidRequest, t)
			}
		}
	}

	return req, nil
}

// getNodeWithRetry resolves a node, retrying transient accessor failures once
// after a backoff. NotFound is terminal and never retried.
func (e *Engine) getNodeWithRetry(ctx context.Context, id string) (graph.Node, error) {
	node, err := e.accessor.GetNode(ctx, id)
	if err == nil {
		return node, nil
	}

	var nf *graph.NotFoundError
	if errors.As(err, &nf) {
		return graph.Node{}, fmt.Errorf("%w: %q", ErrNotFound, nf.ID)
	}
	if ctxErr := e.classify(ctx, err); errors.Is(ctxErr, ErrTimeout) {
		return graph.Node{}, ctxErr
	}

	e.logger.Warn("node lookup failed, retrying", "id", id, "error", err)
	if err := sleepCtx(ctx, e.cfg.RetryBackoff); err != nil {
		return graph.Node{}, e.classify(ctx, err)
	}

	node, err = e.accessor.GetNode(ctx, id)
	if err == nil {
		return node, nil
	}
	if errors.As(err, &nf) {
		return graph.Node{}, fmt.Errorf("%w: %q", ErrNotFound, nf.ID)
	}
	return graph.Node{}, fmt.Errorf("%w: %v", ErrAccessorFailure, e.classifyBare(ctx, err))
}

// neighborsWithRetry performs a neighbor lookup with the same single-retry
// policy as getNodeWithRetry.
func (e *Engine) neighborsWithRetry(ctx context.Context, id string, relTypes []string) ([]graph.Neighbor, error) {
	neighbors, err := e.accessor.Neighbors(ctx, id, relTypes)
	if err == nil {
		return neighbors, nil
	}
	if ctxErr := e.classify(ctx, err); errors.Is(ctxErr, ErrTimeout) {
		return nil, ctxErr
	}

	e.logger.Warn("neighbor lookup failed, retrying", "id", id, "error", err)
	if err := sleepCtx(ctx, e.cfg.RetryBackoff); err != nil {
		return nil, e.classify(ctx, err)
	}

	neighbors, err = e.accessor.Neighbors(ctx, id, relTypes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccessorFailure, e.classifyBare(ctx, err))
	}
	return neighbors, nil
}

// classify maps context expiry onto the taxonomy; other errors pass through
// unchanged (they are already wrapped where they arise).
func (e *Engine) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: wall-clock cap of %s exceeded", ErrTimeout, e.cfg.Timeout)
	}
	return err
}

// classifyBare is classify without re-wrapping, for embedding in an
// AccessorFailure message.
func (e *Engine) classifyBare(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// sortRanked orders paths by descending score, then ascending length, then
// lexical node-id sequence. The order is total, so identical requests always
// produce identical output.
func sortRanked(paths []RankedPath) {
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Score != paths[j].Score {
			return paths[i].Score > paths[j].Score
		}
		if paths[i].Length() != paths[j].Length() {
			return paths[i].Length() < paths[j].Length()
		}
		return paths[i].Key() < paths[j].Key()
	})
}
