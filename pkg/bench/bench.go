// Package bench generates join workloads and times them. It backs the bench
// command and is the harness used to tune the galloping threshold.
package bench

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/s1dharth-s/qlever/pkg/execution"
	"github.com/s1dharth-s/qlever/pkg/execution/join"
	"github.com/s1dharth-s/qlever/pkg/execution/scanner"
	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/logging"
	"github.com/s1dharth-s/qlever/pkg/memory"
	"github.com/s1dharth-s/qlever/pkg/types"
	"github.com/s1dharth-s/qlever/pkg/vocab"
)

// Options controls the size and shape of the generated inputs.
type Options struct {
	Rows        int    // rows of the larger input
	Distinct    int    // distinct join keys; 0 means Rows/4
	Seed        uint64 // seed of the random generator
	Concurrency int    // queries in the concurrent batch
}

// DefaultOptions returns a workload that finishes in well under a second.
func DefaultOptions() Options {
	return Options{Rows: 100_000, Seed: 1, Concurrency: 4}
}

func (o Options) validate() error {
	if o.Rows <= 0 {
		return errors.Newf("rows must be positive, got %d", o.Rows)
	}
	if o.Distinct < 0 {
		return errors.Newf("distinct must not be negative, got %d", o.Distinct)
	}
	if o.Concurrency <= 0 {
		return errors.Newf("concurrency must be positive, got %d", o.Concurrency)
	}
	return nil
}

func (o Options) distinct() int64 {
	if o.Distinct > 0 {
		return int64(o.Distinct)
	}
	return int64(max(1, o.Rows/4))
}

// Run is the measurement of one join. MemoryInUse is read from the shared
// limit while the join result and its inputs are still held.
type Run struct {
	Name        string
	Algorithm   join.Algorithm
	Expected    join.Algorithm
	Rows        int
	Estimate    uint64
	Elapsed     time.Duration
	MemoryInUse memory.Size
}

// Scenario builds the join tree of one workload.
type Scenario struct {
	Name     string
	Expected join.Algorithm
	build    func(g *generator) (*execution.Tree, error)
}

// Scenarios returns one workload per join path, in the order the join
// operation considers them.
func Scenarios() []Scenario {
	return []Scenario{
		{Name: "two scans", Expected: join.AlgorithmTwoScans, build: (*generator).twoScans},
		{Name: "scan and table", Expected: join.AlgorithmScanAndTable, build: (*generator).scanAndTable},
		{Name: "merge", Expected: join.AlgorithmMerge, build: (*generator).merge},
		{Name: "gallop", Expected: join.AlgorithmGallop, build: (*generator).gallop},
		{Name: "hash", Expected: join.AlgorithmHash, build: (*generator).hash},
	}
}

// RunAll runs every scenario once, one after the other.
func RunAll(ctx context.Context, qec *execution.Context, opts Options) ([]Run, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	g := newGenerator(opts, qec, opts.Seed)
	runs := make([]Run, 0, len(Scenarios()))
	for _, s := range Scenarios() {
		r, err := runScenario(ctx, qec, g, s)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, nil
}

// RunBatch runs opts.Concurrency joins at the same time. The joins cycle
// through the scenarios and all of them charge the memory limit of qec.
func RunBatch(ctx context.Context, qec *execution.Context, opts Options) ([]Run, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	scenarios := Scenarios()
	runs := make([]Run, opts.Concurrency)

	eg, ctx := errgroup.WithContext(ctx)
	for i := range runs {
		s := scenarios[i%len(scenarios)]
		g := newGenerator(opts, qec, opts.Seed+uint64(i))
		eg.Go(func() error {
			r, err := runScenario(ctx, qec, g, s)
			if err != nil {
				return err
			}
			r.Name = fmt.Sprintf("batch #%d %s", i, s.Name)
			runs[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

func runScenario(ctx context.Context, qec *execution.Context, g *generator, s Scenario) (Run, error) {
	defer g.release()
	tree, err := s.build(g)
	if err != nil {
		return Run{}, errors.Wrapf(err, "building %s", s.Name)
	}
	defer releaseTree(tree)

	j := tree.Operation().(*join.Join)
	start := time.Now()
	res, err := tree.Result(ctx, qec)
	if err != nil {
		return Run{}, errors.Wrapf(err, "running %s", s.Name)
	}
	elapsed := time.Since(start)

	logging.WithComponent("bench").Debug("scenario finished",
		"scenario", s.Name, "algorithm", j.LastAlgorithm().String(), "rows", res.Table.NumRows())
	return Run{
		Name:        s.Name,
		Algorithm:   j.LastAlgorithm(),
		Expected:    s.Expected,
		Rows:        res.Table.NumRows(),
		Estimate:    j.SizeEstimate(),
		Elapsed:     elapsed,
		MemoryInUse: qec.Limit.InUse(),
	}, nil
}

// releaseTree releases the cached results of tree and all its descendants.
func releaseTree(tree *execution.Tree) {
	for _, child := range tree.Operation().Children() {
		releaseTree(child)
	}
	tree.Release()
}

// generator produces random two-column inputs joined on column 0. The second
// column of materialized inputs holds literals interned into a local
// vocabulary that charges the query's memory limit.
type generator struct {
	opts      Options
	threshold int
	rng       *rand.Rand
	limit     *memory.Limit
	vocabs    []*vocab.LocalVocab
}

func newGenerator(opts Options, qec *execution.Context, seed uint64) *generator {
	return &generator{
		opts:      opts,
		threshold: qec.Config.Join.GallopThreshold,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		limit:     qec.Limit,
	}
}

// release drops the vocabularies of the inputs built so far.
func (g *generator) release() {
	for _, lv := range g.vocabs {
		lv.Release()
	}
	g.vocabs = nil
}

func (g *generator) key() types.Id { return types.MakeFromInt(g.rng.Int64N(g.opts.distinct())) }

// intTable is the input of an index scan: keys and integer payloads.
func (g *generator) intTable(rows int) *idtable.IdTable {
	t := idtable.New(2)
	t.Reserve(rows)
	for i := 0; i < rows; i++ {
		t.AppendRow(g.key(), types.MakeFromInt(g.rng.Int64N(1<<40)))
	}
	return t
}

// literalTable pairs random keys with literal payloads.
func (g *generator) literalTable(rows int) (*idtable.IdTable, *vocab.LocalVocab, error) {
	lv := vocab.New(g.limit)
	g.vocabs = append(g.vocabs, lv)

	t := idtable.New(2)
	t.Reserve(rows)
	for i := 0; i < rows; i++ {
		word := vocab.NewLiteral(fmt.Sprintf("value %d", g.rng.Int64N(g.opts.distinct())))
		idx, err := lv.InternOrReuse(word)
		if err != nil {
			return nil, nil, err
		}
		t.AppendRow(g.key(), types.MakeFromLocalVocabIndex(idx))
	}
	return t, lv, nil
}

func (g *generator) sorted(rows int, vars ...execution.Variable) (*execution.Tree, error) {
	t, lv, err := g.literalTable(rows)
	if err != nil {
		return nil, err
	}
	t.SortByColumn(0)
	op, err := execution.NewValues(vars, t, lv)
	if err != nil {
		return nil, err
	}
	return execution.NewTree(op), nil
}

// unsorted is an input that declares no order, whatever its rows look like.
func (g *generator) unsorted(rows int, vars ...execution.Variable) (*execution.Tree, error) {
	t, lv, err := g.literalTable(rows)
	if err != nil {
		return nil, err
	}
	op, err := execution.NewValues(vars, t, lv)
	if err != nil {
		return nil, err
	}
	return execution.NewTree(unordered{op}), nil
}

func (g *generator) scan(name string, rows int, vars ...execution.Variable) (*execution.Tree, error) {
	ix := scanner.NewIndex(name, 2)
	if err := ix.Insert(g.intTable(rows).Rows()...); err != nil {
		return nil, err
	}
	op, err := scanner.NewIndexScan(ix, vars...)
	if err != nil {
		return nil, err
	}
	return execution.NewTree(op), nil
}
func joined(left, right *execution.Tree, err error) (*execution.Tree, error) {
	if err != nil {
		return nil, err
	}
	j, err := join.New(left, right, 0, 0)
	if err != nil {
		return nil, err
	}
	return execution.NewTree(j), nil
}

func (g *generator) twoScans() (*execution.Tree, error) {
	left, err := g.scan("left", g.opts.Rows, "?x", "?a")
	if err != nil {
		return nil, err
	}
	right, err := g.scan("right", g.opts.Rows, "?x", "?b")
	return joined(left, right, err)
}

func (g *generator) scanAndTable() (*execution.Tree, error) {
	left, err := g.scan("left", g.opts.Rows, "?x", "?a")
	if err != nil {
		return nil, err
	}
	right, err := g.unsorted(g.opts.Rows, "?x", "?b")
	return joined(left, right, err)
}

func (g *generator) merge() (*execution.Tree, error) {
	left, err := g.sorted(g.opts.Rows, "?x", "?a")
	if err != nil {
		return nil, err
	}
	right, err := g.sorted(g.opts.Rows, "?x", "?b")
	return joined(left, right, err)
}

// gallop pairs the large input with one that is more than threshold times
// smaller.
func (g *generator) gallop() (*execution.Tree, error) {
	small := max(1, g.opts.Rows/(2*max(1, g.threshold)))
	large := max(g.opts.Rows, small*(g.threshold+1))
	left, err := g.sorted(small, "?x", "?a")
	if err != nil {
		return nil, err
	}
	right, err := g.sorted(large, "?x", "?b")
	return joined(left, right, err)
}

func (g *generator) hash() (*execution.Tree, error) {
	left, err := g.unsorted(g.opts.Rows, "?x", "?a")
	if err != nil {
		return nil, err
	}
	right, err := g.unsorted(g.opts.Rows/2+1, "?x", "?b")
	return joined(left, right, err)
}

// unordered hides the order of an operation's rows so that the join has to
// treat it as unsorted.
type unordered struct {
	*execution.Values
}

func (u unordered) Descriptor() string    { return "Unordered " + u.Values.Descriptor() }
func (u unordered) CacheKey() string      { return "UNORDERED " + u.Values.CacheKey() }
func (u unordered) ResultSortedOn() []int { return nil }

func (u unordered) ComputeResult(ctx context.Context, qec *execution.Context) (*execution.Result, error) {
	res, err := u.Values.ComputeResult(ctx, qec)
	if err != nil {
		return nil, err
	}
	return &execution.Result{Table: res.Table, Vocab: res.Vocab}, nil
}
