package join

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s1dharth-s/qlever/pkg/dberror"
	"github.com/s1dharth-s/qlever/pkg/execution"
	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/types"
	"github.com/s1dharth-s/qlever/pkg/vocab"
)

type pathCase struct {
	name        string
	left, right childMaker
	gallop      bool
	want        Algorithm
}

func pathCases() []pathCase {
	return []pathCase{
		{"merge", sortedValues, sortedValues, false, AlgorithmMerge},
		{"gallop", sortedValues, sortedValues, true, AlgorithmGallop},
		{"hash", unsortedChild, unsortedChild, false, AlgorithmHash},
		{"hash with one sorted side", sortedValues, unsortedChild, false, AlgorithmHash},
		{"scan left", indexScan, unsortedChild, false, AlgorithmScanAndTable},
		{"scan right", sortedValues, indexScan, false, AlgorithmScanAndTable},
		{"two scans", indexScan, indexScan, false, AlgorithmTwoScans},
	}
}

func contextFor(pc pathCase) *execution.Context {
	qec := execution.DefaultContext()
	if pc.gallop {
		// Any size ratio gallops.
		qec.Config.Join.GallopThreshold = 0
	}
	return qec
}

func TestExampleJoinOnEveryPath(t *testing.T) {
	const x, y, z, p, q = 100, 101, 102, 103, 104
	a := idtable.FromInts(2, []int64{1, x}, []int64{1, y}, []int64{2, z})
	b := idtable.FromInts(2, []int64{1, p}, []int64{3, q})
	want := idtable.FromInts(3, []int64{1, x, p}, []int64{1, y, p})

	for _, pc := range pathCases() {
		t.Run(pc.name, func(t *testing.T) {
			left, _ := pc.left(t, a, "?s", "?o1")
			right, _ := pc.right(t, b, "?s", "?o2")
			j := mustJoin(t, left, right, 0, 0)

			res, err := j.ComputeResult(context.Background(), contextFor(pc))
			require.NoError(t, err)
			assert.Equal(t, pc.want, j.LastAlgorithm())
			assert.ElementsMatch(t, want.Rows(), res.Table.Rows())
			assert.Equal(t, 3, res.Table.NumColumns())
		})
	}
}

func TestEveryPathMatchesNestedLoopJoin(t *testing.T) {
	shapes := []struct{ lRows, rRows, keyRange int }{
		{1, 1, 1},
		{30, 30, 10},
		{100, 7, 50},
		{7, 100, 50},
		{200, 200, 4},
		{300, 300, 1000},
	}

	for _, pc := range pathCases() {
		for i, shape := range shapes {
			t.Run(fmt.Sprintf("%s/%d", pc.name, i), func(t *testing.T) {
				rng := rand.New(rand.NewPCG(uint64(i), 99))
				left, lt := pc.left(t, randomTable(rng, shape.lRows, 2, shape.keyRange), "?x", "?a")
				right, rt := pc.right(t, randomTable(rng, shape.rRows, 3, shape.keyRange), "?x", "?b", "?c")
				j := mustJoin(t, left, right, 0, 0)

				res, err := j.ComputeResult(context.Background(), contextFor(pc))
				require.NoError(t, err)

				want := nestedLoopJoin(lt, 0, rt, 0)
				assertSameRows(t, want, res.Table)
				if res.IsSortedOn(0) {
					assert.True(t, res.Table.IsSortedOn(0), "result claims an order it does not have")
				}
				if want.NumRows() > 0 {
					assert.Equal(t, pc.want, j.LastAlgorithm())
				}
			})
		}
	}
}

func TestJoinOnInnerColumns(t *testing.T) {
	left := idtable.FromInts(3, []int64{7, 1, 5}, []int64{8, 2, 5}, []int64{9, 1, 6})
	right := idtable.FromInts(2, []int64{50, 1}, []int64{60, 1}, []int64{70, 3})

	lt, _ := unsortedChild(t, left, "?a", "?x", "?b")
	rt, _ := unsortedChild(t, right, "?c", "?x")
	j := mustJoin(t, lt, rt, 1, 1)

	assert.Equal(t, execution.VariableToColumnMap{"?a": 0, "?x": 1, "?b": 2, "?c": 3}, j.VariableColumns())

	res, err := j.ComputeResult(context.Background(), execution.DefaultContext())
	require.NoError(t, err)
	want := idtable.FromInts(4,
		[]int64{7, 1, 5, 50}, []int64{7, 1, 5, 60},
		[]int64{9, 1, 6, 50}, []int64{9, 1, 6, 60})
	assert.ElementsMatch(t, want.Rows(), res.Table.Rows())
}

func TestSortedOutput(t *testing.T) {
	large := idtable.FromInts(1, []int64{1}, []int64{2}, []int64{3}, []int64{4})
	largeShuffled := idtable.FromInts(1, []int64{4}, []int64{1}, []int64{3}, []int64{2})
	small := idtable.FromInts(2, []int64{1, 0}, []int64{3, 0})

	tests := []struct {
		name       string
		left       *execution.Tree
		right      *execution.Tree
		wantSorted bool
	}{
		{
			name:       "merge join output is sorted",
			left:       execution.NewTree(newMock(large, []int{0}, "?x")),
			right:      execution.NewTree(newMock(small.Clone(), []int{0}, "?x", "?y")),
			wantSorted: true,
		},
		{
			name:       "hash join probing a sorted side",
			left:       execution.NewTree(newMock(large, []int{0}, "?x")),
			right:      execution.NewTree(newMock(small, nil, "?x", "?y")),
			wantSorted: true,
		},
		{
			name:       "hash join probing an unsorted side",
			left:       execution.NewTree(newMock(largeShuffled, nil, "?x")),
			right:      execution.NewTree(newMock(small, []int{0}, "?x", "?y")),
			wantSorted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := mustJoin(t, tt.left, tt.right, 0, 0)
			assert.Equal(t, tt.wantSorted, len(j.ResultSortedOn()) > 0)

			res, err := j.ComputeResult(context.Background(), execution.DefaultContext())
			require.NoError(t, err)
			assert.Equal(t, tt.wantSorted, res.IsSortedOn(0))
			assert.Equal(t, 2, res.Table.NumRows())
			if tt.wantSorted {
				assert.True(t, res.Table.IsSortedOn(0))
			}
		})
	}
}

func TestKnownEmptyResultSkipsChildren(t *testing.T) {
	empty := newMock(idtable.New(2), []int{0}, "?x", "?y")
	empty.knownEmpty = true
	other := newMock(idtable.FromInts(1, []int64{1}), []int{0}, "?x")

	for _, swap := range []bool{false, true} {
		left, right := execution.NewTree(empty), execution.NewTree(other)
		if swap {
			left, right = right, left
		}
		j := mustJoin(t, left, right, 0, 0)
		assert.True(t, j.KnownEmptyResult())
		assert.Equal(t, uint64(0), j.SizeEstimate())

		res, err := j.ComputeResult(context.Background(), execution.DefaultContext())
		require.NoError(t, err)
		assert.True(t, res.Table.Empty())
		assert.Equal(t, 2, res.Table.NumColumns())
		assert.Equal(t, AlgorithmEmpty, j.LastAlgorithm())
	}
	assert.Zero(t, empty.computed)
	assert.Zero(t, other.computed)
}

func TestEmptyChildAfterComputation(t *testing.T) {
	left := newMock(idtable.New(1), nil, "?x")
	right := newMock(idtable.FromInts(1, []int64{1}), nil, "?x")
	j := mustJoin(t, execution.NewTree(left), execution.NewTree(right), 0, 0)

	res, err := j.ComputeResult(context.Background(), execution.DefaultContext())
	require.NoError(t, err)
	assert.True(t, res.Table.Empty())
	assert.Equal(t, AlgorithmEmpty, j.LastAlgorithm())
}

func TestNewValidation(t *testing.T) {
	x, _ := sortedValues(t, idtable.FromInts(2, []int64{1, 2}), "?x", "?y")
	y, _ := sortedValues(t, idtable.FromInts(1, []int64{1}), "?y")

	tests := []struct {
		name              string
		left, right       *execution.Tree
		leftCol, rightCol int
	}{
		{"nil left", nil, y, 0, 0},
		{"nil right", x, nil, 0, 0},
		{"left column out of range", x, y, 2, 0},
		{"right column out of range", x, y, 1, 1},
		{"negative column", x, y, -1, 0},
		{"different variables", x, y, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.left, tt.right, tt.leftCol, tt.rightCol)
			require.Error(t, err)
			assert.Equal(t, dberror.ErrCategoryUser, dberror.CategoryOf(err))
		})
	}

	j, err := New(x, y, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, execution.Variable("?y"), j.JoinVariable())
}

func TestDescriptorWidthAndCacheKey(t *testing.T) {
	left, _ := sortedValues(t, idtable.FromInts(2, []int64{1, 2}), "?x", "?y")
	right, _ := sortedValues(t, idtable.FromInts(3, []int64{1, 2, 3}), "?z", "?x", "?w")
	j := mustJoin(t, left, right, 0, 1)

	assert.Equal(t, "Join on ?x", j.Descriptor())
	assert.Equal(t, 4, j.ResultWidth())
	assert.Len(t, j.Children(), 2)
	assert.Equal(t, execution.VariableToColumnMap{"?x": 0, "?y": 1, "?z": 2, "?w": 3}, j.VariableColumns())

	key := j.CacheKey()
	assert.Contains(t, key, left.Operation().CacheKey())
	assert.Contains(t, key, right.Operation().CacheKey())
	assert.Contains(t, key, "join-column: [1]")

	swapped := mustJoin(t, right, left, 1, 0)
	assert.NotEqual(t, key, swapped.CacheKey())
}

func TestInvalidForTesting(t *testing.T) {
	j := NewInvalidForTesting()
	assert.Equal(t, "Join on ?notAVariable", j.Descriptor())
	assert.Equal(t, AlgorithmNone, j.LastAlgorithm())
}

func TestResultVocabKeepsChildrenAlive(t *testing.T) {
	lv, rv := vocab.New(nil), vocab.New(nil)
	li, err := lv.InternOrReuse(vocab.NewLiteral("left"))
	require.NoError(t, err)
	ri, err := rv.InternOrReuse(vocab.NewIri("http://example.org/right"))
	require.NoError(t, err)

	leftTable := idtable.New(2)
	leftTable.AppendRow(types.MakeFromInt(1), types.MakeFromLocalVocabIndex(li))
	rightTable := idtable.New(2)
	rightTable.AppendRow(types.MakeFromInt(1), types.MakeFromLocalVocabIndex(ri))

	lop, err := execution.NewValues([]execution.Variable{"?x", "?l"}, leftTable, lv)
	require.NoError(t, err)
	rop, err := execution.NewValues([]execution.Variable{"?x", "?r"}, rightTable, rv)
	require.NoError(t, err)
	j := mustJoin(t, execution.NewTree(lop), execution.NewTree(rop), 0, 0)

	res, err := j.ComputeResult(context.Background(), execution.DefaultContext())
	require.NoError(t, err)
	require.Equal(t, 1, res.Table.NumRows())
	assert.Equal(t, 2, res.Vocab.Size())

	lv.Release()
	rv.Release()

	word, err := res.Vocab.Resolve(res.Table.At(0, 1).LocalVocabIndex())
	require.NoError(t, err)
	assert.Equal(t, "left", word.Content())
	word, err = res.Vocab.Resolve(res.Table.At(0, 2).LocalVocabIndex())
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/right", word.Content())

	// The result can be extended without touching the children.
	clone := res.Vocab.Clone()
	_, err = clone.InternOrReuse(vocab.NewLiteral("new"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Vocab.Size())
}

// countdownContext is cancelled after its Err method was called n times.
type countdownContext struct {
	context.Context
	left atomic.Int64
}

func newCountdownContext(n int64) *countdownContext {
	c := &countdownContext{Context: context.Background()}
	c.left.Store(n)
	return c
}

func (c *countdownContext) Err() error {
	if c.left.Add(-1) < 0 {
		return context.Canceled
	}
	return nil
}

func TestCancellationOnEveryPath(t *testing.T) {
	for _, pc := range pathCases() {
		t.Run(pc.name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(5, 5))
			left, _ := pc.left(t, randomTable(rng, 2000, 2, 20), "?x", "?a")
			right, _ := pc.right(t, randomTable(rng, 2000, 2, 20), "?x", "?b")
			j := mustJoin(t, left, right, 0, 0)

			qec := contextFor(pc)
			qec.Config.Join.CancellationCheckInterval = 64

			// Enough checks for the children, then the join is cut off.
			_, err := j.ComputeResult(newCountdownContext(3), qec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, dberror.ErrTimeout))
			assert.True(t, errors.Is(err, context.Canceled))
		})
	}
}

func TestCancelledBeforeStart(t *testing.T) {
	for _, pc := range pathCases() {
		t.Run(pc.name, func(t *testing.T) {
			left, _ := pc.left(t, idtable.FromInts(1, []int64{1}, []int64{2}), "?x")
			right, _ := pc.right(t, idtable.FromInts(1, []int64{2}, []int64{3}), "?x")
			j := mustJoin(t, left, right, 0, 0)

			qec := contextFor(pc)
			qec.Config.Join.CancellationCheckInterval = 1

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := j.ComputeResult(ctx, qec)
			assert.True(t, errors.Is(err, dberror.ErrTimeout))
		})
	}
}
