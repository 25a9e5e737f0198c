package scanner

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s1dharth-s/qlever/pkg/dberror"
	"github.com/s1dharth-s/qlever/pkg/execution"
	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/types"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix := NewIndex("PSO", 2)
	require.NoError(t, ix.InsertInts(
		[]int64{5, 1},
		[]int64{1, 2},
		[]int64{3, 3},
		[]int64{1, 1},
		[]int64{3, 1},
		[]int64{8, 8},
		[]int64{1, 1}, // duplicate
	))
	return ix
}

func collect(t *testing.T, s execution.BlockStream) *idtable.IdTable {
	t.Helper()
	out := idtable.New(2)
	for {
		block, err := s.Next()
		require.NoError(t, err)
		if block == nil {
			return out
		}
		out.AppendTable(block)
	}
}

func TestIndexOrderAndStatistics(t *testing.T) {
	ix := newTestIndex(t)
	assert.Equal(t, 6, ix.Len())
	assert.InDelta(t, 6.0/4.0, ix.Multiplicity(0), 1e-9)
	assert.InDelta(t, 6.0/4.0, ix.Multiplicity(1), 1e-9)

	assert.Error(t, ix.InsertInts([]int64{1}))

	require.NoError(t, ix.InsertInts([]int64{9, 9}))
	assert.InDelta(t, 7.0/5.0, ix.Multiplicity(0), 1e-9, "statistics follow inserts")
}

func TestIndexScanComputeResult(t *testing.T) {
	scan, err := NewIndexScan(newTestIndex(t), "?s", "?o")
	require.NoError(t, err)

	assert.Equal(t, "IndexScan PSO ?s ?o", scan.Descriptor())
	assert.Equal(t, execution.KindIndexScan, execution.NewTree(scan).Kind())
	assert.Equal(t, []int{0}, scan.ResultSortedOn())
	assert.Equal(t, uint64(6), scan.SizeEstimate())
	assert.False(t, scan.KnownEmptyResult())

	res, err := scan.ComputeResult(context.Background(), execution.DefaultContext())
	require.NoError(t, err)
	want := idtable.FromInts(2,
		[]int64{1, 1}, []int64{1, 2}, []int64{3, 1}, []int64{3, 3}, []int64{5, 1}, []int64{8, 8})
	assert.Equal(t, want.Rows(), res.Table.Rows())
	assert.True(t, res.IsSortedOn(0))
	assert.True(t, res.Vocab.Empty())
}

func TestIndexScanValidation(t *testing.T) {
	_, err := NewIndexScan(nil)
	assert.Error(t, err)
	_, err = NewIndexScan(NewIndex("SPO", 3), "?s")
	assert.Error(t, err)
}

func TestIndexScanCancelled(t *testing.T) {
	scan, err := NewIndexScan(newTestIndex(t), "?s", "?o")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = scan.ComputeResult(ctx, execution.DefaultContext())
	assert.True(t, errors.Is(err, dberror.ErrTimeout))
}

func TestStreamBlocks(t *testing.T) {
	scan, err := NewIndexScan(newTestIndex(t), "?s", "?o")
	require.NoError(t, err)

	for _, blockSize := range []int{1, 2, 4, 6, 100} {
		s, err := scan.Stream(blockSize)
		require.NoError(t, err)
		assert.Equal(t, 0, s.KeyColumn())

		res, err := scan.ComputeResult(context.Background(), execution.DefaultContext())
		require.NoError(t, err)
		assert.Equal(t, res.Table.Rows(), collect(t, s).Rows(), "block size %d", blockSize)
	}
}

func TestStreamSeek(t *testing.T) {
	scan, err := NewIndexScan(newTestIndex(t), "?s", "?o")
	require.NoError(t, err)

	s, err := scan.Stream(2)
	require.NoError(t, err)

	first, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, idtable.FromInts(2, []int64{1, 1}, []int64{1, 2}).Rows(), first.Rows())

	require.NoError(t, s.Seek(types.MakeFromInt(4)))
	rest := collect(t, s)
	assert.Equal(t, idtable.FromInts(2, []int64{5, 1}, []int64{8, 8}).Rows(), rest.Rows())
}

func TestStreamSeekBackwardsIsNoop(t *testing.T) {
	scan, err := NewIndexScan(newTestIndex(t), "?s", "?o")
	require.NoError(t, err)

	s, err := scan.Stream(3)
	require.NoError(t, err)
	_, err = s.Next()
	require.NoError(t, err)

	require.NoError(t, s.Seek(types.MakeFromInt(1)))
	rest := collect(t, s)
	assert.Equal(t, idtable.FromInts(2, []int64{3, 3}, []int64{5, 1}, []int64{8, 8}).Rows(), rest.Rows())
}

func TestStreamIsASnapshot(t *testing.T) {
	ix := newTestIndex(t)
	scan, err := NewIndexScan(ix, "?s", "?o")
	require.NoError(t, err)

	s, err := scan.Stream(100)
	require.NoError(t, err)
	require.NoError(t, ix.InsertInts([]int64{0, 0}))

	assert.Equal(t, 6, collect(t, s).NumRows())
}
