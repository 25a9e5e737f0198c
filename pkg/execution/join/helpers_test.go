package join

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s1dharth-s/qlever/pkg/execution"
	"github.com/s1dharth-s/qlever/pkg/execution/scanner"
	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/types"
)

// childMaker turns a table into a join child. It returns the tree and the
// rows the child will actually produce.
type childMaker func(t *testing.T, table *idtable.IdTable, vars ...execution.Variable) (*execution.Tree, *idtable.IdTable)

// sortedValues is a Values child sorted on column 0.
func sortedValues(t *testing.T, table *idtable.IdTable, vars ...execution.Variable) (*execution.Tree, *idtable.IdTable) {
	t.Helper()
	table = table.Clone()
	table.SortByColumn(0)
	op, err := execution.NewValues(vars, table, nil)
	require.NoError(t, err)
	return execution.NewTree(op), table
}

// unsortedChild declares no order at all, whatever its rows look like.
func unsortedChild(t *testing.T, table *idtable.IdTable, vars ...execution.Variable) (*execution.Tree, *idtable.IdTable) {
	t.Helper()
	return execution.NewTree(newMock(table, nil, vars...)), table
}

// indexScan puts the rows into a permutation and scans it.
func indexScan(t *testing.T, table *idtable.IdTable, vars ...execution.Variable) (*execution.Tree, *idtable.IdTable) {
	t.Helper()
	ix := scanner.NewIndex(string(vars[0]), table.NumColumns())
	require.NoError(t, ix.Insert(table.Rows()...))
	scan, err := scanner.NewIndexScan(ix, vars...)
	require.NoError(t, err)

	// The index drops duplicate rows and sorts.
	actual := table.Clone()
	actual.SortLexicographic()
	dedup := idtable.New(actual.NumColumns())
	for r := 0; r < actual.NumRows(); r++ {
		if r > 0 && equalRows(actual.Row(r), actual.Row(r-1)) {
			continue
		}
		dedup.AppendRow(actual.Row(r)...)
	}
	return execution.NewTree(scan), dedup
}

func equalRows(a, b []types.Id) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// nestedLoopJoin is the reference the join paths are compared against.
func nestedLoopJoin(left *idtable.IdTable, leftCol int, right *idtable.IdTable, rightCol int) *idtable.IdTable {
	out := idtable.New(left.NumColumns() + right.NumColumns() - 1)
	for l := 0; l < left.NumRows(); l++ {
		for r := 0; r < right.NumRows(); r++ {
			if left.At(l, leftCol) == right.At(r, rightCol) {
				out.AppendCombinedRow(left, l, right, r, rightCol)
			}
		}
	}
	return out
}

func randomTable(rng *rand.Rand, rows, width, keyRange int) *idtable.IdTable {
	t := idtable.New(width)
	row := make([]types.Id, width)
	for i := 0; i < rows; i++ {
		row[0] = types.MakeFromInt(int64(rng.IntN(keyRange)))
		for c := 1; c < width; c++ {
			row[c] = types.MakeFromInt(int64(rng.IntN(1_000_000)))
		}
		t.AppendRow(row...)
	}
	return t
}

func mustJoin(t *testing.T, left, right *execution.Tree, leftCol, rightCol int) *Join {
	t.Helper()
	j, err := New(left, right, leftCol, rightCol)
	require.NoError(t, err)
	return j
}

// assertSameRows compares two tables as multisets of rows.
func assertSameRows(t *testing.T, want, got *idtable.IdTable) {
	t.Helper()
	w, g := want.Clone(), got.Clone()
	w.SortLexicographic()
	g.SortLexicographic()
	assert.Equal(t, w.Rows(), g.Rows())
}
