// Package idtable provides the row table that flows between execution tree
// nodes: a fixed number of columns of equal length holding types.Id values.
package idtable

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/s1dharth-s/qlever/pkg/types"
)

// IdTable stores its values column by column. The width is fixed when the
// table is created; rows are only ever appended.
type IdTable struct {
	cols [][]types.Id
}

// New creates an empty table with width columns.
func New(width int) *IdTable {
	if width < 0 {
		panic(fmt.Sprintf("idtable: negative width %d", width))
	}
	return &IdTable{cols: make([][]types.Id, width)}
}

// FromRows builds a table of width columns from rows. Every row must have
// exactly width entries.
func FromRows(width int, rows ...[]types.Id) *IdTable {
	t := New(width)
	t.Reserve(len(rows))
	for _, r := range rows {
		t.AppendRow(r...)
	}
	return t
}

// FromInts is a shorthand for tables of integer ids, mostly used by tests and
// the bench command.
func FromInts(width int, rows ...[]int64) *IdTable {
	t := New(width)
	t.Reserve(len(rows))
	row := make([]types.Id, width)
	for _, r := range rows {
		for i, v := range r {
			row[i] = types.MakeFromInt(v)
		}
		t.AppendRow(row...)
	}
	return t
}

// NumColumns returns the width of the table.
func (t *IdTable) NumColumns() int { return len(t.cols) }

// NumRows returns the number of rows.
func (t *IdTable) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0])
}

// Empty reports whether the table has no rows.
func (t *IdTable) Empty() bool { return t.NumRows() == 0 }

// At returns the value in row, col.
func (t *IdTable) At(row, col int) types.Id { return t.cols[col][row] }

// Column returns column col. The slice aliases the table's storage and must
// not be modified.
func (t *IdTable) Column(col int) []types.Id { return t.cols[col] }

// Row copies row into a new slice.
func (t *IdTable) Row(row int) []types.Id {
	r := make([]types.Id, len(t.cols))
	for c := range t.cols {
		r[c] = t.cols[c][row]
	}
	return r
}

// Reserve grows the capacity of every column to hold n more rows.
func (t *IdTable) Reserve(n int) {
	for c := range t.cols {
		t.cols[c] = slices.Grow(t.cols[c], n)
	}
}

// AppendRow appends one row. It panics if the row has the wrong width.
func (t *IdTable) AppendRow(row ...types.Id) {
	if len(row) != len(t.cols) {
		panic(fmt.Sprintf("idtable: row of width %d appended to table of width %d", len(row), len(t.cols)))
	}
	for c, v := range row {
		t.cols[c] = append(t.cols[c], v)
	}
}

// AppendFrom appends row of src, taking output column i from column
// cols[i] of src.
func (t *IdTable) AppendFrom(src *IdTable, row int, cols []int) {
	for i, c := range cols {
		t.cols[i] = append(t.cols[i], src.cols[c][row])
	}
}

// AppendCombinedRow appends the join of row lrow of left and row rrow of
// right: all columns of left followed by the columns of right except
// rightJoinCol. The width of t must be the sum of both widths minus one.
func (t *IdTable) AppendCombinedRow(left *IdTable, lrow int, right *IdTable, rrow int, rightJoinCol int) {
	out := 0
	for _, col := range left.cols {
		t.cols[out] = append(t.cols[out], col[lrow])
		out++
	}
	for c, col := range right.cols {
		if c == rightJoinCol {
			continue
		}
		t.cols[out] = append(t.cols[out], col[rrow])
		out++
	}
}

// AppendTable appends every row of src, which must have the same width.
func (t *IdTable) AppendTable(src *IdTable) {
	for c := range t.cols {
		t.cols[c] = append(t.cols[c], src.cols[c]...)
	}
}

// View returns the rows [from, to) as a table that shares storage with t.
// Appending to the view never writes into t.
func (t *IdTable) View(from, to int) *IdTable {
	v := &IdTable{cols: make([][]types.Id, len(t.cols))}
	for c, col := range t.cols {
		v.cols[c] = col[from:to:to]
	}
	return v
}

// Truncate drops all rows from n on.
func (t *IdTable) Truncate(n int) {
	for c := range t.cols {
		t.cols[c] = t.cols[c][:n]
	}
}

// Clone returns a deep copy.
func (t *IdTable) Clone() *IdTable {
	c := &IdTable{cols: make([][]types.Id, len(t.cols))}
	for i, col := range t.cols {
		c.cols[i] = slices.Clone(col)
	}
	return c
}

// IsSortedOn reports whether the rows are in ascending order of column col.
func (t *IdTable) IsSortedOn(col int) bool {
	return slices.IsSorted(t.cols[col])
}

// SortByColumn stably sorts the rows by column col.
func (t *IdTable) SortByColumn(col int) {
	n := t.NumRows()
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	key := t.cols[col]
	sort.SliceStable(perm, func(a, b int) bool { return key[perm[a]] < key[perm[b]] })
	t.permute(perm)
}

// SortLexicographic sorts the rows by all columns, leftmost first.
func (t *IdTable) SortLexicographic() {
	perm := make([]int, t.NumRows())
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return t.compareRows(perm[a], perm[b]) < 0
	})
	t.permute(perm)
}

func (t *IdTable) compareRows(a, b int) int {
	for _, col := range t.cols {
		if col[a] != col[b] {
			if col[a] < col[b] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (t *IdTable) permute(perm []int) {
	for c, col := range t.cols {
		sorted := make([]types.Id, len(col))
		for i, p := range perm {
			sorted[i] = col[p]
		}
		t.cols[c] = sorted
	}
}

// Rows returns a copy of the table as a slice of rows.
func (t *IdTable) Rows() [][]types.Id {
	rows := make([][]types.Id, t.NumRows())
	for r := range rows {
		rows[r] = t.Row(r)
	}
	return rows
}

// String renders the table one row per line; meant for debugging.
func (t *IdTable) String() string {
	var b strings.Builder
	for r := 0; r < t.NumRows(); r++ {
		for c := range t.cols {
			if c > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(t.cols[c][r].String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
