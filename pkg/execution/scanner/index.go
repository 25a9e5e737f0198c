// Package scanner provides index scans: leaf operations that read a sorted
// permutation of rows, either completely or lazily in sorted blocks.
package scanner

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"

	"github.com/s1dharth-s/qlever/pkg/types"
)

// degree of the btree holding a permutation.
const degree = 32

type row []types.Id

func lessRow(a, b row) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// Index is an in-memory permutation: a set of rows of fixed width kept in
// lexicographic order. It is safe for concurrent use; scans read a snapshot
// taken when the scan starts.
type Index struct {
	name  string
	width int

	mu   sync.RWMutex
	tree *btree.BTreeG[row]
	mult []float64 // cached per column, nil when stale
}

// NewIndex creates an empty permutation of rows with width columns.
func NewIndex(name string, width int) *Index {
	return &Index{
		name:  name,
		width: width,
		tree:  btree.NewG[row](degree, lessRow),
	}
}

// Name returns the name of the permutation, e.g. "PSO".
func (ix *Index) Name() string { return ix.name }

// Width returns the number of columns.
func (ix *Index) Width() int { return ix.width }

// Insert adds rows. Rows already present are ignored.
func (ix *Index) Insert(rows ...[]types.Id) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, r := range rows {
		if len(r) != ix.width {
			return errors.Newf("row of width %d inserted into index %s of width %d", len(r), ix.name, ix.width)
		}
		ix.tree.ReplaceOrInsert(append(row(nil), r...))
	}
	ix.mult = nil
	return nil
}

// InsertInts is a shorthand for rows of integer ids.
func (ix *Index) InsertInts(rows ...[]int64) error {
	converted := make([][]types.Id, len(rows))
	for i, r := range rows {
		converted[i] = make([]types.Id, len(r))
		for j, v := range r {
			converted[i][j] = types.MakeFromInt(v)
		}
	}
	return ix.Insert(converted...)
}

// Len returns the number of rows.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.Len()
}

// Multiplicity returns the average number of rows per distinct value of col.
func (ix *Index) Multiplicity(col int) float64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.mult == nil {
		ix.mult = ix.computeMultiplicities()
	}
	return ix.mult[col]
}

func (ix *Index) computeMultiplicities() []float64 {
	distinct := make([]map[types.Id]struct{}, ix.width)
	for c := range distinct {
		distinct[c] = make(map[types.Id]struct{})
	}
	ix.tree.Ascend(func(r row) bool {
		for c, id := range r {
			distinct[c][id] = struct{}{}
		}
		return true
	})

	mult := make([]float64, ix.width)
	for c := range mult {
		mult[c] = 1
		if n := len(distinct[c]); n > 0 {
			mult[c] = float64(ix.tree.Len()) / float64(n)
		}
	}
	return mult
}

func (ix *Index) snapshot() *btree.BTreeG[row] {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.tree.Clone()
}
