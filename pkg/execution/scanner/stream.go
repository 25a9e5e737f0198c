package scanner

import (
	"github.com/google/btree"

	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/types"
)

// blockStream reads a permutation snapshot in blocks, starting each block at
// a pivot row. Seeking only moves the pivot, so rows that are skipped are
// never copied.
type blockStream struct {
	tree      *btree.BTreeG[row]
	width     int
	blockSize int
	pivot     row
	done      bool
}

func newBlockStream(tree *btree.BTreeG[row], width, blockSize int) *blockStream {
	return &blockStream{tree: tree, width: width, blockSize: max(blockSize, 1)}
}

func (s *blockStream) KeyColumn() int { return 0 }

func (s *blockStream) Next() (*idtable.IdTable, error) {
	if s.done {
		return nil, nil
	}

	block := idtable.New(s.width)
	block.Reserve(s.blockSize)
	var next row
	visit := func(r row) bool {
		if block.NumRows() == s.blockSize {
			next = r
			return false
		}
		block.AppendRow(r...)
		return true
	}
	if s.pivot == nil {
		s.tree.Ascend(visit)
	} else {
		s.tree.AscendGreaterOrEqual(s.pivot, visit)
	}

	s.pivot = next
	if next == nil {
		s.done = true
	}
	if block.Empty() {
		return nil, nil
	}
	return block, nil
}

func (s *blockStream) Seek(key types.Id) error {
	if s.done {
		return nil
	}
	if s.pivot == nil || s.pivot[0] < key {
		// A one-column row sorts before every row starting with key.
		s.pivot = row{key}
	}
	return nil
}
