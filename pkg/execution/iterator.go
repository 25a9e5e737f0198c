package execution

import (
	"sort"

	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/types"
)

// BlockStream yields a result sorted on its key column in blocks of rows.
type BlockStream interface {
	// KeyColumn returns the column the rows are sorted on.
	KeyColumn() int

	// Next returns the next block, or nil once the stream is exhausted.
	// Blocks are never empty.
	Next() (*idtable.IdTable, error)

	// Seek skips forward so that the next block starts with the first
	// remaining row whose key is at least key. Seeking backwards is a no-op.
	Seek(key types.Id) error
}

// TableStream streams a materialized table that is sorted on its key column.
type TableStream struct {
	table     *idtable.IdTable
	keyCol    int
	blockSize int
	pos       int
}

// NewTableStream creates a stream over table, which must be sorted on
// keyCol.
//
// Parameters:
//   - table: Sorted rows to stream
//   - keyCol: Column the rows are sorted on
//   - blockSize: Maximum number of rows per block; values below 1 yield one
//     block per row
//
// Returns:
//   - *TableStream: Stream positioned at the first row
func NewTableStream(table *idtable.IdTable, keyCol, blockSize int) *TableStream {
	return &TableStream{table: table, keyCol: keyCol, blockSize: max(blockSize, 1)}
}

func (s *TableStream) KeyColumn() int { return s.keyCol }

func (s *TableStream) Next() (*idtable.IdTable, error) {
	n := s.table.NumRows()
	if s.pos >= n {
		return nil, nil
	}
	end := min(s.pos+s.blockSize, n)
	block := s.table.View(s.pos, end)
	s.pos = end
	return block, nil
}

func (s *TableStream) Seek(key types.Id) error {
	col := s.table.Column(s.keyCol)
	rest := col[s.pos:]
	s.pos += sort.Search(len(rest), func(i int) bool { return rest[i] >= key })
	return nil
}
