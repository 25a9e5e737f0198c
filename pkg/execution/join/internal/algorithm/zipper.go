package algorithm

import (
	"sort"

	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/types"
)

// Stream yields rows sorted on KeyColumn in non-empty blocks. Next returns
// nil at the end. Seek skips forward to the first row whose key is at least
// the given key.
type Stream interface {
	KeyColumn() int
	Next() (*idtable.IdTable, error)
	Seek(key types.Id) error
}

// groupReader walks a stream key group by key group.
type groupReader struct {
	s     Stream
	key   int
	block *idtable.IdTable
	pos   int
	done  bool
}

func newGroupReader(s Stream) (*groupReader, error) {
	r := &groupReader{s: s, key: s.KeyColumn()}
	return r, r.fill()
}

// fill makes sure the current block has a row at pos unless the stream is
// exhausted.
func (r *groupReader) fill() error {
	for !r.done && (r.block == nil || r.pos >= r.block.NumRows()) {
		b, err := r.s.Next()
		if err != nil {
			return err
		}
		if b == nil {
			r.done = true
			r.block = nil
			return nil
		}
		r.block, r.pos = b, 0
	}
	return nil
}

func (r *groupReader) current() types.Id { return r.block.At(r.pos, r.key) }

// skipTo advances to the first row whose key is at least key. Blocks that
// end before key are not read at all; the stream seeks past them.
func (r *groupReader) skipTo(key types.Id) error {
	for !r.done {
		col := r.block.Column(r.key)
		if col[len(col)-1] >= key {
			rest := col[r.pos:]
			r.pos += sort.Search(len(rest), func(i int) bool { return rest[i] >= key })
			return nil
		}
		r.block = nil
		if err := r.s.Seek(key); err != nil {
			return err
		}
		if err := r.fill(); err != nil {
			return err
		}
	}
	return nil
}

// group consumes every row with the current key, which may span several
// blocks, and returns them as one table.
func (r *groupReader) group() (*idtable.IdTable, error) {
	key := r.current()
	var g *idtable.IdTable
	for {
		col := r.block.Column(r.key)
		end := r.pos
		for end < len(col) && col[end] == key {
			end++
		}
		// Views have no spare capacity, so appending to one copies it.
		part := r.block.View(r.pos, end)
		r.pos = end
		if g == nil {
			g = part
		} else {
			g.AppendTable(part)
		}
		if end < len(col) {
			return g, nil
		}
		if err := r.fill(); err != nil {
			return nil, err
		}
		if r.done || r.current() != key {
			return g, nil
		}
	}
}

// ZipperJoin joins two streams sorted on their key columns in lock-step.
// When the keys differ, the reader that is behind skips ahead to the other
// key, seeking its stream instead of reading blocks that cannot match. Equal
// key groups are combined as in MergeJoin, so the output is sorted on the
// join column.
func ZipperJoin(left, right Stream, out *idtable.IdTable, c *Checker) error {
	l, err := newGroupReader(left)
	if err != nil {
		return err
	}
	r, err := newGroupReader(right)
	if err != nil {
		return err
	}

	for !l.done && !r.done {
		if err := c.Step(1); err != nil {
			return err
		}
		kl, kr := l.current(), r.current()
		switch {
		case kl < kr:
			err = l.skipTo(kr)
		case kl > kr:
			err = r.skipTo(kl)
		default:
			err = joinGroups(l, r, out, c)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func joinGroups(l, r *groupReader, out *idtable.IdTable, c *Checker) error {
	gl, err := l.group()
	if err != nil {
		return err
	}
	gr, err := r.group()
	if err != nil {
		return err
	}
	if err := c.Now(); err != nil {
		return err
	}
	return crossProduct(out, gl, 0, gl.NumRows(), gr, 0, gr.NumRows(), r.key, c)
}
