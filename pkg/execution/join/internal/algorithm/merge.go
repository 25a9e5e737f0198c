package algorithm

import (
	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/types"
)

// Side is one input of a join.
type Side struct {
	Table   *idtable.IdTable
	JoinCol int
}

func (s Side) keys() []types.Id { return s.Table.Column(s.JoinCol) }

// runEnd returns the end of the run of equal keys starting at i.
func runEnd(keys []types.Id, i int) int {
	key := keys[i]
	j := i + 1
	for j < len(keys) && keys[j] == key {
		j++
	}
	return j
}

// crossProduct appends every combination of the left rows [lFrom, lTo) with
// the right rows [rFrom, rTo), left rows in the outer loop.
func crossProduct(out *idtable.IdTable, left *idtable.IdTable, lFrom, lTo int,
	right *idtable.IdTable, rFrom, rTo, rightJoinCol int, c *Checker) error {
	for l := lFrom; l < lTo; l++ {
		for r := rFrom; r < rTo; r++ {
			out.AppendCombinedRow(left, l, right, r, rightJoinCol)
		}
		if err := c.Step(rTo - rFrom); err != nil {
			return err
		}
	}
	return nil
}

// MergeJoin joins two inputs that are both sorted on their join columns. It
// advances through both inputs once and emits the cross product of every
// pair of equal-key runs. The output is sorted on the join column.
//
// Time Complexity: O(n + m + k) where k is the number of output rows
func MergeJoin(left, right Side, out *idtable.IdTable, c *Checker) error {
	lk, rk := left.keys(), right.keys()
	i, j := 0, 0
	for i < len(lk) && j < len(rk) {
		if err := c.Step(1); err != nil {
			return err
		}
		switch {
		case lk[i] < rk[j]:
			i++
		case lk[i] > rk[j]:
			j++
		default:
			iEnd, jEnd := runEnd(lk, i), runEnd(rk, j)
			if err := crossProduct(out, left.Table, i, iEnd, right.Table, j, jEnd, right.JoinCol, c); err != nil {
				return err
			}
			i, j = iEnd, jEnd
		}
	}
	return nil
}
