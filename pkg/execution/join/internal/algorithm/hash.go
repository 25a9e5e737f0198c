package algorithm

import (
	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/types"
)

// HashJoin joins two inputs in any order. It builds a hash table over the
// join column of the input with fewer rows and probes it with the other
// input in its original row order; on equal sizes it builds on the right.
// For each probe row the matches are emitted in build-side order, so the
// output is sorted on the join column iff the probe input was.
//
// Returns:
//   - bool: True if the left input was the probe side
//   - error: The error of the cancellation check, if it fired
func HashJoin(left, right Side, out *idtable.IdTable, c *Checker) (bool, error) {
	probeLeft := left.Table.NumRows() >= right.Table.NumRows()
	build, probe := right, left
	if !probeLeft {
		build, probe = left, right
	}

	bk := build.keys()
	table := make(map[types.Id][]int, len(bk))
	for i, key := range bk {
		table[key] = append(table[key], i)
		if err := c.Step(1); err != nil {
			return probeLeft, err
		}
	}

	for p, key := range probe.keys() {
		matches := table[key]
		for _, b := range matches {
			if probeLeft {
				out.AppendCombinedRow(left.Table, p, right.Table, b, right.JoinCol)
			} else {
				out.AppendCombinedRow(left.Table, b, right.Table, p, right.JoinCol)
			}
		}
		if err := c.Step(1 + len(matches)); err != nil {
			return probeLeft, err
		}
	}
	return probeLeft, nil
}
