package join

import (
	"github.com/s1dharth-s/qlever/pkg/config"
	"github.com/s1dharth-s/qlever/pkg/execution/join/internal/algorithm"
	"github.com/s1dharth-s/qlever/pkg/idtable"
)

// HashJoin joins two tables on leftCol and rightCol with the hash join used
// by Join, without needing an execution tree. The smaller table is hashed;
// on equal sizes the right one.
//
// Parameters:
//   - left, right: The inputs, in any order
//   - leftCol, rightCol: The join column of each input
//   - check: Cancellation check, consulted periodically; may be nil
//
// Returns:
//   - *idtable.IdTable: Columns of left, then columns of right without rightCol
//   - bool: True if the result is sorted on column leftCol, which is the case
//     iff the probed (larger) input is sorted on its join column
//   - error: The error returned by check, if it fired
func HashJoin(left *idtable.IdTable, leftCol int, right *idtable.IdTable, rightCol int,
	check func() error) (*idtable.IdTable, bool, error) {
	out := idtable.New(left.NumColumns() + right.NumColumns() - 1)
	c := algorithm.NewChecker(check, config.DefaultCancellationCheckInterval)

	probedLeft, err := algorithm.HashJoin(
		algorithm.Side{Table: left, JoinCol: leftCol},
		algorithm.Side{Table: right, JoinCol: rightCol},
		out, c)
	if err != nil {
		return nil, false, err
	}

	if probedLeft {
		return out, left.IsSortedOn(leftCol), nil
	}
	return out, right.IsSortedOn(rightCol), nil
}
