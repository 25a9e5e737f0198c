package join

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s1dharth-s/qlever/pkg/dberror"
	"github.com/s1dharth-s/qlever/pkg/execution/join/internal/algorithm"
	"github.com/s1dharth-s/qlever/pkg/idtable"
)

// checkAfter returns a check that starts failing on call n.
func checkAfter(n int) (func() error, *int) {
	calls := 0
	return func() error {
		calls++
		if calls >= n {
			return dberror.Timeout("sort", nil)
		}
		return nil
	}, &calls
}

func TestSortedCopy(t *testing.T) {
	table := idtable.FromInts(2, []int64{3, 0}, []int64{1, 1}, []int64{2, 2})

	sorted, err := sortedCopy(table, 0, algorithm.NewChecker(nil, 1))
	require.NoError(t, err)
	assert.True(t, sorted.IsSortedOn(0))
	assert.False(t, table.IsSortedOn(0), "the input is left untouched")
}

func TestSortedCopyChecksCancellationAfterSorting(t *testing.T) {
	table := idtable.FromInts(1, []int64{2}, []int64{1})

	check, calls := checkAfter(2)
	_, err := sortedCopy(table, 0, algorithm.NewChecker(check, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, dberror.ErrTimeout))
	assert.Equal(t, 2, *calls)

	check, calls = checkAfter(1)
	_, err = sortedCopy(table, 0, algorithm.NewChecker(check, 1))
	assert.True(t, errors.Is(err, dberror.ErrTimeout))
	assert.Equal(t, 1, *calls, "a cancelled query does not sort at all")
}
