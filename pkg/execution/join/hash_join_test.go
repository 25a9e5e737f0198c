package join

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s1dharth-s/qlever/pkg/idtable"
)

func TestStaticHashJoin(t *testing.T) {
	a := idtable.FromInts(2, []int64{1, 100}, []int64{1, 101}, []int64{2, 102})
	b := idtable.FromInts(2, []int64{1, 103}, []int64{3, 104})

	out, sorted, err := HashJoin(a, 0, b, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, idtable.FromInts(3, []int64{1, 100, 103}, []int64{1, 101, 103}).Rows(), out.Rows())
	assert.True(t, sorted, "the larger input is probed and it is sorted")
}

func TestStaticHashJoinSortedness(t *testing.T) {
	sortedLarge := idtable.FromInts(1, []int64{1}, []int64{2}, []int64{3})
	unsortedLarge := idtable.FromInts(1, []int64{3}, []int64{1}, []int64{2})
	unsortedSmall := idtable.FromInts(1, []int64{2}, []int64{1})
	sortedSmall := idtable.FromInts(1, []int64{1}, []int64{2})

	tests := []struct {
		name        string
		left, right *idtable.IdTable
		want        bool
	}{
		{"probe sorted left", sortedLarge, unsortedSmall, true},
		{"probe unsorted left", unsortedLarge, sortedSmall, false},
		{"probe sorted right", unsortedSmall, sortedLarge, true},
		{"probe unsorted right", sortedSmall, unsortedLarge, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, sorted, err := HashJoin(tt.left, 0, tt.right, 0, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sorted)
			assert.Equal(t, 2, out.NumRows())
			if sorted {
				assert.True(t, out.IsSortedOn(0))
			}
		})
	}
}

func TestStaticHashJoinCancelled(t *testing.T) {
	stop := errors.New("stop")
	a := idtable.FromInts(1, []int64{1})
	_, _, err := HashJoin(a, 0, a.Clone(), 0, func() error { return stop })
	assert.ErrorIs(t, err, stop)
}
