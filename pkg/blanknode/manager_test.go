package blanknode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/s1dharth-s/qlever/pkg/types"
)

func TestLocalManagerIssuesFreshIndices(t *testing.T) {
	m := NewManager(100, 3)
	l := NewLocalManager(m)

	var got []types.BlankNodeIndex
	for i := 0; i < 7; i++ {
		idx, err := l.NextIndex()
		require.NoError(t, err)
		got = append(got, idx)
	}

	assert.Equal(t, []types.BlankNodeIndex{100, 101, 102, 103, 104, 105, 106}, got)
	assert.Equal(t, uint64(3), m.BlocksInUse())

	for _, idx := range got {
		assert.True(t, l.Contains(idx))
	}
	assert.False(t, l.Contains(107), "reserved but not yet issued")
	assert.False(t, l.Contains(99))
}

func TestLocalManagersDoNotOverlap(t *testing.T) {
	m := NewManager(0, 10)
	a := NewLocalManager(m)
	b := NewLocalManager(m)

	ia, err := a.NextIndex()
	require.NoError(t, err)
	ib, err := b.NextIndex()
	require.NoError(t, err)

	assert.NotEqual(t, ia, ib)
	assert.False(t, a.Contains(ib))
	assert.False(t, b.Contains(ia))
}

func TestManagerConcurrentBlocks(t *testing.T) {
	m := NewManager(0, 2)
	results := make([][]types.BlankNodeIndex, 8)

	var g errgroup.Group
	for w := range results {
		g.Go(func() error {
			l := NewLocalManager(m)
			for i := 0; i < 50; i++ {
				idx, err := l.NextIndex()
				if err != nil {
					return err
				}
				results[w] = append(results[w], idx)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[types.BlankNodeIndex]bool)
	for _, r := range results {
		for _, idx := range r {
			assert.False(t, seen[idx], "index %d issued twice", idx)
			seen[idx] = true
		}
	}
	assert.Len(t, seen, 400)
}

func TestManagerExhaustion(t *testing.T) {
	m := NewManager(types.MaxPayload-4, 2)
	l := NewLocalManager(m)

	for i := 0; i < 4; i++ {
		_, err := l.NextIndex()
		require.NoError(t, err)
	}
	_, err := l.NextIndex()
	assert.Error(t, err)
}
