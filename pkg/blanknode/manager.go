// Package blanknode hands out blank node identifiers that are unique within
// one Manager. A Manager is shared by all queries of an engine; every local
// vocabulary that needs fresh blank nodes owns a LocalManager which takes
// whole blocks of identifiers from the shared Manager.
package blanknode

import (
	"sync"

	"github.com/s1dharth-s/qlever/pkg/dberror"
	"github.com/s1dharth-s/qlever/pkg/types"
)

// DefaultBlockSize is the number of identifiers in one block.
const DefaultBlockSize = 1000

// Manager allocates disjoint blocks of blank node indices. It is safe for
// concurrent use.
type Manager struct {
	mu        sync.Mutex
	minIndex  uint64
	blockSize uint64
	nextBlock uint64
	maxBlocks uint64
}

// NewManager creates a manager whose identifiers start at minIndex. Indices
// below minIndex are reserved for blank nodes of the persistent dictionary.
func NewManager(minIndex uint64, blockSize uint64) *Manager {
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	return &Manager{
		minIndex:  minIndex,
		blockSize: blockSize,
		maxBlocks: (types.MaxPayload - minIndex) / blockSize,
	}
}

// BlockSize returns the number of identifiers per block.
func (m *Manager) BlockSize() uint64 { return m.blockSize }

// BlocksInUse returns how many blocks were handed out so far.
func (m *Manager) BlocksInUse() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextBlock
}

func (m *Manager) allocateBlock() (block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.nextBlock >= m.maxBlocks {
		return block{}, dberror.New(dberror.ErrCategorySystem, "BLANK_NODES_EXHAUSTED",
			"no blank node blocks left")
	}
	start := m.minIndex + m.nextBlock*m.blockSize
	m.nextBlock++
	return block{start: start, end: start + m.blockSize, next: start}, nil
}

type block struct {
	start, end, next uint64
}

// LocalManager issues identifiers from the blocks it obtained. It is not
// safe for concurrent use; it belongs to exactly one local vocabulary.
type LocalManager struct {
	manager *Manager
	blocks  []block
}

// NewLocalManager creates an allocator that draws blocks from m.
func NewLocalManager(m *Manager) *LocalManager {
	return &LocalManager{manager: m}
}

// NextIndex returns a fresh identifier, unique among all identifiers issued
// through the same Manager.
func (l *LocalManager) NextIndex() (types.BlankNodeIndex, error) {
	if len(l.blocks) == 0 || l.blocks[len(l.blocks)-1].next == l.blocks[len(l.blocks)-1].end {
		b, err := l.manager.allocateBlock()
		if err != nil {
			return 0, err
		}
		l.blocks = append(l.blocks, b)
	}
	cur := &l.blocks[len(l.blocks)-1]
	idx := cur.next
	cur.next++
	return types.BlankNodeIndex(idx), nil
}

// Contains reports whether idx was issued by this allocator.
func (l *LocalManager) Contains(idx types.BlankNodeIndex) bool {
	for _, b := range l.blocks {
		if uint64(idx) >= b.start && uint64(idx) < b.next {
			return true
		}
	}
	return false
}
