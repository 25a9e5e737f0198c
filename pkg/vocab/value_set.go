package vocab

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/s1dharth-s/qlever/pkg/dberror"
	"github.com/s1dharth-s/qlever/pkg/memory"
	"github.com/s1dharth-s/qlever/pkg/types"
)

// chunkCapacity is the number of values per storage chunk. Chunks are
// allocated with this capacity up front and never grow, so a value never
// moves once it is stored.
const chunkCapacity = 1024

// setIDs hands out process-wide set identifiers. An identifier belongs to
// one live set at a time: it is taken on the first value stored in a set and
// returned when the last holder of the set releases it. Identifier 0 marks a
// set that never stored anything and is never handed out.
var setIDs = struct {
	mu   sync.Mutex
	last uint32
	live map[uint32]struct{}
}{live: make(map[uint32]struct{})}

func acquireSetID() (uint32, error) {
	setIDs.mu.Lock()
	defer setIDs.mu.Unlock()

	for range types.MaxLocalSetID {
		setIDs.last = (setIDs.last + 1) & types.MaxLocalSetID
		if setIDs.last == 0 {
			continue
		}
		if _, taken := setIDs.live[setIDs.last]; !taken {
			setIDs.live[setIDs.last] = struct{}{}
			return setIDs.last, nil
		}
	}
	return 0, dberror.Exhausted("LocalVocab",
		fmt.Sprintf("all %d local vocabulary set ids are held by live sets", types.MaxLocalSetID))
}

func releaseSetID(id uint32) {
	setIDs.mu.Lock()
	delete(setIDs.live, id)
	setIDs.mu.Unlock()
}

// arena is the reference counted backing store shared by a ValueSet and all
// SharedSet snapshots taken of it. When the last holder releases it, the
// bytes charged for its values go back to the limit and its id becomes
// available again.
type arena struct {
	id      uint32 // 0 until the first value is stored
	limit   *memory.Limit
	charged memory.Size // written only by the owning ValueSet
	refs    atomic.Int32
}

func (a *arena) retain() { a.refs.Add(1) }

func (a *arena) release() {
	if a.refs.Add(-1) == 0 {
		a.limit.Free(a.charged)
		if a.id != 0 {
			releaseSetID(a.id)
		}
	}
}

// ValueSet is the mutable, exclusively owned set of values of one local
// vocabulary. It deduplicates by content and charges every new value against
// a memory limit.
type ValueSet struct {
	a      *arena
	chunks [][]LiteralOrIri
	index  map[uint64][]uint32 // content hash -> slots
	size   int
}

// NewValueSet creates an empty set that charges limit.
func NewValueSet(limit *memory.Limit) *ValueSet {
	a := &arena{limit: limit}
	a.refs.Store(1)
	return &ValueSet{
		a:     a,
		index: make(map[uint64][]uint32),
	}
}

// ID returns the process-wide identifier of the set, or 0 while the set is
// empty.
func (s *ValueSet) ID() uint32 { return s.a.id }

// Size returns the number of distinct values in the set.
func (s *ValueSet) Size() int { return s.size }

// MemoryUsage returns the bytes charged for the values of the set.
func (s *ValueSet) MemoryUsage() memory.Size { return s.a.charged }

func (s *ValueSet) at(slot uint32) *LiteralOrIri {
	return &s.chunks[slot/chunkCapacity][slot%chunkCapacity]
}

// Intern returns the index of v, adding it first if the set does not hold an
// equal value yet. If the memory limit refuses the value, the set is left
// unchanged and the out-of-memory error is returned.
func (s *ValueSet) Intern(v LiteralOrIri) (types.LocalVocabIndex, error) {
	h := v.hash()
	for _, slot := range s.index[h] {
		if *s.at(slot) == v {
			return types.MakeLocalVocabIndex(s.a.id, slot), nil
		}
	}

	if s.size > int(types.MaxLocalSlot) {
		return 0, dberror.Exhausted("LocalVocab",
			fmt.Sprintf("set %d already holds %d values", s.a.id, s.size))
	}
	if s.a.id == 0 {
		id, err := acquireSetID()
		if err != nil {
			return 0, err
		}
		s.a.id = id
	}

	cost := footprint(v)
	if err := s.a.limit.Allocate(cost); err != nil {
		return 0, err
	}
	s.a.charged += cost

	n := len(s.chunks)
	if n == 0 || len(s.chunks[n-1]) == chunkCapacity {
		s.chunks = append(s.chunks, make([]LiteralOrIri, 0, chunkCapacity))
		n++
	}
	s.chunks[n-1] = append(s.chunks[n-1], v)

	slot := uint32(s.size)
	s.size++
	s.index[h] = append(s.index[h], slot)
	return types.MakeLocalVocabIndex(s.a.id, slot), nil
}

// Lookup returns the index of v if the set holds it.
func (s *ValueSet) Lookup(v LiteralOrIri) (types.LocalVocabIndex, bool) {
	for _, slot := range s.index[v.hash()] {
		if *s.at(slot) == v {
			return types.MakeLocalVocabIndex(s.a.id, slot), true
		}
	}
	return 0, false
}

// Get returns the value stored in slot. The pointer stays valid for the
// lifetime of the set.
func (s *ValueSet) Get(slot uint32) (*LiteralOrIri, bool) {
	if int(slot) >= s.size {
		return nil, false
	}
	return s.at(slot), true
}

// Share returns an immutable snapshot of the current contents. Values added
// to s afterwards are not visible through the snapshot, and the snapshot can
// be read concurrently while s keeps growing. The snapshot holds a reference
// on the storage until it is released.
func (s *ValueSet) Share() *SharedSet {
	s.a.retain()
	chunks := make([][]LiteralOrIri, len(s.chunks))
	copy(chunks, s.chunks)
	return &SharedSet{a: s.a, id: s.a.id, chunks: chunks, size: s.size}
}

// Release drops the owner's reference on the storage.
func (s *ValueSet) Release() {
	s.a.release()
}

// SharedSet is a read-only view of a ValueSet's contents at the moment it
// was shared. It may be held by many local vocabularies at once, each of
// which holds its own reference.
type SharedSet struct {
	a      *arena
	id     uint32
	chunks [][]LiteralOrIri
	size   int
}

// ID returns the identifier of the set the snapshot was taken of.
func (s *SharedSet) ID() uint32 { return s.id }

// Size returns the number of values in the snapshot.
func (s *SharedSet) Size() int { return s.size }

// Get returns the value stored in slot.
func (s *SharedSet) Get(slot uint32) (*LiteralOrIri, bool) {
	if int(slot) >= s.size {
		return nil, false
	}
	return &s.chunks[slot/chunkCapacity][slot%chunkCapacity], true
}

func (s *SharedSet) acquire() *SharedSet {
	s.a.retain()
	return s
}

func (s *SharedSet) release() { s.a.release() }

func (s *SharedSet) each(fn func(LiteralOrIri)) {
	for _, c := range s.chunks {
		for _, v := range c {
			fn(v)
		}
	}
}
