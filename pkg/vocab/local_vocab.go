package vocab

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/s1dharth-s/qlever/pkg/blanknode"
	"github.com/s1dharth-s/qlever/pkg/dberror"
	"github.com/s1dharth-s/qlever/pkg/logging"
	"github.com/s1dharth-s/qlever/pkg/memory"
	"github.com/s1dharth-s/qlever/pkg/metrics"
	"github.com/s1dharth-s/qlever/pkg/types"
)

// LocalVocab holds the values that come into existence while a query is
// evaluated and are not part of the persistent dictionary, together with
// contiguous local indices for them.
//
// A LocalVocab owns one mutable primary set. Values of child results are
// kept alive through shared, read-only snapshots ("other sets") so that the
// indices stored in the children's rows stay resolvable in the parent.
// Indices handed out for values of different sets never collide, because an
// index carries the identifier of the set that owns the value.
//
// A LocalVocab is not safe for concurrent mutation. Once a vocabulary is
// shared (for example through a result cache) it must only be read; use
// Clone to obtain an extension that can be modified.
type LocalVocab struct {
	limit   *memory.Limit
	primary *ValueSet

	others    []*SharedSet
	otherByID map[uint32]*SharedSet

	blankNodes *blanknode.LocalManager
	released   bool
}

// New creates an empty local vocabulary charging limit. A nil limit gives
// the vocabulary its own budget of memory.DefaultLimit.
func New(limit *memory.Limit) *LocalVocab {
	if limit == nil {
		limit = memory.NewLimit(memory.DefaultLimit)
	}
	return &LocalVocab{
		limit:     limit,
		primary:   NewValueSet(limit),
		otherByID: make(map[uint32]*SharedSet),
	}
}

// InternOrReuse returns the index of word, adding it to the primary set if
// the primary set does not hold it yet. Other sets are not consulted, so the
// same value may end up in more than one set.
func (v *LocalVocab) InternOrReuse(word LiteralOrIri) (types.LocalVocabIndex, error) {
	before := v.primary.Size()
	idx, err := v.primary.Intern(word)
	if err != nil {
		metrics.VocabOutOfMemory.Inc()
		logging.WithComponent("local_vocab").Warn("value refused by memory limit",
			"bytes", footprint(word), "left", v.limit.Left())
		return 0, err
	}
	if v.primary.Size() != before {
		metrics.VocabInterned.Inc()
	}
	return idx, nil
}

// Lookup returns the index of word if the primary set holds it. Values that
// only live in other sets are not found.
func (v *LocalVocab) Lookup(word LiteralOrIri) (types.LocalVocabIndex, bool) {
	return v.primary.Lookup(word)
}

// Resolve returns the value of idx. idx may come from the primary set or
// from any of the other sets. Resolving an index that none of the sets
// issued is a caller error and returns a not-found error.
func (v *LocalVocab) Resolve(idx types.LocalVocabIndex) (LiteralOrIri, error) {
	setID, slot := idx.SetID(), idx.Slot()
	if setID == v.primary.ID() {
		if w, ok := v.primary.Get(slot); ok {
			return *w, nil
		}
	} else if s, ok := v.otherByID[setID]; ok {
		if w, ok := s.Get(slot); ok {
			return *w, nil
		}
	}
	return LiteralOrIri{}, dberror.NotFound("LocalVocab",
		fmt.Sprintf("local vocab index %s was not issued by this vocabulary", idx))
}

// Size returns the number of values over all sets. Values present in more
// than one set are counted once per set. Runs in time linear in the number
// of sets.
func (v *LocalVocab) Size() int {
	n := v.primary.Size()
	for _, s := range v.others {
		n += s.Size()
	}
	return n
}

// Empty reports whether the vocabulary holds no values at all.
func (v *LocalVocab) Empty() bool { return v.Size() == 0 }

// MemoryUsage returns the bytes charged for the primary set.
func (v *LocalVocab) MemoryUsage() memory.Size { return v.primary.MemoryUsage() }

// Limit returns the budget the vocabulary charges.
func (v *LocalVocab) Limit() *memory.Limit { return v.limit }

// NumSets returns the number of sets backing the vocabulary, the primary set
// included.
func (v *LocalVocab) NumSets() int { return len(v.others) + 1 }

// Clone returns a logical copy. The copy shares all other sets of v and a
// snapshot of v's primary set, and gets a fresh empty primary set of its
// own, so it can be extended without touching v. Runs in time linear in the
// number of sets.
func (v *LocalVocab) Clone() *LocalVocab {
	c := New(v.limit)
	for _, s := range v.others {
		c.addOther(s.acquire())
	}
	c.sharePrimaryOf(v)
	return c
}

// Merge creates a vocabulary with an empty primary set that keeps alive all
// values of vocabs. The sets of each input are appended in argument order,
// other sets before the primary set, without deduplication. The result
// charges the limit of the first non-nil input.
func Merge(vocabs ...*LocalVocab) *LocalVocab {
	var limit *memory.Limit
	for _, vocab := range vocabs {
		if vocab != nil {
			limit = vocab.limit
			break
		}
	}
	res := New(limit)
	res.MergeWith(vocabs...)
	return res
}

// MergeWith appends the sets of vocabs to v's other sets, keeping their
// values alive and resolvable through v.
func (v *LocalVocab) MergeWith(vocabs ...*LocalVocab) {
	for _, vocab := range vocabs {
		if vocab == nil {
			continue
		}
		for _, s := range vocab.others {
			v.addOther(s.acquire())
		}
		v.sharePrimaryOf(vocab)
	}
}

func (v *LocalVocab) sharePrimaryOf(src *LocalVocab) {
	if src.primary.Size() == 0 {
		return
	}
	v.addOther(src.primary.Share())
}

func (v *LocalVocab) addOther(s *SharedSet) {
	v.others = append(v.others, s)
	prev, ok := v.otherByID[s.ID()]
	if ok && prev.a != s.a {
		// Ids are held until every snapshot is released, so two live sets
		// never share one.
		panic(errors.AssertionFailedf("local vocab sets with distinct storage share id %d", s.ID()))
	}
	// Several snapshots of one set may meet here; the largest one resolves
	// every slot the smaller ones can.
	if !ok || prev.Size() < s.Size() {
		v.otherByID[s.ID()] = s
	}
}

// AllWords returns every value of every set, primary set first.
func (v *LocalVocab) AllWords() []LiteralOrIri {
	words := make([]LiteralOrIri, 0, v.Size())
	for _, c := range v.primary.chunks {
		words = append(words, c...)
	}
	for _, s := range v.others {
		s.each(func(w LiteralOrIri) { words = append(words, w) })
	}
	return words
}

// BlankNodeIndex returns a fresh blank node index drawn from m. The local
// allocator is created on first use.
func (v *LocalVocab) BlankNodeIndex(m *blanknode.Manager) (types.BlankNodeIndex, error) {
	if v.blankNodes == nil {
		if m == nil {
			return 0, errors.AssertionFailedf("blank node manager must not be nil")
		}
		v.blankNodes = blanknode.NewLocalManager(m)
	}
	return v.blankNodes.NextIndex()
}

// IsBlankNodeIndexContained reports whether idx was issued through
// BlankNodeIndex of this vocabulary. It is false if no blank node was ever
// requested.
func (v *LocalVocab) IsBlankNodeIndexContained(idx types.BlankNodeIndex) bool {
	return v.blankNodes != nil && v.blankNodes.Contains(idx)
}

// Release drops the references v holds. Memory charged for a set is returned
// to the limit once every vocabulary sharing the set has been released. The
// vocabulary must not be used afterwards. Calling Release twice is a no-op.
func (v *LocalVocab) Release() {
	if v.released {
		return
	}
	v.released = true
	v.primary.Release()
	for _, s := range v.others {
		s.release()
	}
	v.others = nil
	v.otherByID = nil
}
