package types

import (
	"fmt"
	"math"
)

const (
	numDatatypeBits = 4
	numDataBits     = 64 - numDatatypeBits

	// MaxPayload is the largest value that fits in the payload of an Id.
	MaxPayload = uint64(1)<<numDataBits - 1

	localSetBits  = 28
	localSlotBits = numDataBits - localSetBits

	// MaxLocalSetID is the largest set identifier a LocalVocabIndex can carry.
	MaxLocalSetID = uint32(1)<<localSetBits - 1
	// MaxLocalSlot is the largest slot a LocalVocabIndex can carry.
	MaxLocalSlot = uint32(math.MaxUint32)
)

// Id is a tagged 64-bit value identifier. The top 4 bits hold the Datatype,
// the remaining 60 bits the payload. Ids order by datatype first and by
// payload within one datatype, which is the order the join algorithms use.
type Id uint64

// LocalVocabIndex identifies a value inside a local vocabulary. It packs the
// identifier of the value set that owns the value and the value's slot in
// that set, so an index stays valid after its set is merged elsewhere.
type LocalVocabIndex uint64

// BlankNodeIndex identifies a blank node.
type BlankNodeIndex uint64

func makeId(dt Datatype, payload uint64) Id {
	return Id(uint64(dt)<<numDataBits | payload&MaxPayload)
}

// UndefinedId returns the Id used for unbound values.
func UndefinedId() Id { return makeId(Undefined, 0) }

// MakeFromBool encodes a boolean.
func MakeFromBool(b bool) Id {
	if b {
		return makeId(Bool, 1)
	}
	return makeId(Bool, 0)
}

// MakeFromInt encodes an integer. Values outside the 60-bit range are
// truncated to their low 60 bits.
func MakeFromInt(i int64) Id {
	return makeId(Int, uint64(i))
}

// MakeFromVocabIndex encodes an index into the persistent dictionary.
func MakeFromVocabIndex(i uint64) Id { return makeId(VocabIndex, i) }

// MakeFromTextRecordIndex encodes a text record index.
func MakeFromTextRecordIndex(i uint64) Id { return makeId(TextRecordIndex, i) }

// MakeFromLocalVocabIndex encodes a local vocabulary index.
func MakeFromLocalVocabIndex(i LocalVocabIndex) Id {
	return makeId(LocalVocabIndexType, uint64(i))
}

// MakeFromBlankNodeIndex encodes a blank node index.
func MakeFromBlankNodeIndex(i BlankNodeIndex) Id {
	return makeId(BlankNodeIndexType, uint64(i))
}

// Datatype returns the tag of the id.
func (id Id) Datatype() Datatype { return Datatype(uint64(id) >> numDataBits) }

// Bits returns the raw payload.
func (id Id) Bits() uint64 { return uint64(id) & MaxPayload }

// IsUndefined reports whether the id is the unbound marker.
func (id Id) IsUndefined() bool { return id.Datatype() == Undefined }

// Int returns the integer payload, sign-extended from 60 bits.
func (id Id) Int() int64 {
	return int64(id.Bits()<<numDatatypeBits) >> numDatatypeBits
}

// Bool returns the boolean payload.
func (id Id) Bool() bool { return id.Bits() != 0 }

// LocalVocabIndex returns the local vocabulary payload.
func (id Id) LocalVocabIndex() LocalVocabIndex { return LocalVocabIndex(id.Bits()) }

// BlankNodeIndex returns the blank node payload.
func (id Id) BlankNodeIndex() BlankNodeIndex { return BlankNodeIndex(id.Bits()) }

// String returns a debug representation such as "Int:42".
func (id Id) String() string {
	switch id.Datatype() {
	case Undefined:
		return "U"
	case Int:
		return fmt.Sprintf("I:%d", id.Int())
	case Bool:
		return fmt.Sprintf("B:%t", id.Bool())
	case LocalVocabIndexType:
		return "L:" + id.LocalVocabIndex().String()
	default:
		return fmt.Sprintf("%s:%d", id.Datatype(), id.Bits())
	}
}

// MakeLocalVocabIndex packs a set identifier and a slot.
func MakeLocalVocabIndex(setID uint32, slot uint32) LocalVocabIndex {
	return LocalVocabIndex(uint64(setID&MaxLocalSetID)<<localSlotBits | uint64(slot))
}

// SetID returns the identifier of the value set owning the index.
func (i LocalVocabIndex) SetID() uint32 { return uint32(uint64(i) >> localSlotBits) }

// Slot returns the position of the value inside its set.
func (i LocalVocabIndex) Slot() uint32 { return uint32(uint64(i) & (1<<localSlotBits - 1)) }

func (i LocalVocabIndex) String() string {
	return fmt.Sprintf("%d/%d", i.SetID(), i.Slot())
}
