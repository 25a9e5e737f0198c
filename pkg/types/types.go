package types

// Datatype is the tag stored in the top bits of an Id.
type Datatype uint8

const (
	Undefined Datatype = iota
	Bool
	Int
	Double
	VocabIndex
	LocalVocabIndexType
	TextRecordIndex
	BlankNodeIndexType
)

// String returns a string representation of the datatype
func (d Datatype) String() string {
	switch d {
	case Undefined:
		return "Undefined"
	case Bool:
		return "Bool"
	case Int:
		return "Int"
	case Double:
		return "Double"
	case VocabIndex:
		return "VocabIndex"
	case LocalVocabIndexType:
		return "LocalVocabIndex"
	case TextRecordIndex:
		return "TextRecordIndex"
	case BlankNodeIndexType:
		return "BlankNodeIndex"
	default:
		return "Unknown"
	}
}
