package vocab

import (
	"strings"
	"unsafe"

	"github.com/cespare/xxhash/v2"

	"github.com/s1dharth-s/qlever/pkg/memory"
)

// Kind tells IRIs and literals apart.
type Kind uint8

const (
	KindIri Kind = iota
	KindLiteral
)

// LiteralOrIri is an immutable RDF term that is either an IRI or a literal
// with an optional language tag or datatype. Two values are equal iff all of
// their parts are equal, so the struct can be compared with ==.
type LiteralOrIri struct {
	kind     Kind
	content  string
	langTag  string
	datatype string
}

// NewIri creates an IRI. Surrounding angle brackets are stripped.
func NewIri(iri string) LiteralOrIri {
	if len(iri) >= 2 && iri[0] == '<' && iri[len(iri)-1] == '>' {
		iri = iri[1 : len(iri)-1]
	}
	return LiteralOrIri{kind: KindIri, content: iri}
}

// NewLiteral creates a plain literal.
func NewLiteral(content string) LiteralOrIri {
	return LiteralOrIri{kind: KindLiteral, content: content}
}

// NewLangLiteral creates a literal with a language tag such as "en".
func NewLangLiteral(content, langTag string) LiteralOrIri {
	return LiteralOrIri{kind: KindLiteral, content: content, langTag: strings.TrimPrefix(langTag, "@")}
}

// NewTypedLiteral creates a literal with a datatype IRI.
func NewTypedLiteral(content, datatype string) LiteralOrIri {
	return LiteralOrIri{kind: KindLiteral, content: content, datatype: NewIri(datatype).content}
}

func (l LiteralOrIri) IsIri() bool         { return l.kind == KindIri }
func (l LiteralOrIri) IsLiteral() bool     { return l.kind == KindLiteral }
func (l LiteralOrIri) Content() string     { return l.content }
func (l LiteralOrIri) LanguageTag() string { return l.langTag }
func (l LiteralOrIri) Datatype() string    { return l.datatype }

// String returns the term in its SPARQL representation.
func (l LiteralOrIri) String() string {
	if l.kind == KindIri {
		return "<" + l.content + ">"
	}
	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(l.content)
	b.WriteByte('"')
	switch {
	case l.langTag != "":
		b.WriteByte('@')
		b.WriteString(l.langTag)
	case l.datatype != "":
		b.WriteString("^^<")
		b.WriteString(l.datatype)
		b.WriteByte('>')
	}
	return b.String()
}

// DynamicMemoryUsage returns the number of heap bytes owned by the value.
func (l LiteralOrIri) DynamicMemoryUsage() memory.Size {
	return memory.Size(len(l.content) + len(l.langTag) + len(l.datatype))
}

// entrySize is the static footprint of one stored value.
const entrySize = memory.Size(unsafe.Sizeof(LiteralOrIri{}))

// footprint is what interning l charges against a memory limit.
func footprint(l LiteralOrIri) memory.Size {
	return entrySize + l.DynamicMemoryUsage()
}

func (l LiteralOrIri) hash() uint64 {
	d := xxhash.New()
	_, _ = d.Write([]byte{byte(l.kind)})
	_, _ = d.WriteString(l.content)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(l.langTag)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(l.datatype)
	return d.Sum64()
}
