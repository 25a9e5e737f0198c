package execution

import (
	"context"
	"slices"
	"sync"

	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/vocab"
)

// Variable is a query variable such as "?x".
type Variable string

// VariableToColumnMap maps each variable of a result to its column.
type VariableToColumnMap map[Variable]int

// Result is the computed output of an operation.
type Result struct {
	Table *idtable.IdTable

	// SortedOn lists the columns the rows are known to be in ascending
	// order of.
	SortedOn []int

	// Vocab resolves the local vocabulary indices stored in Table. It may be
	// shared with other results and must not be modified; clone it first.
	Vocab *vocab.LocalVocab
}

// IsSortedOn reports whether the result is known to be sorted on col.
func (r *Result) IsSortedOn(col int) bool { return slices.Contains(r.SortedOn, col) }

// Operation is a node of an execution tree.
type Operation interface {
	// Descriptor is a short human readable description used in plan output.
	Descriptor() string

	// ResultWidth returns the number of columns of the result.
	ResultWidth() int

	// ResultSortedOn lists the columns the result will be sorted on.
	ResultSortedOn() []int

	// SizeEstimate estimates the number of result rows.
	SizeEstimate() uint64

	// CostEstimate estimates the cost of computing the result, children
	// included.
	CostEstimate() uint64

	// Multiplicity estimates the average number of rows per distinct value
	// of col. It is at least 1.
	Multiplicity(col int) float64

	// KnownEmptyResult reports whether the result is statically known to be
	// empty.
	KnownEmptyResult() bool

	// Children returns the direct children.
	Children() []*Tree

	// CacheKey uniquely identifies the result of the operation.
	CacheKey() string

	// VariableColumns maps the variables of the result to their columns.
	VariableColumns() VariableToColumnMap

	// ComputeResult computes the result. It fails with a timeout error if ctx
	// is cancelled during computation and with an out-of-memory error if the
	// memory limit of qec is exhausted.
	ComputeResult(ctx context.Context, qec *Context) (*Result, error)
}

// LazyScan is implemented by operations whose result can be consumed as a
// stream of blocks sorted on column 0 without materializing it.
type LazyScan interface {
	Operation

	// Stream returns a fresh stream over the result, blockSize rows at a
	// time.
	Stream(blockSize int) (BlockStream, error)
}

// Kind is the shape of a child as far as join dispatch is concerned.
type Kind int

const (
	// KindMaterialized is any operation whose result is computed as a whole.
	KindMaterialized Kind = iota

	// KindIndexScan is a raw index scan that can be read lazily.
	KindIndexScan
)

func (k Kind) String() string {
	switch k {
	case KindIndexScan:
		return "index-scan"
	default:
		return "materialized"
	}
}

// Tree owns one operation and caches its result.
type Tree struct {
	op Operation

	mu     sync.Mutex
	result *Result
}

// NewTree wraps op.
func NewTree(op Operation) *Tree {
	return &Tree{op: op}
}

// Operation returns the wrapped operation.
func (t *Tree) Operation() Operation { return t.op }

// Kind classifies the wrapped operation.
func (t *Tree) Kind() Kind {
	if _, ok := t.op.(LazyScan); ok {
		return KindIndexScan
	}
	return KindMaterialized
}

// Variable returns the variable bound to col, or "" if there is none.
func (t *Tree) Variable(col int) Variable {
	for v, c := range t.op.VariableColumns() {
		if c == col {
			return v
		}
	}
	return ""
}

// IsSortedOn reports whether the result will be sorted on col.
func (t *Tree) IsSortedOn(col int) bool {
	return slices.Contains(t.op.ResultSortedOn(), col)
}

// Result returns the cached result, computing it on first use. Errors are
// not cached.
func (t *Tree) Result(ctx context.Context, qec *Context) (*Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.result != nil {
		return t.result, nil
	}
	res, err := t.op.ComputeResult(ctx, qec)
	if err != nil {
		return nil, err
	}
	t.result = res
	return res, nil
}

// Release drops the cached result and its vocabulary references.
func (t *Tree) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.result != nil && t.result.Vocab != nil {
		t.result.Vocab.Release()
	}
	t.result = nil
}
