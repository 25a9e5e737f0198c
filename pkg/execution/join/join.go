// Package join implements the join of two execution tree nodes on one
// shared variable.
//
// The Join operation estimates its result from its children's statistics
// and, when asked for its result, picks a physical algorithm from the shape
// of its children:
//
//   - both children are index scans on the join column: both scans are read
//     lazily in lock-step (zipper join);
//   - one child is such an index scan: the other child is materialized and
//     streamed against the scan;
//   - both children are sorted on the join column: merge join, or galloping
//     join when one side is much larger than the other;
//   - otherwise: hash join, built on the smaller side.
//
// The output always has the columns of the left child followed by the
// columns of the right child without its join column.
package join

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/s1dharth-s/qlever/pkg/dberror"
	"github.com/s1dharth-s/qlever/pkg/execution"
)

// Join is the execution tree node joining two children on one column each.
type Join struct {
	left, right       *execution.Tree
	leftCol, rightCol int
	joinVar           execution.Variable

	estimateOnce sync.Once
	sizeEstimate uint64
	multiplicity []float64

	lastAlgorithm atomic.Int32
}

var _ execution.Operation = (*Join)(nil)

// New creates a join of left and right on columns leftCol and rightCol. The
// two columns must be bound to the same variable.
//
// Parameters:
//   - left, right: The children; neither may be nil
//   - leftCol, rightCol: The join column of each child
//
// Returns:
//   - *Join: The join operation
//   - error: If a child is missing, a column is out of range or the join
//     columns are bound to different variables
func New(left, right *execution.Tree, leftCol, rightCol int) (*Join, error) {
	if left == nil || right == nil {
		return nil, dberror.InvalidPlan("Join", "join needs two children")
	}
	if leftCol < 0 || leftCol >= left.Operation().ResultWidth() {
		return nil, dberror.InvalidPlan("Join",
			fmt.Sprintf("left join column %d out of range for width %d", leftCol, left.Operation().ResultWidth()))
	}
	if rightCol < 0 || rightCol >= right.Operation().ResultWidth() {
		return nil, dberror.InvalidPlan("Join",
			fmt.Sprintf("right join column %d out of range for width %d", rightCol, right.Operation().ResultWidth()))
	}

	lv, rv := left.Variable(leftCol), right.Variable(rightCol)
	if lv == "" || lv != rv {
		return nil, dberror.InvalidPlan("Join",
			fmt.Sprintf("join columns are bound to %q and %q", lv, rv))
	}

	return &Join{
		left:     left,
		right:    right,
		leftCol:  leftCol,
		rightCol: rightCol,
		joinVar:  lv,
	}, nil
}

// NewInvalidForTesting creates a join without children. Only Descriptor,
// JoinVariable and LastAlgorithm may be used on it; everything else touches
// the children.
func NewInvalidForTesting() *Join {
	return &Join{joinVar: "?notAVariable"}
}

// Descriptor returns "Join on ?x".
func (j *Join) Descriptor() string { return "Join on " + string(j.joinVar) }

// JoinVariable returns the variable the children are joined on.
func (j *Join) JoinVariable() execution.Variable { return j.joinVar }

// JoinColumns returns the join column of the left and the right child.
func (j *Join) JoinColumns() (int, int) { return j.leftCol, j.rightCol }

func (j *Join) Children() []*execution.Tree { return []*execution.Tree{j.left, j.right} }

// ResultWidth is the sum of both widths minus the shared join column.
func (j *Join) ResultWidth() int {
	return j.left.Operation().ResultWidth() + j.right.Operation().ResultWidth() - 1
}

// KnownEmptyResult is true if either child is known to be empty.
func (j *Join) KnownEmptyResult() bool {
	return j.left.Operation().KnownEmptyResult() || j.right.Operation().KnownEmptyResult()
}

// ResultSortedOn returns the join column (the left child's join column in
// the output) if the algorithm that will run keeps or establishes an order
// on it. For the hash join this depends on which side is probed, which is
// predicted from the size estimates; the computed result reports the actual
// order.
func (j *Join) ResultSortedOn() []int {
	if j.predictAlgorithm().sortsOutput(j) {
		return []int{j.leftCol}
	}
	return nil
}

// CacheKey combines the children's cache keys and the join columns.
func (j *Join) CacheKey() string {
	return fmt.Sprintf("JOIN\n%s join-column: [%d]\n|X|\n%s join-column: [%d]",
		j.left.Operation().CacheKey(), j.leftCol, j.right.Operation().CacheKey(), j.rightCol)
}

// VariableColumns maps the variables of both children to their output
// columns. The join variable keeps the left child's column.
func (j *Join) VariableColumns() execution.VariableToColumnMap {
	m := make(execution.VariableToColumnMap)
	for v, c := range j.left.Operation().VariableColumns() {
		m[v] = c
	}
	for v, c := range j.right.Operation().VariableColumns() {
		if c == j.rightCol {
			continue
		}
		m[v] = j.rightOutputColumn(c)
	}
	return m
}

// rightOutputColumn returns the output column of column c of the right
// child, which must not be the right join column.
func (j *Join) rightOutputColumn(c int) int {
	out := j.left.Operation().ResultWidth() + c
	if c > j.rightCol {
		out--
	}
	return out
}

// LastAlgorithm returns the algorithm used by the most recent call to
// ComputeResult, or AlgorithmNone if the result was never computed.
func (j *Join) LastAlgorithm() Algorithm { return Algorithm(j.lastAlgorithm.Load()) }
