package scanner

import (
	"context"
	"fmt"
	"strings"

	"github.com/s1dharth-s/qlever/pkg/dberror"
	"github.com/s1dharth-s/qlever/pkg/execution"
	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/vocab"
)

// IndexScan reads a whole permutation. Its result is sorted on column 0, and
// it can be consumed lazily through Stream, which is what the join uses to
// avoid reading parts of the scan that cannot match.
//
// Performance characteristics:
//   - ComputeResult: O(n), materializes every row
//   - Stream: O(log n) per block or seek, plus the rows actually read
type IndexScan struct {
	index *Index
	vars  []execution.Variable
}

var _ execution.LazyScan = (*IndexScan)(nil)

// NewIndexScan creates a scan of ix binding its columns to vars in order.
func NewIndexScan(ix *Index, vars ...execution.Variable) (*IndexScan, error) {
	if ix == nil {
		return nil, dberror.InvalidPlan("IndexScan", "index cannot be nil")
	}
	if len(vars) != ix.Width() {
		return nil, dberror.InvalidPlan("IndexScan",
			fmt.Sprintf("%d variables for index %s of width %d", len(vars), ix.Name(), ix.Width()))
	}
	return &IndexScan{index: ix, vars: vars}, nil
}

func (s *IndexScan) Descriptor() string {
	names := make([]string, len(s.vars))
	for i, v := range s.vars {
		names[i] = string(v)
	}
	return fmt.Sprintf("IndexScan %s %s", s.index.Name(), strings.Join(names, " "))
}

func (s *IndexScan) ResultWidth() int             { return s.index.Width() }
func (s *IndexScan) ResultSortedOn() []int        { return []int{0} }
func (s *IndexScan) SizeEstimate() uint64         { return uint64(s.index.Len()) }
func (s *IndexScan) CostEstimate() uint64         { return uint64(s.index.Len()) }
func (s *IndexScan) Multiplicity(col int) float64 { return s.index.Multiplicity(col) }
func (s *IndexScan) KnownEmptyResult() bool       { return s.index.Len() == 0 }
func (s *IndexScan) Children() []*execution.Tree  { return nil }
func (s *IndexScan) CacheKey() string             { return "SCAN " + s.index.Name() }

func (s *IndexScan) VariableColumns() execution.VariableToColumnMap {
	m := make(execution.VariableToColumnMap, len(s.vars))
	for i, v := range s.vars {
		m[v] = i
	}
	return m
}

// Stream returns a lazy stream over a snapshot of the permutation.
func (s *IndexScan) Stream(blockSize int) (execution.BlockStream, error) {
	return newBlockStream(s.index.snapshot(), s.index.Width(), blockSize), nil
}

// ComputeResult materializes the permutation.
func (s *IndexScan) ComputeResult(ctx context.Context, qec *execution.Context) (*execution.Result, error) {
	check := execution.Checker(ctx, s.Descriptor())
	interval := qec.Config.Join.CancellationCheckInterval

	tree := s.index.snapshot()
	table := idtable.New(s.index.Width())
	table.Reserve(tree.Len())

	var err error
	tree.Ascend(func(r row) bool {
		if table.NumRows()%interval == 0 {
			if err = check(); err != nil {
				return false
			}
		}
		table.AppendRow(r...)
		return true
	})
	if err != nil {
		return nil, err
	}
	return &execution.Result{
		Table:    table,
		SortedOn: []int{0},
		Vocab:    vocab.New(qec.Limit),
	}, nil
}
