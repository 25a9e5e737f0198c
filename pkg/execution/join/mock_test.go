package join

import (
	"context"

	"github.com/s1dharth-s/qlever/pkg/execution"
	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/vocab"
)

// mockOperation is a materialized child whose statistics and declared order
// are set by the test.
type mockOperation struct {
	vars       []execution.Variable
	table      *idtable.IdTable
	sortedOn   []int
	size       uint64
	mult       []float64
	cost       uint64
	knownEmpty bool
	computed   int
}

func newMock(table *idtable.IdTable, sortedOn []int, vars ...execution.Variable) *mockOperation {
	mult := make([]float64, table.NumColumns())
	for i := range mult {
		mult[i] = 1
	}
	return &mockOperation{
		vars:     vars,
		table:    table,
		sortedOn: sortedOn,
		size:     uint64(table.NumRows()),
		mult:     mult,
	}
}

func (m *mockOperation) Descriptor() string           { return "Mock" }
func (m *mockOperation) ResultWidth() int             { return m.table.NumColumns() }
func (m *mockOperation) ResultSortedOn() []int        { return m.sortedOn }
func (m *mockOperation) SizeEstimate() uint64         { return m.size }
func (m *mockOperation) CostEstimate() uint64         { return m.cost }
func (m *mockOperation) Multiplicity(col int) float64 { return m.mult[col] }
func (m *mockOperation) KnownEmptyResult() bool       { return m.knownEmpty }
func (m *mockOperation) Children() []*execution.Tree  { return nil }
func (m *mockOperation) CacheKey() string             { return "MOCK " + string(m.vars[0]) }
func (m *mockOperation) VariableColumns() execution.VariableToColumnMap {
	vc := make(execution.VariableToColumnMap)
	for i, v := range m.vars {
		vc[v] = i
	}
	return vc
}

func (m *mockOperation) ComputeResult(ctx context.Context, qec *execution.Context) (*execution.Result, error) {
	m.computed++
	if err := execution.Checker(ctx, m.Descriptor())(); err != nil {
		return nil, err
	}
	return &execution.Result{Table: m.table, SortedOn: m.sortedOn, Vocab: vocab.New(qec.Limit)}, nil
}
