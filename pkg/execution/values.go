package execution

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/s1dharth-s/qlever/pkg/dberror"
	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/types"
	"github.com/s1dharth-s/qlever/pkg/vocab"
)

// Values is a leaf operation over a fixed table, such as the rows of a
// VALUES clause. Its statistics are exact.
type Values struct {
	table    *idtable.IdTable
	vars     []Variable
	vocab    *vocab.LocalVocab
	sortedOn []int
	mult     []float64
	cacheKey string
}

// NewValues creates a Values operation. vars names the columns of table in
// order. lv resolves local vocabulary indices in table and may be nil.
func NewValues(vars []Variable, table *idtable.IdTable, lv *vocab.LocalVocab) (*Values, error) {
	if len(vars) != table.NumColumns() {
		return nil, dberror.InvalidPlan("Values",
			fmt.Sprintf("%d variables for a table of width %d", len(vars), table.NumColumns()))
	}
	seen := make(map[Variable]bool, len(vars))
	for _, v := range vars {
		if seen[v] {
			return nil, dberror.InvalidPlan("Values", fmt.Sprintf("variable %s appears twice", v))
		}
		seen[v] = true
	}

	op := &Values{table: table, vars: vars, vocab: lv}
	op.mult = make([]float64, table.NumColumns())
	for c := range op.mult {
		if table.IsSortedOn(c) {
			op.sortedOn = append(op.sortedOn, c)
		}
		op.mult[c] = multiplicity(table.Column(c))
	}
	op.cacheKey = op.computeCacheKey()
	return op, nil
}

func multiplicity(col []types.Id) float64 {
	if len(col) == 0 {
		return 1
	}
	distinct := make(map[types.Id]struct{}, len(col))
	for _, id := range col {
		distinct[id] = struct{}{}
	}
	return float64(len(col)) / float64(len(distinct))
}

func (v *Values) computeCacheKey() string {
	d := xxhash.New()
	var buf [8]byte
	for c := 0; c < v.table.NumColumns(); c++ {
		for _, id := range v.table.Column(c) {
			binary.LittleEndian.PutUint64(buf[:], uint64(id))
			_, _ = d.Write(buf[:])
		}
	}
	names := make([]string, len(v.vars))
	for i, name := range v.vars {
		names[i] = string(name)
	}
	return fmt.Sprintf("VALUES (%s) #%016x", strings.Join(names, " "), d.Sum64())
}

func (v *Values) Descriptor() string {
	names := make([]string, len(v.vars))
	for i, name := range v.vars {
		names[i] = string(name)
	}
	return "Values for " + strings.Join(names, " ")
}

func (v *Values) ResultWidth() int             { return v.table.NumColumns() }
func (v *Values) ResultSortedOn() []int        { return v.sortedOn }
func (v *Values) SizeEstimate() uint64         { return uint64(v.table.NumRows()) }
func (v *Values) CostEstimate() uint64         { return uint64(v.table.NumRows()) }
func (v *Values) Multiplicity(col int) float64 { return v.mult[col] }
func (v *Values) KnownEmptyResult() bool       { return v.table.Empty() }
func (v *Values) Children() []*Tree            { return nil }
func (v *Values) CacheKey() string             { return v.cacheKey }

func (v *Values) VariableColumns() VariableToColumnMap {
	m := make(VariableToColumnMap, len(v.vars))
	for i, name := range v.vars {
		m[name] = i
	}
	return m
}

// ComputeResult returns the table. The vocabulary handed out is a clone, so
// releasing the result never releases the operation's own vocabulary.
func (v *Values) ComputeResult(ctx context.Context, qec *Context) (*Result, error) {
	if err := Checker(ctx, v.Descriptor())(); err != nil {
		return nil, err
	}
	var lv *vocab.LocalVocab
	if v.vocab != nil {
		lv = v.vocab.Clone()
	} else {
		lv = vocab.New(qec.Limit)
	}
	return &Result{Table: v.table, SortedOn: v.sortedOn, Vocab: lv}, nil
}
