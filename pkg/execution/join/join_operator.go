package join

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/s1dharth-s/qlever/pkg/dberror"
	"github.com/s1dharth-s/qlever/pkg/execution"
	"github.com/s1dharth-s/qlever/pkg/execution/join/internal/algorithm"
	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/logging"
	"github.com/s1dharth-s/qlever/pkg/metrics"
	"github.com/s1dharth-s/qlever/pkg/vocab"
)

// outcome is what one of the join paths produced.
type outcome struct {
	algorithm Algorithm
	table     *idtable.IdTable
	sorted    bool
	vocabs    []*vocab.LocalVocab
}

// ComputeResult computes the join. The children are computed (or streamed)
// as the chosen algorithm needs them. The local vocabulary of the result
// keeps the vocabularies of both children alive.
//
// The cancellation state of ctx is checked every
// Config.Join.CancellationCheckInterval rows and at every key group; once
// ctx is done the computation stops with a timeout error and the partial
// result is dropped.
func (j *Join) ComputeResult(ctx context.Context, qec *execution.Context) (*execution.Result, error) {
	start := time.Now()
	log := logging.WithOperation(j.Descriptor())
	checker := algorithm.NewChecker(execution.Checker(ctx, j.Descriptor()), qec.Config.Join.CancellationCheckInterval)

	var (
		res outcome
		err error
	)
	switch {
	case j.KnownEmptyResult():
		res = outcome{algorithm: AlgorithmEmpty, table: idtable.New(j.ResultWidth()), sorted: true}
	case isLazyScan(j.left, j.leftCol) && isLazyScan(j.right, j.rightCol):
		res, err = j.joinTwoScans(qec, checker)
	case isLazyScan(j.left, j.leftCol):
		res, err = j.joinScanAndTable(ctx, qec, checker, true)
	case isLazyScan(j.right, j.rightCol):
		res, err = j.joinScanAndTable(ctx, qec, checker, false)
	default:
		res, err = j.joinMaterialized(ctx, qec, checker)
	}
	if err != nil {
		if errors.Is(err, dberror.ErrTimeout) {
			metrics.JoinCancelled.Inc()
			log.Debug("join cancelled", "after", time.Since(start))
		}
		return nil, err
	}

	j.lastAlgorithm.Store(int32(res.algorithm))
	metrics.JoinAlgorithm.WithLabelValues(res.algorithm.String()).Inc()
	metrics.JoinResultRows.Add(float64(res.table.NumRows()))
	log.Debug("join computed",
		"algorithm", res.algorithm.String(),
		"rows", res.table.NumRows(),
		"estimate", j.SizeEstimate(),
		"elapsed", time.Since(start))

	var lv *vocab.LocalVocab
	if len(res.vocabs) > 0 {
		lv = vocab.Merge(res.vocabs...)
	} else {
		lv = vocab.New(qec.Limit)
	}
	var sortedOn []int
	if res.sorted {
		sortedOn = []int{j.leftCol}
	}
	return &execution.Result{Table: res.table, SortedOn: sortedOn, Vocab: lv}, nil
}

func (j *Join) stream(child *execution.Tree, qec *execution.Context) (execution.BlockStream, error) {
	scan, ok := child.Operation().(execution.LazyScan)
	if !ok {
		return nil, errors.AssertionFailedf("%s is not a lazy scan", child.Operation().Descriptor())
	}
	return scan.Stream(qec.Config.Join.ScanBlockSize)
}

// joinTwoScans joins two index scans without materializing either.
func (j *Join) joinTwoScans(qec *execution.Context, c *algorithm.Checker) (outcome, error) {
	ls, err := j.stream(j.left, qec)
	if err != nil {
		return outcome{}, err
	}
	rs, err := j.stream(j.right, qec)
	if err != nil {
		return outcome{}, err
	}

	out := idtable.New(j.ResultWidth())
	if err := algorithm.ZipperJoin(ls, rs, out, c); err != nil {
		return outcome{}, err
	}
	return outcome{algorithm: AlgorithmTwoScans, table: out, sorted: true}, nil
}

// joinScanAndTable materializes the child that is not a lazy scan, sorts it
// on its join column if needed, and streams it against the scan. The scan
// keeps its side, so the output layout is the same as for every other path.
func (j *Join) joinScanAndTable(ctx context.Context, qec *execution.Context, c *algorithm.Checker,
	scanIsLeft bool) (outcome, error) {
	scanTree, tableTree, tableCol := j.left, j.right, j.rightCol
	if !scanIsLeft {
		scanTree, tableTree, tableCol = j.right, j.left, j.leftCol
	}

	res, err := tableTree.Result(ctx, qec)
	if err != nil {
		return outcome{}, err
	}
	table := res.Table
	if !res.IsSortedOn(tableCol) {
		if table, err = sortedCopy(table, tableCol, c); err != nil {
			return outcome{}, err
		}
	}

	scan, err := j.stream(scanTree, qec)
	if err != nil {
		return outcome{}, err
	}
	materialized := execution.NewTableStream(table, tableCol, qec.Config.Join.ScanBlockSize)

	out := idtable.New(j.ResultWidth())
	if scanIsLeft {
		err = algorithm.ZipperJoin(scan, materialized, out, c)
	} else {
		err = algorithm.ZipperJoin(materialized, scan, out, c)
	}
	if err != nil {
		return outcome{}, err
	}
	return outcome{
		algorithm: AlgorithmScanAndTable,
		table:     out,
		sorted:    true,
		vocabs:    []*vocab.LocalVocab{res.Vocab},
	}, nil
}

// sortedCopy returns a copy of table sorted on col. The sort itself cannot
// be interrupted, so cancellation is checked on both sides of it.
func sortedCopy(table *idtable.IdTable, col int, c *algorithm.Checker) (*idtable.IdTable, error) {
	if err := c.Now(); err != nil {
		return nil, err
	}
	sorted := table.Clone()
	sorted.SortByColumn(col)
	if err := c.Now(); err != nil {
		return nil, err
	}
	return sorted, nil
}

// joinMaterialized computes both children and runs the merge, galloping or
// hash join depending on their order and sizes.
func (j *Join) joinMaterialized(ctx context.Context, qec *execution.Context, c *algorithm.Checker) (outcome, error) {
	lres, err := j.left.Result(ctx, qec)
	if err != nil {
		return outcome{}, err
	}
	rres, err := j.right.Result(ctx, qec)
	if err != nil {
		return outcome{}, err
	}

	out := idtable.New(j.ResultWidth())
	if lres.Table.Empty() || rres.Table.Empty() {
		return outcome{algorithm: AlgorithmEmpty, table: out, sorted: true}, nil
	}

	left := algorithm.Side{Table: lres.Table, JoinCol: j.leftCol}
	right := algorithm.Side{Table: rres.Table, JoinCol: j.rightCol}
	res := outcome{table: out, vocabs: []*vocab.LocalVocab{lres.Vocab, rres.Vocab}}

	if lres.IsSortedOn(j.leftCol) && rres.IsSortedOn(j.rightCol) {
		res.sorted = true
		if useGalloping(left.Table.NumRows(), right.Table.NumRows(), qec.Config.Join.GallopThreshold) {
			res.algorithm = AlgorithmGallop
			err = algorithm.GallopJoin(left, right, out, c)
		} else {
			res.algorithm = AlgorithmMerge
			err = algorithm.MergeJoin(left, right, out, c)
		}
		return res, err
	}

	res.algorithm = AlgorithmHash
	probedLeft, err := algorithm.HashJoin(left, right, out, c)
	if probedLeft {
		res.sorted = lres.IsSortedOn(j.leftCol)
	} else {
		res.sorted = rres.IsSortedOn(j.rightCol)
	}
	return res, err
}
