package join

import (
	"github.com/s1dharth-s/qlever/pkg/execution"
)

// Algorithm identifies the physical algorithm that computed a join.
type Algorithm int32

const (
	AlgorithmNone Algorithm = iota
	// AlgorithmEmpty is the fast path for a child known to be empty.
	AlgorithmEmpty
	// AlgorithmTwoScans reads two index scans lazily in lock-step.
	AlgorithmTwoScans
	// AlgorithmScanAndTable streams a materialized child against a lazy
	// index scan.
	AlgorithmScanAndTable
	AlgorithmMerge
	AlgorithmGallop
	AlgorithmHash
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmEmpty:
		return "empty"
	case AlgorithmTwoScans:
		return "two-scans"
	case AlgorithmScanAndTable:
		return "scan-and-table"
	case AlgorithmMerge:
		return "merge"
	case AlgorithmGallop:
		return "gallop"
	case AlgorithmHash:
		return "hash"
	default:
		return "none"
	}
}

// sortsOutput reports whether a computes a result sorted on the join column.
// For the hash join that depends on the probe side, predicted from the size
// estimates.
func (a Algorithm) sortsOutput(j *Join) bool {
	if a != AlgorithmHash {
		return true
	}
	if probeLeft(j.left.Operation().SizeEstimate(), j.right.Operation().SizeEstimate()) {
		return j.left.IsSortedOn(j.leftCol)
	}
	return j.right.IsSortedOn(j.rightCol)
}

// probeLeft mirrors the build side rule of the hash join: build on the
// smaller input, on the right if both are equal.
func probeLeft(leftRows, rightRows uint64) bool { return leftRows >= rightRows }

// isLazyScan reports whether child can be read as a stream sorted on col.
func isLazyScan(child *execution.Tree, col int) bool {
	return child.Kind() == execution.KindIndexScan && col == 0
}

// useGalloping reports whether the size ratio of two sorted inputs exceeds
// threshold.
func useGalloping(leftRows, rightRows, threshold int) bool {
	small, large := min(leftRows, rightRows), max(leftRows, rightRows)
	return small > 0 && large/small > threshold
}

// predictAlgorithm returns the algorithm ComputeResult will choose, using
// size estimates where the computation uses actual row counts.
func (j *Join) predictAlgorithm() Algorithm {
	switch {
	case j.KnownEmptyResult():
		return AlgorithmEmpty
	case isLazyScan(j.left, j.leftCol) && isLazyScan(j.right, j.rightCol):
		return AlgorithmTwoScans
	case isLazyScan(j.left, j.leftCol) || isLazyScan(j.right, j.rightCol):
		return AlgorithmScanAndTable
	case j.left.IsSortedOn(j.leftCol) && j.right.IsSortedOn(j.rightCol):
		return AlgorithmMerge
	default:
		return AlgorithmHash
	}
}
