package join

import (
	"math"
)

// computeEstimates derives the size estimate and the per-column
// multiplicities of the result from the children's statistics.
//
// With n rows and multiplicity m in the join column, a child has about n/m
// distinct join values. The join keeps the values both sides share, at most
// the smaller distinct count, each of which produces mL*mR rows:
//
//	size = nL*nR / max(dL, dR)
//
// A left row meets mR right rows on average, so every multiplicity of a left
// column grows by the factor mR, and right columns by mL.
func (j *Join) computeEstimates() {
	width := j.ResultWidth()
	j.multiplicity = make([]float64, width)
	for c := range j.multiplicity {
		j.multiplicity[c] = 1
	}
	if j.KnownEmptyResult() {
		j.sizeEstimate = 0
		return
	}

	lop, rop := j.left.Operation(), j.right.Operation()
	nL, nR := float64(lop.SizeEstimate()), float64(rop.SizeEstimate())
	mL := math.Max(1, lop.Multiplicity(j.leftCol))
	mR := math.Max(1, rop.Multiplicity(j.rightCol))
	dL, dR := math.Max(1, nL/mL), math.Max(1, nR/mR)

	size := nL * nR / math.Max(dL, dR)
	if nL > 0 || nR > 0 {
		size = math.Max(size, 1)
	}
	j.sizeEstimate = uint64(math.Round(size))

	for c := 0; c < lop.ResultWidth(); c++ {
		j.multiplicity[c] = math.Max(1, lop.Multiplicity(c)*mR)
	}
	for c := 0; c < rop.ResultWidth(); c++ {
		if c == j.rightCol {
			continue
		}
		j.multiplicity[j.rightOutputColumn(c)] = math.Max(1, rop.Multiplicity(c)*mL)
	}
	j.multiplicity[j.leftCol] = mL * mR
}

// SizeEstimate estimates the number of result rows. Computed once.
func (j *Join) SizeEstimate() uint64 {
	j.estimateOnce.Do(j.computeEstimates)
	return j.sizeEstimate
}

// Multiplicity estimates the rows per distinct value of output column col.
func (j *Join) Multiplicity(col int) float64 {
	j.estimateOnce.Do(j.computeEstimates)
	return j.multiplicity[col]
}

// CostEstimate is the result size plus the size and cost of both children.
func (j *Join) CostEstimate() uint64 {
	cost := j.SizeEstimate()
	for _, child := range j.Children() {
		cost += child.Operation().SizeEstimate() + child.Operation().CostEstimate()
	}
	return cost
}
