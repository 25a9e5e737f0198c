package algorithm

import (
	"github.com/s1dharth-s/qlever/pkg/idtable"
	"github.com/s1dharth-s/qlever/pkg/types"
)

// linearScanWindow is the window size below which galloping stops halving
// and scans.
const linearScanWindow = 8

// gallop returns the first position at or after lo whose key is at least
// key. It probes lo+1, lo+2, lo+4, ... until it overshoots, then narrows the
// last stride by binary search and finishes with a short linear scan.
func gallop(keys []types.Id, lo int, key types.Id) int {
	n := len(keys)
	if lo >= n || keys[lo] >= key {
		return lo
	}

	// keys[lo] < key
	step := 1
	for lo+step < n && keys[lo+step] < key {
		lo += step
		step *= 2
	}
	hi := min(lo+step, n)
	lo++

	// keys[lo-1] < key, and keys[hi] >= key unless hi == n
	for hi-lo > linearScanWindow {
		mid := lo + (hi-lo)/2
		if keys[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	for lo < hi && keys[lo] < key {
		lo++
	}
	return lo
}

// GallopJoin joins two sorted inputs of very different sizes. It walks the
// smaller input run by run and gallops through the larger one, so long
// stretches of the larger input without a partner are skipped in
// logarithmic time. Output order and layout are the same as for MergeJoin.
//
// Time Complexity: O(n log(m/n) + k) for the smaller size n and larger size m
func GallopJoin(left, right Side, out *idtable.IdTable, c *Checker) error {
	smallIsLeft := left.Table.NumRows() <= right.Table.NumRows()
	small, large := right, left
	if smallIsLeft {
		small, large = left, right
	}
	sk, lk := small.keys(), large.keys()

	pos := 0
	for i := 0; i < len(sk) && pos < len(lk); {
		if err := c.Step(1); err != nil {
			return err
		}
		key := sk[i]
		iEnd := runEnd(sk, i)
		pos = gallop(lk, pos, key)
		if pos < len(lk) && lk[pos] == key {
			pEnd := runEnd(lk, pos)
			var err error
			if smallIsLeft {
				err = crossProduct(out, left.Table, i, iEnd, right.Table, pos, pEnd, right.JoinCol, c)
			} else {
				err = crossProduct(out, left.Table, pos, pEnd, right.Table, i, iEnd, right.JoinCol, c)
			}
			if err != nil {
				return err
			}
			pos = pEnd
		}
		i = iEnd
	}
	return nil
}
