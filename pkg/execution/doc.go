// Package execution defines the contract between the nodes of an execution
// tree.
//
// Every node implements Operation. A node knows its children, estimates its
// result size and cost without computing anything, and computes its result
// on request. Results are fully materialized row tables (idtable.IdTable)
// together with the local vocabulary that resolves the local vocabulary
// indices stored in the rows.
//
// # Sub-packages
//
//   - [github.com/s1dharth-s/qlever/pkg/execution/scanner] – Index scans over
//     sorted in-memory permutations. Scans can also be consumed lazily as a
//     stream of sorted blocks.
//   - [github.com/s1dharth-s/qlever/pkg/execution/join] – The join operation
//     with its merge, galloping, hash and index-scan algorithms.
//
// # Execution flow
//
// A caller builds a tree of operations wrapped in Tree, creates a Context
// that carries the query-wide memory limit and blank node manager, and calls
// Result on the root. Each node pulls the results of its children through
// their Tree, which caches a computed result so that a subtree shared by
// several parents is computed once.
package execution
