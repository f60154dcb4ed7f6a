// Package report aggregates the products of a resolution run.
//
// Report keeps only the highest-scoring products in a min-heap bounded by
// the requested count: each insertion is O(log N), and among products with
// equal scores the one added last is kept. DependencyMonkeyReport keeps
// every submitted product together with its response label.
package report
