// Package index provides exact nearest-neighbour search over the rows of a descriptor matrix.
//
// The index never copies descriptors: it scans the matrix it was built on, which
// must not grow while searches are in flight. Searches are safe for concurrent use.
//
// # Masks
//
// Every search takes an optional exclusion Mask (a roaring bitmap of row
// indices). Masked rows are never returned, which is how callers exclude a
// frame's own detections or rows that are not yet part of the graph.
//
// # Ordering
//
// Results are ordered by ascending distance. Equal distances are ordered by
// ascending row index, so the lowest row wins a tie.
package index
