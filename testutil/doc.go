// Package testutil provides testing utilities for keygraph.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random descriptors and keypoints,
// assembling snapshots, and computing exact nearest neighbours.
//
// # Random Descriptors
//
//	rng := testutil.NewRNG(seed)
//	d := rng.BinaryDescriptor(32)
//	near := testutil.FlipBits(d, 3) // Hamming distance 3 from d
//
// # Snapshots
//
//	snap := testutil.BinarySnapshot(32, frame0Rows, frame1Rows)
//	snap := rng.RandomBinarySnapshot(10, 50, 32)
//
// # Exact Search (Ground Truth)
//
//	row, d := testutil.NearestRow(snap.Descriptors, query, excluded)
package testutil
