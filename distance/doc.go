// Package distance provides descriptor distance calculations.
//
// # Supported Metrics
//
//   - MetricHamming: differing bits between binary descriptors (ORB, BRIEF, AKAZE)
//   - MetricL2: Euclidean distance between float32 descriptors (SIFT, SURF)
//   - MetricCosine: 1 - cosine similarity between float32 descriptors
//
// Every function returns a dissimilarity: lower is closer, zero is identical.
//
// # Usage
//
//	bits := distance.Hamming(a, b)
//	d := distance.Euclidean(x, y)
//	fn, _ := distance.ProviderBytes(distance.MetricHamming)
package distance
