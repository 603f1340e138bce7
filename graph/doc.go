// Package graph provides the append-only correspondence graph.
//
// The graph owns two arenas addressed by integer handles:
//
//   - frames, one node per processed frame, in append order
//   - landmarks, one node per physical scene point
//
// A frame node lists the landmarks it observed in detection order. A landmark
// lists the frames that observed it. Arena entries are never removed, so handles
// stay valid for the lifetime of the graph and no reference counting is needed.
//
// A Graph is not safe for concurrent mutation.
package graph
