// Package matcher builds a correspondence graph from an extraction snapshot.
//
// Every descriptor row is matched against the rows of other frames through an
// exact nearest-neighbour index. A row whose best match lies within MaxDistance
// joins the landmark of the matched row; otherwise it creates a new landmark.
// Chains across many frames form implicitly because each frame may match any
// earlier frame directly.
//
// # Policies
//
// BackwardOnly (the default) masks the frame's own rows and every later row, so
// a frame only matches frames that are already in the graph. ForwardMatching
// masks only the frame's own rows: a match into a later frame claims the target
// row for the new landmark, and that row keeps the claim when its frame is
// processed.
//
// # Determinism
//
// Rows of one frame are searched in parallel but resolved serially in row
// order, and the index breaks distance ties by lowest row. The resulting graph
// depends only on the snapshot and the options, not on Workers.
package matcher
