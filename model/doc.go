// Package model defines the extraction data model shared by every stage.
//
// # Types
//
//   - Keypoint: one local detection (position, scale, orientation, response, octave, class)
//   - DescriptorMatrix: append-only, row-major descriptor storage (binary or float32)
//   - FrameRecord: detections of one frame plus the row range they own in the matrix
//   - Snapshot: matrix + ordered frame records; the unit persisted by checkpoints
//
// # Tiling
//
// The row ranges of a snapshot's records must be disjoint, strictly ordered by
// frame sequence number, sized to their detection count and together cover
// [0, rows) exactly. Snapshot.Validate reports the first violated invariant.
package model
