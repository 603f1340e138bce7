// Package extract turns a sequence of frames into a model.Snapshot.
//
// The Extractor pulls frames from a FrameSource, runs a Detector on each one
// and appends the returned descriptors to a single matrix. Frames are numbered
// 0, 1, 2, ... in capture order and each FrameRecord remembers the row range
// its descriptors occupy:
//
//	ex := extract.New(detector, extract.WithMaxFrames(300))
//	snap, err := ex.Run(ctx, source)
//
// Extraction is strictly sequential. Any error aborts the run and no snapshot
// is returned.
package extract
