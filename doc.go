// Package keygraph turns a sequence of video frames into a feature-correspondence graph.
//
// Each landmark in the graph is a physical scene point observed in one or more
// frames. A run has three stages, each usable on its own:
//
//   - Extract: a FrameSource and a Detector produce a Snapshot, one dense
//     descriptor matrix plus per-frame keypoints and row ranges.
//   - Checkpoint: snapshots are saved to a blob store (local disk, memory,
//     S3, S3 with a DynamoDB commit pointer, MinIO) as self-describing binary
//     artifacts. The last save becomes CURRENT.
//   - Match: frames are processed in order; each detection is matched to its
//     nearest earlier detection and joins that landmark when close enough.
//
// # Quick Start
//
//	ctx := context.Background()
//	kg := keygraph.New(blobstore.NewLocalStore("./data"),
//	    keygraph.WithCheckpointCompression(checkpoint.CompressionZSTD),
//	)
//
//	src, _ := cv.OpenVideo("walk.mp4")
//	defer src.Close()
//	orb := cv.NewORB(cv.DefaultORBParams())
//	defer orb.Close()
//
//	snap, _ := kg.Extract(ctx, src, orb)
//	name, _ := kg.SaveCheckpoint(ctx, snap)
//
//	_, g, stats, _ := kg.Build(ctx, name)
//	fmt.Println(g.NumLandmarks(), stats.Merged)
//
// # Matching
//
// The matcher defaults to Hamming distance for binary descriptors with an
// inclusive threshold of 10 and matches only against frames already in the
// graph. Use WithMatchOptions to pass matcher options:
//
//	kg := keygraph.New(store, keygraph.WithMatchOptions(
//	    matcher.WithMaxDistance(24),
//	    matcher.WithRatioTest(0.8),
//	    matcher.WithPolicy(matcher.ForwardMatching),
//	))
//
// # Errors
//
// Facade methods translate package errors to ErrNotFound, ErrInvalidSnapshot,
// ErrCorruptCheckpoint, ErrMemoryLimitExceeded and ErrInvalidOptions. The
// original error stays in the chain for errors.As.
package keygraph
