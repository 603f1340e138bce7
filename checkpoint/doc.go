// Package checkpoint persists extraction snapshots as self-describing binary artifacts.
//
// # Format
//
// Every artifact starts with a fixed 20-byte little-endian header:
//
//	magic "KGCP" | version u16 | encoding u8 | compression u8 | body length u64 | body crc32 u32
//
// The body holds the descriptor matrix followed by the frame records. With
// compression enabled the body is stored as a single LZ4 or Zstandard block
// prefixed by an 8-byte block header.
//
// Detections are written with one of two encodings:
//
//   - EncodingPositional: a field count (always 7) followed by the seven values in order
//   - EncodingTagged: a field count followed by (tag, value) pairs in any order
//
// Decode picks the path from the header. Both paths reject missing, duplicate
// and unknown fields with a *FieldError, and the decoded snapshot is validated
// before it is returned.
//
// # Store
//
// Store keeps checkpoints in a blobstore.BlobStore under "checkpoints/<uuid>.kgc"
// and publishes the most recent one through the CURRENT pointer:
//
//	cps := checkpoint.NewStore(blobstore.NewLocalStore("./data"))
//	name, err := cps.Save(ctx, snap)
//	...
//	name, snap, err := cps.Latest(ctx)
package checkpoint
