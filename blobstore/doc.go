// Package blobstore provides the storage abstraction for checkpoint artifacts.
//
// BlobStore reads and writes named blobs: immutable checkpoints such as
// "checkpoints/<uuid>.kgc" and the small mutable CURRENT pointer.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, atomic temp-file writes, mmap reads
//   - MemoryStore: in-process map, for tests and ephemeral runs
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - s3.DDBCommitStore: S3 blobs with a DynamoDB-backed CURRENT pointer
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Writers that can discard an unfinished blob implement Aborter.
package blobstore
