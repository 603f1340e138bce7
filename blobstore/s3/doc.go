// Package s3 provides Amazon S3 implementations of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("keygraph/"))
//	ckpt := checkpoint.NewStore(store)
//
// Store keeps every blob, the CURRENT pointer included, as an S3 object.
// DDBCommitStore keeps blobs in S3 but commits CURRENT through DynamoDB
// conditional writes, so concurrent writers cannot lose an update.
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads through the SDK upload manager
//   - CRC32C integrity checks on Put
//   - Automatic pagination for listing
package s3
