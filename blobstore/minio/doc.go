// Package minio provides a BlobStore implementation using the MinIO client.
//
// It targets MinIO and other S3-compatible servers (Ceph, SeaweedFS, Garage)
// without pulling in the AWS SDK.
//
// # Basic Usage
//
//	store, err := minioblob.New("localhost:9000", "keygraph",
//	    minioblob.WithCredentials("minioadmin", "minioadmin"),
//	    minioblob.WithPrefix("runs/"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cps := checkpoint.NewStore(store)
//
// An existing *minio.Client can be wrapped with NewStore.
package minio
