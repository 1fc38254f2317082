// Package blobstore abstracts the storage that holds persisted kernel
// catalogs and other immutable artifacts produced by a session.
//
// A BlobStore hands out read-only Blob handles and WritableBlob streams.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: process-local, used by tests and ephemeral sessions
//   - LocalStore: a directory on the local filesystem
//   - s3.Store: Amazon S3 (with an optional DynamoDB commit pointer)
//   - minio.Store: MinIO and other S3-compatible services
//
// Names are slash separated and relative to the store root:
//
//	store := blobstore.NewLocalStore("/var/lib/clgpu")
//	_ = store.Put(ctx, "catalog/CURRENT", []byte("catalog-000001.bin"))
package blobstore
