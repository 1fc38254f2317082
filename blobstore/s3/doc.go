// Package s3 stores blobs in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("clgpu/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	sess, err := clgpu.Open(ctx, clgpu.WithCatalogStore(store))
//
// Reads use ranged GETs. Streaming writes go through the SDK upload
// manager and switch to multipart uploads for large catalogs. Small
// writes carry a CRC32C checksum.
//
// S3 has no compare-and-swap, so concurrent catalog writers should wrap
// the store in a DDBCommitStore, which keeps the CURRENT pointer in
// DynamoDB behind a conditional write.
package s3
