// Package minio stores blobs in MinIO or any other S3-compatible service
// (Ceph, Garage, SeaweedFS) through the MinIO client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "clgpu/")
//	sess, err := clgpu.Open(ctx, clgpu.WithCatalogStore(store))
//
// No AWS SDK is involved, which keeps air-gapped deployments simple.
package minio
