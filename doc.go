// Package clgpu is a compute-engine runtime with a candidate scoring
// pipeline on top.
//
// A Session owns the kernel registry (primitive database), the engines it
// creates on demand and one function dispatcher per engine:
//
//	ctx := context.Background()
//	sess, _ := clgpu.Open(ctx)
//	defer sess.Close()
//
//	scores, _ := sess.Score(ctx, query, candidates)
//	sel, _ := sess.Select(ctx, query, candidates, 0.5, functions.Inclusive)
//	dot, _ := sess.Sdot(ctx, n, x, 1, y, 1)
//
// # Engines
//
// Engines are created lazily per EngineType. EngineDefault resolves to the
// best available device; in this build that is the host engine, which runs
// kernels as Go work-groups on in-order command queues.
//
// For lower-level control use the compute, host, functions and blas
// packages directly:
//
//	e, _ := sess.Engine(clgpu.EngineHost)
//	k, _ := e.GetKernel(kernels.ScoreDotProduct, compute.WithOptions(opts))
//	ev, _ := k.Submit(compute.DefaultQueue)
//	_, err := ev.Wait()
//
// # Kernel Catalog
//
// Kernel sources can be persisted to any blobstore and restored on Open:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("clgpu/"))
//	sess, _ := clgpu.Open(ctx, clgpu.WithCatalogStore(store))
//	version, _ := sess.SaveCatalog(ctx)
//
// # Observability
//
// Logging goes through log/slog (WithLogger, WithLogLevel). Engine activity
// is reported to a MetricsCollector (WithMetricsCollector).
package clgpu
