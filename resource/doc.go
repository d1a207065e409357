// Package resource bounds the memory and CPU a graph build may use.
//
// A Controller tracks two resource types:
//
//   - Memory: adjacency lists and per-round staging buffers (non-blocking, fail-fast)
//   - Workers: goroutines running build phases (blocking semaphore)
//
// One controller can be shared by several graphs built at the same time so
// that their combined parallelism stays within MaxWorkers:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30,
//	    MaxWorkers:       4,
//	})
//
//	g, err := nndescent.New(data, dim, n, 24, nndescent.WithResourceController(rc))
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
