// Package resource implements the Controller that enforces global limits.
//
// Two resources are governed:
//
//   - Memory: the descriptor matrix budget during extraction (non-blocking, fail-fast)
//   - IO: the throughput of checkpoint writes (token bucket)
//
// # Memory Management
//
// AcquireMemory never blocks. It returns ErrMemoryLimitExceeded when the
// reservation would exceed the configured limit:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(rowBytes); err != nil {
//	    // ErrMemoryLimitExceeded - extraction aborts
//	}
//	defer rc.ReleaseMemory(rowBytes)
//
// # IO Rate Limiting
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 100 * 1024 * 1024, // 100MB/s
//	})
//
//	w := resource.NewRateLimitedWriter(ctx, blob, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
