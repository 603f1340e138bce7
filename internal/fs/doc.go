// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with write and sync capabilities
//   - [FileSystem]: filesystem operations (open, remove, rename, etc.)
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects write, sync, close and rename errors
//
// [WriteFileAtomic] publishes a file by writing a temporary sibling, syncing it
// and renaming it over the target, so readers never observe a partial file.
//
// This package does not take context.Context parameters. Local filesystem
// calls are not interruptible at the syscall level. Remote stores go through
// blobstore, which is context-aware.
package fs
