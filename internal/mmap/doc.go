// Package mmap provides read-only memory-mapped file access.
//
// The local blob store maps checkpoint files instead of reading them through
// kernel buffers, so decoding a large descriptor matrix does not copy the file
// twice.
//
// # Usage
//
//	m, err := mmap.Open("checkpoints/0b5c.kgc")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile, Advise is a no-op
//
// Close is idempotent. Callers must not touch Bytes after Close returns.
package mmap
