// Package conv provides safe integer type conversion utilities.
//
// They guard the fixed-width fields of the checkpoint format and the int32
// row ranges of frame records:
//   - Validating untrusted data from disk (header lengths)
//   - Converting between Go's int (platform-dependent) and fixed-width types
//
// For conversions that are provably safe by domain constraints (e.g., loop
// indices, bounded counters), use direct type casts instead to avoid overhead.
package conv
