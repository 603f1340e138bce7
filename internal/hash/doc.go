// Package hash provides the CRC32-Castagnoli (CRC32C) checksums sent with
// object store uploads.
//
//	checksum := hash.CRC32C(data)
//	header := hash.CRC32CBase64(data) // x-amz-checksum-crc32c
//
// Go's crc32 package uses hardware instructions when available.
package hash
