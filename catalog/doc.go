// Package catalog persists the kernel sources of a primitive database to a
// blobstore and restores them.
//
// Each Save writes an immutable, versioned snapshot named
// catalog-NNNNNN.bin and then moves the CURRENT pointer to it. A snapshot
// is framed as
//
//	magic "CLGC" | format u8 | compression u8 | codec len u8 | reserved u8 |
//	version u32 | crc32c u32 | raw len u32 | payload len u32 | codec name | payload
//
// (little endian). The checksum covers the compressed payload; the codec
// name makes snapshots self-describing.
//
// Only source text is persisted. Host programs are compiled into the binary
// and are kept when a snapshot overrides the source of an existing entry.
package catalog
