// Package hash holds the checksum used by persisted catalogs and object
// uploads: CRC32-Castagnoli, which S3 also accepts as an integrity header.
package hash
