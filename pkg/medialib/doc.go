// Package medialib provides a small media library: folders that own images,
// with image metadata kept in a Repository and image payloads kept in a
// BlobStore (a flat content directory by default).
//
// The package exposes a single Service interface. Repository implementations
// (memory, MongoDB, Postgres) live under repo/, content stores (afero-backed
// filesystem, S3) under storage/.
//
// Consistency
//
// Metadata and payloads are written by two independent calls with no
// transaction spanning them. Upload writes the file first and the record
// second; a failed record write leaves an orphaned file unless orphan
// compensation is enabled. Folder deletion removes image files, then image
// records, then the folder record, in that order. Missing files are tolerated
// everywhere; repository failures abort the operation.
package medialib
