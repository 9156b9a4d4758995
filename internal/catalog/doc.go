// Package catalog persists the ingestion ledger in SQLite and owns duplicate
// detection.
//
// The Store manages database connections, schema initialization, the
// append-only files ledger, the digests index used to classify primaries vs
// duplicates, aggregate statistics queries, and end-of-run maintenance.
// Records are written once and never updated; statistics are always derived
// from the ledger at read time so counters cannot drift from the rows they
// summarize.
//
// ClaimDigest is the single serialization point for duplicate classification:
// it atomically reserves a digest and reports whether the caller is the first
// observer. Callers must claim before copying so two workers holding the same
// content can never both be classified primary.
//
// Treat this package as the single source of truth for ledger semantics; when
// you add statuses or columns, update schema.sql and bump schemaVersion.
package catalog
