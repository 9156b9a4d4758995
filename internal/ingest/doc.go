// Package ingest orchestrates a full ingestion run: merge pre-indexing,
// source scanning, bounded concurrent processing, and finalization.
//
// A Runner owns one run. The scanner feeds a fixed pool of workers through a
// channel; each worker drives the per-file pipeline (fingerprint, digest
// claim, date resolution, placement, effect, ledger append). Filesystem
// effects are policy objects so a dry run computes placements without
// mutating anything. All authoritative numbers come from the catalog;
// in-process counters only feed the progress stream.
package ingest
