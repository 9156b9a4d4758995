// Package main hosts the mediasort CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into
// ingestion runs, catalog queries, environment resets, and configuration
// scaffolding. It centralizes configuration resolution and logging setup so
// subcommands can focus on user experience instead of wiring.
package main
