// Package stores provides the SQLite-backed install history: runs, per-plugin
// lifecycle results, and an append-only event log. The registry's per-run
// rollback bookkeeping stays in memory; this store only records what happened.
package stores
