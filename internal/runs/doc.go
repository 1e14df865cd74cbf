// Package runs persists extraction run history in SQLite: one row per run
// with status, timing, and detection details, plus the produced cues so
// results stay queryable after the process exits.
package runs
