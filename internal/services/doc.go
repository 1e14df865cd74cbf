// Package services defines the shared error taxonomy and context annotations
// used across the extraction pipeline. Components tag failures with one of the
// exported sentinel errors so callers can classify them without string
// matching.
package services
