// Package services defines shared utilities consumed by the pipeline stages
// and their external integrations.
//
// It provides context helpers that stamp job IDs, stage names, and
// correlation identifiers for logging, plus structured error markers and the
// Wrap helper so stage failures carry a consistent kind and operator hint.
package services
