// Package api defines wire-format types, converters, and a client for the
// daemon's HTTP API. It translates internal job and workflow models into
// transport-friendly DTOs so the CLI can render them without opening the
// job database.
//
// # Key Types
//
// Job: transport representation of a meeting job, including the stage name
// for in-flight statuses.
//
// DaemonStatus: daemon running state, workflow summary, and recording state.
//
// Client: typed access to every endpoint. Connection failures surface as
// ErrDaemonUnavailable and non-2xx responses as *StatusError.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Statuses are exposed as lowercase strings and
// timestamps use RFC3339 with milliseconds. Job counts always carry every
// status so consumers can render a stable table.
package api
