// Package jobs persists meeting-processing jobs in SQLite.
//
// A Job records the recording it came from, its lifecycle status, and the
// outputs of the pipeline (transcript location and summary). The Store
// enforces the status graph at the database level: each update is a guarded
// UPDATE that only applies when the job is in an allowed predecessor status,
// and updates to the same job are serialized. RecoverInterrupted resolves jobs
// left in flight by a previous process so every job ends in done or error.
package jobs
