// Package workflow orchestrates the meeting pipeline: transcribe, attribute
// speakers, summarize, and email.
//
// Manager owns one goroutine per dispatched job. The goroutine advances the
// job through pending → transcribing → summarizing → emailing → done,
// persisting each status before the stage runs and the result fields only
// after the email is sent. Any stage error (or panic) moves the job to error
// with the failure text; nothing is retried automatically. Start marks jobs
// left in flight by a crashed process as failed; Stop cancels running stages
// and records them as interrupted by shutdown.
//
// The job store is the only channel between a pipeline run and the rest of
// the program.
package workflow
