// Package daemon coordinates the long-running meetnotes process and its
// entry points.
//
// It wires the job store, the workflow manager, the microphone recorder, and
// the optional inbox watcher into a single lifecycle with flock-based locking
// to prevent multiple instances. The HTTP API lets the CLI enqueue recordings,
// retry failed jobs, and start or stop captures while the daemon owns the
// pipeline goroutines.
//
// Keep orchestration logic here: individual pipeline steps live in their
// respective packages while the daemon focuses on startup, shutdown, and
// turning requests into jobs.
package daemon
