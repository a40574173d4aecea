// Package main hosts the meetnotes CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the daemon in the foreground, translates
// job and recording commands into HTTP calls against it, reads the job
// database directly for listings, and scaffolds configuration. It centralizes
// configuration resolution and client construction so subcommands can focus
// on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
