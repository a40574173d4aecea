// Package watcher enqueues audio files dropped into the inbox directory.
//
// It wraps fsnotify and debounces write bursts so a file is only handed to the
// workflow once the copy has settled. Each path is handed over at most once per
// process.
package watcher
