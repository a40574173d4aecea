// Package language maps user-facing language names and ISO 639 codes onto the
// two-letter codes faster-whisper accepts for its --language flag.
package language
