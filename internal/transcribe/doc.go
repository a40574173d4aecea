// Package transcribe turns meeting recordings into timed text segments using
// faster-whisper. The model runs in an ephemeral uvx environment and reports
// its segments as JSON.
package transcribe
