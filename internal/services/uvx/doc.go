// Package uvx runs embedded Python helper scripts through uv's tool runner so
// speech models (faster-whisper, pyannote, resemblyzer) are fetched on demand
// without a managed virtualenv.
package uvx
