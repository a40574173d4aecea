// Package llm provides a chat client for OpenAI-compatible completion
// endpoints (Groq by default).
//
// Requests carry a single user message and return the trimmed text of the
// first non-empty choice.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx, empty completions, and network
// timeouts with exponential backoff (base 2s, max 20s, 4 attempts by
// default). A Retry-After header overrides the computed delay. Context
// cancellation aborts retries immediately.
package llm
