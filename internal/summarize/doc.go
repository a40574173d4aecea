// Package summarize turns meeting transcripts into structured notes with an
// LLM.
//
// Two providers are supported: any OpenAI-compatible chat completions
// endpoint (Groq's llama-3.3-70b-versatile by default) and Gemini. The prompt
// depends on whether the transcript carries speaker labels; labelled
// transcripts additionally ask for per-speaker roles, highlights, and open
// questions.
//
// Failures are tagged with services error markers so the workflow can store a
// readable job error and pick an operator hint.
package summarize
