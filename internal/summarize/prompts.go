package summarize

import "strings"

const transcriptPlaceholder = "{transcript}"

// promptSimple is used for unattributed transcripts.
const promptSimple = `You are a meeting assistant. Analyze this transcript and provide:

1. SUMMARY (3-5 bullet points of main topics discussed)
2. ACTION ITEMS (person: task, or "None identified" if none)
3. KEY DECISIONS (or "None identified" if none)

Transcript:
{transcript}`

// promptDiarized asks for per-speaker analysis on top of the simple sections.
const promptDiarized = `You are a meeting assistant. Analyze this transcript and provide:

1. SUMMARY (3-5 bullets — include specific numbers, dates, names, and commitments)

2. SPEAKERS — for each speaker:
   - Apparent role/name if identifiable
   - Interaction type: decision-maker | facilitator | questioner | contributor | dissenter
   - 1-line characterization of their style

3. KEY HIGHLIGHTS — concrete moments worth noting (specific quotes, commitments,
   surprises, or disagreements — not just topic labels)

4. ACTION ITEMS — person: task, deadline if mentioned (or "None identified")

5. KEY DECISIONS — what was decided and the brief rationale behind it

6. OPEN QUESTIONS — unresolved issues or follow-ups with no clear owner

Transcript:
{transcript}`

// BuildPrompt fills the template matching the transcript shape.
func BuildPrompt(transcript string, diarized bool) string {
	template := promptSimple
	if diarized {
		template = promptDiarized
	}
	return strings.Replace(template, transcriptPlaceholder, transcript, 1)
}
