package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"meetnotes/internal/jobs"
	"meetnotes/internal/language"
	"meetnotes/internal/logging"
	"meetnotes/internal/services"
	"meetnotes/internal/transcribe"
)

// runState carries stage outputs forward within one pipeline run.
type runState struct {
	result         transcribe.Result
	transcriptPath string
	summary        string
}

type pipelineStage struct {
	name   string
	status jobs.Status
	run    func(ctx context.Context, job *jobs.Job, state *runState) error
}

func (m *Manager) pipeline() []pipelineStage {
	return []pipelineStage{
		{name: "transcribe", status: jobs.StatusTranscribing, run: m.transcribeStage},
		{name: "summarize", status: jobs.StatusSummarizing, run: m.summarizeStage},
		{name: "email", status: jobs.StatusEmailing, run: m.emailStage},
	}
}

func (m *Manager) process(ctx context.Context, job *jobs.Job) {
	defer m.finish(job.ID)
	logger := logging.WithContext(ctx, m.logger)
	started := time.Now()
	state := &runState{}

	for _, stg := range m.pipeline() {
		if ctx.Err() != nil {
			m.fail(ctx, job, stg.name, ctx.Err())
			return
		}
		if err := m.store.SetStatus(ctx, job.ID, stg.status); err != nil {
			if errors.Is(err, jobs.ErrInvalidTransition) || errors.Is(err, jobs.ErrNotFound) {
				logging.WarnWithContext(logger, "job changed underneath pipeline; abandoning run", "job_abandoned",
					logging.String(logging.FieldStage, stg.name),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "inspect the job with meetnotes jobs show"),
				)
				return
			}
			m.fail(ctx, job, stg.name, err)
			return
		}

		stageCtx := services.WithStage(ctx, stg.name)
		stageStart := time.Now()
		logging.WithContext(stageCtx, m.logger).Info("stage started",
			logging.String(logging.FieldEventType, "stage_start"),
		)
		if err := runStage(stageCtx, stg, job, state); err != nil {
			m.fail(stageCtx, job, stg.name, err)
			return
		}
		logging.WithContext(stageCtx, m.logger).Info("stage completed",
			logging.Duration("duration", time.Since(stageStart)),
			logging.String(logging.FieldEventType, "stage_complete"),
		)
	}

	if err := m.store.SetResult(context.WithoutCancel(ctx), job.ID, state.summary, state.transcriptPath); err != nil {
		m.fail(ctx, job, "email", err)
		return
	}
	elapsed := time.Since(started)
	logger.Info("job completed",
		logging.String("label", job.Label),
		logging.String("transcript_path", state.transcriptPath),
		logging.Duration("duration", elapsed),
		logging.String(logging.FieldEventType, "job_complete"),
	)
	m.notifyCompleted(ctx, job, elapsed)
}

// runStage converts a panic inside a stage into a stage failure.
func runStage(ctx context.Context, stg pipelineStage, job *jobs.Job, state *runState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s stage panicked: %v", stg.name, r)
		}
	}()
	return stg.run(ctx, job, state)
}

func (m *Manager) transcribeStage(ctx context.Context, job *jobs.Job, state *runState) error {
	result, err := m.stages.Transcriber.Transcribe(ctx, job.AudioPath)
	if err != nil {
		return err
	}
	state.result = result
	logging.WithContext(ctx, m.logger).Info("transcription finished",
		logging.Int("segments", len(result.Segments)),
		logging.String("language", language.DisplayName(result.Language)),
		logging.Float64("audio_seconds", result.Duration),
	)
	return nil
}

func (m *Manager) summarizeStage(ctx context.Context, job *jobs.Job, state *runState) error {
	text := strings.TrimSpace(state.result.Text)
	diarized := false
	if len(state.result.Segments) > 0 {
		if m.stages.Diarizer != nil {
			text, diarized = m.stages.Diarizer.Merge(ctx, job.AudioPath, state.result.Segments)
		} else {
			text = transcribe.PlainText(state.result.Segments)
		}
	}

	text = norm.NFC.String(text)

	path, err := m.writeTranscript(job.AudioPath, text)
	if err != nil {
		return err
	}
	state.transcriptPath = path

	summary, err := m.stages.Summarizer.Summarize(ctx, text, diarized)
	if err != nil {
		return err
	}
	state.summary = summary
	return nil
}

func (m *Manager) emailStage(ctx context.Context, job *jobs.Job, state *runState) error {
	return m.stages.Sender.Send(ctx, job.Label, state.summary, state.transcriptPath)
}

// TranscriptPath returns where the transcript for audioPath is written: the
// audio file name with its extension replaced by .txt, under dir.
func TranscriptPath(dir, audioPath string) string {
	base := filepath.Base(audioPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+".txt")
}

func (m *Manager) writeTranscript(audioPath, text string) (string, error) {
	if err := os.MkdirAll(m.transcriptsDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "summarize", "transcripts dir", m.transcriptsDir, err)
	}
	path := TranscriptPath(m.transcriptsDir, audioPath)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "summarize", "write transcript", path, err)
	}
	return path, nil
}
