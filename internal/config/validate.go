package config

import (
	"errors"
	"fmt"
	"strings"

	"meetnotes/internal/language"
)

// Validate ensures the configuration is usable.
//
// Credentials for external services are not required here so that read-only
// commands (jobs list, config show) work on a fresh machine; the daemon's
// preflight checks report missing credentials instead.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRecorder(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateDiarization(); err != nil {
		return err
	}
	if err := c.validateSummary(); err != nil {
		return err
	}
	if err := c.validateEmail(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.TranscriptsDir == "" {
		return errors.New("paths.transcripts_dir must be set")
	}
	if !strings.Contains(c.Paths.APIBind, ":") {
		return fmt.Errorf("paths.api_bind must be host:port, got %q", c.Paths.APIBind)
	}
	return nil
}

func (c *Config) validateRecorder() error {
	if c.Recorder.Channels > 2 {
		return errors.New("recorder.channels must be 1 or 2")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if _, ok := language.Normalize(c.Transcription.Language); !ok {
		return fmt.Errorf("transcription.language must be a language name or ISO 639 code, got %q", c.Transcription.Language)
	}
	return nil
}

func (c *Config) validateDiarization() error {
	switch c.Diarization.Strategy {
	case "pyannote", "embeddings", "none":
	default:
		return fmt.Errorf("diarization.strategy must be pyannote, embeddings, or none, got %q", c.Diarization.Strategy)
	}
	if c.Diarization.ClusterThreshold <= 0 || c.Diarization.ClusterThreshold > 2 {
		return errors.New("diarization.cluster_threshold must be in (0, 2]")
	}
	if c.Diarization.MinSegmentSeconds < 0 {
		return errors.New("diarization.min_segment_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateSummary() error {
	switch c.Summary.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("summary.provider must be openai or gemini, got %q", c.Summary.Provider)
	}
	if c.Summary.Temperature < 0 || c.Summary.Temperature > 2 {
		return errors.New("summary.temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateEmail() error {
	switch c.Email.TLS {
	case "starttls", "tls", "none":
	default:
		return fmt.Errorf("email.tls must be starttls, tls, or none, got %q", c.Email.TLS)
	}
	if c.Email.Port > 65535 {
		return errors.New("email.port must be a valid TCP port")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.WatchInbox && c.Paths.InboxDir == "" {
		return errors.New("paths.inbox_dir must be set when workflow.watch_inbox is true")
	}
	return nil
}

// MissingCredentials lists the settings the pipeline needs at run time but
// which are currently empty.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.Summary.APIKey == "" {
		missing = append(missing, "summary.api_key")
	}
	if c.Email.Username == "" {
		missing = append(missing, "email.username")
	}
	if c.Email.Password == "" {
		missing = append(missing, "email.password")
	}
	if len(c.Email.To) == 0 {
		missing = append(missing, "email.to")
	}
	if c.Diarization.Strategy == "pyannote" && c.Diarization.HuggingFaceToken == "" {
		missing = append(missing, "diarization.hf_token")
	}
	return missing
}
