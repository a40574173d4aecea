package config

import (
	"fmt"
	"os"
	"strings"

	"meetnotes/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRecorder()
	c.normalizeTranscription()
	c.normalizeDiarization()
	c.normalizeSummary()
	c.normalizeEmail()
	c.normalizeNotifications()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
		{"paths.recordings_dir", &c.Paths.RecordingsDir, defaultRecordingsDir},
		{"paths.transcripts_dir", &c.Paths.TranscriptsDir, defaultTranscriptsDir},
		{"paths.inbox_dir", &c.Paths.InboxDir, defaultInboxDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		c.Paths.APIToken = envValue("MEETNOTES_API_TOKEN")
	}
	return nil
}

func (c *Config) normalizeRecorder() {
	c.Recorder.Device = strings.TrimSpace(c.Recorder.Device)
	if c.Recorder.Device == "" {
		c.Recorder.Device = defaultRecorderDevice
	}
	c.Recorder.InputFormat = strings.TrimSpace(c.Recorder.InputFormat)
	if c.Recorder.InputFormat == "" {
		c.Recorder.InputFormat = defaultRecorderFormat
	}
	if c.Recorder.SampleRate <= 0 {
		c.Recorder.SampleRate = defaultRecorderSampleRate
	}
	if c.Recorder.Channels <= 0 {
		c.Recorder.Channels = defaultRecorderChannels
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperModel
	}
	c.Transcription.Device = strings.ToLower(strings.TrimSpace(c.Transcription.Device))
	if c.Transcription.Device == "" {
		c.Transcription.Device = defaultWhisperDevice
	}
	c.Transcription.ComputeType = strings.TrimSpace(c.Transcription.ComputeType)
	if c.Transcription.ComputeType == "" {
		c.Transcription.ComputeType = defaultWhisperComputeType
	}
	if code, ok := language.Normalize(c.Transcription.Language); ok {
		c.Transcription.Language = code
	} else {
		c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	}
	if c.Transcription.BeamSize <= 0 {
		c.Transcription.BeamSize = defaultWhisperBeamSize
	}
	if c.Transcription.TimeoutSeconds < 0 {
		c.Transcription.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeDiarization() {
	c.Diarization.Strategy = strings.ToLower(strings.TrimSpace(c.Diarization.Strategy))
	if c.Diarization.Strategy == "" {
		c.Diarization.Strategy = defaultDiarizationStrategy
	}
	c.Diarization.HuggingFaceToken = strings.TrimSpace(c.Diarization.HuggingFaceToken)
	if c.Diarization.HuggingFaceToken == "" {
		c.Diarization.HuggingFaceToken = envValue("HF_TOKEN")
	}
	c.Diarization.PyannoteModel = strings.TrimSpace(c.Diarization.PyannoteModel)
	if c.Diarization.PyannoteModel == "" {
		c.Diarization.PyannoteModel = defaultPyannoteModel
	}
	if c.Diarization.ClusterThreshold == 0 {
		c.Diarization.ClusterThreshold = defaultClusterThreshold
	}
	if c.Diarization.MinSegmentSeconds == 0 {
		c.Diarization.MinSegmentSeconds = defaultMinSegmentSeconds
	}
	if c.Diarization.TimeoutSeconds < 0 {
		c.Diarization.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeSummary() {
	c.Summary.Provider = strings.ToLower(strings.TrimSpace(c.Summary.Provider))
	if c.Summary.Provider == "" {
		c.Summary.Provider = defaultSummaryProvider
	}
	c.Summary.BaseURL = strings.TrimSpace(c.Summary.BaseURL)
	if c.Summary.BaseURL == "" {
		c.Summary.BaseURL = defaultSummaryBaseURL
	}
	c.Summary.Model = strings.TrimSpace(c.Summary.Model)
	if c.Summary.Model == "" || (c.Summary.Provider == "gemini" && c.Summary.Model == defaultSummaryModel) {
		if c.Summary.Provider == "gemini" {
			c.Summary.Model = defaultGeminiModel
		} else {
			c.Summary.Model = defaultSummaryModel
		}
	}
	if c.Summary.TimeoutSeconds <= 0 {
		c.Summary.TimeoutSeconds = defaultSummaryTimeout
	}
	c.Summary.APIKey = strings.TrimSpace(c.Summary.APIKey)
	if c.Summary.APIKey == "" {
		switch c.Summary.Provider {
		case "gemini":
			c.Summary.APIKey = envValue("GEMINI_API_KEY", "GOOGLE_API_KEY")
		default:
			c.Summary.APIKey = envValue("GROQ_API_KEY", "OPENAI_API_KEY")
		}
	}
}

func (c *Config) normalizeEmail() {
	c.Email.Host = strings.TrimSpace(c.Email.Host)
	if c.Email.Host == "" {
		c.Email.Host = defaultSMTPHost
	}
	if c.Email.Port <= 0 {
		c.Email.Port = defaultSMTPPort
	}
	c.Email.Username = strings.TrimSpace(c.Email.Username)
	if c.Email.Username == "" {
		c.Email.Username = envValue("MEETNOTES_SMTP_USER", "GMAIL_USER")
	}
	if strings.TrimSpace(c.Email.Password) == "" {
		c.Email.Password = envValue("MEETNOTES_SMTP_PASSWORD", "GMAIL_APP_PASSWORD")
	}
	c.Email.From = strings.TrimSpace(c.Email.From)
	if c.Email.From == "" {
		c.Email.From = c.Email.Username
	}
	recipients := make([]string, 0, len(c.Email.To))
	for _, addr := range c.Email.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	c.Email.To = recipients
	c.Email.TLS = strings.ToLower(strings.TrimSpace(c.Email.TLS))
	if c.Email.TLS == "" {
		c.Email.TLS = defaultSMTPTLS
	}
	if c.Email.TimeoutSeconds <= 0 {
		c.Email.TimeoutSeconds = defaultSMTPTimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.InboxSettleMS < 0 {
		c.Workflow.InboxSettleMS = 0
	}
	if c.Workflow.ShutdownTimeout <= 0 {
		c.Workflow.ShutdownTimeout = defaultShutdownTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envValue(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
