package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StateDir       string `toml:"state_dir"`
	RecordingsDir  string `toml:"recordings_dir"`
	TranscriptsDir string `toml:"transcripts_dir"`
	InboxDir       string `toml:"inbox_dir"`
	LogDir         string `toml:"log_dir"`
	APIBind        string `toml:"api_bind"`
	APIToken       string `toml:"api_token"`
}

// Recorder contains microphone capture settings.
type Recorder struct {
	Device      string `toml:"device"`
	InputFormat string `toml:"input_format"`
	SampleRate  int    `toml:"sample_rate"`
	Channels    int    `toml:"channels"`
}

// Transcription contains faster-whisper settings.
type Transcription struct {
	Model          string `toml:"model"`
	Device         string `toml:"device"`
	ComputeType    string `toml:"compute_type"`
	Language       string `toml:"language"`
	BeamSize       int    `toml:"beam_size"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Diarization selects how transcript segments are attributed to speakers.
type Diarization struct {
	// Strategy is one of "pyannote", "embeddings", or "none".
	Strategy         string `toml:"strategy"`
	HuggingFaceToken string `toml:"hf_token"`
	PyannoteModel    string `toml:"pyannote_model"`
	// ClusterThreshold is the cosine distance below which embedding clusters merge.
	ClusterThreshold  float64 `toml:"cluster_threshold"`
	MinSegmentSeconds float64 `toml:"min_segment_seconds"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Summary contains LLM settings for meeting summaries.
type Summary struct {
	// Provider is "openai" (any OpenAI-compatible endpoint, Groq by default) or "gemini".
	Provider       string  `toml:"provider"`
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Email contains SMTP delivery settings for finished notes.
type Email struct {
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	From     string   `toml:"from"`
	To       []string `toml:"to"`
	// TLS is "starttls", "tls", or "none".
	TLS            string `toml:"tls"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	JobCompleted   bool   `toml:"job_completed"`
	JobFailed      bool   `toml:"job_failed"`
	Recovery       bool   `toml:"recovery"`
}

// Workflow contains daemon behaviour toggles.
type Workflow struct {
	WatchInbox      bool `toml:"watch_inbox"`
	InboxSettleMS   int  `toml:"inbox_settle_ms"`
	ShutdownTimeout int  `toml:"shutdown_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for meetnotes.
//
// Configuration sections by subsystem:
//   - Paths: state, audio, transcript directories and API bind address
//   - Recorder: ffmpeg microphone capture
//   - Transcription: faster-whisper model selection
//   - Diarization: speaker attribution strategy
//   - Summary: LLM provider for meeting summaries
//   - Email: SMTP delivery of notes
//   - Notifications: ntfy operator alerts
//   - Workflow: inbox watching and shutdown timing
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Recorder      Recorder      `toml:"recorder"`
	Transcription Transcription `toml:"transcription"`
	Diarization   Diarization   `toml:"diarization"`
	Summary       Summary       `toml:"summary"`
	Email         Email         `toml:"email"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("meetnotes.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.RecordingsDir, c.Paths.TranscriptsDir, c.Paths.LogDir}
	if c.Workflow.WatchInbox {
		dirs = append(dirs, c.Paths.InboxDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the job database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "jobs.db")
}

// LockPath returns the location of the daemon single-instance lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "meetnotes.lock")
}

// FFmpegBinary returns the ffmpeg executable name used for capture and audio conversion.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// UVXBinary returns the uvx executable used to run the Python speech tooling.
func (c *Config) UVXBinary() string {
	return "uvx"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Redacted returns a copy of the configuration with secrets masked, for display.
func (c *Config) Redacted() Config {
	out := *c
	out.Paths.APIToken = mask(out.Paths.APIToken)
	out.Diarization.HuggingFaceToken = mask(out.Diarization.HuggingFaceToken)
	out.Summary.APIKey = mask(out.Summary.APIKey)
	out.Email.Password = mask(out.Email.Password)
	out.Email.To = append([]string(nil), c.Email.To...)
	return out
}

// Marshal renders the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func mask(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}
