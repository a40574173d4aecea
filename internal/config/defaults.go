package config

const (
	defaultConfigPath          = "~/.config/meetnotes/config.toml"
	defaultStateDir            = "~/.local/share/meetnotes"
	defaultRecordingsDir       = "~/.local/share/meetnotes/recordings"
	defaultTranscriptsDir      = "~/.local/share/meetnotes/transcripts"
	defaultInboxDir            = "~/.local/share/meetnotes/inbox"
	defaultLogDir              = "~/.local/share/meetnotes/logs"
	defaultAPIBind             = "127.0.0.1:5001"
	defaultRecorderDevice      = "default"
	defaultRecorderFormat      = "alsa"
	defaultRecorderSampleRate  = 16000
	defaultRecorderChannels    = 1
	defaultWhisperModel        = "small"
	defaultWhisperDevice       = "cpu"
	defaultWhisperComputeType  = "int8"
	defaultWhisperBeamSize     = 5
	defaultDiarizationStrategy = "pyannote"
	defaultPyannoteModel       = "pyannote/speaker-diarization-3.1"
	defaultClusterThreshold    = 0.5
	defaultMinSegmentSeconds   = 0.1
	defaultSummaryProvider     = "openai"
	defaultSummaryBaseURL      = "https://api.groq.com/openai/v1/chat/completions"
	defaultSummaryModel        = "llama-3.3-70b-versatile"
	defaultGeminiModel         = "gemini-2.5-flash"
	defaultSummaryTimeout      = 120
	defaultSMTPHost            = "smtp.gmail.com"
	defaultSMTPPort            = 587
	defaultSMTPTLS             = "starttls"
	defaultSMTPTimeout         = 30
	defaultNotifyTimeout       = 10
	defaultInboxSettleMS       = 2000
	defaultShutdownTimeout     = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:       defaultStateDir,
			RecordingsDir:  defaultRecordingsDir,
			TranscriptsDir: defaultTranscriptsDir,
			InboxDir:       defaultInboxDir,
			LogDir:         defaultLogDir,
			APIBind:        defaultAPIBind,
		},
		Recorder: Recorder{
			Device:      defaultRecorderDevice,
			InputFormat: defaultRecorderFormat,
			SampleRate:  defaultRecorderSampleRate,
			Channels:    defaultRecorderChannels,
		},
		Transcription: Transcription{
			Model:       defaultWhisperModel,
			Device:      defaultWhisperDevice,
			ComputeType: defaultWhisperComputeType,
			BeamSize:    defaultWhisperBeamSize,
		},
		Diarization: Diarization{
			Strategy:          defaultDiarizationStrategy,
			PyannoteModel:     defaultPyannoteModel,
			ClusterThreshold:  defaultClusterThreshold,
			MinSegmentSeconds: defaultMinSegmentSeconds,
		},
		Summary: Summary{
			Provider:       defaultSummaryProvider,
			BaseURL:        defaultSummaryBaseURL,
			Model:          defaultSummaryModel,
			TimeoutSeconds: defaultSummaryTimeout,
		},
		Email: Email{
			Host:           defaultSMTPHost,
			Port:           defaultSMTPPort,
			TLS:            defaultSMTPTLS,
			TimeoutSeconds: defaultSMTPTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			JobCompleted:   true,
			JobFailed:      true,
			Recovery:       true,
		},
		Workflow: Workflow{
			InboxSettleMS:   defaultInboxSettleMS,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
