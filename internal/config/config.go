// Package config provides the configuration schema and loader for the Chavr
// study companion.
package config

import (
	"log/slog"
	"time"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog maps the level to its slog equivalent. Unknown levels map to info.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EngineName selects a transcription engine implementation.
type EngineName string

const (
	// EngineWhisper runs whisper.cpp locally.
	EngineWhisper EngineName = "whisper"

	// EngineOpenAI uses the OpenAI transcription API.
	EngineOpenAI EngineName = "openai"

	// EngineMock is the scripted test engine.
	EngineMock EngineName = "mock"
)

// IsValid reports whether e is a recognised engine name.
func (e EngineName) IsValid() bool {
	switch e {
	case EngineWhisper, EngineOpenAI, EngineMock:
		return true
	}
	return false
}

// Config is the root configuration, typically loaded from YAML via [Load].
type Config struct {
	Logging       LoggingConfig       `yaml:"logging"`
	Audio         AudioConfig         `yaml:"audio"`
	VAD           VADConfig           `yaml:"vad"`
	Segmenter     SegmenterConfig     `yaml:"segmenter"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	AI            AIConfig            `yaml:"ai"`
	Storage       StorageConfig       `yaml:"storage"`
	Sefaria       SefariaConfig       `yaml:"sefaria"`
	Metrics       MetricsConfig       `yaml:"metrics"`

	// Triggers overrides the built-in voice-command wake phrases.
	Triggers []string `yaml:"triggers"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level LogLevel `yaml:"level"`
}

// AudioConfig holds capture settings.
type AudioConfig struct {
	// SampleRate in Hz. Default: 16000.
	SampleRate int `yaml:"sample_rate"`

	// FrameMs is the capture frame duration in milliseconds. Default: 30.
	FrameMs int `yaml:"frame_ms"`

	// DumpDir, when set, saves every segmented utterance as a WAV file
	// there for debugging. Empty disables dumping.
	DumpDir string `yaml:"dump_dir"`
}

// VADConfig tunes the energy voice activity detector.
type VADConfig struct {
	SpeechThreshold  float64 `yaml:"speech_threshold"`
	SilenceThreshold float64 `yaml:"silence_threshold"`
	SpeechFrames     int     `yaml:"speech_frames"`
	SilenceFrames    int     `yaml:"silence_frames"`
}

// SegmenterConfig tunes endpoint detection.
type SegmenterConfig struct {
	// MinSpeechSeconds is the shortest speech span emitted as an utterance.
	MinSpeechSeconds float64 `yaml:"min_speech_seconds"`

	// MaxSilenceSeconds is the trailing silence that closes an utterance.
	MaxSilenceSeconds float64 `yaml:"max_silence_seconds"`
}

// EngineEntry configures one transcription engine.
type EngineEntry struct {
	// Name selects the implementation.
	Name EngineName `yaml:"name"`

	// ModelPath is the whisper.cpp model file (whisper engine only).
	ModelPath string `yaml:"model_path"`

	// APIKey authenticates API engines. Empty falls back to the engine's
	// environment variable.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the engine.
	Model string `yaml:"model"`
}

// TranscriptionConfig holds the engine chain and post-filter settings.
type TranscriptionConfig struct {
	// Engines is the ordered engine chain: the first entry is primary, the
	// rest are fallbacks tried in order when the primary fails.
	Engines []EngineEntry `yaml:"engines"`

	// Language forces recognition to "en" or "he". Empty auto-detects.
	Language string `yaml:"language"`

	// NoiseThreshold and MinTextLength tune the transcript post-filter.
	NoiseThreshold float64 `yaml:"noise_threshold"`
	MinTextLength  int     `yaml:"min_text_length"`

	// QueueSize bounds the utterance queue.
	QueueSize int `yaml:"queue_size"`
}

// RetryConfig tunes rate-limit backoff for AI requests.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`

	// Jitter is the random delay spread as a fraction (0.2 = ±20%).
	// Negative disables jitter.
	Jitter float64 `yaml:"jitter"`
}

// AIConfig configures the question-answering responder.
type AIConfig struct {
	// Provider selects the responder: "gemini", an any-llm provider name
	// ("openai", "anthropic", "ollama", ...), or empty to disable AI.
	Provider string `yaml:"provider"`

	// APIKey authenticates the provider. Empty falls back to the
	// provider's environment variable.
	APIKey string `yaml:"api_key"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// QueueSize bounds the question queue.
	QueueSize int `yaml:"queue_size"`

	Retry RetryConfig `yaml:"retry"`
}

// StorageConfig locates session persistence.
type StorageConfig struct {
	// SessionsDir is where session JSON files are written. Default:
	// "sessions".
	SessionsDir string `yaml:"sessions_dir"`
}

// SefariaConfig configures the study text source.
type SefariaConfig struct {
	// CacheDir is where fetched texts are cached. Default: "sefaria_cache".
	CacheDir string `yaml:"cache_dir"`

	// BaseURL overrides the Sefaria API endpoint.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request HTTP timeout. Default: 10s.
	Timeout time.Duration `yaml:"timeout"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns the /metrics HTTP listener on.
	Enabled bool `yaml:"enabled"`

	// ListenAddr is the metrics listener address. Default: ":9090".
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns a Config with every default applied. Loading a file
// overlays onto these values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: LogInfo},
		Audio:   AudioConfig{SampleRate: 16000, FrameMs: 30},
		Segmenter: SegmenterConfig{
			MinSpeechSeconds:  0.2,
			MaxSilenceSeconds: 0.5,
		},
		Transcription: TranscriptionConfig{
			Engines:        []EngineEntry{{Name: EngineWhisper, ModelPath: "models/ggml-base.bin"}},
			NoiseThreshold: 0.01,
			MinTextLength:  3,
			QueueSize:      32,
		},
		AI: AIConfig{
			Provider:  "gemini",
			QueueSize: 64,
			Retry: RetryConfig{
				MaxRetries: 3,
				BaseDelay:  time.Second,
				MaxDelay:   30 * time.Second,
				Jitter:     0.2,
			},
		},
		Storage: StorageConfig{SessionsDir: "sessions"},
		Sefaria: SefariaConfig{CacheDir: "sefaria_cache", Timeout: 10 * time.Second},
		Metrics: MetricsConfig{ListenAddr: ":9090"},
	}
}
