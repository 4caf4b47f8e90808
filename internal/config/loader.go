package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidAIProviders lists recognised responder provider names. Unknown names
// produce a warning, not an error, so new providers can be tried without a
// code change.
var ValidAIProviders = []string{
	"gemini",
	"openai", "anthropic", "mistral", "deepseek", "groq",
	"ollama", "llamacpp", "llamafile", "lmstudio", "sambanova",
}

// Load reads the YAML configuration file at path, overlays it onto the
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of the defaults and
// validates the result. Useful in tests where configs are string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing every failure found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Logging.Level != "" && !cfg.Logging.Level.IsValid() {
		errs = append(errs, fmt.Errorf("logging.level %q is invalid; valid values: debug, info, warn, error", cfg.Logging.Level))
	}

	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", cfg.Audio.SampleRate))
	}
	if cfg.Audio.FrameMs <= 0 {
		errs = append(errs, fmt.Errorf("audio.frame_ms must be positive, got %d", cfg.Audio.FrameMs))
	}

	if cfg.VAD.SpeechThreshold < 0 || cfg.VAD.SilenceThreshold < 0 {
		errs = append(errs, errors.New("vad thresholds must not be negative"))
	}
	if cfg.VAD.SpeechThreshold > 0 && cfg.VAD.SilenceThreshold > cfg.VAD.SpeechThreshold {
		errs = append(errs, fmt.Errorf("vad.silence_threshold %g must not exceed vad.speech_threshold %g",
			cfg.VAD.SilenceThreshold, cfg.VAD.SpeechThreshold))
	}

	if cfg.Segmenter.MinSpeechSeconds < 0 || cfg.Segmenter.MaxSilenceSeconds < 0 {
		errs = append(errs, errors.New("segmenter durations must not be negative"))
	}

	if len(cfg.Transcription.Engines) == 0 {
		errs = append(errs, errors.New("transcription.engines must list at least one engine"))
	}
	for i, e := range cfg.Transcription.Engines {
		if !e.Name.IsValid() {
			errs = append(errs, fmt.Errorf("transcription.engines[%d].name %q is invalid; valid values: whisper, openai, mock", i, e.Name))
			continue
		}
		if e.Name == EngineWhisper && e.ModelPath == "" {
			errs = append(errs, fmt.Errorf("transcription.engines[%d]: whisper engine needs model_path", i))
		}
	}
	switch cfg.Transcription.Language {
	case "", "en", "he":
	default:
		errs = append(errs, fmt.Errorf("transcription.language %q is invalid; valid values: en, he, or empty for auto", cfg.Transcription.Language))
	}
	if cfg.Transcription.NoiseThreshold < 0 {
		errs = append(errs, errors.New("transcription.noise_threshold must not be negative"))
	}

	if cfg.AI.Provider != "" && !slices.Contains(ValidAIProviders, cfg.AI.Provider) {
		slog.Warn("unrecognised ai.provider; attempting to use it anyway", "provider", cfg.AI.Provider)
	}
	if cfg.AI.Retry.MaxRetries < 0 {
		errs = append(errs, errors.New("ai.retry.max_retries must not be negative"))
	}
	if cfg.AI.Retry.BaseDelay < 0 || cfg.AI.Retry.MaxDelay < 0 {
		errs = append(errs, errors.New("ai.retry delays must not be negative"))
	}

	if cfg.Storage.SessionsDir == "" {
		errs = append(errs, errors.New("storage.sessions_dir must not be empty"))
	}
	if cfg.Sefaria.CacheDir == "" {
		errs = append(errs, errors.New("sefaria.cache_dir must not be empty"))
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddr == "" {
		errs = append(errs, errors.New("metrics.listen_addr must be set when metrics are enabled"))
	}

	return errors.Join(errs...)
}
