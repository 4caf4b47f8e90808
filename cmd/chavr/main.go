// Command chavr is the Chavr study companion: it listens to a study session
// through the microphone, transcribes it, answers "Hey Chavr" questions, and
// saves the session when it ends.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/LiamSkop/Chavr/internal/catalog"
	"github.com/LiamSkop/Chavr/internal/config"
	"github.com/LiamSkop/Chavr/internal/events"
	"github.com/LiamSkop/Chavr/internal/health"
	"github.com/LiamSkop/Chavr/internal/observe"
	"github.com/LiamSkop/Chavr/internal/pipeline"
	"github.com/LiamSkop/Chavr/internal/resilience"
	"github.com/LiamSkop/Chavr/internal/sefaria"
	"github.com/LiamSkop/Chavr/internal/segment"
	"github.com/LiamSkop/Chavr/internal/storage"
	"github.com/LiamSkop/Chavr/internal/transcribe"
	"github.com/LiamSkop/Chavr/internal/vad"
	"github.com/LiamSkop/Chavr/pkg/asr"
	asrmock "github.com/LiamSkop/Chavr/pkg/asr/mock"
	asropenai "github.com/LiamSkop/Chavr/pkg/asr/openai"
	"github.com/LiamSkop/Chavr/pkg/asr/whisper"
	"github.com/LiamSkop/Chavr/pkg/audio"
	"github.com/LiamSkop/Chavr/pkg/responder"
	"github.com/LiamSkop/Chavr/pkg/responder/anyllm"
	"github.com/LiamSkop/Chavr/pkg/responder/gemini"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// .env is optional; environment variables win over file values.
	_ = godotenv.Load()

	// ── Load configuration ─────────────────────────────────────────────────
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chavr: %v\n", err)
		return 1
	}

	// ── Logger ─────────────────────────────────────────────────────────────
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Logging.Level.Slog(),
	}))
	slog.SetDefault(logger)

	// ── Signal context ─────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ──────────────────────────────────────────────────────────
	var metrics *observe.Metrics
	group, groupCtx := errgroup.WithContext(ctx)
	if cfg.Metrics.Enabled {
		shutdown, err := observe.InitProvider(ctx, "chavr", version)
		if err != nil {
			slog.Error("failed to initialise telemetry", "err", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("telemetry shutdown error", "err", err)
			}
		}()

		metrics = observe.DefaultMetrics()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		sefariaURL := cfg.Sefaria.BaseURL
		if sefariaURL == "" {
			sefariaURL = sefaria.DefaultBaseURL
		}
		health.New(
			health.DirWritable("sessions", cfg.Storage.SessionsDir),
			health.DirWritable("text_cache", cfg.Sefaria.CacheDir),
			health.Reachable("sefaria", nil, sefariaURL),
		).Register(mux)
		srv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
		group.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		slog.Info("metrics endpoint listening", "addr", cfg.Metrics.ListenAddr)
	}

	// ── Transcription engine chain ─────────────────────────────────────────
	engine, err := buildEngineChain(cfg.Transcription.Engines)
	if err != nil {
		slog.Error("failed to build transcription engine", "err", err)
		return 1
	}
	defer engine.Close()

	// ── AI responder (optional) ────────────────────────────────────────────
	resp, err := buildResponder(ctx, cfg.AI)
	if err != nil {
		slog.Error("failed to build AI responder", "err", err)
		return 1
	}
	if resp != nil {
		defer resp.Close()
	}

	// ── Study texts and storage ────────────────────────────────────────────
	cat := catalog.New(cfg.Storage.SessionsDir + "/text_access_history.json")
	texts, err := sefaria.NewClient(cfg.Sefaria.CacheDir,
		sefariaOptions(cfg.Sefaria, cat)...)
	if err != nil {
		slog.Error("failed to open text cache", "err", err)
		return 1
	}
	store, err := storage.NewFileStore(cfg.Storage.SessionsDir)
	if err != nil {
		slog.Error("failed to open session store", "err", err)
		return 1
	}

	// ── Microphone ─────────────────────────────────────────────────────────
	source, err := audio.NewMicSource(cfg.Audio.SampleRate, cfg.Audio.FrameMs)
	if err != nil {
		slog.Error("failed to open microphone", "err", err)
		return 1
	}
	defer source.Close()

	// ── Event printer ──────────────────────────────────────────────────────
	sink := events.NewChannelSink(64).WithMetrics(metrics)
	go printEvents(sink)

	app := &cli{
		cfg:     cfg,
		source:  source,
		engine:  engine,
		resp:    resp,
		sink:    sink,
		store:   store,
		texts:   texts,
		catalog: cat,
		metrics: metrics,
	}

	printBanner(resp)
	app.loop(ctx)

	stop()
	if err := group.Wait(); err != nil {
		slog.Warn("background task error", "err", err)
	}
	slog.Info("goodbye")
	return 0
}

// version is stamped at build time via -ldflags.
var version = "dev"

// loadConfig loads the YAML config, falling back to defaults when the file
// does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("config file not found, using defaults", "path", path)
		return config.Default(), nil
	}
	return cfg, err
}

// buildEngineChain constructs the configured engines in order and wires the
// survivors into a fallback chain. An engine whose initialization fails is
// skipped so the next configured engine takes over; construction fails only
// when no engine at all could be built.
func buildEngineChain(entries []config.EngineEntry) (asr.Engine, error) {
	if len(entries) == 0 {
		return nil, errors.New("no transcription engines configured")
	}

	var (
		engines  []asr.Engine
		initErrs []error
	)
	for i, entry := range entries {
		e, err := buildEngine(entry)
		if err != nil {
			slog.Warn("transcription engine unavailable, trying next",
				"engine", entry.Name, "error", err)
			initErrs = append(initErrs, fmt.Errorf("engine %d (%s): %w", i, entry.Name, err))
			continue
		}
		engines = append(engines, e)
		slog.Info("transcription engine ready", "engine", e.Name())
	}
	if len(engines) == 0 {
		return nil, errors.Join(initErrs...)
	}
	if len(engines) == 1 {
		return engines[0], nil
	}

	chain := resilience.NewASRFallback(engines[0], resilience.FallbackConfig{})
	for _, e := range engines[1:] {
		chain.AddFallback(e)
	}
	return chain, nil
}

func buildEngine(entry config.EngineEntry) (asr.Engine, error) {
	switch entry.Name {
	case config.EngineWhisper:
		return whisper.New(entry.ModelPath)

	case config.EngineOpenAI:
		key := entry.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		var opts []asropenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, asropenai.WithBaseURL(entry.BaseURL))
		}
		if entry.Model != "" {
			opts = append(opts, asropenai.WithModel(entry.Model))
		}
		return asropenai.New(key, opts...)

	case config.EngineMock:
		return &asrmock.Engine{}, nil

	default:
		return nil, fmt.Errorf("unknown engine %q", entry.Name)
	}
}

// buildResponder constructs the configured AI responder, or nil when AI is
// disabled.
func buildResponder(ctx context.Context, cfg config.AIConfig) (responder.Responder, error) {
	switch cfg.Provider {
	case "":
		slog.Info("AI features disabled")
		return nil, nil

	case "gemini":
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}
		if key == "" {
			slog.Warn("no GEMINI_API_KEY set, AI features disabled")
			return nil, nil
		}
		return gemini.New(ctx, key, cfg.Model)

	default:
		var opts []anyllmlib.Option
		if cfg.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(cfg.APIKey))
		}
		return anyllm.New(cfg.Provider, cfg.Model, opts...)
	}
}

func sefariaOptions(cfg config.SefariaConfig, cat *catalog.Catalog) []sefaria.Option {
	opts := []sefaria.Option{sefaria.WithCatalog(cat)}
	if cfg.BaseURL != "" {
		opts = append(opts, sefaria.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, sefaria.WithTimeout(cfg.Timeout))
	}
	return opts
}

// printEvents renders pipeline events to stdout as they arrive.
func printEvents(sink *events.ChannelSink) {
	for ev := range sink.Events() {
		switch ev.Kind {
		case events.KindSpeech:
			fmt.Printf("[%s] %s\n", ev.Language, ev.Text)
		case events.KindProcessing:
			fmt.Printf("... %s\n", ev.Text)
		case events.KindAI:
			bar := strings.Repeat("=", 60)
			fmt.Printf("\n%s\n[AI Chavruta Response]\n%s\n%s\n%s\n\n", bar, bar, ev.Text, bar)
		case events.KindError:
			fmt.Printf("!! %s\n", ev.Text)
		}
	}
}

func printBanner(resp responder.Responder) {
	fmt.Println("Chavr Study Companion")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Commands:")
	fmt.Println("  start [title]      - begin a listening session")
	fmt.Println("  stop               - end the session and save it")
	fmt.Println("  ask <question>     - ask the AI chavruta directly")
	fmt.Println("  text <reference>   - load a study text (e.g. 'text Genesis 1:1')")
	fmt.Println("  find <query>       - search the text catalog")
	fmt.Println("  sessions           - list saved sessions")
	fmt.Println("  stats              - show storage statistics")
	fmt.Println("  quit               - exit")
	if resp == nil {
		fmt.Println("(AI features are disabled; set ai.provider and an API key to enable)")
	}
	fmt.Println(strings.Repeat("=", 60))
}

// cli holds the interactive state: at most one active pipeline at a time.
type cli struct {
	cfg     *config.Config
	source  audio.Source
	engine  asr.Engine
	resp    responder.Responder
	sink    events.Sink
	store   *storage.FileStore
	texts   *sefaria.Client
	catalog *catalog.Catalog
	metrics *observe.Metrics

	active *pipeline.Pipeline
}

// loop reads commands from stdin until quit or the context is cancelled.
func (c *cli) loop(ctx context.Context) {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		fmt.Print("\nchavr> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			c.stopSession()
			return
		case line, ok := <-lines:
			if !ok {
				c.stopSession()
				return
			}
			cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
			arg = strings.TrimSpace(arg)
			switch strings.ToLower(cmd) {
			case "":
			case "quit", "exit":
				c.stopSession()
				return
			case "start":
				c.startSession(arg)
			case "stop":
				c.stopSession()
			case "ask":
				c.ask(arg)
			case "text":
				c.loadText(ctx, arg)
			case "find":
				c.findTexts(arg)
			case "sessions":
				c.listSessions()
			case "stats":
				c.showStats()
			default:
				fmt.Println("Unknown command. Try 'start', 'stop', 'ask', 'text', 'find', 'sessions', 'stats', or 'quit'.")
			}
		}
	}
}

func (c *cli) pipelineConfig() pipeline.Config {
	t := c.cfg.Transcription
	return pipeline.Config{
		SampleRate: c.cfg.Audio.SampleRate,
		FrameMs:    c.cfg.Audio.FrameMs,
		VAD: vad.EnergyConfig{
			SpeechThreshold:  c.cfg.VAD.SpeechThreshold,
			SilenceThreshold: c.cfg.VAD.SilenceThreshold,
			SpeechFrames:     c.cfg.VAD.SpeechFrames,
			SilenceFrames:    c.cfg.VAD.SilenceFrames,
		},
		Segmenter: segment.Config{
			MinSpeechFrames:  segment.FramesFor(c.cfg.Segmenter.MinSpeechSeconds, c.cfg.Audio.FrameMs),
			MaxSilenceFrames: segment.FramesFor(c.cfg.Segmenter.MaxSilenceSeconds, c.cfg.Audio.FrameMs),
		},
		Transcribe: transcribe.Config{
			QueueSize:      t.QueueSize,
			LanguageHint:   t.Language,
			NoiseThreshold: t.NoiseThreshold,
			MinTextLength:  t.MinTextLength,
		},
		AI: pipeline.AIWorkerConfig{
			QueueSize: c.cfg.AI.QueueSize,
			Retry: resilience.RetryConfig{
				MaxRetries: c.cfg.AI.Retry.MaxRetries,
				BaseDelay:  c.cfg.AI.Retry.BaseDelay,
				MaxDelay:   c.cfg.AI.Retry.MaxDelay,
				Jitter:     c.cfg.AI.Retry.Jitter,
			},
		},
		Triggers: c.cfg.Triggers,
		Metrics:  c.metrics,
		DumpDir:  c.cfg.Audio.DumpDir,
	}
}

func (c *cli) startSession(title string) {
	if c.active != nil {
		fmt.Println("A session is already running; 'stop' it first.")
		return
	}

	p := pipeline.New(c.source, c.engine, c.resp, c.sink, c.pipelineConfig())
	if err := p.Start(title); err != nil {
		fmt.Printf("Could not start listening: %v\n", err)
		return
	}
	c.active = p

	// Reload the text studied last time, if any.
	if ref, lang, ok := c.texts.LoadLastText(); ok {
		fmt.Printf("Last studied text: %s (%s) - load it with 'text %s'\n", ref, lang, ref)
	}
	fmt.Printf("Listening... session %q\n", p.Session().Title())
}

func (c *cli) stopSession() {
	if c.active == nil {
		return
	}
	sess, err := c.active.Stop()
	c.active = nil
	if err != nil {
		slog.Warn("session shutdown was not clean", "err", err)
	}
	if sess == nil {
		return
	}

	path, err := c.store.Save(sess)
	if err != nil {
		fmt.Printf("Could not save session: %v\n", err)
		return
	}
	fmt.Printf("Session saved: %s (%d transcripts, %d AI interactions, %.1fs)\n",
		path, sess.TranscriptCount(), sess.InteractionCount(), sess.Duration().Seconds())
}

func (c *cli) ask(question string) {
	if question == "" {
		fmt.Println("Usage: ask <question>")
		return
	}
	if c.active == nil {
		fmt.Println("No active session; 'start' one first.")
		return
	}
	if err := c.active.Ask(question); err != nil {
		fmt.Printf("Could not ask: %v\n", err)
	}
}

func (c *cli) loadText(ctx context.Context, arg string) {
	if arg == "" {
		fmt.Println("Usage: text <reference> [he|en]")
		return
	}
	if c.active == nil {
		fmt.Println("No active session; 'start' one first.")
		return
	}

	reference, language := arg, "en"
	if fields := strings.Fields(arg); len(fields) > 1 {
		switch last := fields[len(fields)-1]; last {
		case "he", "en":
			language = last
			reference = strings.Join(fields[:len(fields)-1], " ")
		}
	}

	// Spoken citations ("genesis chapter one verse one") and bare catalog
	// names ("Pirkei Avot") both resolve to a concrete reference.
	if ref, ok := c.catalog.ParseSpokenReference(reference); ok {
		reference = ref
	} else if ref, ok := c.catalog.Reference(reference); ok && !strings.ContainsAny(reference, "0123456789") {
		reference = ref
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	text, err := c.texts.FetchText(fetchCtx, reference, language)
	if err != nil {
		fmt.Printf("Could not load text: %v\n", err)
		return
	}

	if err := c.active.Session().SetStudyText(text.Reference, text.Language, text.Content); err != nil {
		fmt.Printf("Could not attach text to session: %v\n", err)
		return
	}
	if err := c.texts.SaveLastText(text.Reference, text.Language); err != nil {
		slog.Warn("could not remember last text", "err", err)
	}

	origin := "Sefaria"
	if text.FromCache {
		origin = "cache"
	}
	fmt.Printf("Loaded %s (%s, from %s), %d characters\n",
		text.Reference, text.Language, origin, len(text.Content))
}

func (c *cli) findTexts(query string) {
	matches := c.catalog.Search(query, 10)
	if len(matches) == 0 {
		fmt.Println("No matching texts.")
		return
	}
	for i, m := range matches {
		e := m.Entry
		fmt.Printf("%2d. %s (%s) - %s\n    %s\n", i+1, e.Name, e.HebrewName, e.Category, e.Description)
	}
}

func (c *cli) listSessions() {
	metas, err := c.store.List(20)
	if err != nil {
		fmt.Printf("Could not list sessions: %v\n", err)
		return
	}
	if len(metas) == 0 {
		fmt.Println("No saved sessions found.")
		return
	}

	fmt.Printf("\nSaved Sessions (%d):\n%s\n", len(metas), strings.Repeat("-", 70))
	for i, m := range metas {
		fmt.Printf("%2d. %s\n", i+1, m.Title)
		fmt.Printf("    ID: %.8s...  Date: %s\n", m.ID, m.StartTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("    Duration: %.1fs | Transcripts: %d | Languages: %s\n\n",
			m.DurationSeconds, m.TranscriptCount, strings.Join(m.LanguagesUsed, ", "))
	}
}

func (c *cli) showStats() {
	stats, err := c.store.Stats()
	if err != nil {
		fmt.Printf("Could not compute stats: %v\n", err)
		return
	}
	fmt.Printf("Sessions: %d | Transcripts: %d | Words: %d | Total time: %s\n",
		stats.TotalSessions, stats.TotalTranscripts, stats.TotalWords, stats.TotalDuration.Round(time.Second))
	if len(stats.Languages) > 0 {
		fmt.Printf("Languages: %s\n", strings.Join(stats.Languages, ", "))
	}
	if !stats.Earliest.IsZero() {
		fmt.Printf("From %s to %s\n",
			stats.Earliest.Format("2006-01-02"), stats.Latest.Format("2006-01-02"))
	}
}
