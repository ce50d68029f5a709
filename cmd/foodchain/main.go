// Command foodchain is the main entry point for the Foodchain ordering kiosk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/giggslabs/foodchain/internal/app"
	"github.com/giggslabs/foodchain/internal/config"
	"github.com/giggslabs/foodchain/internal/intent"
	"github.com/giggslabs/foodchain/internal/menu"
	"github.com/giggslabs/foodchain/internal/observe"
	"github.com/giggslabs/foodchain/internal/orders"
	"github.com/giggslabs/foodchain/internal/server"
	"github.com/giggslabs/foodchain/pkg/provider/llm"
	"github.com/giggslabs/foodchain/pkg/provider/llm/anyllm"
	"github.com/giggslabs/foodchain/pkg/provider/stt"
	"github.com/giggslabs/foodchain/pkg/provider/stt/groq"
	"github.com/giggslabs/foodchain/pkg/provider/stt/whisper"
	"github.com/giggslabs/foodchain/pkg/provider/tts"
	"github.com/giggslabs/foodchain/pkg/provider/tts/kokoro"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "foodchain: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "foodchain: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("foodchain starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics := observe.DefaultMetrics()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Menu catalog ──────────────────────────────────────────────────────────
	var (
		catalog  menu.Catalog
		checkers []server.Checker
	)
	if cfg.Menu.PostgresDSN != "" {
		pg, err := menu.NewPG(ctx, cfg.Menu.PostgresDSN)
		if err != nil {
			slog.Error("failed to connect menu database", "err", err)
			return 1
		}
		defer pg.Close()
		catalog = pg
		slog.Info("menu catalog connected", "source", "postgres")
	} else {
		catalog = menu.NewStatic(cfg.Menu.Items)
		slog.Info("menu catalog loaded", "source", "static", "items", len(cfg.Menu.Items))
	}
	checkers = append(checkers, server.Checker{
		Name: "menu",
		Check: func(ctx context.Context) error {
			_, err := catalog.Items(ctx)
			return err
		},
	})

	// ── Order store ───────────────────────────────────────────────────────────
	var store orders.Store
	if cfg.Orders.PostgresDSN != "" {
		pg, err := orders.NewPostgres(ctx, cfg.Orders.PostgresDSN)
		if err != nil {
			slog.Error("failed to connect orders database", "err", err)
			return 1
		}
		defer pg.Close()
		store = pg
		slog.Info("order store connected", "backend", "postgres")
	} else {
		store = orders.NewMemory()
		slog.Warn("order store is in-memory; orders are lost on restart")
	}

	// ── Intent engine ─────────────────────────────────────────────────────────
	var matcherOpts []intent.MatcherOption
	if cfg.Engine.MatchThreshold > 0 {
		matcherOpts = append(matcherOpts, intent.WithThreshold(cfg.Engine.MatchThreshold))
	}
	matcher := intent.NewMatcher(matcherOpts...)

	replierOpts := []intent.ReplierOption{
		intent.WithReplyLogger(logger),
		intent.WithFallbackNotify(func() {
			metrics.ReplyFallbacks.Add(context.Background(), 1)
		}),
	}
	if cfg.Engine.ReplyTimeout > 0 {
		replierOpts = append(replierOpts, intent.WithReplyTimeout(cfg.Engine.ReplyTimeout.Std()))
	}
	replier := intent.NewReplier(providers.LLM, replierOpts...)

	router := intent.NewRouter(matcher, replier, logger)

	kiosk, err := app.NewKiosk(app.Config{
		Router:  router,
		Catalog: catalog,
		Store:   store,
		STT:     providers.STT,
		TTS:     providers.TTS,
		Metrics: metrics,
		Logger:  logger,
		Welcome: cfg.Engine.Welcome,
	})
	if err != nil {
		slog.Error("failed to initialise kiosk", "err", err)
		return 1
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv, err := server.New(server.Config{
		ListenAddr: cfg.Server.ListenAddr,
		Kiosk:      kiosk,
		Checkers:   checkers,
		Logger:     logger,
	})
	if err != nil {
		slog.Error("failed to initialise server", "err", err)
		return 1
	}

	printStartupSummary(cfg)
	slog.Info("kiosk ready — press Ctrl+C to shut down")

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// openai, anthropic, gemini, deepseek, mistral, groq, llamacpp, llamafile
	// all share the same pattern: optional APIKey + optional BaseURL.
	for _, providerName := range []string{
		"openai", "anthropic", "gemini",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.NativeOption
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	reg.RegisterSTT("groq", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []groq.Option
		if entry.Model != "" {
			opts = append(opts, groq.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, groq.WithBaseURL(entry.BaseURL))
		}
		return groq.New(entry.APIKey, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("kokoro", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []kokoro.Option
		if voices, ok := entry.Options["voices"].(map[string]any); ok {
			for lang, v := range voices {
				if voice, ok := v.(string); ok {
					opts = append(opts, kokoro.WithVoice(lang, voice))
				}
			}
		}
		return kokoro.New(entry.BaseURL, opts...)
	})

	// Debug log of all registered providers.
	for kind, names := range config.ValidProviderNames {
		for _, name := range names {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// providers bundles the optional external services the kiosk can use.
type providers struct {
	STT stt.Provider
	TTS tts.Provider
	LLM llm.Provider
}

// buildProviders instantiates all providers named in cfg using the registry.
// Unconfigured providers stay nil; the kiosk degrades gracefully without them.
func buildProviders(cfg *config.Config, reg *config.Registry) (*providers, error) {
	ps := &providers{}

	if name := cfg.Providers.STT.Name; name != "" {
		p, err := reg.CreateSTT(cfg.Providers.STT)
		if err != nil {
			return nil, fmt.Errorf("create stt provider %q: %w", name, err)
		}
		ps.STT = p
		slog.Info("provider created", "kind", "stt", "name", name)
	}

	if name := cfg.Providers.TTS.Name; name != "" {
		p, err := reg.CreateTTS(cfg.Providers.TTS)
		if err != nil {
			return nil, fmt.Errorf("create tts provider %q: %w", name, err)
		}
		ps.TTS = p
		slog.Info("provider created", "kind", "tts", "name", name)
	}

	if name := cfg.Providers.LLM.Name; name != "" {
		p, err := reg.CreateLLM(cfg.Providers.LLM)
		if err != nil {
			return nil, fmt.Errorf("create llm provider %q: %w", name, err)
		}
		ps.LLM = p
		slog.Info("provider created", "kind", "llm", "name", name)
	}

	return ps, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        Foodchain — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	printProvider("LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	if cfg.Menu.PostgresDSN != "" {
		fmt.Printf("║  Menu            : %-19s ║\n", "postgres")
	} else {
		fmt.Printf("║  Menu            : %-19s ║\n", fmt.Sprintf("static (%d items)", len(cfg.Menu.Items)))
	}
	if cfg.Orders.PostgresDSN != "" {
		fmt.Printf("║  Orders          : %-19s ║\n", "postgres")
	} else {
		fmt.Printf("║  Orders          : %-19s ║\n", "in-memory")
	}
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
