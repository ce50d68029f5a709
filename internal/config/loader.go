package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt": {"whisper", "whisper-native", "groq"},
	"tts": {"kokoro"},
	"llm": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
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

// LoadFromReader decodes a YAML config from r and validates the result.
// References like ${GROQ_API_KEY} are expanded from the environment before
// decoding, so secrets can stay out of the config file. Useful in tests
// where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(raw))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("llm", cfg.Providers.LLM.Name)

	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; order confirmations will use the deterministic template")
	}
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; the kiosk will only accept typed utterances")
	}

	// Menu
	if cfg.Menu.PostgresDSN != "" && len(cfg.Menu.Items) > 0 {
		slog.Warn("menu.postgres_dsn is set; menu.items will be ignored")
	}
	if cfg.Menu.PostgresDSN == "" && len(cfg.Menu.Items) == 0 {
		slog.Warn("neither menu.postgres_dsn nor menu.items is set; the menu will be empty")
	}
	namesSeen := make(map[string]int, len(cfg.Menu.Items))
	for i, item := range cfg.Menu.Items {
		prefix := fmt.Sprintf("menu.items[%d]", i)
		switch {
		case item.Name == "":
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		case item.Name != strings.ToLower(item.Name):
			errs = append(errs, fmt.Errorf("%s.name %q must be lowercase (names double as cart keys)", prefix, item.Name))
		default:
			if prev, ok := namesSeen[item.Name]; ok {
				errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of menu.items[%d]", prefix, item.Name, prev))
			}
			namesSeen[item.Name] = i
		}
		if item.Price < 0 {
			errs = append(errs, fmt.Errorf("%s.price %d must not be negative", prefix, item.Price))
		}
	}

	// Orders
	if cfg.Orders.PostgresDSN == "" {
		slog.Warn("orders.postgres_dsn is empty; orders will be kept in memory and lost on restart")
	}

	// Engine
	if cfg.Engine.MatchThreshold < 0 || cfg.Engine.MatchThreshold > 100 {
		errs = append(errs, fmt.Errorf("engine.match_threshold %d is out of range [0, 100]", cfg.Engine.MatchThreshold))
	}
	if cfg.Engine.ReplyTimeout < 0 {
		errs = append(errs, fmt.Errorf("engine.reply_timeout %v must not be negative", cfg.Engine.ReplyTimeout.Std()))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
