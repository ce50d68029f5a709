// Package kokoro provides a TTS provider backed by a local Kokoro FastAPI
// server (the kokoro-82M serving stack). Synthesis is performed via
// POST /v1/audio/speech with a JSON body; the server responds with a
// complete WAV clip.
//
// The kiosk is bilingual: English replies use the af_heart voice and Hindi
// replies use hf_alpha, matching the voices the original deployment shipped
// with. Voice selection per language can be overridden with WithVoice.
//
// Typical usage:
//
//	p, err := kokoro.New("http://localhost:8880",
//	    kokoro.WithSpeed(1.1),
//	    kokoro.WithTimeout(15*time.Second),
//	)
//	wav, err := p.Synthesize(ctx, "Done! I've added 2 classic burger.", "en")
package kokoro

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/giggslabs/foodchain/pkg/provider/tts"
)

const (
	speechEndpoint = "/v1/audio/speech"

	defaultTimeout = 30 * time.Second
	defaultSpeed   = 1.0

	// Default voices per language, as shipped by the original kiosk.
	defaultEnglishVoice = "af_heart"
	defaultHindiVoice   = "hf_alpha"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithVoice maps a language code to a specific Kokoro voice id, overriding
// the built-in defaults (en → af_heart, hi → hf_alpha).
func WithVoice(lang, voice string) Option {
	return func(p *Provider) { p.voices[lang] = voice }
}

// WithSpeed sets the speaking-rate multiplier in the range [0.5, 2.0].
// Defaults to 1.0.
func WithSpeed(speed float64) Option {
	return func(p *Provider) { p.speed = speed }
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.httpClient.Timeout = d }
}

// Provider implements tts.Provider against a Kokoro FastAPI server.
// It is safe for concurrent use.
type Provider struct {
	serverURL  string
	voices     map[string]string
	speed      float64
	httpClient *http.Client
}

// New creates a Provider targeting the Kokoro server at serverURL
// (e.g., "http://localhost:8880").
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("kokoro: serverURL must not be empty")
	}
	p := &Provider{
		serverURL: strings.TrimRight(serverURL, "/"),
		voices: map[string]string{
			"en": defaultEnglishVoice,
			"hi": defaultHindiVoice,
		},
		speed:      defaultSpeed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// speechRequest is the JSON body for the /v1/audio/speech endpoint.
type speechRequest struct {
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed"`
	ResponseFormat string  `json:"response_format"`
}

// Synthesize renders text with the voice mapped to lang and returns the WAV
// clip. Unknown languages fall back to the English voice.
func (p *Provider) Synthesize(ctx context.Context, text string, lang string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("kokoro: text must not be empty")
	}

	voice, ok := p.voices[lang]
	if !ok {
		voice = p.voices["en"]
	}

	body, err := json.Marshal(speechRequest{
		Input:          text,
		Voice:          voice,
		Speed:          p.speed,
		ResponseFormat: "wav",
	})
	if err != nil {
		return nil, fmt.Errorf("kokoro: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+speechEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("kokoro: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kokoro: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kokoro: server returned HTTP %d", resp.StatusCode)
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("kokoro: read response body: %w", err)
	}
	return wav, nil
}
