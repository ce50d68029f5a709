// Package groq provides an STT provider backed by Groq's hosted Whisper API.
//
// Groq exposes an OpenAI-compatible transcription endpoint, so the provider
// is implemented with the official OpenAI Go SDK pointed at the Groq base
// URL. This mirrors the original kiosk deployment, which transcribed kiosk
// recordings with whisper-large-v3 on Groq for sub-second turnaround.
package groq

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/giggslabs/foodchain/pkg/provider/stt"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible API root.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is the hosted Whisper model used for kiosk transcription.
	DefaultModel = "whisper-large-v3"

	defaultTimeout = 30 * time.Second
)

// Ensure Provider implements the stt.Provider interface.
var _ stt.Provider = (*Provider)(nil)

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	model   string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default Groq API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithModel overrides the default transcription model.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithTimeout sets a per-request HTTP timeout. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// Provider implements stt.Provider using Groq's Whisper transcription API.
// It is safe for concurrent use.
type Provider struct {
	client oai.Client
	model  string
}

// New constructs a new Groq STT Provider.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq stt: apiKey must not be empty")
	}

	cfg := &config{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(cfg.baseURL),
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Provider{
		client: oai.NewClient(reqOpts...),
		model:  cfg.model,
	}, nil
}

// Transcribe uploads the WAV clip to the transcriptions endpoint and returns
// the transcript text. Groq's endpoint does not report a detected language in
// the plain response, so Result.Language is left empty for the caller to
// default.
func (p *Provider) Transcribe(ctx context.Context, wav []byte) (stt.Result, error) {
	if len(wav) == 0 {
		return stt.Result{}, nil
	}

	transcription, err := p.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		File:  oai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model: oai.AudioModel(p.model),
	})
	if err != nil {
		return stt.Result{}, fmt.Errorf("groq stt: transcribe: %w", err)
	}

	return stt.Result{
		Text: strings.TrimSpace(transcription.Text),
	}, nil
}
