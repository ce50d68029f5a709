// Package tts defines the Provider interface for Text-to-Speech backends.
//
// Replies at the kiosk are short (a sentence or two), so synthesis is a
// single batch call: reply text in, one WAV clip out. Speech output is
// best-effort from the ordering pipeline's perspective — a synthesis failure
// is logged and the text reply is still delivered.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Provider is the abstraction over any TTS backend.
//
// Synthesize renders text as speech and returns a complete WAV clip.
// lang is an ISO 639-1 code ("en", "hi") used to pick the voice; an empty or
// unknown code falls back to the provider's default voice. Returns an error
// if the backend cannot be reached or if ctx is cancelled before synthesis
// completes.
type Provider interface {
	Synthesize(ctx context.Context, text string, lang string) ([]byte, error)
}
