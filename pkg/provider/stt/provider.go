// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a transcription engine (a local whisper.cpp model, a
// whisper-server instance, or Groq's hosted Whisper API) behind a single
// batch call: one finished utterance in, one transcript out. The kiosk records
// a bounded utterance per interaction, so there is no need for streaming
// partials here — the caller submits the complete WAV clip and waits.
//
// An empty Result.Text is a valid outcome and means "no speech detected"; the
// caller must skip intent routing entirely in that case rather than treating
// it as an error.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Result is the transcription outcome for one utterance.
type Result struct {
	// Text is the transcribed speech content, whitespace-trimmed.
	// Empty means no speech was detected in the audio.
	Text string

	// Language is the detected (or configured) ISO 639-1 language code,
	// e.g. "en" or "hi". Empty when the backend does not report one.
	Language string
}

// Provider is the abstraction over any STT backend.
//
// Transcribe submits a complete WAV-encoded audio clip (16-bit PCM,
// typically 16 kHz mono) and blocks until the transcript is available or ctx
// is cancelled. Returns an error only for transport or engine failures;
// silent audio yields an empty Result with a nil error.
type Provider interface {
	Transcribe(ctx context.Context, wav []byte) (Result, error)
}
