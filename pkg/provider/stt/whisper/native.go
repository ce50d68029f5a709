// This file contains the NativeProvider implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/giggslabs/foodchain/pkg/provider/stt"
)

// wavHeaderSize is the length of a canonical RIFF/WAV header with a single
// PCM data chunk, as produced by the kiosk recorder.
const wavHeaderSize = 44

// Compile-time assertion that NativeProvider satisfies stt.Provider.
var _ stt.Provider = (*NativeProvider)(nil)

// NativeProvider implements stt.Provider using whisper.cpp Go bindings
// (CGO). The model is loaded once at startup and shared across all calls;
// each Transcribe creates its own whisper context, so concurrent calls are
// safe.
type NativeProvider struct {
	model    whisperlib.Model
	language string

	// closeOnce guards the model teardown.
	closeOnce sync.Once
}

// NativeOption is a functional option for configuring a NativeProvider.
type NativeOption func(*NativeProvider)

// WithNativeLanguage sets the language for transcription (e.g., "en", "hi",
// "auto"). Defaults to "auto" so bilingual utterances are detected per clip.
func WithNativeLanguage(lang string) NativeOption {
	return func(p *NativeProvider) { p.language = lang }
}

// NewNative creates a NativeProvider that loads the whisper.cpp model from
// the given file path. The caller must call Close when the provider is no
// longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*NativeProvider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &NativeProvider{
		model:    model,
		language: "auto",
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the whisper model. Safe to call multiple times.
func (p *NativeProvider) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if p.model != nil {
			err = p.model.Close()
		}
	})
	return err
}

// Transcribe decodes the WAV clip to float32 samples, runs whisper.cpp
// inference in-process, and returns the concatenated segment text along with
// the language whisper settled on.
func (p *NativeProvider) Transcribe(ctx context.Context, wav []byte) (stt.Result, error) {
	if err := ctx.Err(); err != nil {
		return stt.Result{}, fmt.Errorf("whisper: context already cancelled: %w", err)
	}

	samples, err := wavToFloat32Mono(wav)
	if err != nil {
		return stt.Result{}, err
	}
	if len(samples) == 0 {
		return stt.Result{}, nil
	}

	// Each context is NOT thread-safe, but the model can be shared.
	wctx, err := p.model.NewContext()
	if err != nil {
		return stt.Result{}, fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(p.language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", p.language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return stt.Result{}, fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stt.Result{}, fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return stt.Result{
		Text:     strings.Join(parts, " "),
		Language: wctx.DetectedLanguage(),
	}, nil
}

// wavToFloat32Mono strips the RIFF header from a 16-bit PCM WAV clip and
// converts the sample data to mono float32 in [-1, 1]. Stereo input is
// downmixed by averaging channel pairs.
func wavToFloat32Mono(wav []byte) ([]float32, error) {
	if len(wav) < wavHeaderSize {
		return nil, nil
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errors.New("whisper: input is not a RIFF/WAV clip")
	}

	channels := int(binary.LittleEndian.Uint16(wav[22:24]))
	if channels < 1 {
		channels = 1
	}
	pcm := wav[wavHeaderSize:]

	sampleCount := len(pcm) / 2 / channels
	samples := make([]float32, 0, sampleCount)
	for i := 0; i+2*channels <= len(pcm); i += 2 * channels {
		var sum float32
		for c := 0; c < channels; c++ {
			v := int16(binary.LittleEndian.Uint16(pcm[i+2*c : i+2*c+2]))
			sum += float32(v) / 32768.0
		}
		samples = append(samples, sum/float32(channels))
	}
	return samples, nil
}
