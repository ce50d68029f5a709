// Package mock provides a test double for the stt.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/giggslabs/foodchain/pkg/provider/stt"
)

// Compile-time interface assertion.
var _ stt.Provider = (*Provider)(nil)

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// TranscribeResult is returned by Transcribe.
	TranscribeResult stt.Result

	// TranscribeErr, if non-nil, is returned as the error from Transcribe.
	TranscribeErr error

	// TranscribeCalls records the audio payload lengths passed to Transcribe.
	TranscribeCalls []int
}

// Transcribe records the call and returns the configured result.
func (p *Provider) Transcribe(ctx context.Context, wav []byte) (stt.Result, error) {
	p.mu.Lock()
	p.TranscribeCalls = append(p.TranscribeCalls, len(wav))
	p.mu.Unlock()

	if p.TranscribeErr != nil {
		return stt.Result{}, p.TranscribeErr
	}
	return p.TranscribeResult, nil
}

// CallCount returns the number of recorded Transcribe calls.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.TranscribeCalls)
}
