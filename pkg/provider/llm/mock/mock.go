// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider to return a pre-canned completion without a live model and to
// verify the prompts submitted by the reply generator.
//
// Example:
//
//	p := &mock.Provider{CompleteResult: &llm.CompletionResponse{Content: "Sure thing!"}}
//	resp, _ := p.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/giggslabs/foodchain/pkg/provider/llm"
)

// Compile-time interface assertion.
var _ llm.Provider = (*Provider)(nil)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the request passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider.
type Provider struct {
	mu sync.Mutex

	// CompleteResult is returned by Complete. If nil and CompleteErr is also
	// nil, an empty response is returned.
	CompleteResult *llm.CompletionResponse

	// CompleteErr, if non-nil, is returned as the error from Complete.
	CompleteErr error

	// CompleteFunc, if non-nil, overrides CompleteResult/CompleteErr entirely.
	// Useful for simulating timeouts by blocking on ctx.Done().
	CompleteFunc func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)

	// CompleteCalls records every call to Complete in order.
	CompleteCalls []CompleteCall
}

// Complete records the call and returns the configured result.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.CompleteCalls = append(p.CompleteCalls, CompleteCall{Ctx: ctx, Req: req})
	fn := p.CompleteFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if p.CompleteErr != nil {
		return nil, p.CompleteErr
	}
	if p.CompleteResult != nil {
		return p.CompleteResult, nil
	}
	return &llm.CompletionResponse{}, nil
}

// CallCount returns the number of recorded Complete calls.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.CompleteCalls)
}
