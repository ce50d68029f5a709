// Package llm defines the Provider interface for the language-generation
// collaborator.
//
// The kiosk uses an LLM for exactly one thing: phrasing order-confirmation
// replies naturally. The interface is therefore deliberately small — a single
// bounded completion call. Streaming, tool calling, and token accounting are
// out of scope; the intent engine commits all cart mutations before the call
// and falls back to a deterministic template on any failure.
//
// Implementations must be safe for concurrent use and must honour context
// cancellation promptly: the engine invokes Complete under a hard timeout and
// never retries.
package llm

import "context"

// Message represents a single message in an LLM conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// CompletionRequest carries everything the LLM needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation history. The last message is
	// typically from the "user" role and drives the response.
	Messages []Message

	// SystemPrompt is an optional high-priority instruction injected before
	// the conversation history. Providers that have no dedicated system slot
	// should prepend it as a "system"-role message.
	SystemPrompt string

	// Temperature controls output randomness in the range [0.0, 2.0].
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int
}

// CompletionResponse is the result of a Complete call.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply.
	Content string
}

// Provider is the abstraction over any LLM backend.
//
// Complete sends req to the model and waits for the full response. It returns
// an error if the request fails or if ctx is cancelled or times out before
// the completion arrives. Callers own the timeout; implementations must not
// block past ctx.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
