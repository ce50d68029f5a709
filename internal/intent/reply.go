package intent

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/giggslabs/foodchain/pkg/provider/llm"
)

const (
	// defaultReplyTimeout bounds the single generation attempt. A timed-out
	// call degrades to the deterministic template and is never retried.
	defaultReplyTimeout = 2500 * time.Millisecond

	// replyMaxWords rejects runaway generations. The prompt asks for at most
	// twelve words; anything past this bound ignored the instructions.
	replyMaxWords = 25

	confirmSystemPrompt = "You are a friendly voice assistant at a restaurant ordering kiosk. " +
		"Confirm the cart update you are given in one short sentence, maximum 12 words. " +
		"NEVER ask about toppings, sizes or customizations. " +
		"You may end by asking if the customer wants anything else."
)

// ReplierOption is a functional option for configuring a Replier.
type ReplierOption func(*Replier)

// WithReplyTimeout sets the hard deadline for the generation call.
// Default: 2.5s.
func WithReplyTimeout(d time.Duration) ReplierOption {
	return func(r *Replier) { r.timeout = d }
}

// WithReplyLogger sets the logger used for fallback diagnostics.
func WithReplyLogger(log *slog.Logger) ReplierOption {
	return func(r *Replier) { r.log = log }
}

// WithFallbackNotify registers a callback invoked whenever a generation
// attempt was made but the deterministic template was used instead. Callers
// use it to count fallbacks; it must not block.
func WithFallbackNotify(f func()) ReplierOption {
	return func(r *Replier) { r.onFallback = f }
}

// Replier phrases order-confirmation replies. It makes at most one bounded
// call to a generation provider; on any failure, timeout or guard violation
// it substitutes a deterministic template, so the caller always gets a reply
// and never blocks past the timeout. All other routes use fixed templates
// and never reach the provider.
type Replier struct {
	provider   llm.Provider
	timeout    time.Duration
	log        *slog.Logger
	onFallback func()
}

// NewReplier returns a Replier backed by provider. A nil provider is valid
// and yields the deterministic template for every reply.
func NewReplier(provider llm.Provider, opts ...ReplierOption) *Replier {
	r := &Replier{
		provider: provider,
		timeout:  defaultReplyTimeout,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Confirm produces the reply for a committed set of cart mutations. The
// mutations are already applied; nothing in this call can change the cart,
// so a generation failure costs only phrasing.
func (r *Replier) Confirm(ctx context.Context, muts []Mutation, cart *Cart) string {
	fallback := fallbackConfirm(muts)
	if r.provider == nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: confirmSystemPrompt,
		Messages: []llm.Message{{
			Role:    "user",
			Content: confirmUserPrompt(muts, cart),
		}},
	})
	if err != nil {
		r.log.WarnContext(ctx, "reply generation failed, using template", "error", err)
		r.notifyFallback()
		return fallback
	}

	reply := strings.TrimSpace(resp.Content)
	if !acceptableConfirm(reply) {
		r.log.WarnContext(ctx, "reply generation rejected by guard, using template", "reply", reply)
		r.notifyFallback()
		return fallback
	}
	return reply
}

func (r *Replier) notifyFallback() {
	if r.onFallback != nil {
		r.onFallback()
	}
}

// confirmUserPrompt reports the concrete mutations and the resulting cart so
// the model confirms what actually happened rather than inventing items.
func confirmUserPrompt(muts []Mutation, cart *Cart) string {
	var b strings.Builder
	b.WriteString("Cart update: ")
	b.WriteString(describeMutations(muts))
	b.WriteString(". Cart now contains: ")
	lines := cart.Snapshot()
	if len(lines) == 0 {
		b.WriteString("nothing")
	} else {
		for i, l := range lines {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strings.TrimSpace(joinQty(l.Quantity, l.Name)))
		}
	}
	b.WriteString(". Total ₹")
	b.WriteString(strconv.Itoa(cart.Total()))
	b.WriteString(".")
	return b.String()
}

// acceptableConfirm is the guard on generated text: non-empty, bounded
// length, and no question marks unless the model is asking the permitted
// "anything else" question.
func acceptableConfirm(reply string) bool {
	if reply == "" {
		return false
	}
	if len(strings.Fields(reply)) > replyMaxWords {
		return false
	}
	if strings.Contains(reply, "?") && !strings.Contains(strings.ToLower(reply), "else") {
		return false
	}
	return true
}

// fallbackConfirm is the deterministic template used whenever generation is
// unavailable or misbehaves.
func fallbackConfirm(muts []Mutation) string {
	return "Done! I've " + describeMutations(muts) + ". Anything else?"
}

func describeMutations(muts []Mutation) string {
	parts := make([]string, len(muts))
	for i, m := range muts {
		parts[i] = m.Describe()
	}
	return strings.Join(parts, ", ")
}

func joinQty(qty int, name string) string {
	return strconv.Itoa(qty) + " " + name
}
