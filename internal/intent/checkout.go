package intent

import "strings"

// State is a phase of the checkout conversation.
type State int

const (
	// StateIdle means no checkout is in progress; utterances are treated as
	// order or control intents.
	StateIdle State = iota
	// StateAwaitingName means the kiosk asked for the customer's name and the
	// next utterance is captured verbatim as the name.
	StateAwaitingName
	// StateAwaitingPhone means the kiosk asked for a phone number and the next
	// utterance has its digits extracted as the phone.
	StateAwaitingPhone
	// StateReadyToSave means name and phone are collected and the order can be
	// persisted.
	StateReadyToSave
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingName:
		return "awaiting_name"
	case StateAwaitingPhone:
		return "awaiting_phone"
	case StateReadyToSave:
		return "ready_to_save"
	default:
		return "unknown"
	}
}

// Checkout tracks the customer-detail collection that runs between "place my
// order" and persisting the order. It is a plain state holder; the router
// drives the transitions.
type Checkout struct {
	state State
	name  string
	phone string
}

// NewCheckout returns a checkout in the idle state.
func NewCheckout() *Checkout {
	return &Checkout{state: StateIdle}
}

// State returns the current checkout phase.
func (c *Checkout) State() State { return c.state }

// PendingName returns the collected customer name, empty until provided.
func (c *Checkout) PendingName() string { return c.name }

// PendingPhone returns the collected phone digits, empty until provided.
func (c *Checkout) PendingPhone() string { return c.phone }

// Begin starts collecting customer details. It is a no-op unless the
// checkout is idle, so a repeated "place my order" mid-flow cannot restart
// the conversation.
func (c *Checkout) Begin() {
	if c.state == StateIdle {
		c.state = StateAwaitingName
	}
}

// ProvideName records the customer's name exactly as spoken, surrounding
// whitespace trimmed, and advances to phone collection. Only valid in the
// awaiting-name state.
func (c *Checkout) ProvideName(raw string) {
	if c.state != StateAwaitingName {
		return
	}
	c.name = strings.TrimSpace(raw)
	c.state = StateAwaitingPhone
}

// ProvidePhone extracts every digit from the utterance, in order, as the
// phone number and advances to ready-to-save. The transition happens even
// when the utterance contains no digits at all; validating phone numbers is
// the store's concern, not the conversation's.
func (c *Checkout) ProvidePhone(raw string) {
	if c.state != StateAwaitingPhone {
		return
	}
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	c.phone = b.String()
	c.state = StateReadyToSave
}

// Reset abandons any in-progress checkout and clears collected details.
func (c *Checkout) Reset() {
	c.state = StateIdle
	c.name = ""
	c.phone = ""
}
