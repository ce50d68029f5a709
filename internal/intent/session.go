package intent

// Session is the per-customer conversation state threaded through every
// router invocation. It is owned by the caller; the engine never holds on to
// it between calls and must not be invoked concurrently for the same
// session.
type Session struct {
	Cart     *Cart
	Checkout *Checkout

	// HasGreeted records whether the kiosk has already welcomed this
	// customer, so the welcome line is prepended to at most one reply.
	HasGreeted bool

	// Language is the BCP 47 code of the customer's last detected spoken
	// language, used to pick a synthesis voice. Empty until the first
	// transcription reports one.
	Language string
}

// NewSession returns a fresh session with an empty cart and an idle
// checkout.
func NewSession() *Session {
	return &Session{
		Cart:     NewCart(),
		Checkout: NewCheckout(),
	}
}

// Reset returns the session to its initial state: empty cart, idle checkout,
// not yet greeted.
func (s *Session) Reset() {
	s.Cart.Clear()
	s.Checkout.Reset()
	s.HasGreeted = false
}

// CompleteOrder clears the cart and checkout scratch state after a
// successful save, keeping the session itself alive for a follow-up order.
func (s *Session) CompleteOrder() {
	s.Cart.Clear()
	s.Checkout.Reset()
}
