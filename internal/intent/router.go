package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/giggslabs/foodchain/internal/menu"
)

// Route identifies which branch of the dispatch chain handled an utterance.
type Route int

const (
	RouteExit Route = iota
	RouteClear
	RouteCheckoutContinue
	RouteGreeting
	RouteMenu
	RouteCheckoutStart
	RouteOrder
	RouteFallback
)

// String returns the route name for logs and metrics labels.
func (r Route) String() string {
	switch r {
	case RouteExit:
		return "exit"
	case RouteClear:
		return "clear"
	case RouteCheckoutContinue:
		return "checkout_continue"
	case RouteGreeting:
		return "greeting"
	case RouteMenu:
		return "menu"
	case RouteCheckoutStart:
		return "checkout_start"
	case RouteOrder:
		return "order"
	case RouteFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Action is what a mutation did to the cart.
type Action int

const (
	// ActionAdded means the item quantity was increased.
	ActionAdded Action = iota
	// ActionRemoved means the item quantity was decreased.
	ActionRemoved
	// ActionMissing means a removal was requested for an item not in the
	// cart, so nothing changed.
	ActionMissing
)

// Mutation is one cart change produced by a single order segment.
type Mutation struct {
	Item     string
	Quantity int
	Action   Action
}

// Describe renders the mutation as a short English clause for replies,
// e.g. "added 2 classic burger".
func (m Mutation) Describe() string {
	switch m.Action {
	case ActionAdded:
		return fmt.Sprintf("added %d %s", m.Quantity, m.Item)
	case ActionRemoved:
		return fmt.Sprintf("removed %d %s", m.Quantity, m.Item)
	default:
		return fmt.Sprintf("found no %s to remove", m.Item)
	}
}

// Result is the outcome of routing one utterance: the reply to speak, the
// cart mutations that were applied, the checkout state afterwards, and
// whether the customer asked to end the session.
type Result struct {
	Route      Route
	Reply      string
	Mutations  []Mutation
	State      State
	EndSession bool
}

var (
	exitPhrases = []string{
		"cancel everything", "stop", "exit", "close",
		"band karo", "bandh karo", "bas karo",
	}
	clearPhrases = []string{"clear my cart", "empty the tray", "reset order"}

	greetingTokens = map[string]struct{}{
		"hello": {}, "hi": {}, "hey": {}, "morning": {},
	}
	menuTokens = map[string]struct{}{
		"menu": {}, "items": {}, "list": {}, "options": {},
	}
	checkoutTokens = map[string]struct{}{
		"confirm": {}, "checkout": {}, "done": {}, "bill": {}, "finished": {},
	}
	removalTokens = map[string]struct{}{
		"remove": {}, "delete": {}, "cancel": {}, "hatao": {}, "no": {}, "minus": {},
	}
)

// Router turns one utterance into cart mutations, a checkout transition and
// a reply. Dispatch is a strict priority chain evaluated top to bottom; the
// first matching route wins and later routes are never consulted.
//
// Router holds no session state and is safe for concurrent use across
// different sessions; callers serialize invocations per session.
type Router struct {
	matcher *Matcher
	replier *Replier
	log     *slog.Logger
}

// NewRouter returns a Router using matcher for menu lookup and replier for
// order-confirmation phrasing.
func NewRouter(matcher *Matcher, replier *Replier, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{matcher: matcher, replier: replier, log: log}
}

// Route processes one raw utterance against the active menu and the
// caller's session. The raw text is normalized internally; the original is
// kept around because a customer's name is captured exactly as spoken.
func (rt *Router) Route(ctx context.Context, utterance string, items []menu.Item, sess *Session) Result {
	raw := strings.TrimSpace(utterance)
	text := Normalize(raw)
	tokens := strings.Fields(text)

	res := rt.dispatch(ctx, raw, text, tokens, items, sess)
	res.State = sess.Checkout.State()
	rt.log.DebugContext(ctx, "utterance routed",
		"route", res.Route.String(),
		"state", res.State.String(),
		"mutations", len(res.Mutations))
	return res
}

// Escape routes only the exit and cart-clear phrases. It exists for callers
// that must bypass normal routing (a failed order save pending retry) but
// still owe the customer a way out. ok is false when the utterance matched
// neither phrase set; the session is untouched in that case.
func (rt *Router) Escape(ctx context.Context, utterance string, sess *Session) (Result, bool) {
	tokens := strings.Fields(Normalize(utterance))
	res, ok := escape(tokens, sess)
	if !ok {
		return Result{}, false
	}
	res.State = sess.Checkout.State()
	rt.log.DebugContext(ctx, "utterance routed",
		"route", res.Route.String(),
		"state", res.State.String(),
		"mutations", 0)
	return res, true
}

// escape implements the top of the dispatch chain: exit and cart-clear
// outrank everything, including an in-progress checkout, so the customer
// always has a way out.
func escape(tokens []string, sess *Session) (Result, bool) {
	if containsAnyPhrase(tokens, exitPhrases) {
		return Result{
			Route:      RouteExit,
			Reply:      "Alright, cancelling everything. See you next time!",
			EndSession: true,
		}, true
	}
	if containsAnyPhrase(tokens, clearPhrases) {
		sess.Cart.Clear()
		sess.Checkout.Reset()
		return Result{
			Route: RouteClear,
			Reply: "Your cart is empty now. What would you like instead?",
		}, true
	}
	return Result{}, false
}

func (rt *Router) dispatch(ctx context.Context, raw, text string, tokens []string, items []menu.Item, sess *Session) Result {
	if res, ok := escape(tokens, sess); ok {
		return res
	}

	// Mid-checkout the state machine owns interpretation: the utterance is
	// the name or the phone number, never an order.
	switch sess.Checkout.State() {
	case StateAwaitingName:
		sess.Checkout.ProvideName(raw)
		return Result{
			Route: RouteCheckoutContinue,
			Reply: fmt.Sprintf("Thanks, %s! And what's your phone number?", sess.Checkout.PendingName()),
		}
	case StateAwaitingPhone:
		sess.Checkout.ProvidePhone(raw)
		return Result{
			Route: RouteCheckoutContinue,
			Reply: "Got it! Saving your order now.",
		}
	}

	if isGreeting(text, tokens) {
		return Result{
			Route: RouteGreeting,
			Reply: "Hi there! What would you like to order today?",
		}
	}

	if containsAnyToken(tokens, menuTokens) {
		return Result{Route: RouteMenu, Reply: menuReply(items)}
	}

	if containsAnyToken(tokens, checkoutTokens) {
		if sess.Cart.Len() == 0 {
			return Result{
				Route: RouteCheckoutStart,
				Reply: "Your cart is empty. Add something before checking out!",
			}
		}
		sess.Checkout.Begin()
		return Result{
			Route: RouteCheckoutStart,
			Reply: "Sure! Can I get your name, please?",
		}
	}

	return rt.orderRoute(ctx, text, items, sess)
}

// orderRoute handles routes 7 and 8: per-segment quantity extraction, menu
// matching and add-versus-remove detection. Removal keywords apply only
// within their own segment so "remove coke and add a burger" removes the
// coke and still adds the burger.
func (rt *Router) orderRoute(ctx context.Context, text string, items []menu.Item, sess *Session) Result {
	if len(items) == 0 {
		return Result{
			Route: RouteFallback,
			Reply: "The menu is empty right now, sorry!",
		}
	}

	var muts []Mutation
	for seg := range Segment(text) {
		item, score, ok := rt.matcher.Match(seg, items)
		if !ok {
			continue
		}
		qty := ExtractQuantity(seg)
		rt.log.DebugContext(ctx, "segment matched",
			"segment", seg, "item", item.Name, "score", score, "quantity", qty)

		if hasRemovalToken(seg) {
			removed := sess.Cart.Remove(item.Name, qty)
			if removed == 0 {
				muts = append(muts, Mutation{Item: item.Name, Quantity: qty, Action: ActionMissing})
			} else {
				muts = append(muts, Mutation{Item: item.Name, Quantity: removed, Action: ActionRemoved})
			}
			continue
		}
		sess.Cart.Add(item.Name, qty, item.Price)
		muts = append(muts, Mutation{Item: item.Name, Quantity: qty, Action: ActionAdded})
	}

	if len(muts) == 0 {
		return Result{
			Route: RouteFallback,
			Reply: "Sorry, I didn't catch that. Could you say it again?",
		}
	}

	return Result{
		Route:     RouteOrder,
		Reply:     rt.replier.Confirm(ctx, muts, sess.Cart),
		Mutations: muts,
	}
}

// menuReply lists every active item with its price.
func menuReply(items []menu.Item) string {
	if len(items) == 0 {
		return "The menu is empty right now, sorry!"
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s for ₹%d", it.Name, it.Price)
	}
	return "Here's what we have: " + strings.Join(parts, ", ") + "."
}

// isGreeting reports whether the utterance opens with a greeting and is
// short enough to be small talk rather than an order with a polite prefix.
func isGreeting(text string, tokens []string) bool {
	if len(tokens) == 0 || len(tokens) >= 5 {
		return false
	}
	if _, ok := greetingTokens[tokens[0]]; ok {
		return true
	}
	return strings.HasPrefix(text, "how are you")
}

// hasRemovalToken reports whether the segment contains a standalone removal
// keyword.
func hasRemovalToken(segment string) bool {
	return containsAnyToken(strings.Fields(segment), removalTokens)
}

func containsAnyToken(tokens []string, set map[string]struct{}) bool {
	for _, t := range tokens {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// containsAnyPhrase reports whether any phrase occurs in tokens as a
// consecutive whole-word run, so "stop" never fires inside "stopwatch".
func containsAnyPhrase(tokens []string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(tokens, strings.Fields(p)) {
			return true
		}
	}
	return false
}

func containsPhrase(tokens, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		for j, w := range phrase {
			if tokens[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}
