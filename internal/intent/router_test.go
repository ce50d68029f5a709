package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/giggslabs/foodchain/pkg/provider/llm"
	llmmock "github.com/giggslabs/foodchain/pkg/provider/llm/mock"
)

// newTestRouter uses a nil generation provider so order confirmations come
// from the deterministic template.
func newTestRouter() *Router {
	return NewRouter(NewMatcher(), NewReplier(nil), nil)
}

func TestRouter_ExitRoute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"stop", "ok stop now"},
		{"cancel everything", "cancel everything please"},
		{"hindi", "band karo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rt := newTestRouter()
			sess := NewSession()
			res := rt.Route(context.Background(), tt.in, testMenu, sess)

			if res.Route != RouteExit {
				t.Errorf("route = %v, want %v", res.Route, RouteExit)
			}
			if !res.EndSession {
				t.Error("expected EndSession to be set")
			}
		})
	}
}

func TestRouter_ExitOutranksCheckout(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	sess := NewSession()
	sess.Cart.Add("coke", 1, 50)
	sess.Checkout.Begin()

	res := rt.Route(context.Background(), "stop", testMenu, sess)
	if res.Route != RouteExit {
		t.Errorf("route = %v, want %v: exit must outrank an in-progress checkout", res.Route, RouteExit)
	}
	if !res.EndSession {
		t.Error("expected EndSession to be set")
	}
}

func TestRouter_ExitNeedsWholePhrase(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	sess := NewSession()

	// "cancel" alone is a removal keyword, not an exit phrase.
	res := rt.Route(context.Background(), "cancel the coke", testMenu, sess)
	if res.Route == RouteExit {
		t.Error("'cancel the coke' must not end the session")
	}
}

func TestRouter_ClearRoute(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	sess := NewSession()
	sess.Cart.Add("coke", 2, 50)
	sess.Checkout.Begin()

	res := rt.Route(context.Background(), "clear my cart", testMenu, sess)
	if res.Route != RouteClear {
		t.Errorf("route = %v, want %v", res.Route, RouteClear)
	}
	if sess.Cart.Len() != 0 {
		t.Error("expected cart to be emptied")
	}
	if sess.Checkout.State() != StateIdle {
		t.Errorf("checkout state = %v, want %v", sess.Checkout.State(), StateIdle)
	}
}

func TestRouter_Escape(t *testing.T) {
	t.Parallel()

	t.Run("exit", func(t *testing.T) {
		t.Parallel()

		rt := newTestRouter()
		sess := NewSession()

		res, ok := rt.Escape(context.Background(), "cancel everything", sess)
		if !ok {
			t.Fatal("expected an exit utterance to match")
		}
		if res.Route != RouteExit || !res.EndSession {
			t.Errorf("result = %+v, want exit ending the session", res)
		}
	})

	t.Run("clear", func(t *testing.T) {
		t.Parallel()

		rt := newTestRouter()
		sess := NewSession()
		sess.Cart.Add("coke", 1, 50)
		sess.Checkout.Begin()

		res, ok := rt.Escape(context.Background(), "reset order", sess)
		if !ok {
			t.Fatal("expected a clear utterance to match")
		}
		if res.Route != RouteClear {
			t.Errorf("route = %v, want %v", res.Route, RouteClear)
		}
		if sess.Cart.Len() != 0 || sess.Checkout.State() != StateIdle {
			t.Error("expected the cart and checkout to be reset")
		}
	})

	t.Run("no match leaves the session alone", func(t *testing.T) {
		t.Parallel()

		rt := newTestRouter()
		sess := NewSession()
		sess.Cart.Add("coke", 1, 50)

		if _, ok := rt.Escape(context.Background(), "a burger please", sess); ok {
			t.Fatal("an order utterance must not match")
		}
		if sess.Cart.Len() != 1 {
			t.Error("cart must be untouched on a non-match")
		}
	})
}

func TestRouter_CheckoutFlowEndToEnd(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	sess := NewSession()
	sess.Cart.Add("classic burger", 2, 150)
	ctx := context.Background()

	res := rt.Route(ctx, "checkout", testMenu, sess)
	if res.Route != RouteCheckoutStart {
		t.Fatalf("route = %v, want %v", res.Route, RouteCheckoutStart)
	}
	if res.State != StateAwaitingName {
		t.Fatalf("state = %v, want %v", res.State, StateAwaitingName)
	}

	res = rt.Route(ctx, "Raj", testMenu, sess)
	if res.Route != RouteCheckoutContinue {
		t.Fatalf("route = %v, want %v", res.Route, RouteCheckoutContinue)
	}
	if res.State != StateAwaitingPhone {
		t.Fatalf("state = %v, want %v", res.State, StateAwaitingPhone)
	}
	if got := sess.Checkout.PendingName(); got != "Raj" {
		t.Errorf("PendingName() = %q, want %q", got, "Raj")
	}

	res = rt.Route(ctx, "9876543210", testMenu, sess)
	if res.State != StateReadyToSave {
		t.Fatalf("state = %v, want %v", res.State, StateReadyToSave)
	}
	if got := sess.Checkout.PendingPhone(); got != "9876543210" {
		t.Errorf("PendingPhone() = %q, want %q", got, "9876543210")
	}
}

func TestRouter_NameBypassesOtherRoutes(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	sess := NewSession()
	sess.Cart.Add("coke", 1, 50)
	sess.Checkout.Begin()

	// "Menu" is a menu keyword, but mid-checkout it is the customer's name.
	res := rt.Route(context.Background(), "Menu", testMenu, sess)
	if res.Route != RouteCheckoutContinue {
		t.Errorf("route = %v, want %v", res.Route, RouteCheckoutContinue)
	}
	if got := sess.Checkout.PendingName(); got != "Menu" {
		t.Errorf("PendingName() = %q, want %q", got, "Menu")
	}
}

func TestRouter_CheckoutWithEmptyCart(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	sess := NewSession()

	res := rt.Route(context.Background(), "checkout please", testMenu, sess)
	if res.State != StateIdle {
		t.Errorf("state = %v, want %v", res.State, StateIdle)
	}
	if !strings.Contains(res.Reply, "empty") {
		t.Errorf("reply %q should mention the empty cart", res.Reply)
	}
}

func TestRouter_GreetingRoute(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	sess := NewSession()

	res := rt.Route(context.Background(), "Hi there!", testMenu, sess)
	if res.Route != RouteGreeting {
		t.Errorf("route = %v, want %v", res.Route, RouteGreeting)
	}
	if sess.Cart.Len() != 0 || sess.Checkout.State() != StateIdle {
		t.Error("greeting must not touch cart or checkout state")
	}
}

// The chain is evaluated top to bottom: a long utterance that opens with a
// greeting but exceeds the word bound falls through to the menu route.
func TestRouter_GreetingPriorityOverMenu(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	ctx := context.Background()

	short := rt.Route(ctx, "hi menu", testMenu, NewSession())
	if short.Route != RouteGreeting {
		t.Errorf("short utterance route = %v, want %v", short.Route, RouteGreeting)
	}

	long := rt.Route(ctx, "hi, what's on the menu", testMenu, NewSession())
	if long.Route != RouteMenu {
		t.Errorf("long utterance route = %v, want %v", long.Route, RouteMenu)
	}
}

func TestRouter_MenuRoute(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	res := rt.Route(context.Background(), "show me the menu", testMenu, NewSession())

	if res.Route != RouteMenu {
		t.Fatalf("route = %v, want %v", res.Route, RouteMenu)
	}
	if !strings.Contains(res.Reply, "classic burger for ₹150") {
		t.Errorf("reply %q should list items with prices", res.Reply)
	}
	if !strings.Contains(res.Reply, "coke for ₹50") {
		t.Errorf("reply %q should list every item", res.Reply)
	}
}

func TestRouter_MenuRouteEmptyCatalog(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	res := rt.Route(context.Background(), "what are my options", nil, NewSession())

	if res.Route != RouteMenu {
		t.Fatalf("route = %v, want %v", res.Route, RouteMenu)
	}
	if !strings.Contains(res.Reply, "empty") {
		t.Errorf("reply %q should say the menu is empty", res.Reply)
	}
}

func TestRouter_OrderRouteAdds(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	sess := NewSession()

	res := rt.Route(context.Background(), "one burger and two cokes", testMenu, sess)
	if res.Route != RouteOrder {
		t.Fatalf("route = %v, want %v (reply %q)", res.Route, RouteOrder, res.Reply)
	}
	if len(res.Mutations) != 2 {
		t.Fatalf("got %d mutations, want 2: %+v", len(res.Mutations), res.Mutations)
	}

	want := []Mutation{
		{Item: "classic burger", Quantity: 1, Action: ActionAdded},
		{Item: "coke", Quantity: 2, Action: ActionAdded},
	}
	for i, m := range res.Mutations {
		if m != want[i] {
			t.Errorf("mutation[%d] = %+v, want %+v", i, m, want[i])
		}
	}
	if got := sess.Cart.Quantity("coke"); got != 2 {
		t.Errorf("cart coke quantity = %d, want 2", got)
	}
	wantReply := "Done! I've added 1 classic burger, added 2 coke. Anything else?"
	if res.Reply != wantReply {
		t.Errorf("reply = %q, want %q", res.Reply, wantReply)
	}
}

// Removal keywords only act within their own segment, so removing one item
// never cancels an addition in the next clause.
func TestRouter_RemovalScopedToSegment(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	sess := NewSession()
	sess.Cart.Add("coke", 2, 50)

	res := rt.Route(context.Background(), "remove one coke and one burger", testMenu, sess)
	if res.Route != RouteOrder {
		t.Fatalf("route = %v, want %v", res.Route, RouteOrder)
	}

	want := []Mutation{
		{Item: "coke", Quantity: 1, Action: ActionRemoved},
		{Item: "classic burger", Quantity: 1, Action: ActionAdded},
	}
	if len(res.Mutations) != len(want) {
		t.Fatalf("got %d mutations, want %d: %+v", len(res.Mutations), len(want), res.Mutations)
	}
	for i, m := range res.Mutations {
		if m != want[i] {
			t.Errorf("mutation[%d] = %+v, want %+v", i, m, want[i])
		}
	}
	if got := sess.Cart.Quantity("coke"); got != 1 {
		t.Errorf("cart coke quantity = %d, want 1", got)
	}
	if got := sess.Cart.Quantity("classic burger"); got != 1 {
		t.Errorf("cart burger quantity = %d, want 1", got)
	}
}

func TestRouter_RemoveAbsentItem(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	sess := NewSession()

	res := rt.Route(context.Background(), "remove the coke", testMenu, sess)
	if res.Route != RouteOrder {
		t.Fatalf("route = %v, want %v", res.Route, RouteOrder)
	}
	if len(res.Mutations) != 1 || res.Mutations[0].Action != ActionMissing {
		t.Fatalf("mutations = %+v, want one missing-item mutation", res.Mutations)
	}
	wantReply := "Done! I've found no coke to remove. Anything else?"
	if res.Reply != wantReply {
		t.Errorf("reply = %q, want %q", res.Reply, wantReply)
	}
}

func TestRouter_FallbackRoute(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	tests := []struct {
		name string
		in   string
	}{
		{"gibberish", "abracadabra hocus pocus"},
		{"empty", ""},
		{"punctuation only", "?!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sess := NewSession()
			res := rt.Route(context.Background(), tt.in, testMenu, sess)
			if res.Route != RouteFallback {
				t.Errorf("route = %v, want %v", res.Route, RouteFallback)
			}
			if sess.Cart.Len() != 0 {
				t.Error("fallback must not touch the cart")
			}
		})
	}
}

func TestRouter_OrderRouteEmptyMenu(t *testing.T) {
	t.Parallel()

	rt := newTestRouter()
	res := rt.Route(context.Background(), "a coke please", nil, NewSession())

	if res.Route != RouteFallback {
		t.Errorf("route = %v, want %v", res.Route, RouteFallback)
	}
	if !strings.Contains(res.Reply, "empty") {
		t.Errorf("reply %q should say the menu is empty", res.Reply)
	}
}

// Mutations are committed before the generation call, so a failing provider
// costs only phrasing, never cart state.
func TestRouter_GenerationFailureKeepsMutations(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{CompleteErr: errors.New("model offline")}
	rt := NewRouter(NewMatcher(), NewReplier(p), nil)
	sess := NewSession()

	res := rt.Route(context.Background(), "a coke", testMenu, sess)
	if res.Route != RouteOrder {
		t.Fatalf("route = %v, want %v", res.Route, RouteOrder)
	}
	if got := sess.Cart.Quantity("coke"); got != 1 {
		t.Errorf("cart coke quantity = %d, want 1", got)
	}
	wantReply := "Done! I've added 1 coke. Anything else?"
	if res.Reply != wantReply {
		t.Errorf("reply = %q, want %q", res.Reply, wantReply)
	}
	if p.CallCount() != 1 {
		t.Errorf("provider called %d times, want exactly 1 (no retries)", p.CallCount())
	}
}

func TestRouter_GeneratedReplyUsed(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{CompleteResult: &llm.CompletionResponse{Content: "One coke coming right up!"}}
	rt := NewRouter(NewMatcher(), NewReplier(p), nil)

	res := rt.Route(context.Background(), "a coke", testMenu, NewSession())
	if res.Reply != "One coke coming right up!" {
		t.Errorf("reply = %q, want the generated text", res.Reply)
	}
}

func TestMutation_Describe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		m    Mutation
		want string
	}{
		{Mutation{Item: "coke", Quantity: 2, Action: ActionAdded}, "added 2 coke"},
		{Mutation{Item: "coke", Quantity: 1, Action: ActionRemoved}, "removed 1 coke"},
		{Mutation{Item: "coke", Quantity: 1, Action: ActionMissing}, "found no coke to remove"},
	}
	for _, tt := range tests {
		if got := tt.m.Describe(); got != tt.want {
			t.Errorf("Describe() = %q, want %q", got, tt.want)
		}
	}
}
