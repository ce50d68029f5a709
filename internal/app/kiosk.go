// Package app wires the order intent engine to its collaborators: speech
// recognition, the menu catalog, order persistence, speech synthesis and
// metrics. It owns the kiosk's sessions and serializes utterance processing
// per session.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/giggslabs/foodchain/internal/intent"
	"github.com/giggslabs/foodchain/internal/menu"
	"github.com/giggslabs/foodchain/internal/observe"
	"github.com/giggslabs/foodchain/internal/orders"
	"github.com/giggslabs/foodchain/pkg/provider/stt"
	"github.com/giggslabs/foodchain/pkg/provider/tts"
)

// ErrSessionNotFound is returned when a session ID is unknown, typically
// because the customer already ended the session.
var ErrSessionNotFound = errors.New("app: session not found")

// defaultLanguage is the synthesis language used before the first
// transcription reports one.
const defaultLanguage = "en"

// Reply is the kiosk's answer to one utterance.
type Reply struct {
	// Text is the reply to show and speak. Empty when the utterance was
	// empty (nothing was routed).
	Text string `json:"reply"`

	// Audio is the synthesized reply, nil when no TTS provider is
	// configured or synthesis failed.
	Audio []byte `json:"-"`

	// Cart and Total describe the cart after the utterance.
	Cart  []intent.CartLine `json:"cart"`
	Total int               `json:"total"`

	// State is the checkout phase after the utterance.
	State string `json:"state"`

	// Ended is set when the customer asked to end the session. The session
	// is already gone when this is true.
	Ended bool `json:"ended"`
}

// Config carries the kiosk's collaborators. Catalog and Store are required;
// STT, TTS and Metrics are optional.
type Config struct {
	Router  *intent.Router
	Catalog menu.Catalog
	Store   orders.Store
	STT     stt.Provider
	TTS     tts.Provider
	Metrics *observe.Metrics
	Logger  *slog.Logger

	// Welcome is prepended to the first reply of each session. Empty
	// disables the welcome line.
	Welcome string
}

// Kiosk is the ordering kiosk's application service. It is safe for
// concurrent use; utterances within one session are processed one at a time.
type Kiosk struct {
	router  *intent.Router
	catalog menu.Catalog
	store   orders.Store
	stt     stt.Provider
	tts     tts.Provider
	metrics *observe.Metrics
	log     *slog.Logger
	welcome string

	mu       sync.RWMutex
	sessions map[string]*sessionState
}

// sessionState pairs a session with the mutex that serializes its
// utterances.
type sessionState struct {
	mu   sync.Mutex
	sess *intent.Session
}

// NewKiosk builds a Kiosk from cfg.
func NewKiosk(cfg Config) (*Kiosk, error) {
	if cfg.Router == nil {
		return nil, errors.New("app: router is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("app: menu catalog is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("app: order store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	return &Kiosk{
		router:   cfg.Router,
		catalog:  cfg.Catalog,
		store:    cfg.Store,
		stt:      cfg.STT,
		tts:      cfg.TTS,
		metrics:  cfg.Metrics,
		log:      cfg.Logger,
		welcome:  cfg.Welcome,
		sessions: make(map[string]*sessionState),
	}, nil
}

// StartSession creates a new session and returns its ID.
func (k *Kiosk) StartSession(ctx context.Context) string {
	id := newSessionID()

	k.mu.Lock()
	k.sessions[id] = &sessionState{sess: intent.NewSession()}
	k.mu.Unlock()

	k.metrics.ActiveSessions.Add(ctx, 1)
	k.log.InfoContext(ctx, "session started", "session_id", id)
	return id
}

// EndSession discards the session. Ending an unknown session is a no-op.
func (k *Kiosk) EndSession(ctx context.Context, id string) {
	k.mu.Lock()
	_, ok := k.sessions[id]
	delete(k.sessions, id)
	k.mu.Unlock()

	if ok {
		k.metrics.ActiveSessions.Add(ctx, -1)
		k.log.InfoContext(ctx, "session ended", "session_id", id)
	}
}

// SessionCount returns the number of live sessions.
func (k *Kiosk) SessionCount() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.sessions)
}

// HandleText processes one typed or pre-transcribed utterance.
func (k *Kiosk) HandleText(ctx context.Context, sessionID, utterance string) (Reply, error) {
	st, err := k.session(sessionID)
	if err != nil {
		return Reply{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return k.handle(ctx, sessionID, st.sess, utterance)
}

// HandleAudio transcribes wav and processes the resulting utterance. An
// empty transcription is treated as "no utterance": nothing is routed and an
// empty-text reply carrying the current cart state is returned.
func (k *Kiosk) HandleAudio(ctx context.Context, sessionID string, wav []byte) (Reply, error) {
	if k.stt == nil {
		return Reply{}, errors.New("app: no speech recognition configured")
	}
	st, err := k.session(sessionID)
	if err != nil {
		return Reply{}, err
	}

	start := time.Now()
	res, err := k.stt.Transcribe(ctx, wav)
	k.metrics.STTDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		k.metrics.RecordProviderError(ctx, "stt")
		return Reply{}, fmt.Errorf("app: transcribe: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if res.Language != "" {
		st.sess.Language = res.Language
	}
	if res.Text == "" {
		k.log.DebugContext(ctx, "empty transcription, skipping routing", "session_id", sessionID)
		return k.snapshot(st.sess), nil
	}
	return k.handle(ctx, sessionID, st.sess, res.Text)
}

// handle routes one utterance and applies the resulting side effects.
// Callers hold the session mutex.
func (k *Kiosk) handle(ctx context.Context, sessionID string, sess *intent.Session, utterance string) (Reply, error) {
	var reply Reply

	// A failed save leaves the checkout ready to retry; the customer's next
	// utterance triggers the retry instead of being routed as an order. Exit
	// and cart-clear still win, so the customer is never trapped retrying
	// against a dead store.
	if sess.Checkout.State() == intent.StateReadyToSave {
		if res, ok := k.router.Escape(ctx, utterance, sess); ok {
			k.metrics.RecordUtterance(ctx, res.Route.String())
			reply.Text = res.Reply
			reply.Ended = res.EndSession
		} else {
			reply.Text = k.saveOrder(ctx, sessionID, sess)
		}
	} else {
		start := time.Now()
		res := k.router.Route(ctx, utterance, k.items(ctx), sess)
		k.metrics.ReplyDuration.Record(ctx, time.Since(start).Seconds())
		k.metrics.RecordUtterance(ctx, res.Route.String())
		for _, m := range res.Mutations {
			k.metrics.RecordCartMutation(ctx, mutationAction(m.Action))
		}

		reply.Text = res.Reply
		reply.Ended = res.EndSession

		if res.State == intent.StateReadyToSave {
			reply.Text = k.saveOrder(ctx, sessionID, sess)
		}
	}

	if !sess.HasGreeted {
		if k.welcome != "" {
			reply.Text = k.welcome + " " + reply.Text
		}
		sess.HasGreeted = true
	}

	snap := k.snapshot(sess)
	reply.Cart = snap.Cart
	reply.Total = snap.Total
	reply.State = snap.State

	if reply.Ended {
		k.EndSession(ctx, sessionID)
	}

	reply.Audio = k.synthesize(ctx, reply.Text, sess.Language)
	return reply, nil
}

// saveOrder persists the finalized cart. On success the session is cleared
// for a follow-up order; on failure the checkout stays ready-to-save.
func (k *Kiosk) saveOrder(ctx context.Context, sessionID string, sess *intent.Session) string {
	order := &orders.Order{
		CustomerName:  sess.Checkout.PendingName(),
		CustomerPhone: sess.Checkout.PendingPhone(),
		Total:         sess.Cart.Total(),
	}
	for _, l := range sess.Cart.Snapshot() {
		order.Lines = append(order.Lines, orders.Line{Name: l.Name, Quantity: l.Quantity, Price: l.Price})
	}

	if err := k.store.Save(ctx, order); err != nil {
		k.metrics.RecordOrderSaved(ctx, "error")
		k.log.ErrorContext(ctx, "order save failed", "session_id", sessionID, "error", err)
		return "Sorry, I couldn't save your order just now. Give me a moment and say anything to retry."
	}

	k.metrics.RecordOrderSaved(ctx, "ok")
	k.log.InfoContext(ctx, "order saved",
		"session_id", sessionID,
		"order_id", order.ID,
		"customer", order.CustomerName,
		"total", order.Total)

	name := order.CustomerName
	total := order.Total
	sess.CompleteOrder()
	return fmt.Sprintf("Thank you, %s! Your order of ₹%d has been placed. See you soon!", name, total)
}

// synthesize renders reply audio best-effort: a synthesis failure costs the
// audio, never the text reply.
func (k *Kiosk) synthesize(ctx context.Context, text, lang string) []byte {
	if k.tts == nil || text == "" {
		return nil
	}
	if lang == "" {
		lang = defaultLanguage
	}

	start := time.Now()
	audio, err := k.tts.Synthesize(ctx, text, lang)
	k.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		k.metrics.RecordProviderError(ctx, "tts")
		k.log.WarnContext(ctx, "speech synthesis failed", "error", err)
		return nil
	}
	return audio
}

// snapshot captures the session's cart and checkout state for a reply.
func (k *Kiosk) snapshot(sess *intent.Session) Reply {
	return Reply{
		Cart:  sess.Cart.Snapshot(),
		Total: sess.Cart.Total(),
		State: sess.Checkout.State().String(),
	}
}

// items fetches the active menu, degrading to an empty menu on catalog
// errors so an utterance never fails outright.
func (k *Kiosk) items(ctx context.Context) []menu.Item {
	items, err := k.catalog.Items(ctx)
	if err != nil {
		k.log.ErrorContext(ctx, "menu catalog unavailable", "error", err)
		return nil
	}
	return items
}

func (k *Kiosk) session(id string) (*sessionState, error) {
	k.mu.RLock()
	st, ok := k.sessions[id]
	k.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return st, nil
}

func mutationAction(a intent.Action) string {
	switch a {
	case intent.ActionAdded:
		return "added"
	case intent.ActionRemoved:
		return "removed"
	default:
		return "missing"
	}
}

// newSessionID returns a random 128-bit hex identifier.
func newSessionID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("app: read random session id: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}
