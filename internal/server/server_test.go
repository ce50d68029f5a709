package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/giggslabs/foodchain/internal/app"
	"github.com/giggslabs/foodchain/internal/intent"
	"github.com/giggslabs/foodchain/internal/menu"
	"github.com/giggslabs/foodchain/internal/observe"
	"github.com/giggslabs/foodchain/internal/orders"
	"github.com/giggslabs/foodchain/pkg/provider/stt"
	sttmock "github.com/giggslabs/foodchain/pkg/provider/stt/mock"
	ttsmock "github.com/giggslabs/foodchain/pkg/provider/tts/mock"
)

func newTestServer(t *testing.T, kioskCfg app.Config) *Server {
	t.Helper()

	mp := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	if kioskCfg.Router == nil {
		kioskCfg.Router = intent.NewRouter(intent.NewMatcher(), intent.NewReplier(nil), nil)
	}
	if kioskCfg.Catalog == nil {
		kioskCfg.Catalog = menu.NewStatic([]menu.Item{
			{Name: "classic burger", Price: 150},
			{Name: "coke", Price: 50},
		})
	}
	if kioskCfg.Store == nil {
		kioskCfg.Store = orders.NewMemory()
	}
	kioskCfg.Metrics = metrics

	kiosk, err := app.NewKiosk(kioskCfg)
	if err != nil {
		t.Fatalf("NewKiosk: %v", err)
	}
	srv, err := New(Config{Kiosk: kiosk})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

// replyFrame mirrors the JSON shape of app.Reply on the wire.
type replyFrame struct {
	Reply string            `json:"reply"`
	Cart  []intent.CartLine `json:"cart"`
	Total int               `json:"total"`
	State string            `json:"state"`
	Ended bool              `json:"ended"`
}

func dialSession(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/session"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("message type = %v, want text", typ)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Unmarshal %q: %v", data, err)
	}
}

func sendUtterance(t *testing.T, conn *websocket.Conn, utterance string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, _ := json.Marshal(map[string]string{"utterance": utterance})
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, app.Config{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, app.Config{})
	srv.checkers = []Checker{
		{Name: "good", Check: func(context.Context) error { return nil }},
		{Name: "bad", Check: func(context.Context) error { return errors.New("down") }},
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "fail" {
		t.Errorf("status = %q, want fail", body.Status)
	}
	if body.Checks["good"] != "ok" || !strings.HasPrefix(body.Checks["bad"], "fail") {
		t.Errorf("checks = %v", body.Checks)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, app.Config{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestSession_TextConversation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, app.Config{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	conn := dialSession(t, ts)

	var hello struct {
		SessionID string `json:"session_id"`
		State     string `json:"state"`
	}
	readJSON(t, conn, &hello)
	if hello.SessionID == "" {
		t.Fatal("expected a session id in the hello frame")
	}
	if hello.State != "idle" {
		t.Errorf("hello state = %q, want idle", hello.State)
	}

	sendUtterance(t, conn, "a coke please")
	var reply replyFrame
	readJSON(t, conn, &reply)
	if reply.Total != 50 {
		t.Errorf("total = %d, want 50", reply.Total)
	}
	if len(reply.Cart) != 1 || reply.Cart[0].Name != "coke" {
		t.Errorf("cart = %+v", reply.Cart)
	}
	if reply.Reply == "" {
		t.Error("expected a non-empty reply")
	}
}

func TestSession_ExitClosesSocket(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, app.Config{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	conn := dialSession(t, ts)
	var hello json.RawMessage
	readJSON(t, conn, &hello)

	sendUtterance(t, conn, "stop")
	var reply replyFrame
	readJSON(t, conn, &reply)
	if !reply.Ended {
		t.Error("expected ended reply")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, _, err := conn.Read(ctx); websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		t.Errorf("read after exit = %v, want normal closure", err)
	}
}

func TestSession_AudioUtterance(t *testing.T) {
	t.Parallel()

	cfg := app.Config{
		STT: &sttmock.Provider{TranscribeResult: stt.Result{Text: "a coke", Language: "en"}},
		TTS: &ttsmock.Provider{SynthesizeResult: []byte("RIFFreply")},
	}
	srv := newTestServer(t, cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	conn := dialSession(t, ts)
	var hello json.RawMessage
	readJSON(t, conn, &hello)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageBinary, []byte("RIFF fake wav")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var reply replyFrame
	readJSON(t, conn, &reply)
	if reply.Total != 50 {
		t.Errorf("total = %d, want 50", reply.Total)
	}

	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read audio frame: %v", err)
	}
	if typ != websocket.MessageBinary {
		t.Fatalf("message type = %v, want binary", typ)
	}
	if string(data) != "RIFFreply" {
		t.Errorf("audio frame = %q", data)
	}
}

func TestSession_InvalidFrameKeepsConversation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, app.Config{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	conn := dialSession(t, ts)
	var hello json.RawMessage
	readJSON(t, conn, &hello)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, []byte("not json")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var errFrame struct {
		Error string `json:"error"`
	}
	readJSON(t, conn, &errFrame)
	if errFrame.Error == "" {
		t.Fatal("expected an error frame")
	}

	// The socket stays usable.
	sendUtterance(t, conn, "a coke")
	var reply replyFrame
	readJSON(t, conn, &reply)
	if reply.Total != 50 {
		t.Errorf("total = %d, want 50", reply.Total)
	}
}
