package transport_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/b00lduck/elementary/internal/transport"
	"github.com/b00lduck/elementary/pkg/signalgraph/engine"
)

// fakeRuntime is a minimal engine.RuntimeCollaborator for exercising the
// transport server without a real audio backend.
type fakeRuntime struct {
	mu      sync.Mutex
	applied int
}

func (f *fakeRuntime) AddSharedResource(_ context.Context, _ string, _ engine.AudioBuffer) (int, error) {
	return 0, nil
}

func (f *fakeRuntime) ApplyInstructions(_ context.Context, _ []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.applied++

	return 0, nil
}

func (f *fakeRuntime) ProcessQueuedEvents(_ context.Context) ([]byte, error) {
	return []byte("[]"), nil
}

// newTestServer wires a transport.Server over an httptest.Server, returning
// a dialable ws:// URL and a cleanup func.
func newTestServer(t *testing.T) (string, *fakeRuntime, func()) {
	t.Helper()

	runtime := &fakeRuntime{}
	eng := engine.New(engine.Deps{Runtime: runtime})

	srv := transport.NewServer(transport.Config{EventPollInterval: time.Hour}, eng, nil, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	srv.StartWorkers(ctx)

	ts := httptest.NewServer(srv.Handler())

	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	return url, runtime, func() {
		ts.Close()
		cancel()
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	return conn
}

func TestServer_AcceptsValidDirective(t *testing.T) {
	url, runtime, closeFn := newTestServer(t)
	defer closeFn()

	conn := dial(t, url)
	defer conn.Close()

	body := []byte(`{"graph":[{"kind":"sine","props":{"freq":440}}]}`)
	if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, reply, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var ack map[string]string
	if err := json.Unmarshal(reply, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}

	if ack["status"] != "ok" {
		t.Fatalf("status = %q, want ok", ack["status"])
	}

	if runtime.applied == 0 {
		t.Fatal("expected at least one ApplyInstructions call")
	}
}

func TestServer_MalformedDirectiveGetsErrorButConnectionStaysOpen(t *testing.T) {
	url, _, closeFn := newTestServer(t)
	defer closeFn()

	conn := dial(t, url)
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"graph": not json`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, reply, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error frame: %v", err)
	}

	var resp map[string]string
	if err := json.Unmarshal(reply, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp["status"] != "error" {
		t.Fatalf("status = %q, want error", resp["status"])
	}

	// connection should still accept a subsequent valid directive
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"graph":[{"kind":"sine"}]}`)); err != nil {
		t.Fatalf("write second message: %v", err)
	}

	_, reply2, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read second reply: %v", err)
	}

	var ack map[string]string
	if err := json.Unmarshal(reply2, &ack); err != nil {
		t.Fatalf("unmarshal second reply: %v", err)
	}

	if ack["status"] != "ok" {
		t.Fatalf("second status = %q, want ok", ack["status"])
	}
}

func TestServer_RejectsNonTextFrames(t *testing.T) {
	url, _, closeFn := newTestServer(t)
	defer closeFn()

	conn := dial(t, url)
	defer conn.Close()

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, reply, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var resp map[string]string
	if err := json.Unmarshal(reply, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp["status"] != "error" {
		t.Fatalf("status = %q, want error", resp["status"])
	}
}
