package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/camera"
	"github.com/teslashibe/go-focus/pkg/focus"
	"github.com/teslashibe/go-focus/pkg/hub"
	"github.com/teslashibe/go-focus/pkg/protocol"
)

type fakeListener struct {
	mu       sync.Mutex
	captures int
	ratios   []float64
}

func (l *fakeListener) RequestAutoFocus()                     {}
func (l *fakeListener) CancelAutoFocus()                      {}
func (l *fakeListener) StartFaceDetection()                   {}
func (l *fakeListener) StopFaceDetection()                    {}
func (l *fakeListener) ApplyFocusParameters(focus.Parameters) {}

func (l *fakeListener) RequestCapture() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.captures++
	return true
}

func (l *fakeListener) SetUiFocusRatio(r float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ratios = append(l.ratios, r)
}

func (l *fakeListener) captureCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.captures
}

type testRig struct {
	server   *Server
	engine   *focus.Engine
	listener *fakeListener
	stop     context.CancelFunc
}

func newRig(t *testing.T, withCamera bool) *testRig {
	t.Helper()
	h := hub.New("indicator", log.Discard())
	listener := &fakeListener{}
	engine, err := focus.NewEngine(focus.Options{
		Config:       focus.DefaultConfig(),
		Capabilities: focus.DefaultCapabilities(),
		Listener:     TeeRatio(listener, NewIndicator(h)),
		Indicator:    NewIndicator(h),
		Logger:       log.Discard(),
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go engine.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-engine.Done()
	})

	var mgr *camera.Manager
	if withCamera {
		mgr = camera.NewManager()
		mgr.OnConfigChange = func(cfg camera.Config) error {
			return camera.Apply(context.Background(), engine, cfg)
		}
	}
	srv := NewServer(Options{Engine: engine, Hub: h, Camera: mgr, Logger: log.Discard()})
	return &testRig{server: srv, engine: engine, listener: listener, stop: cancel}
}

func (r *testRig) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	}
	req, _ := http.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.server.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	data, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(data, &out)
	return resp.StatusCode, out
}

func TestAPI_TouchFocusAndDeferredCapture(t *testing.T) {
	rig := newRig(t, false)

	code, _ := rig.do(t, http.MethodPut, "/api/preview/bounds", BoundsRequest{Right: 1000, Bottom: 800})
	if code != http.StatusOK {
		t.Fatalf("bounds status = %d", code)
	}

	code, out := rig.do(t, http.MethodPost, "/api/touch", TouchRequest{X: 500, Y: 400})
	if code != http.StatusOK || out["accepted"] != true {
		t.Fatalf("touch = %d %v", code, out)
	}

	code, out = rig.do(t, http.MethodGet, "/api/state", nil)
	if code != http.StatusOK || out["state"] != string(focus.StateFocusing) {
		t.Fatalf("state = %d %v", code, out)
	}
	if out["focus_region"] == nil {
		t.Error("focus region missing from state")
	}

	code, out = rig.do(t, http.MethodPost, "/api/capture", nil)
	if code != http.StatusOK || out["outcome"] != string(focus.CaptureDeferred) {
		t.Fatalf("capture = %d %v", code, out)
	}

	rig.engine.AutoFocusDone(true)
	deadline := time.Now().Add(2 * time.Second)
	for rig.listener.captureCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("deferred capture never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}

	req, _ := http.NewRequest(http.MethodGet, "/api/history", nil)
	resp, err := rig.server.App().Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var history []focus.Transition
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatal(err)
	}
	if len(history) < 3 {
		t.Errorf("history = %+v", history)
	}
}

func TestAPI_TouchWithoutGeometry(t *testing.T) {
	rig := newRig(t, false)
	code, out := rig.do(t, http.MethodPost, "/api/touch", TouchRequest{X: 10, Y: 10})
	if code != http.StatusOK || out["accepted"] != false {
		t.Errorf("touch = %d %v", code, out)
	}
}

func TestAPI_BadRequests(t *testing.T) {
	rig := newRig(t, false)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"empty bounds", http.MethodPut, "/api/preview/bounds", BoundsRequest{Right: 10}, http.StatusBadRequest},
		{"bad touch body", http.MethodPost, "/api/touch", "nope", http.StatusBadRequest},
		{"no camera", http.MethodGet, "/api/camera", nil, http.StatusNotFound},
		{"no session", http.MethodPost, "/api/session/reconnect", nil, http.StatusNotFound},
		{"plain http on ws", http.MethodGet, "/ws/indicator", nil, http.StatusUpgradeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := rig.do(t, tt.method, tt.path, tt.body)
			if code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestAPI_ShutterAndCancel(t *testing.T) {
	rig := newRig(t, false)

	for _, path := range []string{"/api/preview/start", "/api/shutter/down", "/api/shutter/up", "/api/focus/cancel", "/api/preview/stop"} {
		code, out := rig.do(t, http.MethodPost, path, nil)
		if code != http.StatusOK {
			t.Fatalf("%s = %d %v", path, code, out)
		}
	}
	if got := rig.engine.CurrentState(); got != focus.StateIdle {
		t.Errorf("state = %s, want idle", got)
	}
}

func TestAPI_EngineStopped(t *testing.T) {
	rig := newRig(t, false)
	rig.stop()
	<-rig.engine.Done()

	code, _ := rig.do(t, http.MethodPost, "/api/shutter/down", nil)
	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
}

func TestAPI_Camera(t *testing.T) {
	rig := newRig(t, true)

	code, out := rig.do(t, http.MethodGet, "/api/camera", nil)
	if code != http.StatusOK || out["width"] != float64(1920) {
		t.Fatalf("camera = %d %v", code, out)
	}

	code, _ = rig.do(t, http.MethodPatch, "/api/camera", map[string]any{"preset": "bogus"})
	if code != http.StatusBadRequest {
		t.Errorf("unknown preset status = %d", code)
	}

	code, out = rig.do(t, http.MethodPatch, "/api/camera", map[string]any{"display_rotation": 90})
	if code != http.StatusOK || out["display_rotation"] != float64(90) {
		t.Fatalf("patch = %d %v", code, out)
	}
	if got := rig.engine.Snapshot(); got.Rotation != 90 || got.Preview != image.Rect(0, 0, 1080, 1920) {
		t.Errorf("engine not updated: rotation %d preview %v", got.Rotation, got.Preview)
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(*protocol.Message) bool) *protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func TestIndicatorSocket(t *testing.T) {
	rig := newRig(t, false)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- rig.server.Serve(ctx, ln) }()
	defer func() {
		cancel()
		<-served
	}()

	if err := rig.engine.SetPreviewBounds(context.Background(), image.Rect(0, 0, 1000, 800)); err != nil {
		t.Fatal(err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/indicator", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readUntil(t, conn, func(m *protocol.Message) bool { return true })
	var sd protocol.StateData
	_ = first.ParseData(&sd)
	if first.Type != protocol.TypeState || sd.State != "idle" {
		t.Fatalf("first message = %s %+v", first.Type, sd)
	}

	touch, _ := protocol.NewTouchMessage(500, 400)
	if err := conn.WriteJSON(touch); err != nil {
		t.Fatal(err)
	}

	pos := readUntil(t, conn, func(m *protocol.Message) bool { return m.Type == protocol.TypeFocusPosition })
	var pd protocol.PositionData
	_ = pos.ParseData(&pd)
	if pd.X != 500 || pd.Y != 400 {
		t.Errorf("position = %+v", pd)
	}
	readUntil(t, conn, func(m *protocol.Message) bool {
		var sd protocol.StateData
		_ = m.ParseData(&sd)
		return m.Type == protocol.TypeState && sd.State == "focusing"
	})

	bad, _ := protocol.NewShutterMessage("sideways")
	if err := conn.WriteJSON(bad); err != nil {
		t.Fatal(err)
	}
	reply := readUntil(t, conn, func(m *protocol.Message) bool { return m.Type == protocol.TypeError })
	var ed protocol.ErrorData
	_ = reply.ParseData(&ed)
	if ed.RequestID != bad.ID {
		t.Errorf("error reply for %q, want %q", ed.RequestID, bad.ID)
	}
}

type fakeSession struct {
	mu    sync.Mutex
	count int
}

func (f *fakeSession) Reconnect() focus.Capabilities {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	caps := focus.DefaultCapabilities()
	caps.SessionID = fmt.Sprintf("session-%d", f.count)
	caps.FocusAreaSupported = false
	return caps
}

func TestAPI_SessionReconnect(t *testing.T) {
	rig := newRig(t, false)
	rig.server = NewServer(Options{Engine: rig.engine, Session: &fakeSession{}, Logger: log.Discard()})

	rig.do(t, http.MethodPut, "/api/preview/bounds", BoundsRequest{Right: 1000, Bottom: 800})
	if code, out := rig.do(t, http.MethodPost, "/api/touch", TouchRequest{X: 500, Y: 400}); code != http.StatusOK {
		t.Fatalf("touch = %d %v", code, out)
	}
	if got := rig.engine.Snapshot().State; got != focus.StateFocusing {
		t.Fatalf("state = %s, want focusing", got)
	}

	code, out := rig.do(t, http.MethodPost, "/api/session/reconnect", nil)
	if code != http.StatusOK || out["session_id"] != "session-1" {
		t.Fatalf("reconnect = %d %v", code, out)
	}
	snap := rig.engine.Snapshot()
	if snap.State != focus.StateIdle || snap.SessionID != "session-1" {
		t.Errorf("snapshot after reconnect = %s %q", snap.State, snap.SessionID)
	}
	if snap.FocusRegion != nil {
		t.Error("focus region kept after the session dropped region support")
	}
}
