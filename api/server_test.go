package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ridealert/go-helmet-api/alert"
	"github.com/ridealert/go-helmet-api/backend"
	"github.com/ridealert/go-helmet-api/config"
	"github.com/ridealert/go-helmet-api/flow"
	"github.com/ridealert/go-helmet-api/helmet"
	"github.com/ridealert/go-helmet-api/store"
)

type nopProber struct{}

func (nopProber) ProbeBluetooth(ctx context.Context) error     { return nil }
func (nopProber) ProbeNotifications(ctx context.Context) error { return nil }

type stubTransport struct {
	device helmet.Device
}

func (t *stubTransport) Probe(ctx context.Context) error { return nil }
func (t *stubTransport) Scan(ctx context.Context) (helmet.Device, error) {
	return t.device, nil
}
func (t *stubTransport) Known() []helmet.Device { return []helmet.Device{t.device} }
func (t *stubTransport) Connect(ctx context.Context, d helmet.Device) (io.Writer, error) {
	return io.Discard, nil
}
func (t *stubTransport) OnDisconnect(fn func(deviceID string)) {}

type nopLauncher struct {
	urls []string
}

func (l *nopLauncher) Open(url string) error {
	l.urls = append(l.urls, url)
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	st := store.NewWithKV(store.NewMemKV(), "Smart Helmet X1")
	f := flow.New(ctx, &config.FlowConfig{}, st, nopProber{})
	h := helmet.NewWithTransport(ctx, &config.HelmetConfig{Enabled: true}, st, &stubTransport{
		device: helmet.Device{ID: "AA:BB:CC:DD:EE:FF", Name: "Smart Helmet X1"},
	})
	a := alert.NewWithLauncher(ctx, &config.AlertConfig{
		Enabled: true,
		SMSBody: "SOS",
		MapsURL: "https://maps.example.com/?q=",
	}, st, &nopLauncher{})

	b := &backend.Backend{Store: st, Flow: f, Helmet: h, Alert: a}
	cfg := &config.ApiConfig{Enabled: true, Port: 8087, Listens: []string{"127.0.0.1:8087"}}

	server := NewServer(ctx, cfg, b)
	if server == nil {
		t.Fatal("NewServer returned nil for an enabled config")
	}
	return server
}

func TestServerDisabled(t *testing.T) {
	cfg := &config.ApiConfig{Enabled: false}
	if server := NewServer(context.Background(), cfg, &backend.Backend{}); server != nil {
		t.Error("NewServer should return nil when the API is disabled")
	}
	if server := NewServer(context.Background(), nil, &backend.Backend{}); server != nil {
		t.Error("NewServer should return nil without a config")
	}
}

func TestRootNotFound(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/", "/nope"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		server.mux.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusNotFound)
		}
	}
}

func TestFlowSnapshotRoute(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/flow", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var snap flow.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.State != flow.StateLoading {
		t.Errorf("state = %q, want %q before start", snap.State, flow.StateLoading)
	}
}

func TestFlowRoutesBadState(t *testing.T) {
	server := newTestServer(t)

	// Before the permission sequence begins, form submissions are rejected.
	req := httptest.NewRequest(http.MethodPost, "/flow/user",
		strings.NewReader(`{"name":"Ada","address":"1 Loop Rd","email":"ada@example.com","phone":"123"}`))
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestFlowPermissionDecisionRoute(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/flow/permissions/perhaps", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d for invalid decision", w.Code, http.StatusNotFound)
	}
}

func TestProfileRoutes(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /profile status = %d, want %d", w.Code, http.StatusOK)
	}
	var profile Profile
	if err := json.NewDecoder(w.Body).Decode(&profile); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if profile.SetupComplete {
		t.Error("fresh profile should not report completed setup")
	}
	if profile.Theme != store.ThemeDark {
		t.Errorf("theme = %q, want default %q", profile.Theme, store.ThemeDark)
	}
	if profile.HelmetName != "Smart Helmet X1" {
		t.Errorf("helmet name = %q", profile.HelmetName)
	}

	// Theme updates round-trip through the store.
	req = httptest.NewRequest(http.MethodPost, "/profile/theme", strings.NewReader(`{"theme":"light"}`))
	w = httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("POST /profile/theme status = %d, want %d", w.Code, http.StatusAccepted)
	}

	req = httptest.NewRequest(http.MethodPost, "/profile/theme", strings.NewReader(`{"theme":"sepia"}`))
	w = httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid theme status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHelmetRoutes(t *testing.T) {
	server := newTestServer(t)

	// Commands without a live connection report a conflict.
	req := httptest.NewRequest(http.MethodPost, "/helmet/commands/left", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("disconnected command status = %d, want %d", w.Code, http.StatusConflict)
	}

	req = httptest.NewRequest(http.MethodPost, "/helmet/commands/reverse", nil)
	w = httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown command status = %d, want %d", w.Code, http.StatusNotFound)
	}

	// Scan finds the stub device, then connect opens the channel.
	req = httptest.NewRequest(http.MethodPost, "/helmet/scan", nil)
	w = httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("scan status = %d, want %d", w.Code, http.StatusOK)
	}
	var device helmet.Device
	if err := json.NewDecoder(w.Body).Decode(&device); err != nil {
		t.Fatalf("decoding device: %v", err)
	}
	if device.ID != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("device id = %q", device.ID)
	}

	req = httptest.NewRequest(http.MethodPost, "/helmet/connect", nil)
	w = httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("connect status = %d, want %d", w.Code, http.StatusAccepted)
	}

	req = httptest.NewRequest(http.MethodPost, "/helmet/commands/left", nil)
	w = httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Errorf("connected command status = %d, want %d", w.Code, http.StatusAccepted)
	}

	req = httptest.NewRequest(http.MethodGet, "/helmet", nil)
	w = httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status route = %d, want %d", w.Code, http.StatusOK)
	}
	var status helmet.Status
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if !status.Connected {
		t.Error("status should report connected after connect")
	}
}

func TestHelmetRenameRoute(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/helmet/name", strings.NewReader(`{"name":"Night Rider"}`))
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("rename status = %d, want %d", w.Code, http.StatusAccepted)
	}

	req = httptest.NewRequest(http.MethodPost, "/helmet/name", strings.NewReader(`{"name":""}`))
	w = httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty rename status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAlertRoutes(t *testing.T) {
	server := newTestServer(t)

	// No emergency contact on record yet.
	req := httptest.NewRequest(http.MethodPost, "/alert/crash", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("crash without contact status = %d, want %d", w.Code, http.StatusConflict)
	}

	req = httptest.NewRequest(http.MethodPost, "/alert/navigate", strings.NewReader(`{"destination":""}`))
	w = httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty destination status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	req = httptest.NewRequest(http.MethodPost, "/alert/navigate", strings.NewReader(`{"destination":"Central Station"}`))
	w = httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Errorf("navigate status = %d, want %d", w.Code, http.StatusAccepted)
	}
}
