package helmet

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ridealert/go-helmet-api/config"
	"github.com/ridealert/go-helmet-api/events"
	"github.com/ridealert/go-helmet-api/logger"
	"github.com/ridealert/go-helmet-api/store"
)

// HelmetBackend holds the live device session: at most one paired helmet,
// one writable command channel. The channel is never persisted; only the
// device id survives a restart.
type HelmetBackend struct {
	cfg   *config.HelmetConfig
	store *store.Store
	tr    Transport
	ctx   context.Context

	mu       sync.Mutex
	selected *Device
	device   *Device
	writer   io.Writer
	lastErr  string

	events chan events.Event
}

func New(ctx context.Context, cfg *config.HelmetConfig, st *store.Store) (*HelmetBackend, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	tr, err := newBLETransport(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithTransport(ctx, cfg, st, tr), nil
}

// NewWithTransport wires an explicit transport, used by tests.
func NewWithTransport(ctx context.Context, cfg *config.HelmetConfig, st *store.Store, tr Transport) *HelmetBackend {
	return &HelmetBackend{
		cfg:    cfg,
		store:  st,
		tr:     tr,
		ctx:    ctx,
		events: make(chan events.Event, 16),
	}
}

func (b *HelmetBackend) Start() error {
	b.tr.OnDisconnect(b.handleDisconnect)
	return nil
}

func (b *HelmetBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writer = nil
	b.device = nil
}

func (b *HelmetBackend) Events() <-chan events.Event {
	return b.events
}

// Probe checks platform Bluetooth availability, used as the bluetooth
// permission probe during onboarding.
func (b *HelmetBackend) Probe(ctx context.Context) error {
	return b.tr.Probe(ctx)
}

// Scan runs the transport chooser and remembers the selection for a
// following Connect call.
func (b *HelmetBackend) Scan(ctx context.Context) (Device, error) {
	d, err := b.tr.Scan(ctx)
	if err != nil {
		return Device{}, err
	}

	b.mu.Lock()
	b.selected = &d
	b.mu.Unlock()

	logger.Info("[helmet] selected %s (%s)", d.Name, d.ID)
	return d, nil
}

// Connect opens the command channel to the last scanned device and saves
// its id for later reconnects.
func (b *HelmetBackend) Connect(ctx context.Context) error {
	b.mu.Lock()
	selected := b.selected
	b.mu.Unlock()

	if selected == nil {
		return ErrNoSelection
	}
	return b.connect(ctx, *selected)
}

func (b *HelmetBackend) connect(ctx context.Context, d Device) error {
	w, err := b.tr.Connect(ctx, d)
	if err != nil {
		b.mu.Lock()
		b.lastErr = err.Error()
		b.mu.Unlock()
		return err
	}

	b.mu.Lock()
	b.device = &d
	b.writer = w
	b.lastErr = ""
	b.mu.Unlock()

	if err := b.store.SaveDevice(store.SavedDevice{ID: d.ID, Name: d.Name}); err != nil {
		logger.Warn("[helmet] failed to save device id: %v", err)
	}

	logger.Info("[helmet] connected to %s", d.ID)
	b.emit(events.Event{Type: events.TypeHelmetConnected, Data: d})
	return nil
}

// ReconnectFromSaved silently re-opens the session to the previously
// paired helmet. A missing saved id, an id no longer among known devices,
// or a failed connect all leave the session disconnected without error;
// the user re-scans when they want to.
func (b *HelmetBackend) ReconnectFromSaved(ctx context.Context) error {
	saved := b.store.SavedDevice()
	if saved == nil {
		return nil
	}

	for _, d := range b.tr.Known() {
		if d.ID == saved.ID {
			if err := b.connect(ctx, d); err != nil {
				logger.Warn("[helmet] reconnect to %s failed: %v", saved.ID, err)
			}
			return nil
		}
	}

	logger.Debug("[helmet] saved device %s not currently known", saved.ID)
	return nil
}

// Send writes one newline-terminated command. Without a live channel the
// command is dropped and ErrNotConnected reported; nothing is written.
func (b *HelmetBackend) Send(cmd Command) error {
	switch cmd {
	case CommandLeft, CommandRight, CommandStop:
	default:
		return fmt.Errorf("unknown command: %q", cmd)
	}

	b.mu.Lock()
	w := b.writer
	b.mu.Unlock()

	if w == nil {
		return ErrNotConnected
	}
	if _, err := w.Write([]byte(string(cmd) + "\n")); err != nil {
		return fmt.Errorf("send %s: %w", cmd, err)
	}
	logger.Debug("[helmet] sent %s", cmd)
	return nil
}

// Rename updates the display name; persistence and the rename event live
// in the store.
func (b *HelmetBackend) Rename(name string) error {
	if name == "" {
		return fmt.Errorf("helmet name cannot be empty")
	}
	return b.store.SaveHelmetName(name)
}

func (b *HelmetBackend) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Status{
		Name:      b.store.HelmetName(),
		Connected: b.writer != nil,
		LastError: b.lastErr,
	}
	if b.device != nil {
		s.DeviceID = b.device.ID
	} else if saved := b.store.SavedDevice(); saved != nil {
		s.DeviceID = saved.ID
	}
	return s
}

// handleDisconnect clears the session when the transport drops. No
// automatic reconnect is attempted.
func (b *HelmetBackend) handleDisconnect(deviceID string) {
	b.mu.Lock()
	if b.device == nil || b.device.ID != deviceID {
		b.mu.Unlock()
		return
	}
	b.writer = nil
	b.device = nil
	b.lastErr = "helmet disconnected"
	b.mu.Unlock()

	logger.Warn("[helmet] %s disconnected", deviceID)
	b.emit(events.Event{Type: events.TypeHelmetDisconnected, Data: deviceID})
}

func (b *HelmetBackend) emit(e events.Event) {
	select {
	case b.events <- e:
	default:
		logger.Warn("[helmet] event channel full, dropping %s", e.Type)
	}
}
