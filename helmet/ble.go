package helmet

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/ridealert/go-helmet-api/config"
	"github.com/ridealert/go-helmet-api/logger"
)

// bleTransport drives the platform BLE stack. The helmet exposes a single
// service with one writable characteristic, both under the SPP UUID.
type bleTransport struct {
	cfg     *config.HelmetConfig
	adapter *bluetooth.Adapter
	probe   *bluezProbe

	serviceUUID bluetooth.UUID
	charUUID    bluetooth.UUID

	mu           sync.Mutex
	enabled      bool
	known        map[string]knownDevice
	onDisconnect func(string)
}

type knownDevice struct {
	address bluetooth.Address
	name    string
	seen    time.Time
}

func newBLETransport(cfg *config.HelmetConfig) (*bleTransport, error) {
	serviceUUID, err := bluetooth.ParseUUID(cfg.ServiceUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid service UUID %q: %w", cfg.ServiceUUID, err)
	}
	charUUID, err := bluetooth.ParseUUID(cfg.CharUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid characteristic UUID %q: %w", cfg.CharUUID, err)
	}

	return &bleTransport{
		cfg:         cfg,
		adapter:     bluetooth.DefaultAdapter,
		probe:       newBluezProbe(cfg.Timeout),
		serviceUUID: serviceUUID,
		charUUID:    charUUID,
		known:       make(map[string]knownDevice),
	}, nil
}

// enable powers up the adapter once per process.
func (t *bleTransport) enable() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.enabled {
		return nil
	}
	if err := t.adapter.Enable(); err != nil {
		return fmt.Errorf("%w: %v", ErrAdapterUnavailable, err)
	}
	t.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		t.mu.Lock()
		fn := t.onDisconnect
		t.mu.Unlock()
		if fn != nil {
			fn(device.Address.String())
		}
	})
	t.enabled = true
	return nil
}

// Probe confirms a powered adapter is present, first over BlueZ so an
// rfkill'd or absent adapter is distinguishable, then by enabling the stack.
func (t *bleTransport) Probe(ctx context.Context) error {
	if err := t.probe.check(ctx); err != nil {
		return err
	}
	return t.enable()
}

// Scan advertises results into the known set and selects the first device
// matching the configured name prefix (any named device when no prefix is
// set). The scan window bounds the wait.
func (t *bleTransport) Scan(ctx context.Context) (Device, error) {
	if err := t.enable(); err != nil {
		return Device{}, err
	}

	scanCtx, cancel := context.WithTimeout(ctx, t.cfg.ScanWindow)
	defer cancel()
	go func() {
		<-scanCtx.Done()
		if err := t.adapter.StopScan(); err != nil {
			logger.Debug("[helmet] stop scan: %v", err)
		}
	}()

	var selected *Device
	err := t.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		name := result.LocalName()
		id := result.Address.String()
		t.remember(id, name, result.Address)

		if selected == nil && t.matches(name) {
			selected = &Device{ID: id, Name: name}
			if err := adapter.StopScan(); err != nil {
				logger.Debug("[helmet] stop scan: %v", err)
			}
		}
	})
	if err != nil {
		return Device{}, fmt.Errorf("%w: %v", ErrAdapterUnavailable, err)
	}
	if selected == nil {
		return Device{}, ErrNoSelection
	}
	return *selected, nil
}

func (t *bleTransport) matches(name string) bool {
	if name == "" {
		return false
	}
	if t.cfg.NamePrefix == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(name), strings.ToLower(t.cfg.NamePrefix))
}

func (t *bleTransport) remember(id, name string, addr bluetooth.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.known[id]; ok && name == "" {
		name = existing.name
	}
	t.known[id] = knownDevice{address: addr, name: name, seen: time.Now()}
}

// Known lists recently seen devices, pruning entries older than the TTL.
func (t *bleTransport) Known() []Device {
	t.mu.Lock()
	defer t.mu.Unlock()

	devices := make([]Device, 0, len(t.known))
	for id, d := range t.known {
		if t.cfg.KnownTTL > 0 && time.Since(d.seen) > t.cfg.KnownTTL {
			delete(t.known, id)
			continue
		}
		devices = append(devices, Device{ID: id, Name: d.name})
	}
	return devices
}

// Connect opens the GATT session and resolves the command characteristic.
func (t *bleTransport) Connect(ctx context.Context, d Device) (io.Writer, error) {
	if err := t.enable(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	entry, ok := t.known[d.ID]
	t.mu.Unlock()
	if !ok {
		return nil, &ConnectError{Device: d.ID, Err: fmt.Errorf("device not in scan results")}
	}

	dev, err := t.adapter.Connect(entry.address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, &ConnectError{Device: d.ID, Err: err}
	}

	services, err := dev.DiscoverServices([]bluetooth.UUID{t.serviceUUID})
	if err != nil || len(services) == 0 {
		t.disconnect(dev, d.ID)
		return nil, &ConnectError{Device: d.ID, Err: fmt.Errorf("command service not found: %v", err)}
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{t.charUUID})
	if err != nil || len(chars) == 0 {
		t.disconnect(dev, d.ID)
		return nil, &ConnectError{Device: d.ID, Err: fmt.Errorf("command characteristic not found: %v", err)}
	}

	return &gattWriter{char: chars[0]}, nil
}

func (t *bleTransport) disconnect(dev bluetooth.Device, id string) {
	if err := dev.Disconnect(); err != nil {
		logger.Debug("[helmet] disconnect %s: %v", id, err)
	}
}

func (t *bleTransport) OnDisconnect(fn func(deviceID string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDisconnect = fn
}

// gattWriter adapts the writable characteristic to io.Writer. The firmware
// reads commands without acknowledging, so write-without-response fits.
type gattWriter struct {
	char bluetooth.DeviceCharacteristic
}

func (w *gattWriter) Write(p []byte) (int, error) {
	return w.char.WriteWithoutResponse(p)
}
