package helmet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	bluezService = "org.bluez"
	bluezPath    = "/org/bluez"
	adapterIface = bluezService + ".Adapter1"
	adapterPath  = bluezPath + "/hci0"

	dbusPropGet    = "org.freedesktop.DBus.Properties.Get"
	managedObjects = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
	adapterPowered = "Powered"
)

// bluezProbe answers the "is Bluetooth actually usable here" question over
// the system bus, without opening any device session.
type bluezProbe struct {
	timeout time.Duration

	mu   sync.Mutex
	conn *dbus.Conn
}

func newBluezProbe(timeout time.Duration) *bluezProbe {
	return &bluezProbe{timeout: timeout}
}

func (p *bluezProbe) connect() (*dbus.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		return p.conn, nil
	}
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAdapterUnavailable, err)
	}
	p.conn = conn
	return conn, nil
}

// check confirms BlueZ exposes at least one adapter and that the default
// adapter is powered.
func (p *bluezProbe) check(ctx context.Context) error {
	conn, err := p.connect()
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	objManager := conn.Object(bluezService, "/")
	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := objManager.CallWithContext(callCtx, managedObjects, 0).Store(&objects); err != nil {
		return fmt.Errorf("%w: %v", ErrAdapterUnavailable, err)
	}

	found := false
	for _, ifaces := range objects {
		if _, ok := ifaces[adapterIface]; ok {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: no adapter present", ErrAdapterUnavailable)
	}

	adapter := conn.Object(bluezService, dbus.ObjectPath(adapterPath))
	var powered dbus.Variant
	call := adapter.CallWithContext(callCtx, dbusPropGet, 0, adapterIface, adapterPowered)
	if err := call.Store(&powered); err != nil {
		return fmt.Errorf("%w: %v", ErrAdapterUnavailable, err)
	}
	if on, ok := powered.Value().(bool); !ok || !on {
		return fmt.Errorf("%w: adapter powered off", ErrAdapterUnavailable)
	}

	return nil
}
