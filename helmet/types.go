package helmet

import (
	"context"
	"errors"
	"io"
)

// Command is one of the short ASCII tokens the helmet firmware accepts.
// Each write is newline-terminated; the firmware sends nothing back.
type Command string

const (
	CommandLeft  Command = "LEFT"
	CommandRight Command = "RIGHT"
	CommandStop  Command = "STOP"
)

func ParseCommand(s string) (Command, bool) {
	switch s {
	case "left":
		return CommandLeft, true
	case "right":
		return CommandRight, true
	case "stop":
		return CommandStop, true
	}
	return "", false
}

// Device identifies a helmet seen during scanning. ID is the transport
// address, stable across sessions.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Transport is the platform Bluetooth surface the session manager drives.
// The production implementation speaks BLE; tests substitute a fake.
type Transport interface {
	// Probe checks platform Bluetooth availability without touching any device.
	Probe(ctx context.Context) error
	// Scan looks for a helmet and returns the selected device.
	Scan(ctx context.Context) (Device, error)
	// Known lists devices seen recently, used to look up a saved device id.
	Known() []Device
	// Connect opens the command channel to a previously scanned device.
	Connect(ctx context.Context, d Device) (io.Writer, error)
	// OnDisconnect registers the callback fired when the transport drops.
	OnDisconnect(fn func(deviceID string))
}

var (
	// ErrNotConnected is returned when a command is sent with no live channel.
	ErrNotConnected = errors.New("helmet not connected")
	// ErrNoSelection is returned when scanning ends without a device.
	ErrNoSelection = errors.New("no helmet found")
	// ErrAdapterUnavailable is returned when the platform has no usable adapter.
	ErrAdapterUnavailable = errors.New("bluetooth adapter unavailable")
)

// ConnectError wraps transport failures while opening the command channel.
type ConnectError struct {
	Device string
	Err    error
}

func (e *ConnectError) Error() string {
	return "connect to " + e.Device + " failed: " + e.Err.Error()
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Status is the session view served by the API.
type Status struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	DeviceID  string `json:"device_id,omitempty"`
	LastError string `json:"last_error,omitempty"`
}
