package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ridealert/go-helmet-api/config"
	"github.com/ridealert/go-helmet-api/events"
	"github.com/ridealert/go-helmet-api/logger"
)

// Record keys, matching the companion app's storage layout.
const (
	keyUserDetails      = "userDetails"
	keyEmergencyContact = "emergencyContact"
	keyPermissions      = "permissions"
	keyHelmetName       = "helmetName"

	// Session preferences live beside the profile records but are not
	// part of the profile itself: ClearAll leaves them alone.
	keyConnectedDevice = "connectedDevice"
	keyTheme           = "theme"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type UserProfile struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

type EmergencyContact struct {
	EmergencyName  string `json:"emergencyName"`
	EmergencyPhone string `json:"emergencyPhone"`
}

type Permissions struct {
	Bluetooth bool `json:"bluetooth"`
	Phone     bool `json:"phone"`
	SMS       bool `json:"sms"`
}

// SavedDevice identifies the last paired helmet so a later session can
// silently reconnect. The live command channel is never persisted.
type SavedDevice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Store is the typed profile repository over a KV backend.
type Store struct {
	kv          KV
	defaultName string
	watcher     *watcher

	events chan events.Event
}

func New(cfg *config.StoreConfig, defaultName string) (*Store, error) {
	kv, err := NewFileKV(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	s := NewWithKV(kv, defaultName)
	if cfg.Watch {
		s.watcher = newWatcher(kv.Dir(), s.events)
	}
	return s, nil
}

// NewWithKV builds a store over an arbitrary KV, used by tests.
func NewWithKV(kv KV, defaultName string) *Store {
	return &Store{
		kv:          kv,
		defaultName: defaultName,
		events:      make(chan events.Event, 16),
	}
}

func (s *Store) Start(ctx context.Context) error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.start(ctx)
}

func (s *Store) Close() {
	if s.watcher != nil {
		s.watcher.stop()
	}
}

// Events exposes store change notifications (external file edits, renames).
func (s *Store) Events() <-chan events.Event {
	return s.events
}

// getJSON decodes the record under key into v. Missing keys and corrupted
// records both report absent; corruption is logged so the bad file can be
// inspected, but never fails a read.
func (s *Store) getJSON(key string, v any) bool {
	data, ok := s.kv.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("[store] corrupted record %s, treating as absent: %v", key, err)
		return false
	}
	return true
}

func (s *Store) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.kv.Set(key, data)
}

func (s *Store) UserDetails() *UserProfile {
	var p UserProfile
	if !s.getJSON(keyUserDetails, &p) {
		return nil
	}
	return &p
}

func (s *Store) SaveUserDetails(p UserProfile) error {
	return s.setJSON(keyUserDetails, p)
}

func (s *Store) EmergencyContact() *EmergencyContact {
	var c EmergencyContact
	if !s.getJSON(keyEmergencyContact, &c) {
		return nil
	}
	return &c
}

func (s *Store) SaveEmergencyContact(c EmergencyContact) error {
	return s.setJSON(keyEmergencyContact, c)
}

func (s *Store) Permissions() Permissions {
	var p Permissions
	s.getJSON(keyPermissions, &p)
	return p
}

func (s *Store) SavePermissions(p Permissions) error {
	return s.setJSON(keyPermissions, p)
}

func (s *Store) HelmetName() string {
	data, ok := s.kv.Get(keyHelmetName)
	if !ok || len(data) == 0 {
		return s.defaultName
	}
	return string(data)
}

func (s *Store) SaveHelmetName(name string) error {
	if err := s.kv.Set(keyHelmetName, []byte(name)); err != nil {
		return err
	}
	s.emit(events.Event{Type: events.TypeHelmetRenamed, Data: name})
	return nil
}

// HasCompletedSetup reports whether onboarding already ran to completion.
// Both the user profile and the emergency contact must be present; this is
// the sole signal gating the onboarding bypass.
func (s *Store) HasCompletedSetup() bool {
	return s.UserDetails() != nil && s.EmergencyContact() != nil
}

// ClearAll removes the four profile records, returning the store to
// first-run defaults. Session preferences (device, theme) survive.
func (s *Store) ClearAll() error {
	for _, key := range []string{keyUserDetails, keyEmergencyContact, keyPermissions, keyHelmetName} {
		if err := s.kv.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) SavedDevice() *SavedDevice {
	var d SavedDevice
	if !s.getJSON(keyConnectedDevice, &d) {
		return nil
	}
	return &d
}

func (s *Store) SaveDevice(d SavedDevice) error {
	return s.setJSON(keyConnectedDevice, d)
}

func (s *Store) ClearDevice() error {
	return s.kv.Delete(keyConnectedDevice)
}

func (s *Store) Theme() string {
	data, ok := s.kv.Get(keyTheme)
	if !ok {
		return ThemeDark
	}
	theme := string(data)
	if theme != ThemeDark && theme != ThemeLight {
		return ThemeDark
	}
	return theme
}

func (s *Store) SaveTheme(theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return fmt.Errorf("invalid theme: %q", theme)
	}
	return s.kv.Set(keyTheme, []byte(theme))
}

func (s *Store) emit(e events.Event) {
	select {
	case s.events <- e:
	default:
		logger.Warn("[store] event channel full, dropping %s", e.Type)
	}
}
