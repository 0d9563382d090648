package alert

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ridealert/go-helmet-api/config"
	"github.com/ridealert/go-helmet-api/events"
	"github.com/ridealert/go-helmet-api/logger"
	"github.com/ridealert/go-helmet-api/store"
)

var (
	// ErrNoEmergencyContact is returned when a crash fires with no contact
	// on record; no escalation is attempted.
	ErrNoEmergencyContact = errors.New("no emergency contact found")
	// ErrNoDestination is returned for an empty navigation request.
	ErrNoDestination = errors.New("no destination given")
)

// Launcher hands a URL to the platform: tel: and sms: intents for the
// escalation path, the maps URL for navigation. Fire and forget, no
// delivery confirmation.
type Launcher interface {
	Open(url string) error
}

// AlertBackend triggers the crash escalation and the navigation handoff.
// Neither requires an active device session.
type AlertBackend struct {
	cfg      *config.AlertConfig
	store    *store.Store
	launcher Launcher
	ctx      context.Context

	events chan events.Event
}

func New(ctx context.Context, cfg *config.AlertConfig, st *store.Store) (*AlertBackend, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	return NewWithLauncher(ctx, cfg, st, &execLauncher{opener: cfg.Opener}), nil
}

// NewWithLauncher wires an explicit launcher, used by tests.
func NewWithLauncher(ctx context.Context, cfg *config.AlertConfig, st *store.Store, l Launcher) *AlertBackend {
	return &AlertBackend{
		cfg:      cfg,
		store:    st,
		launcher: l,
		ctx:      ctx,
		events:   make(chan events.Event, 8),
	}
}

func (b *AlertBackend) Events() <-chan events.Event {
	return b.events
}

// Crash escalates to the stored emergency contact: a phone call first,
// then a pre-filled SMS draft. Without a contact nothing is launched.
func (b *AlertBackend) Crash() error {
	contact := b.store.EmergencyContact()
	if contact == nil || contact.EmergencyPhone == "" {
		return ErrNoEmergencyContact
	}

	phone := contact.EmergencyPhone
	if err := b.launcher.Open("tel:" + phone); err != nil {
		return fmt.Errorf("place emergency call: %w", err)
	}
	smsURL := "sms:" + phone + "?body=" + url.QueryEscape(b.cfg.SMSBody)
	if err := b.launcher.Open(smsURL); err != nil {
		return fmt.Errorf("compose emergency sms: %w", err)
	}

	logger.Warn("[alert] crash escalation sent to %s", contact.EmergencyName)
	b.emit(events.Event{Type: events.TypeAlertTriggered, Data: contact.EmergencyName})
	return nil
}

// Navigate hands a free-text destination to the external mapping service.
// The resulting session is not tracked.
func (b *AlertBackend) Navigate(destination string) error {
	if destination == "" {
		return ErrNoDestination
	}
	return b.launcher.Open(b.cfg.MapsURL + url.QueryEscape(destination))
}

func (b *AlertBackend) emit(e events.Event) {
	select {
	case b.events <- e:
	default:
		logger.Warn("[alert] event channel full, dropping %s", e.Type)
	}
}
