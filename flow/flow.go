package flow

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ridealert/go-helmet-api/config"
	"github.com/ridealert/go-helmet-api/events"
	"github.com/ridealert/go-helmet-api/logger"
	"github.com/ridealert/go-helmet-api/store"
)

// Flow drives onboarding: loading screen, permission sequence, the two
// data-collection forms, then the dashboard. It is also re-entered from
// the dashboard to edit a single data group.
type Flow struct {
	cfg    *config.FlowConfig
	store  *store.Store
	prober Prober
	ctx    context.Context

	mu      sync.Mutex
	state   State
	seq     *sequencer
	editing EditGroup // empty outside edit mode

	events chan events.Event
}

func New(ctx context.Context, cfg *config.FlowConfig, st *store.Store, prober Prober) *Flow {
	return &Flow{
		cfg:    cfg,
		store:  st,
		prober: prober,
		ctx:    ctx,
		state:  StateLoading,
		seq:    newSequencer(),
		events: make(chan events.Event, 32),
	}
}

func (f *Flow) Events() <-chan events.Event {
	return f.events
}

// Start picks the entry point. A profile that already holds both records
// jumps straight to the dashboard; recorded permissions are trusted and
// not re-verified. Otherwise the cosmetic loading delay runs before the
// permission sequence begins.
func (f *Flow) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.store.HasCompletedSetup() {
		logger.Info("[flow] setup already completed, entering dashboard")
		f.setState(StateDashboard)
		return
	}

	f.setState(StateLoading)
	go f.finishLoading()
}

func (f *Flow) finishLoading() {
	timer := time.NewTimer(f.cfg.LoadingDelay)
	defer timer.Stop()

	select {
	case <-f.ctx.Done():
		return
	case <-timer.C:
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateLoading {
		return
	}
	f.seq.start()
	f.setState(StatePermissions)
}

// ResolvePermission records the user's answer for the pending permission
// step. Accepting runs the capability probe; denying records false without
// probing. Either way the sequence advances; a failed probe surfaces a
// notice but never halts the flow.
func (f *Flow) ResolvePermission(ctx context.Context, accepted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StatePermissions {
		return &BadStateError{Op: "resolve permission", State: f.state}
	}
	perm, ok := f.seq.current()
	if !ok {
		return &BadStateError{Op: "resolve permission", State: f.state}
	}

	granted := false
	if accepted {
		if err := f.probe(ctx, perm); err != nil {
			logger.Warn("[flow] %s probe failed: %v", perm, err)
			f.emit(events.Event{Type: events.TypePermissionNotice, Data: map[string]string{
				"permission": string(perm),
				"message":    "Could not get " + string(perm) + " permission. Please check your system settings.",
			}})
		} else {
			granted = true
		}
	}

	perms := f.store.Permissions()
	switch perm {
	case PermissionBluetooth:
		perms.Bluetooth = granted
	case PermissionPhone:
		perms.Phone = granted
	case PermissionSMS:
		perms.SMS = granted
	}
	if err := f.store.SavePermissions(perms); err != nil {
		return err
	}
	f.emit(events.Event{Type: events.TypePermissionUpdated, Data: perms})

	if f.seq.advance() {
		if f.editing == EditPermissions {
			f.editing = ""
			f.setState(StateDashboard)
		} else {
			f.setState(StateUserForm)
		}
	} else {
		// state unchanged, but the pending permission moved
		f.emit(events.Event{Type: events.TypeFlowState, Data: f.snapshotLocked()})
	}
	return nil
}

func (f *Flow) probe(ctx context.Context, perm Permission) error {
	switch perm {
	case PermissionBluetooth:
		return f.prober.ProbeBluetooth(ctx)
	default:
		// phone and sms both resolve through the notification probe
		return f.prober.ProbeNotifications(ctx)
	}
}

// SubmitUserDetails validates and persists the user profile, then moves on.
// All four fields are required.
func (f *Flow) SubmitUserDetails(p store.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateUserForm {
		return &BadStateError{Op: "submit user details", State: f.state}
	}
	if err := validateUserProfile(p); err != nil {
		return err
	}
	if err := f.store.SaveUserDetails(p); err != nil {
		return err
	}
	f.emit(events.Event{Type: events.TypeProfileUpdated, Data: p})

	if f.editing == EditUser {
		f.editing = ""
		f.setState(StateDashboard)
	} else {
		f.setState(StateEmergencyForm)
	}
	return nil
}

// SubmitEmergencyContact validates and persists the emergency contact and
// completes onboarding.
func (f *Flow) SubmitEmergencyContact(c store.EmergencyContact) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateEmergencyForm {
		return &BadStateError{Op: "submit emergency contact", State: f.state}
	}
	if err := validateEmergencyContact(c); err != nil {
		return err
	}
	if err := f.store.SaveEmergencyContact(c); err != nil {
		return err
	}
	f.emit(events.Event{Type: events.TypeContactUpdated, Data: c})

	f.editing = ""
	f.setState(StateDashboard)
	return nil
}

// Edit re-enters the flow from the dashboard for one data group.
// Editing permissions re-runs the whole sequencer.
func (f *Flow) Edit(group EditGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateDashboard {
		return &BadStateError{Op: "edit " + string(group), State: f.state}
	}

	f.editing = group
	switch group {
	case EditUser:
		f.setState(StateUserForm)
	case EditEmergency:
		f.setState(StateEmergencyForm)
	case EditPermissions:
		f.seq.start()
		f.setState(StatePermissions)
	default:
		f.editing = ""
		return &BadStateError{Op: "edit unknown group", State: f.state}
	}
	return nil
}

// Cancel abandons an edit without persisting. First-run onboarding forms
// have no cancel.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.editing == "" {
		return &BadStateError{Op: "cancel", State: f.state}
	}
	f.editing = ""
	f.setState(StateDashboard)
	return nil
}

// Reset signs the user out: the profile is cleared and the flow restarts
// from the beginning.
func (f *Flow) Reset() error {
	f.mu.Lock()
	if err := f.store.ClearAll(); err != nil {
		f.mu.Unlock()
		return err
	}
	f.editing = ""
	f.seq = newSequencer()
	f.mu.Unlock()

	f.Start()
	return nil
}

func (f *Flow) Current() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Flow) snapshotLocked() Snapshot {
	snap := Snapshot{State: f.state, Editing: f.editing != ""}
	if f.state == StatePermissions {
		if perm, ok := f.seq.current(); ok {
			snap.Permission = perm
		}
	}
	return snap
}

// setState transitions and emits; callers hold the mutex.
func (f *Flow) setState(s State) {
	f.state = s
	logger.Debug("[flow] state -> %s", s)
	f.emit(events.Event{Type: events.TypeFlowState, Data: f.snapshotLocked()})
}

func (f *Flow) emit(e events.Event) {
	select {
	case f.events <- e:
	default:
		logger.Warn("[flow] event channel full, dropping %s", e.Type)
	}
}

func validateUserProfile(p store.UserProfile) error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", p.Name},
		{"address", p.Address},
		{"email", p.Email},
		{"phone", p.Phone},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name}
		}
	}
	return nil
}

func validateEmergencyContact(c store.EmergencyContact) error {
	if strings.TrimSpace(c.EmergencyName) == "" {
		return &ValidationError{Field: "emergencyName"}
	}
	if strings.TrimSpace(c.EmergencyPhone) == "" {
		return &ValidationError{Field: "emergencyPhone"}
	}
	return nil
}
