package flow

import "context"

// State is the top-level onboarding state machine position.
type State string

const (
	StateLoading       State = "loading"
	StatePermissions   State = "permission-sequence"
	StateUserForm      State = "user-form"
	StateEmergencyForm State = "emergency-form"
	StateDashboard     State = "dashboard"
)

// Permission identifies one step of the fixed permission sequence.
type Permission string

const (
	PermissionBluetooth Permission = "bluetooth"
	PermissionPhone     Permission = "phone"
	PermissionSMS       Permission = "sms"
)

// permissionOrder is fixed; skipping or reordering is not supported.
var permissionOrder = []Permission{PermissionBluetooth, PermissionPhone, PermissionSMS}

// EditGroup names the data group an edit flow re-collects.
type EditGroup string

const (
	EditUser        EditGroup = "user"
	EditEmergency   EditGroup = "emergency"
	EditPermissions EditGroup = "permissions"
)

func ParseEditGroup(s string) (EditGroup, bool) {
	switch EditGroup(s) {
	case EditUser, EditEmergency, EditPermissions:
		return EditGroup(s), true
	}
	return "", false
}

// Prober runs the platform capability check behind a permission step.
// Phone and SMS share the notification probe, a simplification inherited
// from the companion app.
type Prober interface {
	ProbeBluetooth(ctx context.Context) error
	ProbeNotifications(ctx context.Context) error
}

// Snapshot is the externally visible flow position, served by the API and
// carried on flow.state events.
type Snapshot struct {
	State      State      `json:"state"`
	Permission Permission `json:"permission,omitempty"`
	Editing    bool       `json:"editing"`
}

type BadStateError struct {
	Op    string
	State State
}

func (e *BadStateError) Error() string {
	return "cannot " + e.Op + " in state " + string(e.State)
}

type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "missing required field: " + e.Field
}
