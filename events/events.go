package events

import "slices"

const (
	TypeServerInfo = "server.info"

	TypeFlowState         = "flow.state"
	TypePermissionUpdated = "permission.updated"
	TypePermissionNotice  = "permission.notice"
	TypeProfileUpdated    = "profile.updated"
	TypeContactUpdated    = "contact.updated"

	TypeStoreChanged  = "store.changed"
	TypeHelmetRenamed = "helmet.renamed"

	TypeHelmetConnected    = "helmet.connected"
	TypeHelmetDisconnected = "helmet.disconnected"

	TypeAlertTriggered = "alert.triggered"
)

type Event struct {
	Type string
	Data any
}

// BackendTypes maps a backend name (as used in the ?backend= SSE filter)
// to the event types it emits.
var BackendTypes = map[string][]string{
	"flow": {
		TypeFlowState,
		TypePermissionUpdated,
		TypePermissionNotice,
		TypeProfileUpdated,
		TypeContactUpdated,
	},
	"store": {
		TypeStoreChanged,
		TypeHelmetRenamed,
	},
	"helmet": {
		TypeHelmetConnected,
		TypeHelmetDisconnected,
	},
	"alert": {
		TypeAlertTriggered,
	},
}

// FilterTypes returns a filter passing only the given event types.
// A nil or empty list yields a nil (pass-all) filter.
func FilterTypes(types []string) func(Event) bool {
	if len(types) == 0 {
		return nil
	}
	return func(e Event) bool {
		return slices.Contains(types, e.Type)
	}
}

// FilterBackend returns a filter passing the event types of the named
// backends. Unknown names are ignored; if nothing resolves, the filter is
// nil (pass-all).
func FilterBackend(names []string) func(Event) bool {
	var types []string
	for _, name := range names {
		types = append(types, BackendTypes[name]...)
	}
	return FilterTypes(types)
}

// NewFilter combines an include and an exclude list into a single filter.
// An empty include list passes everything not excluded.
func NewFilter(include, exclude []string) func(Event) bool {
	includeFilter := FilterTypes(include)
	if len(exclude) == 0 {
		return includeFilter
	}
	return func(e Event) bool {
		if slices.Contains(exclude, e.Type) {
			return false
		}
		if includeFilter == nil {
			return true
		}
		return includeFilter(e)
	}
}
