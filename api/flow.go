package api

import (
	"errors"
	"net/http"

	"github.com/ridealert/go-helmet-api/flow"
	"github.com/ridealert/go-helmet-api/store"
)

// handleFlowError maps flow errors to the appropriate HTTP response.
func handleFlowError(w http.ResponseWriter, err error) {
	if err == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	var valErr *flow.ValidationError
	if errors.As(err, &valErr) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var stateErr *flow.BadStateError
	if errors.As(err, &stateErr) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// withDecision extracts the {decision} path segment (accept or deny) and
// calls next with the resolved boolean.
func withDecision(
	next func(w http.ResponseWriter, r *http.Request, accepted bool),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("decision") {
		case "accept":
			next(w, r, true)
		case "deny":
			next(w, r, false)
		default:
			http.Error(w, "invalid decision", http.StatusNotFound)
		}
	}
}

func ResolvePermissionHandler(f *flow.Flow) http.HandlerFunc {
	return withDecision(func(w http.ResponseWriter, r *http.Request, accepted bool) {
		handleFlowError(w, f.ResolvePermission(r.Context(), accepted))
	})
}

func SubmitUserDetailsHandler(f *flow.Flow) http.HandlerFunc {
	return withBody(nil, func(w http.ResponseWriter, r *http.Request, req *store.UserProfile) {
		handleFlowError(w, f.SubmitUserDetails(*req))
	})
}

func SubmitEmergencyContactHandler(f *flow.Flow) http.HandlerFunc {
	return withBody(nil, func(w http.ResponseWriter, r *http.Request, req *store.EmergencyContact) {
		handleFlowError(w, f.SubmitEmergencyContact(*req))
	})
}

func EditHandler(f *flow.Flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, ok := flow.ParseEditGroup(r.PathValue("group"))
		if !ok {
			http.Error(w, "invalid edit group", http.StatusNotFound)
			return
		}
		handleFlowError(w, f.Edit(group))
	}
}
