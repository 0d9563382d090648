package api

import (
	"errors"
	"net/http"

	"github.com/ridealert/go-helmet-api/alert"
)

type navigateRequest struct {
	Destination string `json:"destination"`
}

// handleAlertError maps alert errors to the appropriate HTTP response.
func handleAlertError(w http.ResponseWriter, err error) {
	if err == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	switch {
	case errors.Is(err, alert.ErrNoEmergencyContact):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, alert.ErrNoDestination):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func CrashHandler(a *alert.AlertBackend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handleAlertError(w, a.Crash())
	}
}

func NavigateHandler(a *alert.AlertBackend) http.HandlerFunc {
	return withBody(nil, func(w http.ResponseWriter, r *http.Request, req *navigateRequest) {
		handleAlertError(w, a.Navigate(req.Destination))
	})
}
