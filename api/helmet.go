package api

import (
	"errors"
	"net/http"

	"github.com/ridealert/go-helmet-api/helmet"
)

type renameRequest struct {
	Name string `json:"name"`
}

func validateRename(req *renameRequest) error {
	if req.Name == "" {
		return errors.New("name must not be empty")
	}
	return nil
}

// handleHelmetError maps helmet session errors to the appropriate HTTP
// response.
func handleHelmetError(w http.ResponseWriter, err error) {
	if err == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	switch {
	case errors.Is(err, helmet.ErrNotConnected):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, helmet.ErrNoSelection):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, helmet.ErrAdapterUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	var connErr *helmet.ConnectError
	if errors.As(err, &connErr) {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// withCommand extracts the {command} path segment and calls next with the
// parsed helmet command.
func withCommand(
	next func(w http.ResponseWriter, r *http.Request, cmd helmet.Command),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, ok := helmet.ParseCommand(r.PathValue("command"))
		if !ok {
			http.Error(w, "unknown command", http.StatusNotFound)
			return
		}
		next(w, r, cmd)
	}
}

func SendCommandHandler(h *helmet.HelmetBackend) http.HandlerFunc {
	return withCommand(func(w http.ResponseWriter, r *http.Request, cmd helmet.Command) {
		handleHelmetError(w, h.Send(cmd))
	})
}

func ScanHandler(h *helmet.HelmetBackend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device, err := h.Scan(r.Context())
		if err != nil {
			handleHelmetError(w, err)
			return
		}
		JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
			return device, nil
		})(w, r)
	}
}

func RenameHandler(h *helmet.HelmetBackend) http.HandlerFunc {
	return withBody(validateRename, func(w http.ResponseWriter, r *http.Request, req *renameRequest) {
		handleHelmetError(w, h.Rename(req.Name))
	})
}
