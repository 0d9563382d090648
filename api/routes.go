package api

import (
	"net/http"

	"github.com/ridealert/go-helmet-api/alert"
	"github.com/ridealert/go-helmet-api/backend"
	"github.com/ridealert/go-helmet-api/flow"
	"github.com/ridealert/go-helmet-api/helmet"
	"github.com/ridealert/go-helmet-api/logger"
)

func (s *Server) registerServerRoutes(b *backend.Backend) {
	s.mux.HandleFunc(
		"/server",
		JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
			return b.GetServerDeviceInfo()
		}),
	)

	// SSE event stream
	if s.sse {
		s.mux.HandleFunc("GET /events", sseHandler(s.broadcaster))
		logger.Info("[api] SSE route registered at /events")
	}
}

func (s *Server) registerFlowRoutes(f *flow.Flow) {
	s.mux.HandleFunc(
		"GET /flow",
		JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
			return f.Snapshot(), nil
		}),
	)
	s.mux.HandleFunc(
		"POST /flow/start",
		func(w http.ResponseWriter, r *http.Request) {
			f.Start()
			w.WriteHeader(http.StatusAccepted)
		},
	)
	s.mux.HandleFunc(
		"POST /flow/permissions/{decision}",
		ResolvePermissionHandler(f),
	)
	s.mux.HandleFunc(
		"POST /flow/user",
		SubmitUserDetailsHandler(f),
	)
	s.mux.HandleFunc(
		"POST /flow/emergency",
		SubmitEmergencyContactHandler(f),
	)
	s.mux.HandleFunc(
		"POST /flow/edit/{group}",
		EditHandler(f),
	)
	s.mux.HandleFunc(
		"POST /flow/cancel",
		func(w http.ResponseWriter, r *http.Request) {
			handleFlowError(w, f.Cancel())
		},
	)
}

func (s *Server) registerProfileRoutes(b *backend.Backend) {
	s.mux.HandleFunc(
		"GET /profile",
		ProfileHandler(b),
	)
	s.mux.HandleFunc(
		"POST /profile/theme",
		SetThemeHandler(b),
	)
	s.mux.HandleFunc(
		"POST /profile/reset",
		ResetHandler(b),
	)
}

func (s *Server) registerHelmetRoutes(h *helmet.HelmetBackend) {
	s.mux.HandleFunc(
		"GET /helmet",
		JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
			return h.Status(), nil
		}),
	)
	s.mux.HandleFunc(
		"POST /helmet/name",
		RenameHandler(h),
	)
	s.mux.HandleFunc(
		"POST /helmet/scan",
		ScanHandler(h),
	)
	s.mux.HandleFunc(
		"POST /helmet/connect",
		func(w http.ResponseWriter, r *http.Request) {
			handleHelmetError(w, h.Connect(r.Context()))
		},
	)
	s.mux.HandleFunc(
		"POST /helmet/reconnect",
		func(w http.ResponseWriter, r *http.Request) {
			handleHelmetError(w, h.ReconnectFromSaved(r.Context()))
		},
	)
	s.mux.HandleFunc(
		"POST /helmet/commands/{command}",
		SendCommandHandler(h),
	)
}

func (s *Server) registerAlertRoutes(a *alert.AlertBackend) {
	s.mux.HandleFunc(
		"POST /alert/crash",
		CrashHandler(a),
	)
	s.mux.HandleFunc(
		"POST /alert/navigate",
		NavigateHandler(a),
	)
}
