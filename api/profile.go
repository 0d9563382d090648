package api

import (
	"fmt"
	"net/http"

	"github.com/ridealert/go-helmet-api/backend"
	"github.com/ridealert/go-helmet-api/store"
)

type themeRequest struct {
	Theme string `json:"theme"`
}

func validateTheme(req *themeRequest) error {
	if req.Theme != store.ThemeDark && req.Theme != store.ThemeLight {
		return fmt.Errorf("invalid theme: %q", req.Theme)
	}
	return nil
}

// Profile is the aggregate record view served on GET /profile.
type Profile struct {
	User          *store.UserProfile      `json:"user"`
	Emergency     *store.EmergencyContact `json:"emergency"`
	Permissions   store.Permissions       `json:"permissions"`
	HelmetName    string                  `json:"helmet_name"`
	Theme         string                  `json:"theme"`
	SetupComplete bool                    `json:"setup_complete"`
}

func ProfileHandler(b *backend.Backend) http.HandlerFunc {
	return JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		return &Profile{
			User:          b.Store.UserDetails(),
			Emergency:     b.Store.EmergencyContact(),
			Permissions:   b.Store.Permissions(),
			HelmetName:    b.Store.HelmetName(),
			Theme:         b.Store.Theme(),
			SetupComplete: b.Store.HasCompletedSetup(),
		}, nil
	})
}

func SetThemeHandler(b *backend.Backend) http.HandlerFunc {
	return withBody(validateTheme, func(w http.ResponseWriter, r *http.Request, req *themeRequest) {
		if err := b.Store.SaveTheme(req.Theme); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
}

func ResetHandler(b *backend.Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handleFlowError(w, b.Flow.Reset())
	}
}
