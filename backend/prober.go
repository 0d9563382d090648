package backend

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/ridealert/go-helmet-api/helmet"
)

// systemProber binds the onboarding permission probes to the platform:
// bluetooth resolves through the helmet transport's adapter check,
// phone and sms through the host notification stack.
type systemProber struct {
	helmet *helmet.HelmetBackend
}

func newProber(h *helmet.HelmetBackend) *systemProber {
	return &systemProber{helmet: h}
}

func (p *systemProber) ProbeBluetooth(ctx context.Context) error {
	if p.helmet == nil {
		return helmet.ErrAdapterUnavailable
	}
	return p.helmet.Probe(ctx)
}

// ProbeNotifications checks that a desktop notifier is installed. Both the
// phone and sms permission steps resolve through this probe.
func (p *systemProber) ProbeNotifications(ctx context.Context) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return fmt.Errorf("notification support unavailable: %w", err)
	}
	return nil
}
