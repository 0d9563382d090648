package alert

import (
	"os/exec"

	"github.com/ridealert/go-helmet-api/logger"
)

// execLauncher hands URLs to the desktop opener. The opener resolves the
// tel:/sms: scheme handlers registered on the host; we never wait for or
// inspect the launched session.
type execLauncher struct {
	opener string
}

func (l *execLauncher) Open(url string) error {
	cmd := exec.Command(l.opener, url)
	if err := cmd.Start(); err != nil {
		return err
	}

	// Reap the opener in the background so it never zombies.
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Debug("[alert] opener exited: %v", err)
		}
	}()
	return nil
}
