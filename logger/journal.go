package logger

import "github.com/coreos/go-systemd/v22/journal"

var journalPriorities = map[Level]journal.Priority{
	DEBUG: journal.PriDebug,
	INFO:  journal.PriInfo,
	WARN:  journal.PriWarning,
	ERROR: journal.PriErr,
	FATAL: journal.PriCrit,
}

// UseJournal switches the global logger to the systemd journal when the
// process runs under systemd. Returns false when no journal socket is
// available; the stderr logger stays in place in that case.
func UseJournal() bool {
	if !journal.Enabled() {
		return false
	}
	defaultLogger.journal = true
	return true
}

func journalSend(level Level, msg string) error {
	return journal.Send(msg, journalPriorities[level], nil)
}
