// Package notify carries user-facing notification events out of the core
// stores. The UI layer renders them as toasts; the default implementation
// writes structured logs.
package notify

import "log/slog"

// Level distinguishes informational notifications from destructive ones.
type Level string

const (
	LevelInfo        Level = "info"
	LevelDestructive Level = "destructive"
)

// Notification is a single user-visible event.
type Notification struct {
	Title       string
	Description string
	Level       Level
}

// Notifier receives notifications emitted by the stores. Implementations
// must not block.
type Notifier interface {
	Notify(n Notification)
}

// LogNotifier writes notifications to a slog logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier builds a LogNotifier. A nil logger falls back to
// slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(n Notification) {
	if n.Level == LevelDestructive {
		l.logger.Warn(n.Title, "description", n.Description)
		return
	}
	l.logger.Info(n.Title, "description", n.Description)
}

// Discard drops every notification. Useful for tests that don't assert on
// notification output.
type Discard struct{}

func (Discard) Notify(Notification) {}
