package listing

import "github.com/rs/zerolog/log"

type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "info"
}

// Notification is a non-blocking message for the user, the terminal's stand-in for a toast.
type Notification struct {
	Level   Level
	Message string
	Err     error
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// LogNotifier writes notifications to the global logger.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	ev := log.Info()
	if n.Level == LevelError {
		ev = log.Warn().Err(n.Err)
	}
	ev.Msg(n.Message)
}
