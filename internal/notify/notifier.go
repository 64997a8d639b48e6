// Package notify raises non-blocking toast-style notifications. Toasts
// are kept in a bounded ring for rendering and mirrored to the structured
// log; no failure surfaced here may freeze trading controls.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Level classifies a toast.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Toast is a single user-visible notification.
type Toast struct {
	ID      string
	Level   Level
	Title   string
	Message string
	At      time.Time
}

const ringCap = 50

// Notifier collects toasts. Safe for concurrent use.
type Notifier struct {
	mu     sync.Mutex
	toasts []Toast
	logger *zap.Logger
	onPush func(Toast)
	now    func() time.Time
}

// New creates a notifier. onPush may be nil; when set it is invoked for
// every toast so the view can render immediately.
func New(logger *zap.Logger, onPush func(Toast)) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{logger: logger, onPush: onPush, now: time.Now}
}

// Push raises a toast.
func (n *Notifier) Push(level Level, title, message string) Toast {
	toast := Toast{
		ID:      uuid.New().String(),
		Level:   level,
		Title:   title,
		Message: message,
		At:      n.now(),
	}

	n.mu.Lock()
	n.toasts = append(n.toasts, toast)
	if len(n.toasts) > ringCap {
		n.toasts = n.toasts[len(n.toasts)-ringCap:]
	}
	onPush := n.onPush
	n.mu.Unlock()

	switch level {
	case LevelError:
		n.logger.Error(title, zap.String("message", message))
	case LevelWarning:
		n.logger.Warn(title, zap.String("message", message))
	default:
		n.logger.Info(title, zap.String("message", message))
	}

	if onPush != nil {
		onPush(toast)
	}
	return toast
}

// Info raises an info toast.
func (n *Notifier) Info(title, message string) { n.Push(LevelInfo, title, message) }

// Success raises a success toast.
func (n *Notifier) Success(title, message string) { n.Push(LevelSuccess, title, message) }

// Warning raises a warning toast.
func (n *Notifier) Warning(title, message string) { n.Push(LevelWarning, title, message) }

// Error raises an error toast.
func (n *Notifier) Error(title, message string) { n.Push(LevelError, title, message) }

// Recent returns the newest count toasts, newest first.
func (n *Notifier) Recent(count int) []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()

	if count <= 0 || count > len(n.toasts) {
		count = len(n.toasts)
	}
	out := make([]Toast, 0, count)
	for i := len(n.toasts) - 1; i >= len(n.toasts)-count; i-- {
		out = append(out, n.toasts[i])
	}
	return out
}
