package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ToastLevel sets the color of a toast.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastWarning
	ToastError
)

// Toast is a short-lived footer notification.
type Toast struct {
	ID      int
	Level   ToastLevel
	Message string
	Expires time.Time
}

// toastExpiredMsg is delivered when a toast's timer fires.
type toastExpiredMsg struct{ id int }

// Notifier is a bounded queue of toasts. It is owned by the app model and
// passed explicitly; there is no global notifier.
type Notifier struct {
	toasts   []Toast
	nextID   int
	max      int
	duration time.Duration
	now      func() time.Time
}

// NewNotifier returns a notifier keeping at most max toasts, each visible for
// duration.
func NewNotifier(max int, duration time.Duration) *Notifier {
	if max <= 0 {
		max = 3
	}
	if duration <= 0 {
		duration = 4 * time.Second
	}
	return &Notifier{max: max, duration: duration, now: time.Now}
}

// Push adds a toast, evicting the oldest when full, and returns the command
// that expires it.
func (n *Notifier) Push(level ToastLevel, msg string) tea.Cmd {
	n.nextID++
	id := n.nextID
	n.toasts = append(n.toasts, Toast{
		ID:      id,
		Level:   level,
		Message: msg,
		Expires: n.now().Add(n.duration),
	})
	if over := len(n.toasts) - n.max; over > 0 {
		n.toasts = n.toasts[over:]
	}
	return tea.Tick(n.duration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// Info pushes an info toast.
func (n *Notifier) Info(msg string) tea.Cmd { return n.Push(ToastInfo, msg) }

// Success pushes a success toast.
func (n *Notifier) Success(msg string) tea.Cmd { return n.Push(ToastSuccess, msg) }

// Error pushes an error toast.
func (n *Notifier) Error(msg string) tea.Cmd { return n.Push(ToastError, msg) }

// Dismiss removes the toast with id. Unknown ids are ignored.
func (n *Notifier) Dismiss(id int) {
	for i, t := range n.toasts {
		if t.ID == id {
			n.toasts = append(n.toasts[:i:i], n.toasts[i+1:]...)
			return
		}
	}
}

// Prune drops every toast that expired before now.
func (n *Notifier) Prune(now time.Time) {
	kept := n.toasts[:0]
	for _, t := range n.toasts {
		if now.Before(t.Expires) {
			kept = append(kept, t)
		}
	}
	n.toasts = kept
}

// Toasts returns the visible toasts, oldest first.
func (n *Notifier) Toasts() []Toast {
	out := make([]Toast, len(n.toasts))
	copy(out, n.toasts)
	return out
}

// Latest returns the newest toast.
func (n *Notifier) Latest() (Toast, bool) {
	if len(n.toasts) == 0 {
		return Toast{}, false
	}
	return n.toasts[len(n.toasts)-1], true
}

// Update handles expiry messages. It reports whether msg was consumed.
func (n *Notifier) Update(msg tea.Msg) bool {
	if m, ok := msg.(toastExpiredMsg); ok {
		n.Dismiss(m.id)
		return true
	}
	return false
}

// View renders the toasts on one line, newest last.
func (n *Notifier) View(theme Theme) string {
	if len(n.toasts) == 0 {
		return ""
	}
	r := theme.Renderer
	parts := make([]string, 0, len(n.toasts))
	for _, t := range n.toasts {
		color := theme.Info
		icon := "ℹ"
		switch t.Level {
		case ToastSuccess:
			color, icon = theme.Success, "✓"
		case ToastWarning:
			color, icon = theme.Warning, "!"
		case ToastError:
			color, icon = theme.Danger, "✗"
		}
		parts = append(parts, r.NewStyle().Foreground(color).Render(icon+" "+t.Message))
	}
	return strings.Join(parts, "  ")
}
