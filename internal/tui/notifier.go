package tui

import (
	"fmt"
	"time"
)

// uiNotifier is the notification port for the terminal. Immediate sends
// become status toasts with a bell; deferred ones wait in memory until their
// fire time passes on a tick. enabled doubles as the permission gate, driven
// by the notifications setting.
type uiNotifier struct {
	enabled bool
	pending []pendingNote
	toasts  []string
}

type pendingNote struct {
	id    int
	title string
	body  string
	at    time.Time
}

func newUINotifier(enabled bool) *uiNotifier {
	return &uiNotifier{enabled: enabled}
}

func (n *uiNotifier) RequestPermission() bool { return n.enabled }

func (n *uiNotifier) Send(id int, title, body string) error {
	n.toasts = append(n.toasts, fmt.Sprintf("%s — %s\a", title, body))
	return nil
}

func (n *uiNotifier) ScheduleAt(id int, title, body string, at time.Time) error {
	n.pending = append(n.pending, pendingNote{id: id, title: title, body: body, at: at})
	return nil
}

func (n *uiNotifier) CancelAll() error {
	n.pending = nil
	return nil
}

// flush delivers deferred notes that have come due and returns every toast
// accumulated since the last call, oldest first.
func (n *uiNotifier) flush(now time.Time) []string {
	keep := n.pending[:0]
	for _, p := range n.pending {
		if p.at.After(now) {
			keep = append(keep, p)
			continue
		}
		n.toasts = append(n.toasts, fmt.Sprintf("%s — %s\a", p.title, p.body))
	}
	n.pending = keep
	out := n.toasts
	n.toasts = nil
	return out
}
