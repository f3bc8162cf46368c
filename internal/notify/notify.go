// Package notify sends desktop notifications for long-running operations.
package notify

import (
	"github.com/gen2brain/beeep"
)

const appName = "Taskist"

// Notifier sends desktop notifications. Disabled and nil notifiers
// are no-ops, so callers never need to branch.
type Notifier struct {
	enabled bool
}

// New creates a Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled}
}

// Recording announces that capture has started.
func (n *Notifier) Recording() {
	n.notify("Recording", "Press Enter to stop recording.")
}

// Heard shows the transcribed utterance.
func (n *Notifier) Heard(text string) {
	n.notify("Heard", truncate(text))
}

// Response shows the assistant response.
func (n *Notifier) Response(text string) {
	n.notify("", truncate(text))
}

// Error shows a failure toast.
func (n *Notifier) Error(msg string) {
	n.notify("Error", msg)
}

func truncate(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}

func (n *Notifier) notify(title, message string) {
	if n == nil || !n.enabled {
		return
	}
	// Notification failures are never critical.
	if title != "" {
		_ = beeep.Notify(appName+": "+title, message, "")
	} else {
		_ = beeep.Notify(appName, message, "")
	}
}
