package finder

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Notification is the displayable payload carried by a push message.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
	Badge string `json:"badge,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Notifier displays notifications to the user.
type Notifier interface {
	Show(n Notification) error
	Close(n Notification) error
}

// WindowOpener opens a URL in the user's browsing context.
type WindowOpener interface {
	Open(url string) error
}

// Receiver handles incoming push messages the way the service worker does:
// show the notification on push, open its URL on click.
type Receiver struct {
	notifier Notifier
	opener   WindowOpener
}

func NewReceiver(notifier Notifier, opener WindowOpener) *Receiver {
	return &Receiver{
		notifier: notifier,
		opener:   opener,
	}
}

// HandlePush decodes a push payload and displays it. Payloads that are not
// valid JSON fall back to a bare title so the message is never dropped
// silently.
func (r *Receiver) HandlePush(payload []byte) error {
	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		slog.Warn("push payload is not valid JSON, showing raw text", "error", err)
		n = Notification{Title: string(payload)}
	}

	if err := r.notifier.Show(n); err != nil {
		return fmt.Errorf("failed to show notification: %w", err)
	}
	return nil
}

// HandleClick dismisses the notification and opens its URL, if it has one.
func (r *Receiver) HandleClick(n Notification) error {
	if err := r.notifier.Close(n); err != nil {
		slog.Warn("failed to close notification", "error", err)
	}

	if n.URL == "" {
		return nil
	}

	if err := r.opener.Open(n.URL); err != nil {
		return fmt.Errorf("failed to open notification url: %w", err)
	}
	return nil
}
