//go:build windows

package notify

import (
	"log/slog"

	toast "git.sr.ht/~jackmordaunt/go-toast/v2"
)

// Send raises a toast notification.
func Send(title, body string) {
	n := toast.Notification{
		AppID: appID,
		Title: title,
		Body:  body,
	}
	if err := n.Push(); err != nil {
		slog.Warn("[notify] failed to push toast", "title", title, "error", err)
	}
}
