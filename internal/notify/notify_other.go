//go:build !windows

package notify

import "log/slog"

// Send logs the notification instead; there is no toast surface here.
func Send(title, body string) {
	slog.Info("[notify] "+title, "body", body)
}
