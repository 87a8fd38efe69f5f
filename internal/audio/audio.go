// Package audio is the Core Audio collaborator: master endpoint volume and
// per-application session volumes. Every operation opens and releases its
// own COM objects, and failures degrade to safe defaults (0.0 volume, false
// mute) because callers have no out-of-band error channel.
package audio

import "strings"

// matchesApp reports whether a session's process image matches the requested
// application name: exact, case-insensitive, or case-insensitive with ".exe"
// stripped from either side.
func matchesApp(processName, appName string) bool {
	if processName == appName {
		return true
	}
	if strings.EqualFold(processName, appName) {
		return true
	}
	return trimExe(processName) == trimExe(appName)
}

func trimExe(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), ".exe")
}
