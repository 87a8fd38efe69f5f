// Package notify raises desktop notifications. Delivery is best-effort: a
// notification that cannot be shown is logged and dropped, never an error
// the caller has to handle.
package notify

// appID identifies the daemon to the Windows notification center.
const appID = "hotkeyd"
