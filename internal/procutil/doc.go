// Package procutil provides process helpers shared by the action and audio
// layers. HideWindow suppresses the console window flash when launching
// child processes on Windows; ImageBaseName resolves a process id to its
// executable name, which audio-session matching keys on.
package procutil
