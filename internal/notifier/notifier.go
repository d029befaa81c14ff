// Package notifier delivers risk decisions to the human trader. The core
// only depends on the TextNotifier interface; concrete channels live here.
package notifier

// TextNotifier is intentionally minimal so components can depend on it
// without importing a concrete channel.
type TextNotifier interface {
	SendText(text string) error
}

// Noop drops every message; used when no channel is configured.
type Noop struct{}

func (Noop) SendText(string) error { return nil }
