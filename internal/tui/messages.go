package tui

import "github.com/swelljoe/wthr-widget/internal/weather"

// Message types for async operations

// debounceMsg fires once typing has paused. It is ignored unless edit is
// still the latest keystroke.
type debounceMsg struct {
	edit uint64
	text string
}

// suggestionsMsg carries the result of suggestion query seq.
type suggestionsMsg struct {
	seq    uint64
	places []weather.Place
	err    error
}

// reportMsg is sent when a weather lookup has finished. message is the
// text to show instead of the report when it failed.
type reportMsg struct {
	report  *weather.Report
	message string
	err     error
}
