// Package suggest tracks autocomplete queries so that only the response to
// the most recent keystroke is ever shown.
package suggest

import (
	"strings"

	"github.com/swelljoe/wthr-widget/internal/weather"
)

// State of the suggestion list.
type State int

const (
	Idle     State = iota // nothing shown, nothing pending
	Querying              // a query is in flight
	Showing               // a list or a message is shown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Querying:
		return "querying"
	case Showing:
		return "showing"
	}
	return "unknown"
}

const (
	MsgNoResults = "No results found"
	MsgError     = "Error fetching suggestions"
)

// Query is a geocoding request the caller should issue.
type Query struct {
	Seq  uint64
	Text string
}

// Flow is the suggestion state machine. It is not safe for concurrent use;
// front-ends drive it from their event loop.
type Flow struct {
	state   State
	seq     uint64
	places  []weather.Place
	message string
}

func (f *Flow) State() State { return f.state }

// Places returns the suggestions currently shown.
func (f *Flow) Places() []weather.Place { return f.places }

// Message is the text shown instead of a list ("No results found", ...).
func (f *Flow) Message() string { return f.message }

// Seq is the sequence number of the latest query.
func (f *Flow) Seq() uint64 { return f.seq }

// Input handles a (debounced) change of the search text. Blank text clears
// the list without a query, and still supersedes anything in flight.
func (f *Flow) Input(text string) (Query, bool) {
	f.seq++
	text = strings.TrimSpace(text)
	if text == "" {
		f.reset()
		return Query{}, false
	}
	f.state = Querying
	return Query{Seq: f.seq, Text: text}, true
}

// Resolve applies the outcome of query seq. It reports false, changing
// nothing, when seq is not the latest query.
func (f *Flow) Resolve(seq uint64, places []weather.Place, err error) bool {
	if seq != f.seq || f.state != Querying {
		return false
	}
	f.state = Showing
	f.places = nil
	f.message = ""
	switch {
	case err != nil:
		f.message = MsgError
	case len(places) == 0:
		f.message = MsgNoResults
	default:
		f.places = places
	}
	return true
}

// Dismiss hides the list, e.g. on a click outside it. A pending query is
// abandoned.
func (f *Flow) Dismiss() {
	if f.state == Querying {
		f.seq++
	}
	f.reset()
}

// Select picks suggestion i. The list closes and the place is returned so
// the caller can fetch weather by its coordinates directly.
func (f *Flow) Select(i int) (weather.Place, bool) {
	if f.state != Showing || i < 0 || i >= len(f.places) {
		return weather.Place{}, false
	}
	p := f.places[i]
	f.reset()
	return p, true
}

func (f *Flow) reset() {
	f.state = Idle
	f.places = nil
	f.message = ""
}
