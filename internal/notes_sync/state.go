package notes_sync

import (
	"github.com/2beens/householdnotes/internal/notes"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is what a consumer renders: the list for Filter, plus the fetch status.
// On a failed fetch Notes still holds the last successfully loaded list.
type State struct {
	Status  Status
	Filter  notes.Filter
	Notes   []notes.Note
	Err     error
	Loading bool
}

// ErrorMessage is the text for the error banner, empty when there is no error.
func (s State) ErrorMessage() string {
	return notes.ErrorMessage(s.Err)
}

// clone copies the list and every note body, so callers may modify
// what they get without touching the syncer's list.
func (s State) clone() State {
	if s.Notes == nil {
		return s
	}
	list := make([]notes.Note, len(s.Notes))
	for i, n := range s.Notes {
		if n.Body != nil {
			body := *n.Body
			n.Body = &body
		}
		list[i] = n
	}
	s.Notes = list
	return s
}

type Listener func(State)
