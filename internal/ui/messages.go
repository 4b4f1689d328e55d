package ui

import (
	"fmt"

	"lookahead/internal/domain"
)

// ResultsMsg carries a pipeline snapshot into the UI
type ResultsMsg struct {
	Results domain.Results
}

// ErrorMsg carries a failure reported on the event bus into the status line.
// SessionID is empty for failures that are not tied to a search.
type ErrorMsg struct {
	SessionID string
	Message   string
	Err       error
}

func (e ErrorMsg) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// pagerMsg reports that the result pager was closed
type pagerMsg struct {
	err error
}
