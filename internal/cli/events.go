package cli

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"lookahead/internal/domain"
	"lookahead/internal/eventbus"
	"lookahead/internal/ui"
)

// selectionRecorder keeps the last lookup picked in the UI
type selectionRecorder struct {
	mu   sync.Mutex
	last *domain.Lookup
}

func (r *selectionRecorder) record(l domain.Lookup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = &l
}

// Last returns the most recent selection, or nil if nothing was picked
func (r *selectionRecorder) Last() *domain.Lookup {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil
	}
	l := *r.last
	return &l
}

// subscribeUI records selections for autosave and forwards failures to the
// program's status line. The returned func drops the subscriptions.
func subscribeUI(bus eventbus.EventBus, send func(tea.Msg)) (*selectionRecorder, func()) {
	rec := &selectionRecorder{}

	unsubs := []func(){
		bus.Subscribe(eventbus.EventLookupSelected, func(e eventbus.DomainEvent) {
			if event, ok := e.(eventbus.LookupSelectedEvent); ok {
				rec.record(event.Lookup)
			}
		}),
		bus.Subscribe(eventbus.EventSearchFailed, func(e eventbus.DomainEvent) {
			if event, ok := e.(eventbus.SearchFailedEvent); ok {
				send(ui.ErrorMsg{
					SessionID: event.SessionID,
					Message:   fmt.Sprintf("search %q failed", event.Term),
					Err:       event.Err,
				})
			}
		}),
		bus.Subscribe(eventbus.EventError, func(e eventbus.DomainEvent) {
			if event, ok := e.(eventbus.ErrorEvent); ok {
				send(ui.ErrorMsg{Message: event.Message, Err: event.Err})
			}
		}),
	}

	return rec, func() {
		for _, unsubscribe := range unsubs {
			unsubscribe()
		}
	}
}
