// Package autocomplete turns search box edits and page requests into a
// stream of accumulated results.
//
// Edits are debounced and only text values start a search. Each search term
// runs a session that fetches page 1 straight away and one more page per
// request. A newer term cancels the running session. Page requests that arrive
// while a fetch is pending are dropped, and an empty page ends the session.
package autocomplete

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"lookahead/internal/domain"
	"lookahead/internal/eventbus"
	"lookahead/internal/lookup"
)

// DefaultDebounce is the quiet period before an edit becomes a search term
const DefaultDebounce = 200 * time.Millisecond

// Value is what the search box holds: typed text, or a selected record
type Value struct {
	Text     string
	Selected *domain.Lookup
}

// TextValue wraps typed text
func TextValue(text string) Value {
	return Value{Text: text}
}

// SelectionValue wraps a selected record
func SelectionValue(l domain.Lookup) Value {
	return Value{Selected: &l}
}

// IsText reports whether the value is typed text
func (v Value) IsText() bool {
	return v.Selected == nil
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithDebounce sets the quiet period applied to value changes
func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) {
		p.debounce = d
	}
}

// WithBus publishes session events on bus
func WithBus(bus eventbus.EventBus) Option {
	return func(p *Pipeline) {
		p.bus = bus
	}
}

// WithInitial replaces the empty string the pipeline starts searching with
func WithInitial(v Value) Option {
	return func(p *Pipeline) {
		p.initial = v
	}
}

// Pipeline owns all search state in a single goroutine. Its methods are safe
// to call from any goroutine and never block.
type Pipeline struct {
	source   lookup.Source
	bus      eventbus.EventBus
	debounce time.Duration
	initial  Value

	mu      sync.Mutex
	pending Value
	changed chan struct{}
	next    chan struct{}
	fetched chan fetchResult
	out     chan domain.Results

	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// session is the fetch sequence for one search term
type session struct {
	id       string
	term     string
	ctx      context.Context
	cancel   context.CancelFunc
	page     int // next page to fetch
	inflight bool
	done     bool
	lookups  []domain.Lookup
}

type fetchResult struct {
	sessionID string
	page      int
	lookups   []domain.Lookup
	err       error
}

// New creates a pipeline reading from source. Call Start to run it.
func New(source lookup.Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:   source,
		debounce: DefaultDebounce,
		initial:  TextValue(""),
		changed:  make(chan struct{}, 1),
		next:     make(chan struct{}, 1),
		fetched:  make(chan fetchResult),
		out:      make(chan domain.Results, 16),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start runs the pipeline until ctx is cancelled or Close is called. The
// initial value goes through the debounce like any edit.
func (p *Pipeline) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		ctx, p.cancel = context.WithCancel(ctx)
		p.Set(p.initial)
		go p.run(ctx)
	})
}

// Results returns the snapshot stream. It is closed when the pipeline stops.
func (p *Pipeline) Results() <-chan domain.Results {
	return p.out
}

// SetText records typed text
func (p *Pipeline) SetText(text string) {
	p.Set(TextValue(text))
}

// SetSelection records a selected record. It never starts a search.
func (p *Pipeline) SetSelection(l domain.Lookup) {
	p.Set(SelectionValue(l))
}

// Set records the latest search box value
func (p *Pipeline) Set(v Value) {
	p.mu.Lock()
	p.pending = v
	p.mu.Unlock()

	select {
	case p.changed <- struct{}{}:
	default:
		// a change is already queued, it will pick up the latest value
	}
}

// NextPage asks for the next page of the current term
func (p *Pipeline) NextPage() {
	select {
	case p.next <- struct{}{}:
	default:
	}
}

// Close stops the pipeline and waits for it to exit. A pipeline that was
// never started cannot be started afterwards.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		started := true
		p.startOnce.Do(func() { started = false })
		if !started {
			close(p.out)
			close(p.done)
			return
		}
		p.cancel()
		<-p.done
	})
}

func (p *Pipeline) latest() Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

func (p *Pipeline) run(ctx context.Context) {
	defer close(p.done)
	defer close(p.out)

	timer := time.NewTimer(p.debounce)
	timer.Stop()
	defer timer.Stop()
	var timerC <-chan time.Time

	var current *session
	defer func() {
		if current != nil {
			current.cancel()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-p.changed:
			timer.Reset(p.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			v := p.latest()
			if !v.IsText() {
				log.WithField("lookup", domain.Display(v.Selected)).Debug("Selection made, not searching")
				continue
			}
			if current != nil {
				current.cancel()
			}
			current = p.startSession(ctx, v.Text)
			p.fetch(current)

		case <-p.next:
			switch {
			case current == nil:
			case current.done:
				log.WithField("term", current.term).Debug("Page request after last page, ignoring")
			case current.inflight:
				log.WithField("term", current.term).Debug("Fetch pending, dropping page request")
			default:
				p.fetch(current)
			}

		case r := <-p.fetched:
			if current == nil || r.sessionID != current.id {
				continue
			}
			if !p.complete(ctx, current, r) {
				return
			}
		}
	}
}

func (p *Pipeline) startSession(ctx context.Context, term string) *session {
	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		id:     uuid.NewString(),
		term:   term,
		ctx:    sctx,
		cancel: cancel,
		page:   1,
	}
	log.WithFields(log.Fields{"session": s.id, "term": term}).Info("Search started")
	p.publish(domain.SearchStartedEvent{SessionID: s.id, Term: term})
	return s
}

// fetch runs one page request for s in the background
func (p *Pipeline) fetch(s *session) {
	s.inflight = true
	go func(id, term string, page int) {
		lookups, err := p.source.Fetch(s.ctx, term, page)
		select {
		case p.fetched <- fetchResult{sessionID: id, page: page, lookups: lookups, err: err}:
		case <-s.ctx.Done():
		}
	}(s.id, s.term, s.page)
}

// complete folds a fetched page into s and emits the snapshot. It returns
// false when the pipeline is shutting down.
func (p *Pipeline) complete(ctx context.Context, s *session, r fetchResult) bool {
	s.inflight = false
	fields := log.Fields{"session": s.id, "term": s.term, "page": r.page}

	if r.err != nil {
		s.done = true
		log.WithFields(fields).WithError(r.err).Error("Fetch failed")
		p.publish(domain.SearchFailedEvent{SessionID: s.id, Term: s.term, Err: r.err})
		return p.emit(ctx, s, r.page, r.err)
	}

	s.page++
	s.lookups = append(s.lookups, r.lookups...)
	if len(r.lookups) == 0 {
		s.done = true
	}

	log.WithFields(fields).WithField("count", len(r.lookups)).Debug("Page loaded")
	p.publish(domain.PageLoadedEvent{
		SessionID: s.id,
		Term:      s.term,
		Page:      r.page,
		Count:     len(r.lookups),
		Total:     len(s.lookups),
	})
	if s.done {
		log.WithFields(fields).WithField("total", len(s.lookups)).Info("No more pages")
		p.publish(domain.SearchExhaustedEvent{SessionID: s.id, Term: s.term, Total: len(s.lookups)})
	}

	return p.emit(ctx, s, r.page, nil)
}

func (p *Pipeline) emit(ctx context.Context, s *session, page int, err error) bool {
	snapshot := domain.Results{
		SessionID: s.id,
		Term:      s.term,
		Lookups:   append([]domain.Lookup(nil), s.lookups...),
		Page:      page,
		Done:      s.done,
		Err:       err,
	}
	select {
	case p.out <- snapshot:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pipeline) publish(e eventbus.DomainEvent) {
	if p.bus != nil {
		p.bus.Publish(e)
	}
}
