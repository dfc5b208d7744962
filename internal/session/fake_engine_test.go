package session

import (
	"context"
	"sync"

	"github.com/akashshettty/Sports-Conference/internal/engine"
)

// fakeRecognizer is a scriptable engine session used by the session tests.
type fakeRecognizer struct {
	mu         sync.Mutex
	cb         engine.Callbacks
	opts       engine.Options
	startCalls int
	stopCalls  int
	abortCalls int
	startErr   error
}

func (r *fakeRecognizer) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startCalls++
	return r.startErr
}

func (r *fakeRecognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopCalls++
	return nil
}

func (r *fakeRecognizer) Abort() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.abortCalls++
	return nil
}

func (r *fakeRecognizer) starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startCalls
}

func (r *fakeRecognizer) stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopCalls
}

func (r *fakeRecognizer) aborts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.abortCalls
}

// The callback helpers guard against unset callbacks the same way the
// websocket transport does; one-shot sessions register only a subset.
func (r *fakeRecognizer) started() {
	if r.cb.Started != nil {
		r.cb.Started()
	}
}

func (r *fakeRecognizer) ended() {
	if r.cb.Ended != nil {
		r.cb.Ended()
	}
}

func (r *fakeRecognizer) errored(err error) {
	if r.cb.Errored != nil {
		r.cb.Errored(err)
	}
}

func (r *fakeRecognizer) result(results ...engine.Result) {
	if r.cb.Result != nil {
		r.cb.Result(engine.Batch{Results: results})
	}
}

func interim(text string) engine.Result {
	return engine.Result{Transcript: text}
}

func final(text string) engine.Result {
	return engine.Result{Transcript: text, Final: true}
}

// fakeEngine hands out scriptable recognizers in creation order.
type fakeEngine struct {
	mu          sync.Mutex
	unavailable bool
	recs        []*fakeRecognizer
}

func (e *fakeEngine) Available() bool { return !e.unavailable }

func (e *fakeEngine) NewRecognizer(opts engine.Options, cb engine.Callbacks) (engine.Recognizer, error) {
	if e.unavailable {
		return nil, engine.ErrUnavailable
	}
	rec := &fakeRecognizer{cb: cb, opts: opts}
	e.mu.Lock()
	e.recs = append(e.recs, rec)
	e.mu.Unlock()
	return rec, nil
}

func (e *fakeEngine) rec(i int) *fakeRecognizer {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i >= len(e.recs) {
		return nil
	}
	return e.recs[i]
}

func (e *fakeEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.recs)
}

// capturedTranscripts records emissions and exposes them over a channel.
type capturedTranscripts struct {
	mu  sync.Mutex
	all []string
	ch  chan string
}

func newCapturedTranscripts() *capturedTranscripts {
	return &capturedTranscripts{ch: make(chan string, 16)}
}

func (s *capturedTranscripts) Emit(_ context.Context, text string) {
	s.mu.Lock()
	s.all = append(s.all, text)
	s.mu.Unlock()
	select {
	case s.ch <- text:
	default:
	}
}

func (s *capturedTranscripts) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.all)
}

// statusLog records every status notification in order.
type statusLog struct {
	mu      sync.Mutex
	entries []Status
}

func (s *statusLog) Notify(status Status) {
	s.mu.Lock()
	s.entries = append(s.entries, status)
	s.mu.Unlock()
}

func (s *statusLog) last() (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return Status{}, false
	}
	return s.entries[len(s.entries)-1], true
}
