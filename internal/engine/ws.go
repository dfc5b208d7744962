package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// WS talks to the recognition service over a websocket stream. The service
// owns audio capture; this side only sends control frames and consumes
// lifecycle/result events.
type WS struct {
	url       string
	logger    *slog.Logger
	dialer    *websocket.Dialer
	available bool
}

// Detect probes the recognition service exactly once and memoizes the
// outcome. An unreachable or unconfigured service yields an engine whose
// operations all degrade to safe no-ops.
func Detect(ctx context.Context, serviceURL string, logger *slog.Logger) *WS {
	e := &WS{
		url:    serviceURL,
		logger: logger,
		dialer: &websocket.Dialer{HandshakeTimeout: 3 * time.Second},
	}
	e.available = e.probe(ctx)
	return e
}

// Available reports the memoized capability probe result.
func (e *WS) Available() bool { return e.available }

// NewRecognizer returns an unstarted recognizer bound to the service.
func (e *WS) NewRecognizer(opts Options, cb Callbacks) (Recognizer, error) {
	if !e.available {
		return nil, ErrUnavailable
	}
	if opts.MaxAlternatives <= 0 {
		opts.MaxAlternatives = 1
	}
	return &wsRecognizer{engine: e, opts: opts, cb: cb}, nil
}

func (e *WS) probe(ctx context.Context) bool {
	parsed, err := url.Parse(e.url)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "ws" && parsed.Scheme != "wss") {
		e.logDebug("engine probe skipped", "url", e.url)
		return false
	}

	conn, _, err := e.dialer.DialContext(ctx, e.url, nil)
	if err != nil {
		e.logDebug("engine probe failed", "url", e.url, "error", err.Error())
		return false
	}
	_ = conn.Close()
	return true
}

func (e *WS) logDebug(msg string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Debug(msg, args...)
}

// controlFrame is the client-to-service message shape.
type controlFrame struct {
	Type            string `json:"type"`
	Continuous      bool   `json:"continuous,omitempty"`
	InterimResults  bool   `json:"interim_results,omitempty"`
	MaxAlternatives int    `json:"max_alternatives,omitempty"`
	Language        string `json:"language,omitempty"`
}

// eventFrame is the service-to-client message shape.
type eventFrame struct {
	Type        string        `json:"type"`
	ResultIndex int           `json:"result_index"`
	Results     []resultFrame `json:"results"`
	Error       string        `json:"error"`
}

type resultFrame struct {
	Transcript string `json:"transcript"`
	Final      bool   `json:"is_final"`
}

// wsRecognizer is one websocket-backed recognition session. Start may be
// called again after the session ends; each start dials a fresh connection.
type wsRecognizer struct {
	engine *WS
	opts   Options
	cb     Callbacks

	mu      sync.Mutex
	conn    *websocket.Conn
	started bool
	aborted bool
}

func (r *wsRecognizer) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.mu.Unlock()

	conn, _, err := r.engine.dialer.DialContext(ctx, r.engine.url, nil)
	if err != nil {
		return fmt.Errorf("dial recognition engine: %w", err)
	}

	start := controlFrame{
		Type:            "start",
		Continuous:      r.opts.Continuous,
		InterimResults:  r.opts.InterimResults,
		MaxAlternatives: r.opts.MaxAlternatives,
		Language:        r.opts.Language,
	}
	data, err := json.Marshal(start)
	if err == nil {
		err = conn.WriteMessage(websocket.TextMessage, data)
	}
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("send start frame: %w", err)
	}

	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		_ = conn.Close()
		return ErrAlreadyStarted
	}
	r.conn = conn
	r.started = true
	r.aborted = false
	r.mu.Unlock()

	go r.readLoop(conn)
	return nil
}

// Stop requests a graceful session end. The service answers with an ended
// event; if even the stop frame cannot be written the connection is torn
// down and readLoop synthesizes the ended callback.
func (r *wsRecognizer) Stop() error {
	r.mu.Lock()
	conn := r.conn
	started := r.started
	r.mu.Unlock()

	if !started || conn == nil {
		return nil
	}

	data, err := json.Marshal(controlFrame{Type: "stop"})
	if err == nil {
		err = conn.WriteMessage(websocket.TextMessage, data)
	}
	if err != nil {
		_ = conn.Close()
	}
	return nil
}

// Abort tears the session down immediately and suppresses callbacks.
func (r *wsRecognizer) Abort() error {
	r.mu.Lock()
	conn := r.conn
	r.aborted = true
	r.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (r *wsRecognizer) readLoop(conn *websocket.Conn) {
	terminal := false
	defer func() {
		_ = conn.Close()

		r.mu.Lock()
		r.started = false
		aborted := r.aborted
		if r.conn == conn {
			r.conn = nil
		}
		r.mu.Unlock()

		// A connection that vanished without a terminal frame still ends
		// the session from the caller's point of view.
		if !terminal && !aborted && r.cb.Ended != nil {
			r.cb.Ended()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			r.mu.Lock()
			aborted := r.aborted
			r.mu.Unlock()
			if aborted {
				return
			}
			terminal = true
			if r.cb.Errored != nil {
				r.cb.Errored(err)
			}
			return
		}

		var frame eventFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			r.engine.logDebug("discarding malformed engine frame", "error", err.Error())
			continue
		}

		switch frame.Type {
		case "started":
			if r.cb.Started != nil {
				r.cb.Started()
			}
		case "result":
			batch := Batch{Index: frame.ResultIndex}
			for _, res := range frame.Results {
				batch.Results = append(batch.Results, Result{Transcript: res.Transcript, Final: res.Final})
			}
			if len(batch.Results) > 0 && r.cb.Result != nil {
				r.cb.Result(batch)
			}
		case "ended":
			terminal = true
			if r.cb.Ended != nil {
				r.cb.Ended()
			}
			return
		case "error":
			terminal = true
			if r.cb.Errored != nil {
				r.cb.Errored(fmt.Errorf("engine error: %s", frame.Error))
			}
			return
		default:
			r.engine.logDebug("ignoring unknown engine frame", "type", frame.Type)
		}
	}
}
