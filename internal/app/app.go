// Package app wires configuration, logging, the recognition session, and
// the IPC surface into the scorevoice process entrypoints.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/akashshettty/Sports-Conference/internal/cli"
	"github.com/akashshettty/Sports-Conference/internal/config"
	"github.com/akashshettty/Sports-Conference/internal/doctor"
	"github.com/akashshettty/Sports-Conference/internal/engine"
	"github.com/akashshettty/Sports-Conference/internal/hub"
	"github.com/akashshettty/Sports-Conference/internal/ipc"
	"github.com/akashshettty/Sports-Conference/internal/logging"
	"github.com/akashshettty/Sports-Conference/internal/scoreboard"
	"github.com/akashshettty/Sports-Conference/internal/session"
	"github.com/akashshettty/Sports-Conference/internal/trigger"
	"github.com/akashshettty/Sports-Conference/internal/version"
)

const (
	acquireProbeTimeout = 180 * time.Millisecond
	acquireRetries      = 8
	forwardTimeout      = 10 * time.Second
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("scorevoice"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("scorevoice"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
	}

	logRuntime, err := logging.New(cfgLoaded.Config.Log.Level)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandRun:
		return r.commandRun(ctx, parsed, cfgLoaded.Config, logger)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandEnable:
		return r.forwardOrFail(ctx, ipc.Request{Command: "enable"})
	case cli.CommandStart:
		return r.forwardOrFail(ctx, ipc.Request{Command: "start", Mode: parsed.Mode})
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.Request{Command: "stop"})
	case cli.CommandMode:
		return r.forwardOrFail(ctx, ipc.Request{Command: "mode", Mode: parsed.Mode})
	case cli.CommandListen:
		return r.commandListen(ctx, parsed)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// commandRun owns the session: control socket, recognition engine,
// broadcast hub, scoring backend delivery, and hardware triggers. It
// blocks until the context is cancelled.
func (r Runner) commandRun(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, acquireProbeTimeout, acquireRetries, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a voice session owner is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	eng := engine.Detect(ctx, cfg.Engine.URL, logger)
	if !eng.Available() {
		// Voice stays a no-op until the service comes back and the
		// process is restarted; the scoring app works without it.
		fmt.Fprintf(r.Stderr, "warning: recognition service unreachable at %s; voice input disabled\n", cfg.Engine.URL)
		logger.Warn("recognition service unavailable", "url", cfg.Engine.URL)
	}

	broadcast := hub.New(logger)
	defer broadcast.Close()
	var hubServer *http.Server
	if cfg.Hub.Enable {
		mux := http.NewServeMux()
		mux.Handle("/ws", broadcast)
		hubServer = &http.Server{Addr: cfg.Hub.Addr, Handler: mux}
		go func() {
			if serveErr := hubServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Warn("hub server stopped", "error", serveErr.Error())
			}
		}()
		logger.Info("hub server listening", "addr", cfg.Hub.Addr)
	}

	board := scoreboard.New(
		cfg.Scoreboard.BaseURL,
		cfg.Scoreboard.MatchID,
		time.Duration(cfg.Scoreboard.TimeoutMS)*time.Millisecond,
		logger,
	)

	controller := session.NewController(
		logger,
		eng,
		session.StatusFunc(func(s session.Status) {
			broadcast.NotifyStatus(string(s.Mode), s.Listening, s.WakeWordActive)
		}),
		session.TranscriptFunc(func(emitCtx context.Context, transcript string) {
			board.Emit(emitCtx, transcript)
			broadcast.NotifyTranscript(transcript)
		}),
		sessionConfig(cfg),
	)

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	triggers := trigger.New(logger, trigger.Options{
		MediaKeys: cfg.Trigger.MediaKeys,
		MPRIS:     cfg.Trigger.MPRIS,
	}, func() {
		if _, listenErr := controller.ListenOnceSmart(context.Background(), 0); listenErr != nil &&
			!errors.Is(listenErr, session.ErrNoSpeech) {
			logger.Warn("hardware-triggered listen failed", "error", listenErr.Error())
		}
	})
	triggers.Start(ctx)
	defer triggers.Stop()

	initialMode := cfg.Voice.Mode
	if parsed.Mode != "" {
		initialMode = parsed.Mode
	}
	if mode, parseErr := session.ParseMode(initialMode); parseErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", parseErr)
		return 1
	} else if mode != session.ModeOff && eng.Available() {
		if startErr := controller.Start(ctx, mode); startErr != nil {
			logger.Warn("initial mode start failed", "mode", string(mode), "error", startErr.Error())
		}
	}

	fmt.Fprintf(r.Stdout, "voice session running (socket %s)\n", socketPath)
	<-ctx.Done()

	_ = controller.Stop()
	if hubServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = hubServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logger.Info("voice session stopped")
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "not running")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: "status"})
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintf(r.Stdout, "state=%s mode=%s listening=%t wake_word_active=%t\n",
			resp.State, resp.Mode, resp.Listening, resp.WakeWordActive)
		return 0
	}

	fmt.Fprintln(r.Stdout, "not running")
	return 0
}

func (r Runner) commandListen(ctx context.Context, parsed cli.Parsed) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: "listen", TimeoutMS: parsed.TimeoutMS})
	if !handled {
		fmt.Fprintln(r.Stderr, "error: no active voice session; start one with: scorevoice run")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Transcript != "" {
		fmt.Fprintln(r.Stdout, resp.Transcript)
		return 0
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, req)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: no active voice session; start one with: scorevoice run")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// sessionConfig maps the YAML voice block onto session timings.
func sessionConfig(cfg config.Config) session.Config {
	return session.Config{
		WakeWord:          cfg.Voice.WakeWord,
		Language:          cfg.Engine.Language,
		WakeWindow:        time.Duration(cfg.Voice.WakeWindowMS) * time.Millisecond,
		Debounce:          time.Duration(cfg.Voice.DebounceMS) * time.Millisecond,
		RestartDelay:      time.Duration(cfg.Voice.RestartDelayMS) * time.Millisecond,
		ErrorRestartDelay: time.Duration(cfg.Voice.ErrorRestartDelayMS) * time.Millisecond,
		SettleDelay:       time.Duration(cfg.Voice.SettleDelayMS) * time.Millisecond,
		ListenTimeout:     time.Duration(cfg.Voice.ListenTimeoutMS) * time.Millisecond,
	}
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, forwardTimeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
