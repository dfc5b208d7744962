package app

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akashshettty/Sports-Conference/internal/ipc"
)

func testEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
}

func runExecute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecuteHelp(t *testing.T) {
	testEnv(t)
	code, stdout, _ := runExecute(t, "--help")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "Usage:")
	require.Contains(t, stdout, "scorevoice")
}

func TestExecuteVersion(t *testing.T) {
	testEnv(t)
	code, stdout, _ := runExecute(t, "version")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "scorevoice")
}

func TestExecuteUnknownCommand(t *testing.T) {
	testEnv(t)
	code, _, stderr := runExecute(t, "warble")
	require.Equal(t, 2, code)
	require.Contains(t, stderr, "unknown command")
	require.Contains(t, stderr, "Usage:")
}

func TestExecuteInvalidConfig(t *testing.T) {
	testEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("voice:\n  mode: shouting\n"), 0o600))

	code, _, stderr := runExecute(t, "--config", path, "status")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "voice.mode")
}

func TestExecuteStatusWithoutSession(t *testing.T) {
	testEnv(t)
	code, stdout, _ := runExecute(t, "status")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "not running")
}

func TestExecuteStopWithoutSession(t *testing.T) {
	testEnv(t)
	code, _, stderr := runExecute(t, "stop")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "no active voice session")
}

// startFakeOwner serves scripted IPC responses on the runtime socket, as
// if a `scorevoice run` process owned the session.
func startFakeOwner(t *testing.T, handler ipc.Handler) {
	t.Helper()

	socketPath, err := ipc.RuntimeSocketPath()
	require.NoError(t, err)

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- ipc.Serve(ctx, listener, handler)
	}()
	t.Cleanup(func() {
		cancel()
		<-serveDone
	})
}

func TestExecuteForwardsModeToOwner(t *testing.T) {
	testEnv(t)
	startFakeOwner(t, ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
		require.Equal(t, "mode", req.Command)
		require.Equal(t, "wake_word", req.Mode)
		return ipc.Response{OK: true, Mode: "wake_word", Message: "mode set to wake_word"}
	}))

	code, stdout, _ := runExecute(t, "mode", "wake_word")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "mode set to wake_word")
}

func TestExecuteStatusFromOwner(t *testing.T) {
	testEnv(t)
	startFakeOwner(t, ipc.HandlerFunc(func(_ context.Context, _ ipc.Request) ipc.Response {
		return ipc.Response{OK: true, State: "listening", Mode: "continuous", Listening: true}
	}))

	code, stdout, _ := runExecute(t, "status")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "state=listening")
	require.Contains(t, stdout, "mode=continuous")
	require.Contains(t, stdout, "listening=true")
}

func TestExecuteListenPrintsTranscript(t *testing.T) {
	testEnv(t)
	startFakeOwner(t, ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
		require.Equal(t, "listen", req.Command)
		require.Equal(t, 2500, req.TimeoutMS)
		return ipc.Response{OK: true, Transcript: "point team a", Message: "transcript captured"}
	}))

	code, stdout, _ := runExecute(t, "--timeout", "2500", "listen")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "point team a")
}

func TestExecuteForwardsOwnerError(t *testing.T) {
	testEnv(t)
	startFakeOwner(t, ipc.HandlerFunc(func(_ context.Context, _ ipc.Request) ipc.Response {
		return ipc.Response{OK: false, Error: "unknown mode: \"loud\""}
	}))

	code, _, stderr := runExecute(t, "mode", "loud")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "unknown mode")
}
