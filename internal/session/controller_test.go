package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akashshettty/Sports-Conference/internal/engine"
	"github.com/akashshettty/Sports-Conference/internal/fsm"
)

func newTestController(mutate func(*Config)) (*Controller, *fakeEngine, *capturedTranscripts, *statusLog) {
	cfg := DefaultConfig()
	cfg.WakeWindow = 60 * time.Millisecond
	cfg.RestartDelay = 20 * time.Millisecond
	cfg.ErrorRestartDelay = 30 * time.Millisecond
	cfg.SettleDelay = 5 * time.Millisecond
	cfg.ListenTimeout = 200 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}

	eng := &fakeEngine{}
	transcripts := newCapturedTranscripts()
	statuses := &statusLog{}
	ctrl := NewController(nil, eng, statuses, transcripts, cfg)
	return ctrl, eng, transcripts, statuses
}

func startListening(t *testing.T, ctrl *Controller, eng *fakeEngine, mode Mode) *fakeRecognizer {
	t.Helper()
	require.NoError(t, ctrl.Start(context.Background(), mode))
	rec := eng.rec(0)
	require.NotNil(t, rec)
	require.Equal(t, 1, rec.starts())
	rec.started()
	return rec
}

func waitTranscript(t *testing.T, transcripts *capturedTranscripts) string {
	t.Helper()
	select {
	case text := <-transcripts.ch:
		return text
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transcript emission")
		return ""
	}
}

func requireNoEmission(t *testing.T, transcripts *capturedTranscripts, within time.Duration) {
	t.Helper()
	select {
	case text := <-transcripts.ch:
		t.Fatalf("unexpected transcript emission %q", text)
	case <-time.After(within):
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		raw     string
		want    Mode
		wantErr bool
	}{
		{raw: "off", want: ModeOff},
		{raw: "continuous", want: ModeContinuous},
		{raw: "wake_word", want: ModeWakeWord},
		{raw: "push_to_talk", want: ModePushToTalk},
		{raw: " continuous ", want: ModeContinuous},
		{raw: "dictation", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tc := range tests {
		mode, err := ParseMode(tc.raw)
		if tc.wantErr {
			require.ErrorIs(t, err, ErrUnknownMode)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.want, mode)
	}
}

func TestStartUnavailableEngine(t *testing.T) {
	ctrl, eng, _, _ := newTestController(nil)
	eng.unavailable = true

	require.False(t, ctrl.Available())
	require.ErrorIs(t, ctrl.Start(context.Background(), ModeContinuous), engine.ErrUnavailable)

	_, err := ctrl.ListenOnce(context.Background(), 50*time.Millisecond)
	require.ErrorIs(t, err, engine.ErrUnavailable)

	_, err = ctrl.ListenOnceSmart(context.Background(), 50*time.Millisecond)
	require.ErrorIs(t, err, engine.ErrUnavailable)
}

func TestStartIsLazyAndIdempotent(t *testing.T) {
	ctrl, eng, _, _ := newTestController(nil)
	require.Equal(t, 0, eng.count())

	rec := startListening(t, ctrl, eng, ModeContinuous)
	require.True(t, rec.opts.Continuous)
	require.True(t, rec.opts.InterimResults)
	require.Equal(t, 1, rec.opts.MaxAlternatives)

	// Starting again while listening reuses the running session.
	require.NoError(t, ctrl.Start(context.Background(), ModeContinuous))
	require.Equal(t, 1, eng.count())
	require.Equal(t, 1, rec.starts())
}

func TestStatusNotifications(t *testing.T) {
	ctrl, eng, _, statuses := newTestController(nil)
	rec := startListening(t, ctrl, eng, ModeContinuous)

	last, ok := statuses.last()
	require.True(t, ok)
	require.True(t, last.Listening)
	require.Equal(t, ModeContinuous, last.Mode)
	require.False(t, last.WakeWordActive)
	require.Equal(t, fsm.StateListening, ctrl.State())

	rec.result(interim("hey smashbot"))
	last, _ = statuses.last()
	require.True(t, last.WakeWordActive)
	require.Equal(t, fsm.StateWakeWordOpen, ctrl.State())
}

func TestAutoRestartAfterNaturalEnd(t *testing.T) {
	ctrl, eng, _, _ := newTestController(nil)
	rec := startListening(t, ctrl, eng, ModeContinuous)

	rec.ended()
	require.Eventually(t, func() bool { return rec.starts() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 1, ctrl.Restarts(RestartAfterEnd))
	require.Equal(t, 1, eng.count())
}

func TestAutoRestartAfterEngineError(t *testing.T) {
	ctrl, eng, _, _ := newTestController(nil)
	rec := startListening(t, ctrl, eng, ModeContinuous)

	rec.errored(errors.New("no-speech"))
	require.Eventually(t, func() bool { return rec.starts() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 1, rec.aborts())
	require.Equal(t, 1, ctrl.Restarts(RestartAfterError))
}

func TestStopSuppressesAutoRestart(t *testing.T) {
	ctrl, eng, _, _ := newTestController(nil)
	rec := startListening(t, ctrl, eng, ModeContinuous)

	require.NoError(t, ctrl.Stop())
	require.Equal(t, 1, rec.stops())

	// The engine's natural end-of-session callback lands right after the
	// explicit stop; no restart may follow.
	rec.ended()
	time.Sleep(120 * time.Millisecond)
	require.Equal(t, 1, rec.starts())
	require.Equal(t, 0, ctrl.Restarts(RestartAfterEnd))
}

func TestErrorAfterStopDoesNotRestart(t *testing.T) {
	ctrl, eng, _, _ := newTestController(nil)
	rec := startListening(t, ctrl, eng, ModeContinuous)

	require.NoError(t, ctrl.Stop())
	rec.errored(errors.New("audio-capture"))
	time.Sleep(120 * time.Millisecond)
	require.Equal(t, 1, rec.starts())
	require.Equal(t, 0, ctrl.Restarts(RestartAfterError))
}

func TestSetModeOffStopsProcessing(t *testing.T) {
	ctrl, eng, transcripts, _ := newTestController(nil)
	rec := startListening(t, ctrl, eng, ModeContinuous)

	// Wake word already active when the mode switches away.
	rec.result(interim("hey smashbot"))
	require.True(t, ctrl.WakeWordActive())

	require.NoError(t, ctrl.SetMode(ModeOff))
	require.False(t, ctrl.WakeWordActive())
	require.Equal(t, 1, rec.stops())

	// A result batch that was in flight for the previous mode's logic
	// must not emit once the mode has changed.
	rec.result(final("point team a"))
	requireNoEmission(t, transcripts, 100*time.Millisecond)
}

func TestSetModeSwitchesBranchLogicWithoutRestart(t *testing.T) {
	ctrl, eng, transcripts, _ := newTestController(nil)
	rec := startListening(t, ctrl, eng, ModeContinuous)

	require.NoError(t, ctrl.SetMode(ModeWakeWord))
	require.Equal(t, ModeWakeWord, ctrl.Mode())
	require.Equal(t, 1, rec.starts())
	require.Equal(t, 0, rec.stops())

	rec.result(final("hey smashbot, two points"))
	require.Equal(t, "two points", waitTranscript(t, transcripts))
}

func TestSetModePushToTalkStopsContinuousSession(t *testing.T) {
	ctrl, eng, _, _ := newTestController(nil)
	rec := startListening(t, ctrl, eng, ModeContinuous)

	require.NoError(t, ctrl.SetMode(ModePushToTalk))
	require.Equal(t, 1, rec.stops())

	rec.ended()
	time.Sleep(120 * time.Millisecond)
	require.Equal(t, 1, rec.starts())
}

func TestEnableStartsContinuousMode(t *testing.T) {
	ctrl, eng, _, _ := newTestController(nil)
	require.NoError(t, ctrl.Enable(context.Background()))
	require.Equal(t, ModeContinuous, ctrl.Mode())
	require.Equal(t, 1, eng.rec(0).starts())
}

func TestStartOffModeStops(t *testing.T) {
	ctrl, eng, _, _ := newTestController(nil)
	rec := startListening(t, ctrl, eng, ModeContinuous)

	require.NoError(t, ctrl.Start(context.Background(), ModeOff))
	require.Equal(t, 1, rec.stops())
	rec.ended()
	time.Sleep(80 * time.Millisecond)
	require.Equal(t, 1, rec.starts())
}

func TestStartRejectsUnknownMode(t *testing.T) {
	ctrl, _, _, _ := newTestController(nil)
	require.ErrorIs(t, ctrl.Start(context.Background(), Mode("dictation")), ErrUnknownMode)
	require.ErrorIs(t, ctrl.SetMode(Mode("gesture")), ErrUnknownMode)
}
