// Package doctor runs runtime readiness diagnostics for config, the
// recognition engine, the scoring backend, and the trigger environment.
package doctor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akashshettty/Sports-Conference/internal/config"
	"github.com/akashshettty/Sports-Conference/internal/engine"
	"github.com/akashshettty/Sports-Conference/internal/scoreboard"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})
	for _, warning := range cfg.Warnings {
		checks = append(checks, Check{Name: "config", Pass: true, Message: warning.Message})
	}

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir available for the control socket", "XDG_RUNTIME_DIR is empty"))

	checks = append(checks, checkEngine(ctx, cfg.Config))
	checks = append(checks, checkScoreboard(ctx, cfg.Config))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkEngine probes the streaming recognition service.
func checkEngine(ctx context.Context, cfg config.Config) Check {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	eng := engine.Detect(probeCtx, cfg.Engine.URL, nil)
	if !eng.Available() {
		return Check{Name: "engine", Pass: false, Message: fmt.Sprintf("recognition service unreachable at %s", cfg.Engine.URL)}
	}
	return Check{Name: "engine", Pass: true, Message: fmt.Sprintf("recognition service ready at %s", cfg.Engine.URL)}
}

// checkScoreboard probes the scoring backend health endpoint.
func checkScoreboard(ctx context.Context, cfg config.Config) Check {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	client := scoreboard.New(cfg.Scoreboard.BaseURL, cfg.Scoreboard.MatchID,
		time.Duration(cfg.Scoreboard.TimeoutMS)*time.Millisecond, nil)
	if err := client.Healthy(probeCtx); err != nil {
		return Check{Name: "scoreboard", Pass: false, Message: err.Error()}
	}
	return Check{Name: "scoreboard", Pass: true, Message: fmt.Sprintf("backend healthy at %s", cfg.Scoreboard.BaseURL)}
}
