package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	engineURL := strings.TrimSpace(cfg.Engine.URL)
	if engineURL == "" {
		return nil, fmt.Errorf("engine.url must not be empty")
	}
	if u, err := url.Parse(engineURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return nil, fmt.Errorf("engine.url must be a ws:// or wss:// URL")
	}
	if strings.TrimSpace(cfg.Engine.Language) == "" {
		return nil, fmt.Errorf("engine.language must not be empty")
	}

	backendURL := strings.TrimSpace(cfg.Scoreboard.BaseURL)
	if backendURL == "" {
		return nil, fmt.Errorf("scoreboard.base_url must not be empty")
	}
	if u, err := url.Parse(backendURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("scoreboard.base_url must be an http:// or https:// URL")
	}
	if cfg.Scoreboard.TimeoutMS <= 0 {
		return nil, fmt.Errorf("scoreboard.timeout_ms must be > 0")
	}
	if cfg.Scoreboard.MatchID < 0 {
		return nil, fmt.Errorf("scoreboard.match_id must be >= 0")
	}
	if cfg.Scoreboard.MatchID == 0 {
		warnings = append(warnings, Warning{Message: "scoreboard.match_id is not set; transcripts will be posted without a match binding"})
	}

	if strings.TrimSpace(cfg.Voice.WakeWord) == "" {
		return nil, fmt.Errorf("voice.wake_word must not be empty")
	}
	switch strings.TrimSpace(cfg.Voice.Mode) {
	case "off", "continuous", "wake_word", "push_to_talk":
	default:
		return nil, fmt.Errorf("voice.mode must be one of: off, continuous, wake_word, push_to_talk")
	}
	for name, value := range map[string]int{
		"voice.wake_window_ms":         cfg.Voice.WakeWindowMS,
		"voice.debounce_ms":            cfg.Voice.DebounceMS,
		"voice.restart_delay_ms":       cfg.Voice.RestartDelayMS,
		"voice.error_restart_delay_ms": cfg.Voice.ErrorRestartDelayMS,
		"voice.settle_delay_ms":        cfg.Voice.SettleDelayMS,
		"voice.listen_timeout_ms":      cfg.Voice.ListenTimeoutMS,
	} {
		if value <= 0 {
			return nil, fmt.Errorf("%s must be > 0", name)
		}
	}

	if cfg.Hub.Enable && strings.TrimSpace(cfg.Hub.Addr) == "" {
		return nil, fmt.Errorf("hub.addr must not be empty when hub.enable=true")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Log.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	return warnings, nil
}
