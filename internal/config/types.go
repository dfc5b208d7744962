// Package config resolves, parses, validates, and defaults scorevoice
// configuration.
package config

// Config is the fully materialized runtime configuration used by scorevoice.
type Config struct {
	Engine     EngineConfig     `yaml:"engine"`
	Scoreboard ScoreboardConfig `yaml:"scoreboard"`
	Voice      VoiceConfig      `yaml:"voice"`
	Hub        HubConfig        `yaml:"hub"`
	Trigger    TriggerConfig    `yaml:"trigger"`
	Log        LogConfig        `yaml:"log"`
}

// EngineConfig locates the streaming recognition service.
type EngineConfig struct {
	URL      string `yaml:"url"`
	Language string `yaml:"language"`
}

// ScoreboardConfig locates the scoring backend that consumes transcripts.
type ScoreboardConfig struct {
	BaseURL   string `yaml:"base_url"`
	MatchID   int    `yaml:"match_id"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// VoiceConfig carries the wake word, the initial mode, and session timings.
type VoiceConfig struct {
	WakeWord            string `yaml:"wake_word"`
	Mode                string `yaml:"mode"`
	WakeWindowMS        int    `yaml:"wake_window_ms"`
	DebounceMS          int    `yaml:"debounce_ms"`
	RestartDelayMS      int    `yaml:"restart_delay_ms"`
	ErrorRestartDelayMS int    `yaml:"error_restart_delay_ms"`
	SettleDelayMS       int    `yaml:"settle_delay_ms"`
	ListenTimeoutMS     int    `yaml:"listen_timeout_ms"`
}

// HubConfig controls the local status-broadcast websocket server.
type HubConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr"`
}

// TriggerConfig controls the hardware push-to-talk trigger bridges.
type TriggerConfig struct {
	MediaKeys bool `yaml:"media_keys"`
	MPRIS     bool `yaml:"mpris"`
}

// LogConfig controls logger verbosity.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Warning is a non-fatal load/validation message.
type Warning struct {
	Message string
}
