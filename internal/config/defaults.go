package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			URL:      "ws://127.0.0.1:8765/asr",
			Language: "en-US",
		},
		Scoreboard: ScoreboardConfig{
			BaseURL:   "http://127.0.0.1:5000",
			TimeoutMS: 3000,
		},
		Voice: VoiceConfig{
			WakeWord:            "hey smashbot",
			Mode:                "wake_word",
			WakeWindowMS:        5000,
			DebounceMS:          1200,
			RestartDelayMS:      200,
			ErrorRestartDelayMS: 400,
			SettleDelayMS:       150,
			ListenTimeoutMS:     7000,
		},
		Hub: HubConfig{
			Enable: true,
			Addr:   "127.0.0.1:8777",
		},
		Trigger: TriggerConfig{
			MediaKeys: true,
			MPRIS:     true,
		},
		Log: LogConfig{Level: "info"},
	}
}
