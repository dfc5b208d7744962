// Package ipc provides the unix-socket control surface for the voice
// session owner process.
package ipc

type Request struct {
	Command   string `json:"command"`
	Mode      string `json:"mode,omitempty"`
	TimeoutMS int    `json:"timeout_ms,omitempty"`
}

type Response struct {
	OK             bool   `json:"ok"`
	State          string `json:"state,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Listening      bool   `json:"listening"`
	WakeWordActive bool   `json:"wake_word_active"`
	Transcript     string `json:"transcript,omitempty"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
}
