package client

// HealthStatus is the daemon's answer to GET /health. Probing health
// does not reset the daemon's idle timer.
type HealthStatus struct {
	Status             string  `json:"status"`
	EngineReady        bool    `json:"engine_ready"`
	IdleSeconds        float64 `json:"idle_seconds"`
	IdleTimeoutMinutes int     `json:"idle_timeout_minutes"`
}

// SynthesizeRequest asks the daemon to render text to WAV audio.
// Lang is optional; when empty the daemon derives it from the voice.
type SynthesizeRequest struct {
	Text  string  `json:"text"`
	Lang  string  `json:"lang,omitempty"`
	Voice string  `json:"voice,omitempty"`
	Speed float64 `json:"speed,omitempty"`
}

// ShutdownResponse acknowledges POST /shutdown.
type ShutdownResponse struct {
	Status string `json:"status"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}
