// Package speech orchestrates the speech pipeline around external
// engines: transcription through a whisper-style CLI and speaking
// through the synthesis daemon with a direct-engine fallback.
package speech

import "errors"

// ErrNoEngine is returned when neither the daemon nor a direct engine
// is available for a request.
var ErrNoEngine = errors.New("no speech engine available")
