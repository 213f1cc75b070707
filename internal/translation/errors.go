package translation

import "errors"

var (
	// ErrAllTranslatorsFailed is returned when no configured translator succeeded.
	ErrAllTranslatorsFailed = errors.New("all translation services unavailable")
	// ErrTranscriptionFailed is returned when AssemblyAI reports a failed transcript.
	ErrTranscriptionFailed = errors.New("transcription failed")
	// ErrTranscriptionTimeout is returned when the transcript is not ready in time.
	ErrTranscriptionTimeout = errors.New("transcription timed out")
	// ErrNotConfigured is returned by clients missing credentials.
	ErrNotConfigured = errors.New("translation: provider not configured")
)
