// Package stt defines the speech-to-text contract used by the command
// pipeline. Implementations live in subpackages: whisper (whisper.cpp, both
// the HTTP server client and the native CGO bindings) and mock (for tests).
package stt

import "context"

// Transcriber converts one complete spoken utterance to text.
//
// The audio argument is raw 16-bit signed little-endian PCM; sample rate and
// channel count are fixed per implementation at construction time. The
// returned text is verbatim engine output — callers are expected to normalise
// it before interpretation.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
