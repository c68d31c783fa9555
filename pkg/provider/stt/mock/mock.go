// Package mock provides a canned stt.Transcriber for tests.
package mock

import (
	"context"
	"sync"

	"github.com/K-ALOHA/voxregister/pkg/provider/stt"
)

// Compile-time assertion that Transcriber implements stt.Transcriber.
var _ stt.Transcriber = (*Transcriber)(nil)

// Transcriber returns a fixed text (or error) from every Transcribe call and
// records the audio it received. Safe for concurrent use.
type Transcriber struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls [][]byte
}

// Transcribe returns the canned result after recording the call.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.Lock()
	t.calls = append(t.calls, audio)
	t.mu.Unlock()

	if t.Err != nil {
		return "", t.Err
	}
	return t.Text, nil
}

// Calls returns the audio payloads received so far, in order.
func (t *Transcriber) Calls() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]byte(nil), t.calls...)
}
