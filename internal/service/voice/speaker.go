package voice

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sandevgo/coeus/pkg/conv"
	"github.com/sandevgo/coeus/pkg/log"
)

const queueSize = 64

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// CommandSpeaker pipes each phrase into an external TTS program's stdin.
type CommandSpeaker struct {
	Command string
	Args    []string
}

func (s CommandSpeaker) Speak(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, s.Command, s.Args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", s.Command, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Voice speaks phrases in order on a background worker so streaming output
// is never blocked by audio playback.
type Voice struct {
	speaker Speaker
	enabled atomic.Bool
	queue   chan string
	done    chan struct{}
	once    sync.Once
}

func New(speaker Speaker, enabled bool) *Voice {
	v := &Voice{
		speaker: speaker,
		queue:   make(chan string, queueSize),
		done:    make(chan struct{}),
	}
	v.enabled.Store(enabled && speaker != nil)
	return v
}

func (v *Voice) Enabled() bool { return v.enabled.Load() }

// SetEnabled reports whether the requested state took effect.
func (v *Voice) SetEnabled(on bool) bool {
	if on && v.speaker == nil {
		return false
	}
	v.enabled.Store(on)
	return true
}

func (v *Voice) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-v.done:
			return nil
		case phrase := <-v.queue:
			if !v.Enabled() {
				continue
			}
			if err := v.speaker.Speak(ctx, phrase); err != nil {
				logger.Warn().Err(err).Msg("tts failed")
			}
		}
	}
}

func (v *Voice) Shutdown(context.Context) error {
	v.once.Do(func() { close(v.done) })
	return nil
}

// enqueue drops markdown before queueing. Full queues drop the phrase.
func (v *Voice) enqueue(phrase string) {
	phrase = conv.PlainText(phrase)
	if phrase == "" {
		return
	}
	select {
	case v.queue <- phrase:
	default:
	}
}

// Turn buffers one response. Both methods are no-ops while voice is off.
type Turn struct {
	voice  *Voice
	buffer *PhraseBuffer
}

func (v *Voice) NewTurn() *Turn {
	return &Turn{voice: v, buffer: NewPhraseBuffer(DefaultMinWords)}
}

func (t *Turn) Write(chunk string) {
	if !t.voice.Enabled() {
		return
	}
	for _, phrase := range t.buffer.Push(chunk) {
		t.voice.enqueue(phrase)
	}
}

// Finish speaks the remainder of the response.
func (t *Turn) Finish() {
	if !t.voice.Enabled() {
		return
	}
	t.voice.enqueue(t.buffer.Flush())
}
