package widget

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// AudioPhase is the audio pipeline's state
type AudioPhase int

// AudioPhases
const (
	AudioIdle AudioPhase = iota
	AudioResource
	AudioSynthesis
)

// ResourcePlayer plays a pre-rendered audio resource by URL. Play blocks
// until playback finishes; any failure to start or complete is an error.
// Stop cancels an active Play and must be safe to call at any time.
type ResourcePlayer interface {
	Play(ctx context.Context, url string) error
	Stop()
}

// Synthesizer speaks one chunk of text through a local speech engine. Speak
// blocks until the chunk has been spoken. Available reports whether the
// engine can be used at all; an unavailable engine is a silent no-op, never
// an error surfaced to the visitor.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
	Stop()
	Available() bool
}

// pipeline owns the single active audio output. The session's watcher
// goroutine is the only caller of play, so playback is naturally serialized;
// stop may be called from any goroutine.
type pipeline struct {
	player ResourcePlayer
	synth  Synthesizer
	limit  int
	log    zerolog.Logger

	mu     sync.Mutex
	phase  AudioPhase
	cancel context.CancelFunc
}

func newPipeline(player ResourcePlayer, synth Synthesizer, limit int, log zerolog.Logger) *pipeline {
	if limit <= 0 {
		limit = DefaultChunkLimit
	}
	return &pipeline{player: player, synth: synth, limit: limit, log: log}
}

// play voices a single assistant message: the pre-rendered resource when one
// is attached, falling back to local synthesis on any resource failure, or
// synthesis directly when no resource was provided. Any prior output is
// stopped first. A partially played resource that errors is abandoned and the
// full text is re-spoken through the fallback voice.
func (p *pipeline) play(ctx context.Context, msg Message) {
	p.stop()

	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		p.cancel = nil
		p.phase = AudioIdle
		p.mu.Unlock()
	}()

	if msg.AudioURL != "" && p.player != nil {
		p.setPhase(AudioResource)
		err := p.player.Play(ctx, msg.AudioURL)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		p.log.Debug().Err(err).Msg("resource playback failed, falling back to synthesis")
	}

	p.speak(ctx, msg.Content)
}

// speak voices text chunk by chunk, strictly in order, each chunk starting
// only after the previous one finished. Engine unavailability and synthesis
// errors are silent no-ops.
func (p *pipeline) speak(ctx context.Context, text string) {
	if p.synth == nil || !p.synth.Available() {
		return
	}
	p.setPhase(AudioSynthesis)
	for _, chunk := range splitChunks(text, p.limit) {
		if ctx.Err() != nil {
			return
		}
		if err := p.synth.Speak(ctx, chunk); err != nil {
			p.log.Debug().Err(err).Msg("speech synthesis failed")
			return
		}
	}
}

// stop halts whatever is playing. Calling it with nothing active is a no-op.
func (p *pipeline) stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if p.player != nil {
		p.player.Stop()
	}
	if p.synth != nil {
		p.synth.Stop()
	}
}

func (p *pipeline) setPhase(phase AudioPhase) {
	p.mu.Lock()
	p.phase = phase
	p.mu.Unlock()
}

func (p *pipeline) currentPhase() AudioPhase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}
