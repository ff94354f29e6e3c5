package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/snipdev/snip-widget/api"
)

// FallbackReply is shown in place of an assistant response when the chat
// request fails. The failure is terminal for that turn; the visitor resends
// manually.
const FallbackReply = "I'm sorry, I'm having trouble connecting right now. Please try again."

// Sentinel errors returned by SendMessage
var (
	ErrEmptyMessage = errors.New("widget: empty message")
	ErrBusy         = errors.New("widget: a response is already pending")
	ErrClosed       = errors.New("widget: session is shut down")
)

// ChatTransport sends one chat turn to the backend
type ChatTransport interface {
	Chat(ctx context.Context, clientID, message string) (*api.ChatResponse, error)
}

// ConfigSource fetches the widget configuration for an embed
type ConfigSource interface {
	WidgetConfig(ctx context.Context, clientID string) (*api.WidgetConfig, error)
}

// Phase is the session's request state
type Phase int

// Phases
const (
	PhaseIdle Phase = iota
	PhaseAwaiting
)

// Options configures a Session. ClientID, Config, and Transport are
// required; Player and Synth are optional (a session without either is
// text-only).
type Options struct {
	ClientID  string
	Config    ConfigSource
	Transport ChatTransport
	Player    ResourcePlayer
	Synth     Synthesizer

	// AudioEnabled controls whether assistant replies are voiced at all.
	AudioEnabled bool

	// ChunkLimit overrides DefaultChunkLimit for synthesized speech.
	ChunkLimit int

	Logger zerolog.Logger
}

// Session is the widget's conversational controller: it owns panel
// visibility, the append-only transcript, outbound message dispatch, and the
// response-audio pipeline. One Session exists per embed per page load; no
// state survives Shutdown.
type Session struct {
	clientID  string
	transport ChatTransport
	cfg       *api.WidgetConfig
	audio     *pipeline
	log       zerolog.Logger

	mu         sync.Mutex
	open       bool
	phase      Phase
	messages   []Message
	lastSpoken int
	enabled    bool
	closed     bool

	playCtx    context.Context
	playCancel context.CancelFunc
	notify     chan struct{}
	done       chan struct{}
	wg         sync.WaitGroup
}

// Bootstrap fetches the embed's configuration and builds a running Session.
// On config failure it returns an error and nothing else happens: the
// embedder logs it and renders nothing, so a broken widget never breaks the
// host page. On success the transcript is seeded with the welcome message
// (rendered, never spoken) and the panel honors the autoOpen flag.
func Bootstrap(ctx context.Context, opts Options) (*Session, error) {
	if opts.ClientID == "" {
		return nil, errors.New("widget: client id is required")
	}
	if opts.Config == nil || opts.Transport == nil {
		return nil, errors.New("widget: config source and transport are required")
	}

	cfg, err := opts.Config.WidgetConfig(ctx, opts.ClientID)
	if err != nil {
		return nil, fmt.Errorf("widget: fetch config: %w", err)
	}

	playCtx, playCancel := context.WithCancel(context.Background())
	s := &Session{
		clientID:   opts.ClientID,
		transport:  opts.Transport,
		cfg:        cfg,
		audio:      newPipeline(opts.Player, opts.Synth, opts.ChunkLimit, opts.Logger),
		log:        opts.Logger,
		open:       cfg.AutoOpen,
		enabled:    opts.AudioEnabled,
		playCtx:    playCtx,
		playCancel: playCancel,
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	s.messages = []Message{{
		Role:      RoleAssistant,
		Content:   cfg.WelcomeMessage,
		Timestamp: time.Now(),
	}}
	// The welcome message is a static render, not a dispatched response.
	s.lastSpoken = 0

	s.wg.Add(1)
	go s.watch()

	return s, nil
}

// Config returns the immutable configuration snapshot fetched at bootstrap
func (s *Session) Config() *api.WidgetConfig {
	return s.cfg
}

// Toggle flips panel visibility
func (s *Session) Toggle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = !s.open
}

// Open shows the chat panel
func (s *Session) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
}

// Close hides the chat panel. It does not touch the transcript or any
// in-flight audio.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
}

// IsOpen reports panel visibility
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// IsLoading reports whether a chat round trip is in flight
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseAwaiting
}

// Messages returns a snapshot of the transcript in append order
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LastSpokenIndex is the highest transcript index whose audio has been
// triggered. It never decreases.
func (s *Session) LastSpokenIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSpoken
}

// AudioPhase reports the audio pipeline's current state
func (s *Session) AudioPhase() AudioPhase {
	return s.audio.currentPhase()
}

// IsPlayingAudio reports whether any audio output is active
func (s *Session) IsPlayingAudio() bool {
	return s.audio.currentPhase() != AudioIdle
}

// SetAudioEnabled toggles voiced replies. Disabling stops whatever is
// currently playing.
func (s *Session) SetAudioEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
	if !enabled {
		s.audio.stop()
	}
}

// SendMessage dispatches one chat turn. The user message is appended
// immediately; exactly one transport request is issued, with no retries and
// no queueing. On success the assistant reply (and its audio reference) is
// appended and the watcher is signalled to voice it; on transport failure a
// fixed fallback reply is appended instead and nil is returned, since
// connectivity problems are presented in the transcript, never surfaced as
// errors. The fallback is never voiced. ErrEmptyMessage, ErrBusy, and
// ErrClosed are the only error returns, and with any of them the session is
// left untouched.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.phase == PhaseAwaiting {
		s.mu.Unlock()
		return ErrBusy
	}
	s.phase = PhaseAwaiting
	s.messages = append(s.messages, Message{
		Role:      RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	s.mu.Unlock()

	resp, err := s.transport.Chat(ctx, s.clientID, text)

	s.mu.Lock()
	if err != nil {
		// The fallback is a rendered apology, not a response: it is never
		// handed to the watcher, so it is never voiced.
		s.log.Warn().Err(err).Msg("chat request failed")
		s.messages = append(s.messages, Message{
			Role:      RoleAssistant,
			Content:   FallbackReply,
			Timestamp: time.Now(),
			synthetic: true,
		})
		s.phase = PhaseIdle
		s.mu.Unlock()
		return nil
	}

	s.messages = append(s.messages, Message{
		Role:      RoleAssistant,
		Content:   resp.Response,
		Timestamp: time.Now(),
		AudioURL:  resp.AudioURL,
	})
	s.phase = PhaseIdle
	s.mu.Unlock()

	s.signal()
	return nil
}

// Shutdown stops the watcher and any active audio. The transcript is
// discarded with the Session; there is no persistence.
func (s *Session) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.playCancel()
	s.audio.stop()
	close(s.done)
	s.wg.Wait()
}

// signal wakes the watcher. The channel is buffered with one slot so
// back-to-back completions coalesce instead of queueing.
func (s *Session) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// watch voices newly appended assistant messages. It is the only goroutine
// that starts playback, and it plays synchronously, so at most one output is
// ever active and a new message arriving mid-playback simply waits for the
// next loop iteration.
func (s *Session) watch() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.notify:
		}
		s.playLatest()
	}
}

// playLatest voices the newest unspoken assistant message, if any. When
// several have accumulated, lastSpoken jumps straight to the newest and the
// older ones are skipped for good.
func (s *Session) playLatest() {
	s.mu.Lock()
	idx := -1
	for i := len(s.messages) - 1; i > s.lastSpoken; i-- {
		if s.messages[i].Role == RoleAssistant && !s.messages[i].synthetic {
			idx = i
			break
		}
	}
	if idx < 0 || !s.enabled {
		s.mu.Unlock()
		return
	}
	s.lastSpoken = idx
	msg := s.messages[idx]
	s.mu.Unlock()

	s.audio.play(s.playCtx, msg)
}
