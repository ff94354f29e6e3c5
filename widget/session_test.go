package widget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snipdev/snip-widget/api"
)

type stubConfig struct {
	cfg *api.WidgetConfig
	err error
}

func (s *stubConfig) WidgetConfig(_ context.Context, _ string) (*api.WidgetConfig, error) {
	return s.cfg, s.err
}

type stubTransport struct {
	mu    sync.Mutex
	calls int
	resp  *api.ChatResponse
	err   error
	block chan struct{} // when non-nil, Chat waits until closed
}

func (s *stubTransport) Chat(_ context.Context, _, _ string) (*api.ChatResponse, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	s.mu.Unlock()

	if block != nil {
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resp, s.err
}

func (s *stubTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingPlayer struct {
	mu      sync.Mutex
	plays   []string
	stops   int
	playErr error
}

func (p *recordingPlayer) Play(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays = append(p.plays, url)
	return p.playErr
}

func (p *recordingPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

func (p *recordingPlayer) played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.plays))
	copy(out, p.plays)
	return out
}

type recordingSynth struct {
	mu        sync.Mutex
	chunks    []string
	stops     int
	available bool
	speakErr  error
}

func (s *recordingSynth) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, text)
	return s.speakErr
}

func (s *recordingSynth) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *recordingSynth) Available() bool { return s.available }

func (s *recordingSynth) spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.chunks))
	copy(out, s.chunks)
	return out
}

func testConfig() *api.WidgetConfig {
	return &api.WidgetConfig{
		BotName:         "Acme Assistant",
		WelcomeMessage:  "Hi! How can I help you today?",
		PlaceholderText: "Type a message...",
		Position:        api.PositionBottomRight,
	}
}

func newTestSession(t *testing.T, transport ChatTransport, player ResourcePlayer, synth Synthesizer) *Session {
	t.Helper()
	s, err := Bootstrap(context.Background(), Options{
		ClientID:     "client-1",
		Config:       &stubConfig{cfg: testConfig()},
		Transport:    transport,
		Player:       player,
		Synth:        synth,
		AudioEnabled: true,
	})
	require.NoError(t, err)
	t.Cleanup(s.Shutdown)
	return s
}

func TestBootstrapConfigFailure(t *testing.T) {
	_, err := Bootstrap(context.Background(), Options{
		ClientID:  "client-1",
		Config:    &stubConfig{err: errors.New("status 404")},
		Transport: &stubTransport{},
	})
	require.Error(t, err)
}

func TestBootstrapSeedsWelcome(t *testing.T) {
	s := newTestSession(t, &stubTransport{}, nil, nil)

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
	assert.Equal(t, "Hi! How can I help you today?", msgs[0].Content)
	assert.Equal(t, 0, s.LastSpokenIndex())
	assert.False(t, s.IsOpen())
}

func TestBootstrapAutoOpen(t *testing.T) {
	cfg := testConfig()
	cfg.AutoOpen = true
	s, err := Bootstrap(context.Background(), Options{
		ClientID:  "client-1",
		Config:    &stubConfig{cfg: cfg},
		Transport: &stubTransport{},
	})
	require.NoError(t, err)
	defer s.Shutdown()

	assert.True(t, s.IsOpen())
}

func TestToggleOpenClose(t *testing.T) {
	s := newTestSession(t, &stubTransport{}, nil, nil)

	assert.False(t, s.IsOpen())
	s.Toggle()
	assert.True(t, s.IsOpen())
	s.Toggle()
	assert.False(t, s.IsOpen())
	s.Open()
	assert.True(t, s.IsOpen())
	s.Close()
	assert.False(t, s.IsOpen())
}

func TestSendMessageSuccess(t *testing.T) {
	transport := &stubTransport{resp: &api.ChatResponse{Response: "Hi there", AudioURL: "data:audio/wav;base64,AAAA"}}
	player := &recordingPlayer{}
	synth := &recordingSynth{available: true}
	s := newTestSession(t, transport, player, synth)

	require.NoError(t, s.SendMessage(context.Background(), "Hello"))

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, "Hello", msgs[1].Content)
	assert.Equal(t, RoleAssistant, msgs[2].Role)
	assert.Equal(t, "Hi there", msgs[2].Content)
	assert.False(t, s.IsLoading())
	assert.Equal(t, 1, transport.callCount())

	require.Eventually(t, func() bool {
		return len(player.played()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"data:audio/wav;base64,AAAA"}, player.played())
	assert.Empty(t, synth.spoken())
	assert.Equal(t, 2, s.LastSpokenIndex())
}

func TestSendMessageEmpty(t *testing.T) {
	transport := &stubTransport{resp: &api.ChatResponse{Response: "unused"}}
	s := newTestSession(t, transport, nil, nil)

	assert.ErrorIs(t, s.SendMessage(context.Background(), "   "), ErrEmptyMessage)
	assert.Len(t, s.Messages(), 1)
	assert.Equal(t, 0, transport.callCount())
}

func TestSendMessageWhileLoading(t *testing.T) {
	block := make(chan struct{})
	transport := &stubTransport{resp: &api.ChatResponse{Response: "done"}, block: block}
	s := newTestSession(t, transport, nil, nil)

	errc := make(chan error, 1)
	go func() { errc <- s.SendMessage(context.Background(), "first") }()

	require.Eventually(t, s.IsLoading, 2*time.Second, 5*time.Millisecond)

	err := s.SendMessage(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Len(t, s.Messages(), 2) // welcome + first user message only
	assert.Equal(t, 1, transport.callCount())

	close(block)
	require.NoError(t, <-errc)
	assert.Len(t, s.Messages(), 3)
	assert.False(t, s.IsLoading())
}

func TestSendMessageFailure(t *testing.T) {
	transport := &stubTransport{err: errors.New("connection refused")}
	s := newTestSession(t, transport, nil, nil)

	require.NoError(t, s.SendMessage(context.Background(), "Hello"))

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Hello", msgs[1].Content)
	assert.Equal(t, RoleAssistant, msgs[2].Role)
	assert.Equal(t, FallbackReply, msgs[2].Content)
	assert.False(t, s.IsLoading())
}

func TestFallbackReplyIsNeverVoiced(t *testing.T) {
	transport := &stubTransport{err: errors.New("connection refused")}
	synth := &recordingSynth{available: true}
	s := newTestSession(t, transport, nil, synth)

	require.NoError(t, s.SendMessage(context.Background(), "Hello"))

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, FallbackReply, msgs[2].Content)

	require.Never(t, func() bool {
		return len(synth.spoken()) > 0
	}, 300*time.Millisecond, 20*time.Millisecond)
	assert.Equal(t, 0, s.LastSpokenIndex())
}

func TestFallbackSkippedWhenWatcherCatchesUp(t *testing.T) {
	transport := &stubTransport{resp: &api.ChatResponse{Response: "Hi there"}}
	synth := &recordingSynth{available: true}
	s := newTestSession(t, transport, nil, synth)

	require.NoError(t, s.SendMessage(context.Background(), "Hello"))

	transport.mu.Lock()
	transport.resp = nil
	transport.err = errors.New("connection refused")
	transport.mu.Unlock()
	require.NoError(t, s.SendMessage(context.Background(), "Still there?"))

	// A coalesced wake-up may arrive after the fallback is appended; it must
	// still pick the real reply, never the fallback.
	require.Eventually(t, func() bool {
		spoken := synth.spoken()
		return len(spoken) == 1 && spoken[0] == "Hi there"
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, s.LastSpokenIndex())
}

func TestTranscriptGrowsByTwoPerTurn(t *testing.T) {
	transport := &stubTransport{resp: &api.ChatResponse{Response: "ok"}}
	s := newTestSession(t, transport, nil, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.SendMessage(context.Background(), "ping"))
	}
	assert.Len(t, s.Messages(), 1+3*2)

	transport.mu.Lock()
	transport.err = errors.New("down")
	transport.resp = nil
	transport.mu.Unlock()

	require.NoError(t, s.SendMessage(context.Background(), "ping"))
	assert.Len(t, s.Messages(), 1+4*2)
}

func TestWelcomeMessageNeverSpoken(t *testing.T) {
	player := &recordingPlayer{}
	synth := &recordingSynth{available: true}
	s := newTestSession(t, &stubTransport{}, player, synth)

	require.Never(t, func() bool {
		return len(player.played()) > 0 || len(synth.spoken()) > 0
	}, 150*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, 0, s.LastSpokenIndex())
}

func TestResourceFailureFallsBackToSynthesis(t *testing.T) {
	transport := &stubTransport{resp: &api.ChatResponse{Response: "Hi there", AudioURL: "data:audio/wav;base64,bad"}}
	player := &recordingPlayer{playErr: errors.New("decode error")}
	synth := &recordingSynth{available: true}
	s := newTestSession(t, transport, player, synth)

	require.NoError(t, s.SendMessage(context.Background(), "Hello"))

	require.Eventually(t, func() bool {
		return len(synth.spoken()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"Hi there"}, synth.spoken())
	assert.Len(t, player.played(), 1)
}

func TestNoAudioURLSynthesizesDirectly(t *testing.T) {
	transport := &stubTransport{resp: &api.ChatResponse{Response: "Plain text reply."}}
	player := &recordingPlayer{}
	synth := &recordingSynth{available: true}
	s := newTestSession(t, transport, player, synth)

	require.NoError(t, s.SendMessage(context.Background(), "Hello"))

	require.Eventually(t, func() bool {
		return len(synth.spoken()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, player.played())
}

func TestSynthesisUnavailableIsSilent(t *testing.T) {
	transport := &stubTransport{resp: &api.ChatResponse{Response: "Hi"}}
	synth := &recordingSynth{available: false}
	s := newTestSession(t, transport, nil, synth)

	require.NoError(t, s.SendMessage(context.Background(), "Hello"))

	// Audio was still triggered for the message, it just produced nothing.
	require.Eventually(t, func() bool {
		return s.LastSpokenIndex() == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, synth.spoken())
	assert.Len(t, s.Messages(), 3)
}

func TestWatcherSkipsToNewestAssistantMessage(t *testing.T) {
	synth := &recordingSynth{available: true}
	s := newTestSession(t, &stubTransport{}, nil, synth)

	// Two assistant messages accumulate before the watcher runs.
	s.mu.Lock()
	s.messages = append(s.messages,
		Message{Role: RoleAssistant, Content: "older", Timestamp: time.Now()},
		Message{Role: RoleAssistant, Content: "newer", Timestamp: time.Now()},
	)
	s.mu.Unlock()

	s.playLatest()

	assert.Equal(t, []string{"newer"}, synth.spoken())
	assert.Equal(t, 2, s.LastSpokenIndex())
}

func TestLastSpokenIndexMonotonicAndBounded(t *testing.T) {
	transport := &stubTransport{resp: &api.ChatResponse{Response: "ok"}}
	synth := &recordingSynth{available: true}
	s := newTestSession(t, transport, nil, synth)

	prev := s.LastSpokenIndex()
	for i := 0; i < 4; i++ {
		require.NoError(t, s.SendMessage(context.Background(), "ping"))
		require.Eventually(t, func() bool {
			return s.LastSpokenIndex() > prev
		}, 2*time.Second, 10*time.Millisecond)

		cur := s.LastSpokenIndex()
		assert.Greater(t, cur, prev)
		assert.LessOrEqual(t, cur, len(s.Messages())-1)
		prev = cur
	}
}

func TestAudioDisabledSkipsPlayback(t *testing.T) {
	transport := &stubTransport{resp: &api.ChatResponse{Response: "Hi", AudioURL: "data:audio/wav;base64,AAAA"}}
	player := &recordingPlayer{}
	synth := &recordingSynth{available: true}
	s, err := Bootstrap(context.Background(), Options{
		ClientID:     "client-1",
		Config:       &stubConfig{cfg: testConfig()},
		Transport:    transport,
		Player:       player,
		Synth:        synth,
		AudioEnabled: false,
	})
	require.NoError(t, err)
	defer s.Shutdown()

	require.NoError(t, s.SendMessage(context.Background(), "Hello"))

	require.Never(t, func() bool {
		return len(player.played()) > 0 || len(synth.spoken()) > 0
	}, 150*time.Millisecond, 10*time.Millisecond)
}

func TestSetAudioEnabledFalseStopsOutput(t *testing.T) {
	player := &recordingPlayer{}
	synth := &recordingSynth{available: true}
	s := newTestSession(t, &stubTransport{}, player, synth)

	s.SetAudioEnabled(false)

	player.mu.Lock()
	stops := player.stops
	player.mu.Unlock()
	assert.Equal(t, 1, stops)
}

func TestSendMessageAfterShutdown(t *testing.T) {
	s, err := Bootstrap(context.Background(), Options{
		ClientID:  "client-1",
		Config:    &stubConfig{cfg: testConfig()},
		Transport: &stubTransport{},
	})
	require.NoError(t, err)

	s.Shutdown()
	assert.ErrorIs(t, s.SendMessage(context.Background(), "Hello"), ErrClosed)
	// Shutdown twice is a no-op.
	s.Shutdown()
}
