// Package speech provides concrete audio output for the widget core: a
// synthesizer backed by the platform's text-to-speech command and a player
// for pre-rendered audio resources. Both degrade to silence rather than
// error when the host machine has no usable audio tooling.
package speech

import (
	"context"
	"os/exec"
	"runtime"
	"sync"
)

// CommandSynthesizer speaks text through an external TTS engine, one chunk
// per Speak call. An engine that is not installed reports Available() false
// and is treated as a silent no-op by the session.
type CommandSynthesizer struct {
	command string
	args    []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCommandSynthesizer builds a synthesizer around the given command. The
// text to speak is appended as the final argument.
func NewCommandSynthesizer(command string, args ...string) *CommandSynthesizer {
	return &CommandSynthesizer{command: command, args: args}
}

// DefaultSynthesizer picks the platform's usual TTS command: say on macOS,
// espeak elsewhere. The command's absence shows up through Available, not as
// an error.
func DefaultSynthesizer() *CommandSynthesizer {
	if runtime.GOOS == "darwin" {
		return NewCommandSynthesizer("say")
	}
	return NewCommandSynthesizer("espeak")
}

// Available reports whether the engine command is on PATH
func (s *CommandSynthesizer) Available() bool {
	_, err := exec.LookPath(s.command)
	return err == nil
}

// Speak voices one chunk of text, blocking until the engine finishes
func (s *CommandSynthesizer) Speak(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, s.command, append(append([]string{}, s.args...), text)...)

	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cmd = nil
		s.mu.Unlock()
	}()

	return cmd.Run()
}

// Stop kills an in-flight Speak. Calling it with nothing speaking is a no-op.
func (s *CommandSynthesizer) Stop() {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
