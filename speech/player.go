package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// CommandPlayer plays a pre-rendered audio resource through an external
// player command. It accepts data: URLs (the backend's usual delivery for
// synthesized replies) and http(s) URLs; the resource is materialized to a
// temp file and handed to the command as its final argument.
type CommandPlayer struct {
	command string
	args    []string
	httpc   *http.Client

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCommandPlayer builds a player around the given command
func NewCommandPlayer(command string, args ...string) *CommandPlayer {
	return &CommandPlayer{
		command: command,
		args:    args,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// DefaultPlayer picks the platform's usual audio player: afplay on macOS,
// ffplay elsewhere.
func DefaultPlayer() *CommandPlayer {
	if runtime.GOOS == "darwin" {
		return NewCommandPlayer("afplay")
	}
	return NewCommandPlayer("ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet")
}

// Available reports whether the player command is on PATH
func (p *CommandPlayer) Available() bool {
	_, err := exec.LookPath(p.command)
	return err == nil
}

// Play fetches the resource and blocks until playback finishes. Any failure
// to fetch, decode, start, or finish is an error; the session recovers by
// falling back to synthesis.
func (p *CommandPlayer) Play(ctx context.Context, url string) error {
	path, cleanup, err := p.fetch(ctx, url)
	if err != nil {
		return err
	}
	defer cleanup()

	cmd := exec.CommandContext(ctx, p.command, append(append([]string{}, p.args...), path)...)

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.cmd = nil
		p.mu.Unlock()
	}()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("play %s: %w", p.command, err)
	}
	return nil
}

// Stop kills an in-flight Play. Calling it with nothing playing is a no-op.
func (p *CommandPlayer) Stop() {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// fetch materializes the resource into a temp file and returns its path and
// a cleanup func.
func (p *CommandPlayer) fetch(ctx context.Context, url string) (string, func(), error) {
	var data []byte
	var ext string

	switch {
	case strings.HasPrefix(url, "data:"):
		var err error
		data, ext, err = decodeDataURL(url)
		if err != nil {
			return "", nil, err
		}
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", nil, fmt.Errorf("build audio request: %w", err)
		}
		resp, err := p.httpc.Do(req)
		if err != nil {
			return "", nil, fmt.Errorf("fetch audio: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", nil, fmt.Errorf("fetch audio: unexpected status %d", resp.StatusCode)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return "", nil, fmt.Errorf("read audio: %w", err)
		}
		ext = extForMime(resp.Header.Get("Content-Type"))
	default:
		return "", nil, fmt.Errorf("unsupported audio url scheme: %q", url)
	}

	f, err := os.CreateTemp("", "snip-audio-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp audio file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("write temp audio file: %w", err)
	}
	f.Close()

	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

// decodeDataURL decodes a base64 data: URL into raw bytes and a file
// extension derived from its media type.
func decodeDataURL(url string) ([]byte, string, error) {
	rest := strings.TrimPrefix(url, "data:")
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data url")
	}

	mediaType, b64 := meta, false
	if strings.HasSuffix(meta, ";base64") {
		mediaType = strings.TrimSuffix(meta, ";base64")
		b64 = true
	}
	if !b64 {
		return nil, "", fmt.Errorf("data url is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data url: %w", err)
	}

	return data, extForMime(mediaType), nil
}

func extForMime(mediaType string) string {
	mediaType, _, _ = strings.Cut(mediaType, ";")
	switch strings.TrimSpace(mediaType) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "audio/aac", "audio/mp4":
		return ".m4a"
	default:
		return ".bin"
	}
}
