package speech

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURL(t *testing.T) {
	payload := []byte("RIFF fake wav bytes")
	url := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(payload)

	data, ext, err := decodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, ".wav", ext)
}

func TestDecodeDataURLMP3(t *testing.T) {
	url := "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xff, 0xfb})

	_, ext, err := decodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, ".mp3", ext)
}

func TestDecodeDataURLMalformed(t *testing.T) {
	_, _, err := decodeDataURL("data:audio/wav;base64")
	assert.Error(t, err)
}

func TestDecodeDataURLNotBase64(t *testing.T) {
	_, _, err := decodeDataURL("data:text/plain,hello")
	assert.Error(t, err)
}

func TestDecodeDataURLBadPayload(t *testing.T) {
	_, _, err := decodeDataURL("data:audio/wav;base64,!!!not-base64!!!")
	assert.Error(t, err)
}

func TestExtForMime(t *testing.T) {
	assert.Equal(t, ".wav", extForMime("audio/wav; codecs=1"))
	assert.Equal(t, ".ogg", extForMime("audio/ogg"))
	assert.Equal(t, ".bin", extForMime("application/octet-stream"))
}

func TestSynthesizerUnavailable(t *testing.T) {
	s := NewCommandSynthesizer("definitely-not-a-real-tts-command")
	assert.False(t, s.Available())
}

func TestPlayerUnsupportedScheme(t *testing.T) {
	p := NewCommandPlayer("true")
	err := p.Play(context.Background(), "ftp://example.com/audio.wav")
	assert.Error(t, err)
}

func TestPlayerDataURLRoundTrip(t *testing.T) {
	// "true" ignores its arguments and exits 0, so this exercises the full
	// fetch-decode-spawn path without producing sound.
	p := NewCommandPlayer("true")
	if !p.Available() {
		t.Skip("true not on PATH")
	}

	url := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString([]byte("RIFF"))
	require.NoError(t, p.Play(context.Background(), url))
}

func TestStopWithNothingPlaying(t *testing.T) {
	s := NewCommandSynthesizer("true")
	s.Stop()
	s.Stop()

	p := NewCommandPlayer("true")
	p.Stop()
	p.Stop()
}
