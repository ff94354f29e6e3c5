package devserver

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"time"
)

const toneSampleRate = 8000

// toneDataURL renders a short sine tone as a data:audio/wav URL so the
// widget's resource playback path can be exercised without a real TTS
// provider.
func toneDataURL(freq float64, d time.Duration) string {
	n := int(toneSampleRate * d.Seconds())
	if n < 1 {
		n = 1
	}

	dataLen := n * 2
	buf := make([]byte, 44+dataLen)

	// RIFF/WAVE header, PCM mono 16-bit
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], toneSampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], toneSampleRate*2)
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i := 0; i < n; i++ {
		sample := int16(math.Sin(2*math.Pi*freq*float64(i)/toneSampleRate) * 0.3 * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(sample))
	}

	return "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(buf)
}
