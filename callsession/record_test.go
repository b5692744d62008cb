package callsession

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEBMLVint(t *testing.T) {
	assert.Equal(t, []byte{0x80}, ebmlVint(0))
	assert.Equal(t, []byte{0x81}, ebmlVint(1))
	assert.Equal(t, []byte{0xFE}, ebmlVint(0x7E))
	// 0x7F bir byte'lık vint'te unknown-size ile çakışır — iki byte'a taşar.
	assert.Equal(t, []byte{0x40, 0x7F}, ebmlVint(0x7F))
	assert.Equal(t, []byte{0x41, 0x2C}, ebmlVint(300))
	assert.Equal(t, []byte{0x21, 0x00, 0x00}, ebmlVint(0x10000))
}

func TestEBMLUint(t *testing.T) {
	assert.Equal(t, []byte{0x00}, ebmlUint(0))
	assert.Equal(t, []byte{0xFF}, ebmlUint(255))
	assert.Equal(t, []byte{0x01, 0x00}, ebmlUint(256))
	assert.Equal(t, []byte{0x0F, 0x42, 0x40}, ebmlUint(1000000))
}

func TestWebmSimpleBlockLayout(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	block := webmSimpleBlock(1, 10, true, data)

	// id + boyut vint'i + içerik
	require.True(t, bytes.HasPrefix(block, idSimpleBlock))
	content := block[len(idSimpleBlock)+1:]
	assert.Equal(t, byte(0x81), content[0]) // track 1 vint
	assert.Equal(t, []byte{0x00, 0x0A}, content[1:3])
	assert.Equal(t, byte(0x80), content[3]) // keyframe flag
	assert.Equal(t, data, content[4:])

	// Keyframe olmayan blokta flag sıfırdır, negatif rel iki byte'a sığar.
	block = webmSimpleBlock(2, -5, false, data)
	content = block[len(idSimpleBlock)+1:]
	assert.Equal(t, byte(0x82), content[0])
	assert.Equal(t, []byte{0xFF, 0xFB}, content[1:3])
	assert.Equal(t, byte(0x00), content[3])
}

func TestWebmInitSegment(t *testing.T) {
	seg := webmInitSegment([]recorderTrack{
		{num: 1, kind: recTrackVP8, name: "local"},
		{num: 2, kind: recTrackVP8, name: "remote", width: 1280, height: 720},
		{num: 3, kind: recTrackOpus, name: "remote"},
	})

	// EBML magic ile başlar, Segment elementi içerir.
	require.True(t, bytes.HasPrefix(seg, idEBML))
	assert.True(t, bytes.Contains(seg, idSegment))
	assert.True(t, bytes.Contains(seg, []byte("webm")))
	assert.True(t, bytes.Contains(seg, []byte("V_VP8")))
	assert.True(t, bytes.Contains(seg, []byte("A_OPUS")))
	assert.True(t, bytes.Contains(seg, opusHead))

	// Boyutu verilmeyen video track'i 640x480'e düşer.
	assert.True(t, bytes.Contains(seg, ebmlElem(idPixelW, ebmlUint(640))))
	assert.True(t, bytes.Contains(seg, ebmlElem(idPixelW, ebmlUint(1280))))
}

func TestVP8Keyframe(t *testing.T) {
	assert.True(t, vp8Keyframe([]byte{0x10, 0x00, 0x00}))
	assert.False(t, vp8Keyframe([]byte{0x11, 0x00, 0x00}))
	assert.False(t, vp8Keyframe(nil))
}

func TestVP8Dimensions(t *testing.T) {
	// Keyframe header: 3 byte frame tag + sync code + LE boyutlar.
	frame := []byte{0x10, 0x02, 0x00, 0x9D, 0x01, 0x2A, 0x80, 0x02, 0xE0, 0x01}
	w, h, ok := vp8Dimensions(frame)
	require.True(t, ok)
	assert.Equal(t, uint16(640), w)
	assert.Equal(t, uint16(480), h)

	_, _, ok = vp8Dimensions([]byte{0x10, 0x02, 0x00})
	assert.False(t, ok)
	_, _, ok = vp8Dimensions([]byte{0x10, 0x02, 0x00, 0x00, 0x00, 0x00, 0x80, 0x02, 0xE0, 0x01})
	assert.False(t, ok)
}

func TestRecorderWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "call.webm")

	rec, err := NewRecorder(path, true)
	require.NoError(t, err)
	require.NoError(t, rec.Start(nil))

	// Karşı taraf timestamp'leri keyfi bir değerden başlar — track bazına
	// normalize edilir.
	keyframe := []byte{0x10, 0x02, 0x00, 0x9D, 0x01, 0x2A, 0x80, 0x02, 0xE0, 0x01}
	rec.WriteVideoSample(90_000, true, keyframe)
	rec.WriteAudioSample(41_000, []byte{0x01, 0x02})
	rec.WriteVideoSample(90_033, false, []byte{0x11, 0x00})

	// İkinci keyframe yeni cluster açar, öncekini flush eder.
	rec.WriteVideoSample(91_100, true, keyframe)

	require.NoError(t, rec.Stop())
	require.NoError(t, rec.Stop()) // idempotent

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(raw, idEBML))
	assert.True(t, bytes.Contains(raw, idCluster))
	assert.True(t, bytes.Contains(raw, idSimpleBlock))

	// Stop sonrası yazımlar sessizce düşer.
	rec.WriteAudioSample(50_000, []byte{0x03})
}

func TestRecorderStartTwiceRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "call.webm")
	rec, err := NewRecorder(path, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Stop() })

	require.NoError(t, rec.Start(nil))
	assert.Error(t, rec.Start(nil))
}
