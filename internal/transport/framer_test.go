package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

func testFrame(lead byte) []byte {
	p := make([]byte, paradox.PayloadSize)
	p[0] = lead
	p[5] = 0x42
	return paradox.Seal(p)
}

func TestFramerSplitsFrames(t *testing.T) {
	var f Framer
	a, b := testFrame(0xe2), testFrame(0x52)
	stream := append(append([]byte{}, a...), b...)

	frames := f.Feed(stream[:20])
	assert.Empty(t, frames)
	frames = f.Feed(stream[20:])
	require.Len(t, frames, 2)
	assert.Equal(t, a, frames[0])
	assert.Equal(t, b, frames[1])
	assert.Equal(t, 0, f.Pending())
}

func TestFramerResynchronizes(t *testing.T) {
	var f Framer
	want := testFrame(0xe2)
	frames := f.Feed(append([]byte{0xff, 0x13, 0x37}, want...))
	require.Len(t, frames, 1)
	assert.Equal(t, want, frames[0])
	assert.Equal(t, 3, f.Skipped())
}

func TestFramerKeepsPartialFrame(t *testing.T) {
	var f Framer
	frame := testFrame(0x10)
	assert.Empty(t, f.Feed(frame[:36]))
	assert.Equal(t, 36, f.Pending())
	frames := f.Feed(frame[36:])
	require.Len(t, frames, 1)
	assert.Equal(t, frame, frames[0])
}
