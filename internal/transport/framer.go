package transport

import "github.com/daemonp/paradox2mqtt/internal/paradox"

// Framer splits a byte stream into checksummed frames. When the head of the
// buffer does not start a valid frame one byte is dropped and the search
// resumes, so the stream resynchronizes after line noise.
type Framer struct {
	buf     []byte
	skipped int
}

// Feed appends p and returns every complete frame now available.
func (f *Framer) Feed(p []byte) [][]byte {
	f.buf = append(f.buf, p...)
	var frames [][]byte
	for len(f.buf) >= paradox.FrameSize {
		if paradox.Valid(f.buf[:paradox.FrameSize]) {
			frame := make([]byte, paradox.FrameSize)
			copy(frame, f.buf)
			frames = append(frames, frame)
			f.buf = f.buf[paradox.FrameSize:]
			continue
		}
		f.buf = f.buf[1:]
		f.skipped++
	}
	if len(f.buf) == 0 {
		f.buf = nil
	}
	return frames
}

// Skipped returns how many bytes were discarded while resynchronizing.
func (f *Framer) Skipped() int { return f.skipped }

// Pending returns the number of buffered bytes not yet framed.
func (f *Framer) Pending() int { return len(f.buf) }
