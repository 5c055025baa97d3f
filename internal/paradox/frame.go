package paradox

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// PayloadSize is the number of bytes covered by the checksum.
	PayloadSize = 36
	// FrameSize is the length of every frame on the wire.
	FrameSize = PayloadSize + 1
)

// Checksum returns the sum of all payload bytes modulo 256.
func Checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}
	return sum
}

// Seal appends the checksum byte to payload and returns the complete frame.
func Seal(payload []byte) []byte {
	frame := make([]byte, len(payload)+1)
	copy(frame, payload)
	frame[len(payload)] = Checksum(payload)
	return frame
}

// Open validates the frame length and trailing checksum and returns the
// payload portion.
func Open(frame []byte) ([]byte, error) {
	if len(frame) != FrameSize {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrMalformedFrame, len(frame), FrameSize)
	}
	payload := frame[:PayloadSize]
	if got, want := frame[PayloadSize], Checksum(payload); got != want {
		return nil, fmt.Errorf("%w: checksum 0x%02x, want 0x%02x", ErrMalformedFrame, got, want)
	}
	return payload, nil
}

// Valid reports whether frame has the right length and checksum.
func Valid(frame []byte) bool {
	_, err := Open(frame)
	return err == nil
}

// HexDump renders frame as space separated hex octets.
func HexDump(frame []byte) string {
	s := hex.EncodeToString(frame)
	var b strings.Builder
	for i := 0; i < len(s); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+2])
	}
	return b.String()
}

// Command returns the high nibble of the first frame byte, which identifies
// the message family on the wire.
func Command(frame []byte) byte {
	if len(frame) == 0 {
		return 0
	}
	return frame[0] >> 4
}

// ExpectCommand builds a reply filter accepting frames whose leading nibble
// is one of commands.
func ExpectCommand(commands ...byte) func([]byte) bool {
	return func(frame []byte) bool {
		if len(frame) == 0 {
			return false
		}
		c := Command(frame)
		for _, want := range commands {
			if c == want {
				return true
			}
		}
		return false
	}
}
