package paradox

import (
	"context"
	"fmt"
)

// Message is one decoded or to-be-encoded protocol frame.
type Message interface {
	// Name is the registry name of the message kind.
	Name() string
	// Command is the discriminator value carried by the frame: a full byte
	// for byte-addressed requests, the high nibble for nibble-addressed ones.
	Command() byte
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(frame []byte) error
}

// Transport is the request/reply capability the protocol controllers run on.
type Transport interface {
	// SendWait writes frame and blocks for the first inbound frame accepted
	// by accept (nil accepts anything). It returns ErrTimeout when nothing
	// matching arrives in time.
	SendWait(ctx context.Context, frame []byte, accept func([]byte) bool) ([]byte, error)
	// Send writes frame without waiting for a reply.
	Send(ctx context.Context, frame []byte) error
}

// StatusFlags is the low nibble of nibble-addressed panel frames.
type StatusFlags uint8

func (s StatusFlags) Reserved() bool              { return s&0x08 != 0 }
func (s StatusFlags) AlarmReportingPending() bool { return s&0x04 != 0 }
func (s StatusFlags) WinloadConnected() bool      { return s&0x02 != 0 }
func (s StatusFlags) NEwareConnected() bool       { return s&0x01 != 0 }

func (s StatusFlags) String() string {
	return fmt.Sprintf("reserved=%t alarm_reporting_pending=%t winload=%t neware=%t",
		s.Reserved(), s.AlarmReportingPending(), s.WinloadConnected(), s.NEwareConnected())
}

// Firmware identifies the panel firmware.
type Firmware struct {
	Version  uint8 `json:"version"`
	Revision uint8 `json:"revision"`
	Build    uint8 `json:"build"`
}

func (f Firmware) String() string {
	return fmt.Sprintf("%d.%d build %d", f.Version, f.Revision, f.Build)
}

// Announcement carries the identity the panel reports when a session opens.
type Announcement struct {
	ProductID ProductID `json:"product_id"`
	Firmware  Firmware  `json:"firmware"`
	PanelID   uint16    `json:"panel_id"`
}

// CheckByte returns ErrMalformedFrame unless payload[offset] == want.
func CheckByte(payload []byte, offset int, want byte, field string) error {
	if payload[offset] != want {
		return fmt.Errorf("%w: %s is 0x%02x, want 0x%02x", ErrMalformedFrame, field, payload[offset], want)
	}
	return nil
}

// CheckNibble returns ErrMalformedFrame unless the high nibble of payload[0]
// equals want.
func CheckNibble(payload []byte, want byte) error {
	if got := payload[0] >> 4; got != want {
		return fmt.Errorf("%w: command nibble is 0x%x, want 0x%x", ErrMalformedFrame, got, want)
	}
	return nil
}
