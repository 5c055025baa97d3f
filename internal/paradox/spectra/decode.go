package spectra

import (
	"errors"
	"fmt"

	"github.com/daemonp/paradox2mqtt/internal/log"
	"github.com/daemonp/paradox2mqtt/internal/metrics"
	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

// Classify returns the message kind of a payload from its leading bytes.
// Rules are applied in order and the first match wins.
func Classify(p []byte) (string, error) {
	if len(p) < 4 {
		return "", fmt.Errorf("%w: %d bytes", paradox.ErrUnknownFrame, len(p))
	}
	lead, nibble := p[0], p[0]>>4
	switch {
	case lead == 0x70:
		return "CloseConnection", nil
	case nibble == 0x7:
		return "ErrorMessage", nil
	case lead == 0x00:
		return "InitializeCommunication", nil
	case lead == 0x10:
		return "InitializeCommunicationResponse", nil
	case lead == 0x30:
		return "SetTimeDate", nil
	case nibble == 0x3:
		return "SetTimeDateResponse", nil
	case lead == 0x40:
		return "PerformAction", nil
	case nibble == 0x4:
		return "PerformActionResponse", nil
	case lead == 0x50 && p[2] == 0x80:
		return "PanelStatus", nil
	case lead == 0x50 && p[2] < 0x80:
		return "ReadEEPROM", nil
	case nibble == 0x5 && p[2] == 0x80:
		if p[3] >= StatusVariants {
			return "", fmt.Errorf("%w: status variant %d", paradox.ErrUnknownFrame, p[3])
		}
		return statusName(p[3]), nil
	case nibble == 0x5 && p[2] < 0x80:
		return "ReadEEPROMResponse", nil
	case nibble == 0xe:
		return "LiveEvent", nil
	}
	return "", fmt.Errorf("%w: leading byte 0x%02x", paradox.ErrUnknownFrame, lead)
}

// Codec decodes inbound frames against a message registry.
type Codec struct {
	registry *paradox.Registry
	log      *log.Logger
	metrics  *metrics.Metrics
}

func NewCodec(registry *paradox.Registry, logger *log.Logger, m *metrics.Metrics) *Codec {
	if logger == nil {
		logger = log.Nop()
	}
	return &Codec{registry: registry, log: logger, metrics: m}
}

// Registry returns the catalog the codec resolves kinds from.
func (c *Codec) Registry() *paradox.Registry { return c.registry }

// Decode verifies the frame and decodes it into its message kind. A frame
// with a bad length or checksum is ErrMalformedFrame whatever its prefix.
func (c *Codec) Decode(frame []byte) (paradox.Message, error) {
	p, err := paradox.Open(frame)
	if err != nil {
		return nil, err
	}
	name, err := Classify(p)
	if err != nil {
		return nil, err
	}
	msg, err := c.registry.New(name)
	if err != nil {
		return nil, err
	}
	if err := msg.UnmarshalBinary(frame); err != nil {
		return nil, err
	}
	return msg, nil
}

// Parse decodes frame, logging and counting failures. It returns nil for
// anything it cannot decode.
func (c *Codec) Parse(frame []byte) (msg paradox.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Parsing message panicked: %v: %s", r, paradox.HexDump(frame))
			c.metrics.Frame("unknown", "error")
			msg = nil
		}
	}()

	msg, err := c.Decode(frame)
	switch {
	case err == nil:
		c.metrics.Frame(msg.Name(), "ok")
		return msg
	case errors.Is(err, paradox.ErrUnknownFrame):
		c.log.Warn("Unknown message: %v", err)
		c.metrics.Frame("unknown", "unknown")
	case errors.Is(err, paradox.ErrMalformedFrame):
		c.log.Warn("Malformed message: %v", err)
		c.metrics.Frame("unknown", "malformed")
	default:
		c.log.Error("Parsing message: %v", err)
		c.metrics.Frame("unknown", "error")
	}
	c.log.Debug("PARSE: %s", paradox.HexDump(frame))
	return nil
}
