package spectra

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/daemonp/paradox2mqtt/internal/log"
	"github.com/daemonp/paradox2mqtt/internal/metrics"
	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

// HandshakeState tracks one authentication attempt.
type HandshakeState int

const (
	Disconnected HandshakeState = iota
	AwaitingAuthResponse
	Authenticated
	Rejected
)

func (s HandshakeState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case AwaitingAuthResponse:
		return "awaiting_auth_response"
	case Authenticated:
		return "authenticated"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("HandshakeState(%d)", int(s))
}

// Terminal reports whether the attempt has finished.
func (s HandshakeState) Terminal() bool { return s == Authenticated || s == Rejected }

// Handshake answers the panel announcement with InitializeCommunication and
// interprets the reply.
type Handshake struct {
	transport paradox.Transport
	log       *log.Logger
	metrics   *metrics.Metrics

	mu       sync.Mutex
	state    HandshakeState
	response *InitializeCommunicationResponse
}

func NewHandshake(transport paradox.Transport, logger *log.Logger, m *metrics.Metrics) *Handshake {
	if logger == nil {
		logger = log.Nop()
	}
	return &Handshake{transport: transport, log: logger, metrics: m}
}

func (h *Handshake) State() HandshakeState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Response returns the login confirmation of an authenticated attempt.
func (h *Handshake) Response() *InitializeCommunicationResponse {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.response
}

func (h *Handshake) setState(s HandshakeState) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Authenticate runs one attempt. A finished attempt is restarted from
// Disconnected. The returned error is nil only when the panel accepted the
// password.
func (h *Handshake) Authenticate(ctx context.Context, ann paradox.Announcement, password string) error {
	h.mu.Lock()
	h.state = Disconnected
	h.response = nil
	h.mu.Unlock()

	err := h.authenticate(ctx, ann, password)
	if err != nil {
		h.setState(Rejected)
		h.metrics.Handshake("rejected")
		return err
	}
	h.setState(Authenticated)
	h.metrics.Handshake("authenticated")
	return nil
}

func (h *Handshake) authenticate(ctx context.Context, ann paradox.Announcement, password string) error {
	pw, err := paradox.EncodePassword(password)
	if err != nil {
		return err
	}
	req := NewInitializeCommunication(ann, pw)
	req.Origin.SourceID = paradox.SourceWinloadIP
	frame, err := req.MarshalBinary()
	if err != nil {
		return err
	}

	h.setState(AwaitingAuthResponse)
	h.log.Debug("Sending InitializeCommunication to %s panel %04x, firmware %s", ann.ProductID, ann.PanelID, ann.Firmware)
	reply, err := h.transport.SendWait(ctx, frame, paradox.ExpectCommand(0x0, 0x1, 0x7))
	if err != nil {
		if errors.Is(err, paradox.ErrTimeout) {
			h.log.Error("No reply to InitializeCommunication")
		}
		return fmt.Errorf("initialize communication: %w", err)
	}

	p, err := paradox.Open(reply)
	if err != nil {
		return fmt.Errorf("%w: %v", paradox.ErrUnexpectedReply, err)
	}
	switch p[0] >> 4 {
	case 0x1:
		if p[0] != 0x10 {
			break
		}
		resp := &InitializeCommunicationResponse{}
		if err := resp.UnmarshalBinary(reply); err != nil {
			return fmt.Errorf("%w: %v", paradox.ErrUnexpectedReply, err)
		}
		h.mu.Lock()
		h.response = resp
		h.mu.Unlock()
		h.log.Info("Authentication Success")
		return nil
	case 0x7:
		code := ErrorCode(p[2])
		if p[0] == 0x70 {
			code = ErrorCode(p[32])
		}
		h.log.Error("Authentication Failed. Wrong Password? (%s)", code)
		return fmt.Errorf("%w: %s", paradox.ErrAuthenticationRejected, code)
	case 0x0:
		h.log.Error("Authentication Failed. Wrong Password?")
		return paradox.ErrAuthenticationRejected
	}
	h.log.Error("Unexpected reply to InitializeCommunication: %s", paradox.HexDump(reply))
	return fmt.Errorf("%w: command 0x%x", paradox.ErrUnexpectedReply, p[0]>>4)
}
