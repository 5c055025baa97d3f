package spectra

import (
	"context"
	"fmt"
	"time"

	"github.com/daemonp/paradox2mqtt/internal/log"
	"github.com/daemonp/paradox2mqtt/internal/metrics"
	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

// Panel speaks the Spectra SP / Magellan MG protocol over a transport.
type Panel struct {
	transport paradox.Transport
	registry  *paradox.Registry
	codec     *Codec
	handshake *Handshake
	log       *log.Logger
	metrics   *metrics.Metrics
	onStray   func(paradox.Message)
}

type Option func(*Panel)

func WithLogger(l *log.Logger) Option { return func(p *Panel) { p.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(p *Panel) { p.metrics = m } }

// WithStrayHandler receives messages that arrive while a reply of another
// kind is awaited, such as live events during a label load.
func WithStrayHandler(fn func(paradox.Message)) Option {
	return func(p *Panel) { p.onStray = fn }
}

// WithRegistry replaces the message catalog.
func WithRegistry(r *paradox.Registry) Option {
	return func(p *Panel) { p.registry = r }
}

func NewPanel(transport paradox.Transport, opts ...Option) *Panel {
	p := &Panel{transport: transport, log: log.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.registry == nil {
		p.registry = NewRegistry()
	}
	p.codec = NewCodec(p.registry, p.log, p.metrics)
	p.handshake = NewHandshake(transport, p.log, p.metrics)
	return p
}

func (p *Panel) Codec() *Codec { return p.codec }

func (p *Panel) Handshake() *Handshake { return p.handshake }

// NewMessage instantiates a message kind with its default fields.
func (p *Panel) NewMessage(name string) (paradox.Message, error) {
	return p.registry.New(name)
}

// Parse decodes an inbound frame, returning nil for anything unusable.
func (p *Panel) Parse(frame []byte) paradox.Message {
	return p.codec.Parse(frame)
}

func (p *Panel) stray(msg paradox.Message) {
	if p.onStray != nil {
		p.onStray(msg)
		return
	}
	p.log.Debug("Dropping %s received out of turn", msg.Name())
}

// request sends msg and decodes the accepted reply as the kind named reply.
// A panel error in place of the reply is returned as ErrUnexpectedReply.
func (p *Panel) request(ctx context.Context, msg paradox.Message, reply string, accept func([]byte) bool) (paradox.Message, error) {
	frame, err := msg.MarshalBinary()
	if err != nil {
		return nil, err
	}
	p.metrics.Request(msg.Name())
	raw, err := p.transport.SendWait(ctx, frame, accept)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", msg.Name(), err)
	}
	if paradox.Command(raw) == 0x7 {
		if m, err := p.codec.Decode(raw); err == nil {
			if e, ok := m.(*ErrorMessage); ok {
				return nil, fmt.Errorf("%s: %w: %s", msg.Name(), paradox.ErrUnexpectedReply, e.Code)
			}
			return nil, fmt.Errorf("%s: %w: %s", msg.Name(), paradox.ErrUnexpectedReply, m.Name())
		}
	}
	resp, err := p.NewMessage(reply)
	if err != nil {
		return nil, err
	}
	if err := resp.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("%s reply: %w", msg.Name(), err)
	}
	return resp, nil
}

// StartCommunication wakes the panel and returns its announcement.
func (p *Panel) StartCommunication(ctx context.Context) (*paradox.StartCommunicationResponse, error) {
	req, err := p.NewMessage("StartCommunication")
	if err != nil {
		return nil, err
	}
	frame, err := req.MarshalBinary()
	if err != nil {
		return nil, err
	}
	p.metrics.Request(req.Name())
	reply, err := p.transport.SendWait(ctx, frame, paradox.ExpectCommand(0x0))
	if err != nil {
		return nil, fmt.Errorf("start communication: %w", err)
	}
	msg, err := p.NewMessage("StartCommunicationResponse")
	if err != nil {
		return nil, err
	}
	if err := msg.UnmarshalBinary(reply); err != nil {
		return nil, fmt.Errorf("start communication reply: %w", err)
	}
	resp, ok := msg.(*paradox.StartCommunicationResponse)
	if !ok {
		return nil, fmt.Errorf("%w: %s", paradox.ErrUnexpectedReply, msg.Name())
	}
	return resp, nil
}

// InitializeCommunication authenticates against an announcing panel.
func (p *Panel) InitializeCommunication(ctx context.Context, ann paradox.Announcement, password string) error {
	return p.handshake.Authenticate(ctx, ann, password)
}

// RequestStatus reads one status block.
func (p *Panel) RequestStatus(ctx context.Context, variant uint8) (StatusResponse, error) {
	if variant >= StatusVariants {
		return nil, fmt.Errorf("%w: status variant %d", paradox.ErrFieldRange, variant)
	}
	accept := func(f []byte) bool {
		return len(f) > 3 && (f[0]>>4 == 0x7 || f[0]>>4 == 0x5 && f[2] == 0x80 && f[3] == variant)
	}
	msg, err := p.request(ctx, NewPanelStatus(variant), statusName(variant), accept)
	if err != nil {
		return nil, err
	}
	resp, ok := msg.(StatusResponse)
	if !ok {
		return nil, fmt.Errorf("%w: %s", paradox.ErrUnexpectedReply, msg.Name())
	}
	return resp, nil
}

// SetTimeDate sets the panel clock to t.
func (p *Panel) SetTimeDate(ctx context.Context, t time.Time) error {
	_, err := p.request(ctx, NewSetTimeDate(NewTimestamp(t)), "SetTimeDateResponse", paradox.ExpectCommand(0x3, 0x7))
	return err
}

// PerformAction runs action with argument and returns the panel's echo.
func (p *Panel) PerformAction(ctx context.Context, action Action, argument ActionArgument) (*PerformActionResponse, error) {
	msg, err := p.request(ctx, NewPerformAction(action, argument), "PerformActionResponse", paradox.ExpectCommand(0x4, 0x7))
	if err != nil {
		return nil, err
	}
	resp, ok := msg.(*PerformActionResponse)
	if !ok {
		return nil, fmt.Errorf("%w: %s", paradox.ErrUnexpectedReply, msg.Name())
	}
	return resp, nil
}

// CloseConnection tells the panel the session is over.
func (p *Panel) CloseConnection(ctx context.Context) error {
	frame, err := NewCloseConnection().MarshalBinary()
	if err != nil {
		return err
	}
	p.metrics.Request("CloseConnection")
	return p.transport.Send(ctx, frame)
}
