package panel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daemonp/paradox2mqtt/internal/cache"
	"github.com/daemonp/paradox2mqtt/internal/config"
	"github.com/daemonp/paradox2mqtt/internal/log"
	"github.com/daemonp/paradox2mqtt/internal/metrics"
	"github.com/daemonp/paradox2mqtt/internal/paradox"
	"github.com/daemonp/paradox2mqtt/internal/paradox/spectra"
	"github.com/daemonp/paradox2mqtt/internal/transport"
)

// Link is the framed connection a session runs on.
type Link interface {
	paradox.Transport
	Events() <-chan []byte
	Done() <-chan struct{}
	Close() error
}

// Dialer opens a Link.
type Dialer func(ctx context.Context) (Link, error)

// EventHandler receives live events as they are decoded.
type EventHandler func(*spectra.LiveEvent)

type Panel struct {
	config  *config.Config
	log     *log.Logger
	metrics *metrics.Metrics
	dial    Dialer

	link     Link
	protocol *spectra.Panel
	labels   *paradox.Labels

	mu           sync.Mutex
	announcement paradox.Announcement
	status       map[uint8]spectra.StatusResponse
	handlers     []EventHandler
	isLoggedIn   bool
	sessionID    string

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewPanel(cfg *config.Config, logger *log.Logger, m *metrics.Metrics) *Panel {
	p := &Panel{
		config:  cfg,
		log:     logger,
		metrics: m,
		labels:  paradox.NewLabels(),
		status:  make(map[uint8]spectra.StatusResponse),
	}
	p.dial = func(ctx context.Context) (Link, error) {
		return transport.Dial(ctx, transport.Options{
			Connection: cfg.Paradox.Connection,
			Host:       cfg.Paradox.Host,
			Port:       cfg.Paradox.Port,
			SerialPort: cfg.Paradox.SerialPort,
			Baud:       cfg.Paradox.Baud,
			Timeout:    cfg.Paradox.Timeout,
			Retries:    cfg.Paradox.Retries,
			Rate:       cfg.Paradox.Rate,
		}, p.log, m)
	}
	return p
}

// SetDialer replaces how the session reaches the panel.
func (p *Panel) SetDialer(d Dialer) { p.dial = d }

func (p *Panel) Connect(ctx context.Context) error {
	p.sessionID = uuid.NewString()
	p.log = p.log.With("session", p.sessionID)

	p.log.Info("Connecting to panel...")
	link, err := p.dial(ctx)
	if err != nil {
		p.log.Error("Failed to connect to panel: %v", err)
		return fmt.Errorf("failed to connect to panel: %w", err)
	}
	p.link = link
	p.protocol = spectra.NewPanel(link,
		spectra.WithLogger(p.log),
		spectra.WithMetrics(p.metrics),
		spectra.WithStrayHandler(p.handleMessage),
	)
	p.stop = make(chan struct{})
	p.log.Info("Connected to panel")
	return nil
}

// Login wakes the panel and authenticates with the configured PC password.
func (p *Panel) Login(ctx context.Context) error {
	if p.protocol == nil {
		return paradox.ErrNotConnected
	}
	p.log.Info("Logging in to panel...")
	resp, err := p.protocol.StartCommunication(ctx)
	if err != nil {
		p.log.Error("Panel did not announce itself: %v", err)
		return fmt.Errorf("failed to start communication: %w", err)
	}
	ann := resp.Announcement()
	p.mu.Lock()
	p.announcement = ann
	p.mu.Unlock()
	p.log.Info("Panel %s, firmware %s, id %04x", ann.ProductID, ann.Firmware, ann.PanelID)

	if err := p.protocol.InitializeCommunication(ctx, ann, p.config.Paradox.Password); err != nil {
		p.log.Error("Failed to log in to panel: %v", err)
		return fmt.Errorf("failed to log in to panel: %w", err)
	}
	p.mu.Lock()
	p.isLoggedIn = true
	p.mu.Unlock()
	p.log.Info("Successfully logged in to panel")

	if p.config.Paradox.SyncTime {
		if err := p.SetDateTime(ctx, time.Now()); err != nil {
			p.log.Warn("Failed to set panel time: %v", err)
		}
	}
	return nil
}

// Start follows live events, reads labels and status, then polls the
// status blocks every keepalive interval.
func (p *Panel) Start(ctx context.Context) error {
	p.mu.Lock()
	loggedIn := p.isLoggedIn
	p.mu.Unlock()
	if !loggedIn {
		return fmt.Errorf("not logged in to panel")
	}

	p.log.Info("Starting panel operations...")
	// Frames that do not answer a request land on the link's event queue,
	// so the listener runs while labels are read.
	p.wg.Add(1)
	go p.listenForEvents()

	if err := p.protocol.UpdateLabels(ctx, p.labels, p.config.LabelLimits()); err != nil {
		if ctx.Err() != nil {
			return err
		}
		p.log.Warn("Some labels could not be loaded: %v", err)
	}
	if err := p.RefreshStatus(ctx); err != nil {
		p.log.Warn("Initial status refresh failed: %v", err)
	}

	p.wg.Add(1)
	go p.keepalive()

	p.log.Info("Panel operations started successfully")
	return nil
}

func (p *Panel) listenForEvents() {
	defer p.wg.Done()
	for frame := range p.link.Events() {
		if msg := p.protocol.Parse(frame); msg != nil {
			p.handleMessage(msg)
		}
	}
}

func (p *Panel) handleMessage(msg paradox.Message) {
	switch m := msg.(type) {
	case *spectra.LiveEvent:
		p.log.Panel("%s, partition %d, label %s", m.Event, m.Partition, m.LabelText())
		p.mu.Lock()
		handlers := append([]EventHandler(nil), p.handlers...)
		p.mu.Unlock()
		for _, h := range handlers {
			h(m)
		}
	case spectra.StatusResponse:
		p.mu.Lock()
		p.status[m.Variant()] = m
		p.mu.Unlock()
	case *spectra.ErrorMessage:
		p.log.Warn("Panel error: %s", m.Code)
	case *spectra.CloseConnection:
		p.log.Warn("Panel is closing the connection: %s", m.Reason)
	default:
		p.log.Debug("Ignoring %s", msg.Name())
	}
}

func (p *Panel) keepalive() {
	defer p.wg.Done()
	interval := p.config.Paradox.Keepalive
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-p.link.Done():
			return
		case <-ticker.C:
			if err := p.RefreshStatus(context.Background()); err != nil {
				p.log.Error("Failed to refresh status: %v", err)
			}
		}
	}
}

// RefreshStatus reads every status block.
func (p *Panel) RefreshStatus(ctx context.Context) error {
	for variant := uint8(0); variant < spectra.StatusVariants; variant++ {
		resp, err := p.protocol.RequestStatus(ctx, variant)
		if err != nil {
			return err
		}
		p.handleMessage(resp)
	}
	return nil
}

// OnEvent registers a handler for live events.
func (p *Panel) OnEvent(h EventHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, h)
}

func (p *Panel) SetDateTime(ctx context.Context, t time.Time) error {
	return p.protocol.SetTimeDate(ctx, t)
}

func (p *Panel) PerformAction(ctx context.Context, action spectra.Action, argument spectra.ActionArgument) error {
	_, err := p.protocol.PerformAction(ctx, action, argument)
	return err
}

// Labels returns a snapshot of one entity class.
func (p *Panel) Labels(class paradox.EntityClass) map[int]paradox.Properties {
	t := p.labels.Table(class)
	if t == nil {
		return nil
	}
	return t.Snapshot()
}

func (p *Panel) AllLabels() map[paradox.EntityClass]map[int]paradox.Properties {
	return p.labels.Snapshot()
}

// Status returns the latest copy of a status block.
func (p *Panel) Status(variant uint8) (spectra.StatusResponse, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.status[variant]
	return s, ok
}

func (p *Panel) Announcement() paradox.Announcement {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.announcement
}

// SetCachedData restores labels saved for the same panel.
func (p *Panel) SetCachedData(data *cache.Data) bool {
	if !data.Matches(p.Announcement()) {
		return false
	}
	p.labels.Restore(data.Labels)
	return true
}

func (p *Panel) GetCacheableData() cache.Data {
	return cache.Data{
		Panel:      p.Announcement(),
		Labels:     p.labels.Snapshot(),
		LastUpdate: time.Now(),
	}
}

// Disconnect says goodbye to the panel and closes the link.
func (p *Panel) Disconnect(ctx context.Context) {
	if p.link == nil {
		return
	}
	p.log.Info("Disconnecting from panel...")
	close(p.stop)
	p.mu.Lock()
	loggedIn := p.isLoggedIn
	p.isLoggedIn = false
	p.mu.Unlock()
	if loggedIn {
		if err := p.protocol.CloseConnection(ctx); err != nil {
			p.log.Warn("Failed to send close connection: %v", err)
		}
	}
	p.link.Close()
	p.wg.Wait()
	p.link = nil
	p.log.Info("Disconnected from panel")
}
