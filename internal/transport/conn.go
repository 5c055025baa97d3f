package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/tarm/serial"
	"golang.org/x/time/rate"

	"github.com/daemonp/paradox2mqtt/internal/log"
	"github.com/daemonp/paradox2mqtt/internal/metrics"
	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

const (
	DefaultTimeout     = 2 * time.Second
	DefaultDialTimeout = 30 * time.Second
	eventBuffer        = 100
)

// Options configures the link to the panel.
type Options struct {
	Connection  string // tcp or serial
	Host        string
	Port        int
	SerialPort  string
	Baud        int
	Timeout     time.Duration
	Retries     int
	Rate        float64 // frames per second, 0 for unlimited
	DialTimeout time.Duration
}

// Conn is a framed request/reply link to the panel. Only one request is
// outstanding at a time; frames that do not answer it are queued on Events.
type Conn struct {
	log     *log.Logger
	metrics *metrics.Metrics
	rw      io.ReadWriteCloser
	timeout time.Duration
	retries int
	limiter *rate.Limiter
	// A serial port opened with a read timeout reports an idle line as an
	// empty read ending in io.EOF.
	idleEOF bool

	reqMu   sync.Mutex
	writeMu sync.Mutex

	mu     sync.Mutex
	waiter *waiter
	closed bool

	events    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

type waiter struct {
	accept func([]byte) bool
	ch     chan []byte
}

// Dial opens a TCP or serial link according to opts.
func Dial(ctx context.Context, opts Options, logger *log.Logger, m *metrics.Metrics) (*Conn, error) {
	if logger == nil {
		logger = log.Nop()
	}
	dialTimeout := opts.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}

	switch opts.Connection {
	case "serial":
		baud := opts.Baud
		if baud == 0 {
			baud = 9600
		}
		logger.Debug("Opening serial port %s at %d baud", opts.SerialPort, baud)
		port, err := serial.OpenPort(&serial.Config{
			Name:        opts.SerialPort,
			Baud:        baud,
			ReadTimeout: 100 * time.Millisecond,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", opts.SerialPort, err)
		}
		return New(port, opts, logger, m), nil
	case "", "tcp":
		addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
		logger.Debug("Attempting to connect to %s", addr)
		d := net.Dialer{Timeout: dialTimeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
		}
		logger.Debug("Connection established")
		return New(conn, opts, logger, m), nil
	}
	return nil, fmt.Errorf("unknown connection type %q", opts.Connection)
}

// New wraps an open stream and starts reading from it.
func New(rw io.ReadWriteCloser, opts Options, logger *log.Logger, m *metrics.Metrics) *Conn {
	if logger == nil {
		logger = log.Nop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	c := &Conn{
		log:     logger,
		metrics: m,
		rw:      rw,
		timeout: timeout,
		retries: opts.Retries,
		limiter: rate.NewLimiter(limit, 1),
		idleEOF: opts.Connection == "serial",
		events:  make(chan []byte, eventBuffer),
		done:    make(chan struct{}),
	}
	m.SetConnected(true)
	go c.readLoop()
	return c
}

// Events delivers frames nobody was waiting for. It is closed with the
// connection.
func (c *Conn) Events() <-chan []byte { return c.events }

// Done is closed once the connection is gone.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.waiter = nil
		c.mu.Unlock()
		err = c.rw.Close()
		close(c.done)
		c.metrics.SetConnected(false)
		c.log.Debug("Disconnected from panel")
	})
	return err
}

func (c *Conn) readLoop() {
	defer close(c.events)
	var framer Framer
	buffer := make([]byte, 1024)
	for {
		n, err := c.rw.Read(buffer)
		if n > 0 {
			for _, frame := range framer.Feed(buffer[:n]) {
				c.dispatch(frame)
			}
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if c.idleEOF && errors.Is(err, io.EOF) && !c.isClosed() {
				continue
			}
			select {
			case <-c.done:
			default:
				if !errors.Is(err, io.EOF) {
					c.log.Error("Read error: %v", err)
				} else {
					c.log.Warn("Panel closed the connection")
				}
				c.Close()
			}
			return
		}
	}
}

func (c *Conn) dispatch(frame []byte) {
	c.log.Frame("rx", paradox.HexDump(frame))

	c.mu.Lock()
	w := c.waiter
	if w != nil && (w.accept == nil || w.accept(frame)) {
		c.waiter = nil
		c.mu.Unlock()
		w.ch <- frame
		return
	}
	c.mu.Unlock()

	select {
	case c.events <- frame:
	default:
		c.log.Warn("Event queue full, dropping frame: %s", paradox.HexDump(frame))
	}
}

func (c *Conn) write(ctx context.Context, frame []byte) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.log.Frame("tx", paradox.HexDump(frame))
	if _, err := c.rw.Write(frame); err != nil {
		c.log.Error("Failed to send frame: %v", err)
		return fmt.Errorf("failed to send frame: %w", err)
	}
	return nil
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Send writes frame without waiting for a reply.
func (c *Conn) Send(ctx context.Context, frame []byte) error {
	if c.isClosed() {
		return paradox.ErrNotConnected
	}
	return c.write(ctx, frame)
}

// SendWait writes frame and waits for the first frame accept takes. Each
// attempt waits for the configured timeout and is retried the configured
// number of times before ErrTimeout is returned.
func (c *Conn) SendWait(ctx context.Context, frame []byte, accept func([]byte) bool) ([]byte, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.metrics.Retry()
			c.log.Debug("Retrying request, attempt %d", attempt+1)
		}
		w := &waiter{accept: accept, ch: make(chan []byte, 1)}
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, paradox.ErrNotConnected
		}
		c.waiter = w
		c.mu.Unlock()

		if err := c.write(ctx, frame); err != nil {
			c.clearWaiter(w)
			return nil, err
		}

		timer := time.NewTimer(c.timeout)
		select {
		case reply := <-w.ch:
			timer.Stop()
			return reply, nil
		case <-timer.C:
			c.clearWaiter(w)
			select {
			case reply := <-w.ch:
				return reply, nil
			default:
			}
		case <-ctx.Done():
			timer.Stop()
			c.clearWaiter(w)
			return nil, ctx.Err()
		case <-c.done:
			timer.Stop()
			return nil, paradox.ErrNotConnected
		}
	}
	c.metrics.Timeout()
	return nil, fmt.Errorf("%w after %d attempts", paradox.ErrTimeout, c.retries+1)
}

func (c *Conn) clearWaiter(w *waiter) {
	c.mu.Lock()
	if c.waiter == w {
		c.waiter = nil
	}
	c.mu.Unlock()
}
