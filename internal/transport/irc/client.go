package irc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	stdlog "log"
	"sync"
	"time"

	"github.com/ergochat/irc-go/ircevent"
	"github.com/ergochat/irc-go/ircmsg"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/vovakirdan/ircsession/internal/config"
	"github.com/vovakirdan/ircsession/internal/core"
	"github.com/vovakirdan/ircsession/internal/metrics"
)

// Client connects a core.Session to a server. It implements core.Sender.
type Client struct {
	cfg     config.IRCConfig
	session *core.Session
	metrics *metrics.Metrics
	log     *zerolog.Logger
	decode  decodeFunc
	limiter *rate.Limiter

	mu   sync.Mutex
	conn *ircevent.Connection
}

// New builds a client for session. m may be nil.
func New(cfg config.IRCConfig, session *core.Session, m *metrics.Metrics, logger *zerolog.Logger) (*Client, error) {
	decode, err := newDecoder(cfg.FallbackEncoding)
	if err != nil {
		return nil, err
	}
	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}
	burst := cfg.SendBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		cfg:     cfg,
		session: session,
		metrics: m,
		log:     logger,
		decode:  decode,
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// Run connects and feeds the session until ctx is cancelled. When the
// connection drops it reconnects after ReconnectDelay, or returns if the
// delay is zero.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if c.cfg.ReconnectDelay <= 0 {
			return err
		}
		c.log.Warn().Err(err).Dur("delay", c.cfg.ReconnectDelay).Msg("irc connection lost, reconnecting")

		timer := time.NewTimer(c.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// runOnce drives one connection. Every callback from ircevent is funnelled
// through inbound and applied by a single pump goroutine, so the session
// sees messages in arrival order from one goroutine only.
func (c *Client) runOnce(ctx context.Context) error {
	conn := c.newConnection()
	inbound := make(chan *core.RawMessage, 64)
	closed := make(chan struct{})
	stop := make(chan struct{})

	// ircevent has no wildcard callback, so every command is registered.
	forward := func(msg ircmsg.Message) {
		raw := toRawMessage(msg, c.decode)
		select {
		case inbound <- raw:
		case <-stop:
		}
	}
	for _, cmd := range core.Commands() {
		conn.AddCallback(cmd, forward)
	}
	var closeOnce sync.Once
	conn.AddDisconnectCallback(func(ircmsg.Message) {
		closeOnce.Do(func() { close(closed) })
	})

	c.session.Connected()
	pumped := make(chan struct{})
	go c.pump(inbound, stop, pumped)
	finish := func(reason string) {
		close(stop)
		<-pumped
		c.session.Disconnected(reason)
	}

	c.setConn(conn)
	defer c.setConn(nil)

	c.log.Info().Str("server", c.cfg.Server).Bool("tls", c.cfg.TLS).Msg("connecting to irc server")
	if err := conn.Connect(); err != nil {
		finish(err.Error())
		return fmt.Errorf("connect %s: %w", c.cfg.Server, err)
	}

	select {
	case <-closed:
		finish("connection closed")
		return errors.New("connection closed")
	case <-ctx.Done():
		conn.Quit()
		finish("shutdown")
		return ctx.Err()
	}
}

// pump applies inbound messages until stop is closed, then applies whatever
// is still buffered.
func (c *Client) pump(inbound <-chan *core.RawMessage, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case raw := <-inbound:
			c.handle(raw)
		case <-stop:
			c.drain(inbound)
			return
		}
	}
}

func (c *Client) handle(raw *core.RawMessage) {
	c.metrics.Inbound(raw.Command)
	c.session.Handle(raw)
}

func (c *Client) drain(inbound <-chan *core.RawMessage) {
	for {
		select {
		case raw := <-inbound:
			c.handle(raw)
		default:
			return
		}
	}
}

func (c *Client) newConnection() *ircevent.Connection {
	conn := &ircevent.Connection{
		Server:      c.cfg.Server,
		Nick:        c.cfg.Nickname,
		User:        c.cfg.Username,
		RealName:    c.cfg.Realname,
		Password:    c.cfg.Password,
		UseTLS:      c.cfg.TLS,
		QuitMessage: c.cfg.QuitMessage,
		Debug:       c.cfg.Debug,
		Log:         stdlog.New(c.log.With().Str("component", "ircevent").Logger(), "", 0),
	}
	if c.cfg.TLS {
		conn.TLSConfig = &tls.Config{InsecureSkipVerify: c.cfg.InsecureSkipVerify} //nolint:gosec
	}
	return conn
}

func (c *Client) setConn(conn *ircevent.Connection) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) current() *ircevent.Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// SendLine writes one line, waiting for the flood limiter.
func (c *Client) SendLine(line string) error {
	return c.SendLineContext(context.Background(), line)
}

// SendLineContext is SendLine with a deadline for the limiter wait.
func (c *Client) SendLineContext(ctx context.Context, line string) error {
	conn := c.current()
	if conn == nil {
		return core.ErrNotConnected
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send rate: %w", err)
	}
	if err := conn.SendRaw(line); err != nil {
		return fmt.Errorf("send line: %w", err)
	}
	c.metrics.Outbound()
	return nil
}
