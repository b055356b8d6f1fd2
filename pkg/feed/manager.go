// Package feed owns the streaming connection lifecycle and the order
// book and trade tape state fed by it.
package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/cmorgan/bookfeed/internal/metrics"
	"github.com/cmorgan/bookfeed/pkg/binance"
	"github.com/cmorgan/bookfeed/pkg/book"
	"github.com/cmorgan/bookfeed/pkg/models"
	"github.com/cmorgan/bookfeed/pkg/tape"
)

// Dialer opens a websocket connection. Injectable for tests.
type Dialer func(ctx context.Context, url string) (*websocket.Conn, error)

type Config struct {
	WSBaseURL      string
	DepthInterval  string
	ReconnectDelay time.Duration
	MaxReconnects  int
	TradeLogSize   int
}

func (c *Config) applyDefaults() {
	if c.WSBaseURL == "" {
		c.WSBaseURL = "wss://stream.binance.com"
	}
	if c.DepthInterval == "" {
		c.DepthInterval = "100ms"
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 3 * time.Second
	}
	if c.MaxReconnects <= 0 {
		c.MaxReconnects = 10
	}
	if c.TradeLogSize <= 0 {
		c.TradeLogSize = tape.DefaultCapacity
	}
}

// session is one subscription's connection lifecycle. Its goroutine is
// the sole writer of the manager's book, tape and status.
type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager drives the connect/stream/reconnect lifecycle for a single
// symbol subscription and exposes consistent snapshots of the book, the
// tape and the connection status to readers.
type Manager struct {
	cfg    Config
	logger *logrus.Logger
	dial   Dialer

	// lifecycle serializes subscribe/unsubscribe end to end, so a new
	// session can never be installed while a displaced one is still alive.
	lifecycle sync.Mutex

	mu      sync.RWMutex
	symbol  string
	book    *book.Book
	tape    *tape.Log
	status  models.ConnectionStatus
	session *session
}

func NewManager(cfg Config, logger *logrus.Logger) *Manager {
	cfg.applyDefaults()
	return &Manager{
		cfg:    cfg,
		logger: logger,
		dial:   defaultDialer,
		book:   book.New(),
		tape:   tape.NewLog(cfg.TradeLogSize),
		status: models.ConnectionStatus{State: models.StateDisconnected},
	}
}

// Subscribe starts streaming the given symbol. Any previous subscription
// is torn down completely first, and both the book and the tape are
// reset; this is the only point where they reset, a mid-stream reconnect
// resumes on top of the existing (possibly stale) book.
func (m *Manager) Subscribe(symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ErrInvalidSubscription
	}

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	m.teardown()

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	m.symbol = symbol
	m.book.Reset()
	m.tape.Reset()
	m.status = models.ConnectionStatus{State: models.StateConnecting}
	m.session = sess
	m.mu.Unlock()

	go m.run(ctx, sess, symbol, uuid.NewString())
	return nil
}

// Unsubscribe tears down the active subscription, if any. It cancels an
// in-flight dial or pending reconnect timer and blocks until the session
// goroutine has exited, so no state mutation can follow it.
func (m *Manager) Unsubscribe() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	m.teardown()
}

// teardown is the shared teardown path; callers hold m.lifecycle.
func (m *Manager) teardown() {
	m.mu.Lock()
	sess := m.session
	m.session = nil
	m.mu.Unlock()

	if sess == nil {
		return
	}
	sess.cancel()
	<-sess.done
}

// Snapshot projects the ranked depth view. A depth of 0 or less returns
// all levels; otherwise each side is truncated to the top depth levels.
func (m *Manager) Snapshot(depth int) models.BookSnapshot {
	m.mu.RLock()
	bids, asks, spread := m.book.Project()
	symbol := m.symbol
	m.mu.RUnlock()

	if depth > 0 {
		if len(bids) > depth {
			bids = bids[:depth]
		}
		if len(asks) > depth {
			asks = asks[:depth]
		}
	}

	return models.BookSnapshot{
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Spread:    spread,
		Timestamp: time.Now().UTC(),
	}
}

// RecentTrades returns a copy of the tape, newest first.
func (m *Manager) RecentTrades() []models.Trade {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tape.Recent()
}

func (m *Manager) Status() models.ConnectionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) Symbol() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.symbol
}

func (m *Manager) run(ctx context.Context, sess *session, symbol, sessionID string) {
	defer close(sess.done)

	logger := m.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"symbol":     symbol,
	})
	streamURL := binance.StreamURL(m.cfg.WSBaseURL, symbol, m.cfg.DepthInterval)

	attempts := 0
	for {
		m.setState(models.StateConnecting)
		logger.WithField("url", streamURL).Info("Connecting to market data stream")

		conn, err := m.dial(ctx, streamURL)
		if err == nil {
			attempts = 0
			m.setStatus(models.StateConnected, "")
			metrics.ConnectionUp.Set(1)
			logger.Info("Stream connected")

			err = m.readLoop(ctx, conn, logger)
			metrics.ConnectionUp.Set(0)
			conn.Close()
		}

		if ctx.Err() != nil {
			// Intentional teardown; transport errors here are expected noise.
			m.setStatus(models.StateDisconnected, "")
			logger.Info("Session closed")
			return
		}

		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			m.setStatus(models.StateDisconnected, "")
			logger.Info("Stream closed normally")
			return
		}

		logger.WithError(err).Warn("Stream connection lost")
		attempts++
		if attempts >= m.cfg.MaxReconnects {
			m.setStatus(models.StateDisconnected, ErrMaxReconnects.Error())
			logger.Error("Max reconnect attempts reached, giving up")
			return
		}
		m.setStatus(models.StateDisconnected, err.Error())

		select {
		case <-ctx.Done():
			m.setStatus(models.StateDisconnected, "")
			logger.Info("Session closed while reconnect pending")
			return
		case <-time.After(m.cfg.ReconnectDelay):
		}
		metrics.ReconnectsTotal.Inc()
		logger.WithField("attempt", attempts).Info("Reconnecting")
	}
}

// readLoop consumes the open connection until it fails or the session is
// torn down. It is the single serialization point for state mutation:
// deltas merge into the book in exact arrival order.
func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn, logger *logrus.Entry) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(time.Second)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "unsubscribe"), deadline)
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.MessagesTotal.Inc()

		trade, delta, err := binance.ParseMessage(raw)
		if err != nil {
			metrics.ParseErrorsTotal.Inc()
			logger.WithError(err).Warn("Dropping malformed message")
			continue
		}

		switch {
		case trade != nil:
			m.mu.Lock()
			m.tape.Append(*trade)
			m.mu.Unlock()
			metrics.TradesTotal.Inc()
		case delta != nil:
			m.mu.Lock()
			m.book.ApplyDelta(delta)
			bidDepth, askDepth := m.book.Depth()
			m.mu.Unlock()
			metrics.DepthUpdatesTotal.Inc()
			metrics.BookLevels.WithLabelValues("bids").Set(float64(bidDepth))
			metrics.BookLevels.WithLabelValues("asks").Set(float64(askDepth))
		}
	}
}

func (m *Manager) setState(state models.ConnectionState) {
	m.mu.Lock()
	m.status.State = state
	m.mu.Unlock()
}

func (m *Manager) setStatus(state models.ConnectionState, lastError string) {
	m.mu.Lock()
	m.status = models.ConnectionStatus{State: state, LastError: lastError}
	m.mu.Unlock()
}

func defaultDialer(ctx context.Context, url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to websocket: %w", err)
	}
	return conn, nil
}
