package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StreamConfig holds WebSocket quote stream settings.
type StreamConfig struct {
	URL                string
	StaleAfter         time.Duration // Quotes older than this are not served
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
	HandshakeTimeout   time.Duration
}

// DefaultStreamConfig returns sensible defaults.
func DefaultStreamConfig(url string) StreamConfig {
	return StreamConfig{
		URL:                url,
		StaleAfter:         60 * time.Second,
		ReconnectBaseDelay: 1 * time.Second,
		ReconnectMaxDelay:  60 * time.Second,
		HandshakeTimeout:   10 * time.Second,
	}
}

// Stream maintains a live quote cache over a WebSocket subscription.
// Readers never touch the network: Snapshot serves whatever the cache
// holds, and reports ErrNoQuotes when the cache is incomplete or stale.
type Stream struct {
	cfg    StreamConfig
	logger *slog.Logger

	mu         sync.RWMutex
	quotes     Quotes
	receivedAt map[Symbol]time.Time
	connected  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStream creates a new quote stream.
func NewStream(cfg StreamConfig, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{
		cfg:        cfg,
		logger:     logger,
		quotes:     make(Quotes),
		receivedAt: make(map[Symbol]time.Time),
	}
}

// Start begins the subscription loop in the background.
func (s *Stream) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("quote stream started", "url", s.cfg.URL)
	return nil
}

// Stop gracefully shuts down the stream.
func (s *Stream) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("quote stream stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsConnected returns the current connection state.
func (s *Stream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Snapshot returns a copy of the cached quotes. It fails with ErrNoQuotes
// unless every reference asset has a fresh reading.
func (s *Stream) Snapshot() (Quotes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	out := make(Quotes, len(s.quotes))
	for _, sym := range Symbols() {
		q, ok := s.quotes[sym]
		if !ok {
			return nil, ErrNoQuotes
		}
		if now.Sub(s.receivedAt[sym]) > s.cfg.StaleAfter {
			return nil, ErrNoQuotes
		}
		out[sym] = q
	}
	return out, nil
}

// run dials, subscribes, and reads until cancelled, reconnecting with
// exponential backoff on failure.
func (s *Stream) run() {
	defer s.wg.Done()

	backoff := s.cfg.ReconnectBaseDelay

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		err := s.connectAndRead()
		if s.ctx.Err() != nil {
			return
		}

		s.logger.Warn("quote stream disconnected",
			"error", err,
			"reconnect_in", backoff,
		)

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > s.cfg.ReconnectMaxDelay {
			backoff = s.cfg.ReconnectMaxDelay
		}
	}
}

// subscribeRequest is the Hermes subscription command.
type subscribeRequest struct {
	Type string   `json:"type"`
	IDs  []string `json:"ids"`
}

// streamMessage is a single Hermes WebSocket message.
type streamMessage struct {
	Type      string `json:"type"`
	PriceFeed struct {
		ID    string `json:"id"`
		Price struct {
			Price       string `json:"price"`
			Expo        int32  `json:"expo"`
			PublishTime int64  `json:"publish_time"`
		} `json:"price"`
	} `json:"price_feed"`
}

// connectAndRead runs one connection lifetime: dial, subscribe, read until error.
func (s *Stream) connectAndRead() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: s.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(s.ctx, s.cfg.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Respond to server pings to keep the connection alive.
	conn.SetPingHandler(func(data string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	ids := make([]string, 0, len(feedIDs))
	for _, sym := range Symbols() {
		ids = append(ids, feedIDs[sym])
	}
	sub := subscribeRequest{Type: "subscribe", IDs: ids}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}

	s.setConnected(true)
	defer s.setConnected(false)

	s.logger.Debug("quote stream subscribed", "assets", len(ids))

	// Close the connection when cancelled so ReadMessage unblocks.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-s.ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	symbolByID := make(map[string]Symbol, len(feedIDs))
	for sym, id := range feedIDs {
		symbolByID[id] = sym
	}

	for {
		_, data, err := conn.ReadMessage()
		receivedAt := time.Now()
		if err != nil {
			return err
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("dropping malformed stream message", "error", err)
			continue
		}
		if msg.Type != "price_update" {
			continue
		}

		sym, ok := symbolByID[msg.PriceFeed.ID]
		if !ok {
			continue
		}

		price, err := strconv.ParseInt(msg.PriceFeed.Price.Price, 10, 64)
		if err != nil {
			s.logger.Debug("dropping unparseable price", "symbol", sym, "error", err)
			continue
		}

		s.mu.Lock()
		s.quotes[sym] = Quote{
			Symbol:      sym,
			Price:       price,
			Expo:        msg.PriceFeed.Price.Expo,
			PublishedAt: time.Unix(msg.PriceFeed.Price.PublishTime, 0),
		}
		s.receivedAt[sym] = receivedAt
		s.mu.Unlock()
	}
}

func (s *Stream) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
