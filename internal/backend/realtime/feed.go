// Package realtime consumes the service's change feed over a websocket. Each
// text frame carries one freshly inserted message row, delivered in
// server-commit order.
package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"notechat/internal/backend"
)

const (
	readLimit     = 1 << 20
	readDeadline  = 300 * time.Second
	writeDeadline = 30 * time.Second
	pingInterval  = 240 * time.Second
)

// Config locates the feed endpoint.
type Config struct {
	URL string `env:"FEED_URL" envDefault:"ws://localhost:9000/feed"`
}

// Feed dials the change feed endpoint per subscription and turns frames into
// typed messages.
type Feed struct {
	logger *zap.SugaredLogger
	url    string
	token  string
}

func NewFeed(logger *zap.SugaredLogger, cfg Config, session backend.Session) *Feed {
	return &Feed{
		logger: logger,
		url:    cfg.URL,
		token:  session.Token,
	}
}

// Subscribe opens the socket and returns the decoded message stream together
// with an unsubscribe function. The stream is closed when the subscription
// ends, whether by unsubscribe, context cancellation or a read error.
// Malformed frames are logged and skipped, never fatal.
func (f *Feed) Subscribe(ctx context.Context) (<-chan backend.Message, func(), error) {
	header := http.Header{}
	if f.token != "" {
		header.Set("Authorization", "Bearer "+f.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, header)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan backend.Message, 32)
	done := make(chan struct{})
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			conn.Close()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-done:
		}
	}()

	go f.pingLoop(conn, done)
	go f.readLoop(conn, out, done, unsubscribe)

	return out, unsubscribe, nil
}

func (f *Feed) readLoop(conn *websocket.Conn, out chan<- backend.Message, done <-chan struct{}, unsubscribe func()) {
	defer close(out)
	defer unsubscribe()

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				f.logger.Errorf("change feed read: %v", err)
			}
			return
		}

		m, err := backend.DecodeMessage(frame)
		if err != nil {
			f.logger.Errorf("skipping change feed frame: %v", err)
			continue
		}

		select {
		case out <- m:
		case <-done:
			return
		}
	}
}

func (f *Feed) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				f.logger.Errorf("change feed ping: %v", err)
				return
			}
		}
	}
}
