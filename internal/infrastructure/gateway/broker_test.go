package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamServer(t *testing.T, handler func(c *websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handler(c)
	}))
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func currentStream(b *BrokerAdapter) (conn *websocket.Conn, done chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.wsConn, b.wsDone
}

func awaitLoopExit(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not exit after the stream dropped")
	}
}

func TestSubscribe_RedialsAfterStreamFailure(t *testing.T) {
	var accepted int32
	srv, wsURL := newStreamServer(t, func(c *websocket.Conn) {
		atomic.AddInt32(&accepted, 1)
		c.ReadMessage() // consume the subscribe request
		c.Close()
	})
	defer srv.Close()

	b := NewBrokerAdapter("key", "secret", srv.URL, wsURL, nil)

	require.NoError(t, b.Subscribe([]string{"EURUSD"}))
	_, first := currentStream(b)
	require.NotNil(t, first)
	awaitLoopExit(t, first)

	conn, _ := currentStream(b)
	assert.Nil(t, conn, "connection slot must be free after the loop exits")

	// The second connection's loop must run and shut down just as cleanly as
	// the first one did.
	require.NoError(t, b.Subscribe([]string{"EURUSD"}))
	_, second := currentStream(b)
	require.NotNil(t, second)
	assert.NotEqual(t, first, second)
	awaitLoopExit(t, second)

	assert.EqualValues(t, 2, atomic.LoadInt32(&accepted))
}

func TestSubscribe_DispatchesQuotes(t *testing.T) {
	srv, wsURL := newStreamServer(t, func(c *websocket.Conn) {
		c.ReadMessage()
		c.WriteJSON(map[string]interface{}{
			"topic": "quote.EURUSD",
			"data":  map[string]string{"bid": "1.1999", "ask": "1.2000"},
		})
		c.ReadMessage() // block until the client goes away
	})
	defer srv.Close()

	b := NewBrokerAdapter("key", "secret", srv.URL, wsURL, nil)

	type quote struct {
		symbol   string
		bid, ask float64
	}
	got := make(chan quote, 1)
	b.OnQuote(func(symbol string, bid, ask float64) {
		got <- quote{symbol, bid, ask}
	})

	require.NoError(t, b.Subscribe([]string{"EURUSD"}))

	select {
	case q := <-got:
		assert.Equal(t, "EURUSD", q.symbol)
		assert.InDelta(t, 1.1999, q.bid, 1e-9)
		assert.InDelta(t, 1.2000, q.ask, 1e-9)
	case <-time.After(2 * time.Second):
		t.Fatal("no quote dispatched")
	}
}
