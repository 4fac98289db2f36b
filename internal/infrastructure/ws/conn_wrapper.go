package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connWrapper serializes writes to a single gorilla connection; the write and
// ping paths run in the same goroutine, but close may come from another.
type connWrapper struct {
	conn      *websocket.Conn
	writeWait time.Duration
	mutex     sync.Mutex
}

func newConnWrapper(c *websocket.Conn, writeWait time.Duration) *connWrapper {
	return &connWrapper{conn: c, writeWait: writeWait}
}

func (w *connWrapper) WriteJSON(v any) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeWait))
	return w.conn.WriteJSON(v)
}

func (w *connWrapper) WritePing() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(w.writeWait))
}

func (w *connWrapper) WriteClose() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(w.writeWait))
}

func (w *connWrapper) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}
