package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// clientConn adapts a gorilla connection to the subscriber interface.
// gorilla allows one concurrent writer, so the broadcast path and the
// pinger serialize through the mutex.
type clientConn struct {
	rawConn *websocket.Conn
	mu      sync.Mutex
}

func (c *clientConn) write(mt int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteMessage(mt, data)
}

func (c *clientConn) send(msg []byte) error {
	return c.write(websocket.TextMessage, msg)
}

func (c *clientConn) close() {
	_ = c.rawConn.Close()
}
