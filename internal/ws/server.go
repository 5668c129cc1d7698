package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 20 * time.Second // must be < pongWait
)

// WsServer upgrades watchers onto per-auction rooms. The socket is
// receive-only from the client's point of view.
type WsServer struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWsServer(hub *Hub) *WsServer {
	return &WsServer{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  512,
			WriteBufferSize: 1024,
			// dev-only
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *WsServer) Handle(ginCtx *gin.Context) {
	auctionID := ginCtx.Query("auction_id")
	if auctionID == "" {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "auction_id is required"})
		return
	}

	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(512)

	conn := &clientConn{rawConn: rawConn}
	s.hub.Join(auctionID, conn)

	go s.reader(auctionID, conn)
	go s.pinger(conn)
}

// reader drains the socket until the peer goes away; inbound frames carry
// no meaning here.
func (s *WsServer) reader(auctionID string, conn *clientConn) {
	defer s.hub.Leave(auctionID, conn)

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.rawConn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.write(websocket.PingMessage, nil); err != nil {
			return
		}
	}
}
