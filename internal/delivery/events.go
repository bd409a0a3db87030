package delivery

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const eventWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Events streams the session's message and navigation events as JSON
// websocket frames until the session ends or the client goes away.
func (h *EditHandler) Events(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorf("WebSocket upgrade failed for session %s: %v", sess.ID, err)
		return
	}
	defer conn.Close()

	events, unsubscribe := sess.Form.Subscribe()
	defer unsubscribe()

	// Reads are only used to notice the client closing the socket.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.log.Infof("Event stream attached to session %s", sess.ID)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(eventWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				h.log.Warnf("Failed to push event to session %s: %v", sess.ID, err)
				return
			}
		case <-gone:
			h.log.Infof("Event stream for session %s disconnected", sess.ID)
			return
		}
	}
}
