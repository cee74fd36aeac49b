package gateway

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const closeWriteTimeout = 5 * time.Second

// wsTransport adapts a fiber websocket connection to the session transport
// interfaces. Writes are serialized with a mutex: the registry delivers from
// bus consumer goroutines while the session loop writes error frames.
type wsTransport struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func newTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{
		id:   uuid.New().String(),
		conn: conn,
	}
}

func (t *wsTransport) ID() string {
	return t.id
}

func (t *wsTransport) Write(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// Read blocks until the next text frame or transport error.
func (t *wsTransport) Read() ([]byte, error) {
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType == websocket.TextMessage {
			return data, nil
		}
	}
}

// Close sends a close frame with the given code and tears the socket down.
func (t *wsTransport) Close(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	t.mu.Lock()
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
	t.mu.Unlock()
	return t.conn.Close()
}
