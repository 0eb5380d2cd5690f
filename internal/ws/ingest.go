package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tmdahr/impulse-ultra/internal/measure"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating
	// the connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping
	// frames. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds incoming frames; sensor messages are tiny.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The sensor firmware does not send an Origin header; browsers
	// should be filtered at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// sensorMessage is the streaming-ingestion frame. Pointer components so
// a frame missing a field is distinguishable from a 0.0 reading.
type sensorMessage struct {
	Type   string   `json:"type"`
	AccelX *float64 `json:"accel_x"`
	AccelY *float64 `json:"accel_y"`
	AccelZ *float64 `json:"accel_z"`
}

// Ingest is the streaming ingestion adapter: a long-lived WebSocket
// connection delivering sensor frames, fire-and-forget. Every valid
// frame goes through the same Session.Process as the HTTP path, so the
// two transports can never diverge in scoring behavior. Malformed or
// wrong-type frames are dropped without touching the session.
type Ingest struct {
	session *measure.Session
}

// NewIngest returns an Ingest feeding the given session.
func NewIngest(session *measure.Session) *Ingest {
	return &Ingest{session: session}
}

// ServeHTTP upgrades the connection and consumes sensor frames until
// the client disconnects. Blocks for the lifetime of the connection.
func (g *Ingest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}
	defer conn.Close()
	log.Printf("ws: sensor connected from %s", conn.RemoteAddr())

	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, done)

	g.readLoop(conn)
	log.Printf("ws: sensor disconnected from %s", conn.RemoteAddr())
}

// readLoop consumes frames until the connection closes. Only the ping
// loop writes to the connection, so reads here never race a writer.
func (g *Ingest) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	var lastScore int64
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg sensorMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type != "sensor" || msg.AccelX == nil || msg.AccelY == nil || msg.AccelZ == nil {
			continue
		}

		score, measuring := g.session.Process(measure.Sample{
			X: *msg.AccelX,
			Y: *msg.AccelY,
			Z: *msg.AccelZ,
		})
		if measuring && score > lastScore {
			log.Printf("ws: max impact score now %d", score)
			lastScore = score
		}
	}
}

// pingLoop keeps the connection alive until done is closed or a write
// fails. Runs in its own goroutine per connection.
func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
