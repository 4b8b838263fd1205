// Package transport carries call audio over a browser websocket: binary
// frames are 16-bit PCM in both directions, text frames are control messages.
package transport

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  65536,
	WriteBufferSize: 65536,
	CheckOrigin: func(r *http.Request) bool {
		// Allow any origin for demo use; restrict in production
		return true
	},
}

// controlMessage is the text-frame envelope. The only type currently sent by
// clients is "bye".
type controlMessage struct {
	Type string `json:"type"`
}

// Conn is one upgraded audio connection. Writes are serialized internally, so
// WritePCM is safe from the synthesis goroutine while ReadLoop runs.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

// Upgrade takes over the HTTP request as a websocket audio connection.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{ws: ws, done: make(chan struct{})}, nil
}

// WritePCM sends one chunk of synthesized audio to the browser. Errors mean
// the peer is gone; the read loop will notice and finish, so they are only
// logged here.
func (c *Conn) WritePCM(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	c.writeMu.Lock()
	err := c.ws.WriteMessage(websocket.BinaryMessage, pcm)
	c.writeMu.Unlock()
	if err != nil {
		select {
		case <-c.done:
		default:
			log.Printf("ws write audio: %v", err)
		}
	}
}

// ReadLoop pumps inbound frames until the peer disconnects or sends "bye".
// Binary frames are handed to onAudio in arrival order. Blocks until the
// connection is finished.
func (c *Conn) ReadLoop(onAudio func(pcm []byte)) {
	defer c.Close()
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				select {
				case <-c.done:
				default:
					log.Printf("ws read: %v", err)
				}
			}
			return
		}
		switch mt {
		case websocket.BinaryMessage:
			if len(data) > 0 {
				onAudio(data)
			}
		case websocket.TextMessage:
			var m controlMessage
			if err := json.Unmarshal(data, &m); err != nil {
				log.Printf("ws control: unparsable frame: %v", err)
				continue
			}
			if strings.EqualFold(m.Type, "bye") {
				return
			}
		}
	}
}

// Reject closes the connection with a policy-violation close frame (1008),
// used when the upgrade succeeded but the session is not valid.
func (c *Conn) Reject(reason string) {
	c.writeMu.Lock()
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
	c.writeMu.Unlock()
	c.Close()
}

// Done is closed once the connection is finished, whichever side ended it.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}
