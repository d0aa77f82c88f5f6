package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/ayusman/handsheet/internal/detector"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const writeWait = 2 * time.Second

// Message is pushed to every connected tracker page.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// LandmarksHandler receives landmark frames from browser trackers and
// pushes cues and commits back to them.
type LandmarksHandler struct {
	ingest  func(detector.Frame)
	now     func() time.Time
	clients map[*wsClient]struct{}
	mu      sync.RWMutex
}

// NewLandmarksHandler creates a handler that hands every received frame to
// ingest. Frames are stamped with the server clock on arrival.
func NewLandmarksHandler(ingest func(detector.Frame)) *LandmarksHandler {
	return &LandmarksHandler{
		ingest:  ingest,
		now:     time.Now,
		clients: make(map[*wsClient]struct{}),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[server] websocket upgrade error: %v", err)
		return
	}
	c := &wsClient{conn: conn}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		frame, err := parseFrame(data)
		if err != nil {
			log.Printf("[server] dropping landmark message: %v", err)
			continue
		}
		frame.Timestamp = h.now()
		h.ingest(frame)
	}
}

// Broadcast sends msg to every connected client. Clients that cannot be
// written to are dropped.
func (h *LandmarksHandler) Broadcast(msgType string, data any) {
	payload, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		log.Printf("[server] encode %s message: %v", msgType, err)
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(payload); err != nil {
			log.Printf("[server] websocket write failed, closing: %v", err)
			c.conn.Close()
		}
	}
}

// Clients returns the number of connected trackers.
func (h *LandmarksHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var (
	errNotFrame = errors.New("not a landmark frame")
	errBadHand  = errors.New("hand does not have 21 points")
)

// parseFrame accepts {"hands":[...]} where each hand is either a bare array
// of 21 {x,y,z} points, as MediaPipe's browser API reports them, or an
// object with "points" (or "landmarks") and optional "handedness".
// A hand with the wrong number of points rejects the whole frame, since
// hands are identified by their position in the list.
func parseFrame(data []byte) (detector.Frame, error) {
	if !gjson.ValidBytes(data) {
		return detector.Frame{}, errNotFrame
	}
	hands := gjson.GetBytes(data, "hands")
	if !hands.Exists() {
		return detector.Frame{}, errNotFrame
	}

	var frame detector.Frame
	var bad error
	hands.ForEach(func(_, hand gjson.Result) bool {
		points := hand
		var handedness string
		if hand.IsObject() {
			points = hand.Get("points")
			if !points.Exists() {
				points = hand.Get("landmarks")
			}
			handedness = hand.Get("handedness").String()
		}
		pts := points.Array()
		if len(pts) != detector.NumLandmarks {
			bad = fmt.Errorf("%w: hand %d has %d", errBadHand, len(frame.Hands), len(pts))
			return false
		}
		h := detector.HandLandmarks{Handedness: handedness}
		for i, p := range pts {
			h.Points[i] = detector.Point3D{X: p.Get("x").Float(), Y: p.Get("y").Float(), Z: p.Get("z").Float()}
		}
		frame.Hands = append(frame.Hands, h)
		return true
	})
	if bad != nil {
		return detector.Frame{}, bad
	}
	return frame.Clamp(), nil
}
