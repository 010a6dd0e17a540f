package canvas

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/dia-canvas/internal/physics"
)

const (
	writeWait     = 2 * time.Second
	frameBuffer   = 4
	gestureBuffer = 8
)

// Client message types.
const (
	MsgPointerDown = "pointer_down"
	MsgPointerMove = "pointer_move"
	MsgPointerUp   = "pointer_up"
	MsgResize      = "resize"
	MsgDismiss     = "dismiss"
)

// ClientMessage is a pointer or viewport event sent by the renderer. A
// pointer_down without an ID is hit-tested against the bodies. X and Y are
// omitted when the event carries no position.
type ClientMessage struct {
	Type string   `json:"type"`
	ID   int      `json:"id,omitempty"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
	W    float64  `json:"w,omitempty"`
	H    float64  `json:"h,omitempty"`
}

// PointerAt builds a pointer message at (x, y).
func PointerAt(typ string, x, y float64) ClientMessage {
	return ClientMessage{Type: typ, X: &x, Y: &y}
}

// Point returns the pointer position, if the message has one.
func (m ClientMessage) Point() (physics.Vec, bool) {
	if m.X == nil || m.Y == nil {
		return physics.Vec{}, false
	}
	return physics.Vec{X: *m.X, Y: *m.Y}, true
}

// ServerMessage carries either a frame or a finished gesture.
type ServerMessage struct {
	Type    string           `json:"type"`
	Frame   *Frame           `json:"frame,omitempty"`
	Gesture *physics.Gesture `json:"gesture,omitempty"`
}

// HubConfig configures the websocket endpoint.
type HubConfig struct {
	// OriginPatterns are accepted cross-origin hosts, e.g. "localhost:5173".
	OriginPatterns []string
	Now            func() time.Time
}

// Hub serves the canvas websocket: it streams frames and forwards pointer
// events into the physics engine.
type Hub struct {
	loop    *Loop
	origins []string
	now     func() time.Time
	clients atomic.Int64
}

// NewHub creates a hub for a loop.
func NewHub(loop *Loop, cfg HubConfig) *Hub {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Hub{loop: loop, origins: cfg.OriginPatterns, now: cfg.Now}
}

// Clients returns the number of connected renderers.
func (h *Hub) Clients() int {
	return int(h.clients.Load())
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Warn("canvas websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	h.clients.Add(1)
	defer h.clients.Add(-1)
	slog.Info("canvas client connected", "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	frames, unsubscribe := h.loop.Subscribe(frameBuffer)
	defer unsubscribe()
	gestures := make(chan physics.Gesture, gestureBuffer)

	first := h.loop.Current()
	if err := writeMessage(ctx, conn, ServerMessage{Type: "frame", Frame: &first}); err != nil {
		return
	}

	go h.writeLoop(ctx, cancel, conn, frames, gestures)

	// A renderer that goes away mid-drag must not keep the body pinned.
	var held grab
	defer func() {
		if held.id != 0 && h.loop.Engine().Drop(held.id) {
			slog.Info("released abandoned drag", "topic_id", held.id, "remote", r.RemoteAddr)
		}
	}()

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway ||
				errors.Is(err, context.Canceled) {
				slog.Info("canvas client disconnected", "remote", r.RemoteAddr)
			} else {
				slog.Warn("canvas read failed", "remote", r.RemoteAddr, "error", err)
			}
			return
		}
		if g, ok := h.handle(&held, msg); ok {
			select {
			case gestures <- g:
			default:
			}
		}
	}
}

func (h *Hub) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, frames <-chan Frame, gestures <-chan physics.Gesture) {
	defer cancel()
	for {
		var msg ServerMessage
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			msg = ServerMessage{Type: "frame", Frame: &f}
		case g := <-gestures:
			msg = ServerMessage{Type: "gesture", Gesture: &g}
		}
		if err := writeMessage(ctx, conn, msg); err != nil {
			slog.Debug("canvas write failed", "error", err)
			return
		}
	}
}

func writeMessage(ctx context.Context, conn *websocket.Conn, msg ServerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

// grab is the body a single connection is dragging; zero when none.
type grab struct {
	id int
}

// handle applies one client message. It returns the gesture when the
// message ended a drag.
func (h *Hub) handle(held *grab, msg ClientMessage) (physics.Gesture, bool) {
	engine := h.loop.Engine()
	point, hasPoint := msg.Point()
	at := h.now()

	switch msg.Type {
	case MsgPointerDown:
		if held.id != 0 {
			return physics.Gesture{}, false
		}
		id := msg.ID
		if id == 0 {
			if !hasPoint {
				return physics.Gesture{}, false
			}
			hit, ok := engine.HitTest(point)
			if !ok {
				return physics.Gesture{}, false
			}
			id = hit
		}
		if !hasPoint {
			b, ok := engine.Body(id)
			if !ok {
				return physics.Gesture{}, false
			}
			point = b.Pos
		}
		if engine.Grab(id, point, at) {
			held.id = id
		}
	case MsgPointerMove:
		if held.id != 0 && hasPoint {
			engine.Drag(held.id, point, at)
		}
	case MsgPointerUp:
		if held.id == 0 {
			return physics.Gesture{}, false
		}
		id := held.id
		held.id = 0
		if hasPoint {
			engine.Drag(id, point, at)
		}
		return engine.Release(id, at)
	case MsgResize:
		h.loop.Resize(physics.Viewport{W: msg.W, H: msg.H})
	case MsgDismiss:
		h.loop.ClearSelection()
	default:
		slog.Debug("unknown canvas message", "type", msg.Type)
	}
	return physics.Gesture{}, false
}
