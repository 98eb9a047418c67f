package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/geom"
	"github.com/matzehuels/topoview/pkg/observability"
	"github.com/matzehuels/topoview/pkg/pipeline"
	"github.com/matzehuels/topoview/pkg/topology"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024

	sendBufferSize = 16
)

// newUpgrader accepts requests without an Origin header, same-host
// origins, and origins matching the CORS allow list.
func newUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			u, err := url.Parse(origin)
			if err == nil && strings.EqualFold(u.Host, r.Host) {
				return true
			}
			return originAllowed(origins, origin)
		},
	}
}

// originAllowed matches origin against patterns holding at most one "*",
// the same form the CORS middleware accepts.
func originAllowed(patterns []string, origin string) bool {
	origin = strings.ToLower(origin)
	for _, p := range patterns {
		p = strings.ToLower(p)
		if p == "*" || p == origin {
			return true
		}
		prefix, suffix, ok := strings.Cut(p, "*")
		if ok && len(origin) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}

// client is one WebSocket connection.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	s.hub.register(c)
	go s.writePump(c)

	s.hub.sendTo(c, serverMessage{Type: msgHello, ID: c.id})
	if msg, err := s.frame(); err == nil {
		s.hub.sendTo(c, msg)
	}
	s.readPump(c)
}

// readPump applies client commands until the connection fails.
func (s *Server) readPump(c *client) {
	defer func() {
		s.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", "id", c.id, "err", err)
			}
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			err = perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode message")
			observability.Session().OnMessage("invalid", err)
			s.hub.sendTo(c, errorMessage(err))
			continue
		}
		err = s.handle(msg)
		observability.Session().OnMessage(msg.Type, err)
		if err != nil {
			s.logger.Debug("command failed", "id", c.id, "type", msg.Type, "err", err)
			s.hub.sendTo(c, errorMessage(err))
		}
	}
}

// writePump drains the send queue and keeps the connection alive.
func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("websocket write", "id", c.id, "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle applies one viewport command. Resizes are debounced by the
// surface, which pushes the frame itself; every other command pushes a
// frame when it succeeds.
func (s *Server) handle(msg clientMessage) error {
	if msg.Type == msgResize {
		if msg.Width <= 0 || msg.Height <= 0 {
			return perrors.New(perrors.ErrCodeInvalidInput, "resize needs a positive width and height")
		}
		s.surface.Resize(msg.Width, msg.Height)
		return nil
	}

	err := s.surface.Do(func(c *topology.Controller) error {
		g := c.Graph()
		switch msg.Type {
		case msgZoom:
			if msg.Factor <= 0 {
				return perrors.New(perrors.ErrCodeInvalidInput, "zoom factor must be positive")
			}
			var at *geom.Point
			if msg.X != nil && msg.Y != nil {
				p := geom.NewPoint(*msg.X, *msg.Y)
				at = &p
			}
			g.ScaleBy(msg.Factor, at)
		case msgFit:
			padding := s.opts.Render.Padding
			if msg.Padding != nil {
				padding = *msg.Padding
			}
			g.Fit(padding)
		case msgReset:
			g.Reset()
		case msgPan:
			n := c.NodeByID(msg.Node)
			if n == nil {
				return perrors.New(perrors.ErrCodeUnknownElement, "no node %q", msg.Node)
			}
			g.PanIntoView(n, topology.PanOptions{Offset: 10})
		case msgLayout:
			return s.relayout(c, msg)
		default:
			return perrors.New(perrors.ErrCodeInvalidInput, "unknown message type %q", msg.Type)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.pushFrame()
	return nil
}

// relayout reruns a layout on the live tree and fits the result.
func (s *Server) relayout(c *topology.Controller, msg clientMessage) error {
	name := msg.Layout
	if name == "" {
		name = s.opts.Render.Layout
	}
	if err := pipeline.ValidateLayout(name); err != nil {
		return err
	}
	g := c.Graph()
	g.SetLayout(name)
	if err := g.RunLayout(); err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidLayout, err, "%s layout", name)
	}
	g.Fit(s.opts.Render.Padding)
	return nil
}

func errorMessage(err error) serverMessage {
	return serverMessage{
		Type:  msgError,
		Error: perrors.UserMessage(err),
		Code:  string(perrors.GetCode(err)),
	}
}
