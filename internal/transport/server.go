package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/yanun0323/logs"

	"main/internal/feed"
	"main/internal/model"
)

const (
	_writeTimeout  = 10 * time.Second
	_pongTimeout   = 60 * time.Second
	_pingInterval  = 30 * time.Second
	_maxFrameSize  = 4096
	_sendQueueSize = 256
)

// Server upgrades downstream connections and bridges them onto the hub.
// Each connection gets a bounded outbound queue drained by a single writer
// goroutine, so one slow client never stalls another.
type Server struct {
	hub      *feed.Hub
	upgrader websocket.Upgrader
}

func NewServer(hub *feed.Hub) *Server {
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  _maxFrameSize,
			WriteBufferSize: _maxFrameSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the gin handler serving the subscription protocol.
func (s *Server) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logs.Warnf("websocket upgrade failed, err: %+v", err)
			return
		}
		newSession(s.hub, conn).run()
	}
}

// session is one downstream subscriber. It implements feed.Subscriber by
// pushing onto its queue; the hub treats a failed push as a disconnect.
type session struct {
	id    string
	hub   *feed.Hub
	conn  *websocket.Conn
	queue *Queue
}

func newSession(hub *feed.Hub, conn *websocket.Conn) *session {
	return &session{
		id:    uuid.NewString(),
		hub:   hub,
		conn:  conn,
		queue: NewQueue(_sendQueueSize),
	}
}

func (s *session) Key() string { return s.id }

func (s *session) Deliver(ev feed.Event) error {
	return s.queue.TryPush(FromEvent(ev))
}

func (s *session) run() {
	ctx, cancel := context.WithCancel(context.Background())
	go s.writeLoop(ctx)

	_ = s.queue.TryPush(ServerMessage{Type: TypeConnection, Status: "connected"})

	s.readLoop()

	// Drop first so new dispatches stop finding this session; one already
	// in flight fails its push harmlessly once the queue closes.
	s.hub.Drop(s.id)
	cancel()
	s.queue.Close()
	_ = s.conn.Close()
}

func (s *session) readLoop() {
	s.conn.SetReadLimit(_maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(_pongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(_pongTimeout))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handle(raw)
	}
}

func (s *session) handle(raw []byte) {
	var msg ClientMessage
	if err := sonic.ConfigFastest.Unmarshal(raw, &msg); err != nil {
		_ = s.queue.TryPush(ServerMessage{Type: TypeError, Message: "malformed message"})
		return
	}

	switch msg.Action {
	case ActionSubscribe:
		s.subscribe(msg.Market)
	case ActionUnsubscribe:
		s.hub.Unsubscribe(s.id, msg.Market)
		_ = s.queue.TryPush(ServerMessage{Type: TypeSubscription, Market: msg.Market, Status: "unsubscribed"})
	case ActionSubscribeMultiple:
		for _, market := range msg.Markets {
			s.subscribe(market)
		}
	default:
		_ = s.queue.TryPush(ServerMessage{Type: TypeError, Message: "unknown action: " + msg.Action})
	}
}

func (s *session) subscribe(market model.Market) {
	if err := s.hub.Subscribe(s, market); err != nil {
		_ = s.queue.TryPush(ServerMessage{Type: TypeError, Market: market, Message: err.Error()})
		return
	}
	_ = s.queue.TryPush(ServerMessage{Type: TypeSubscription, Market: market, Status: "subscribed"})
}

func (s *session) writeLoop(ctx context.Context) {
	ping := time.NewTicker(_pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.queue.C():
			if !ok {
				return
			}
			payload, err := sonic.ConfigFastest.Marshal(msg)
			if err != nil {
				logs.Errorf("marshal outbound message, err: %+v", err)
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(_writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				_ = s.conn.Close()
				return
			}
		case <-ping.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(_writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = s.conn.Close()
				return
			}
		}
	}
}
