package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/behave/internal/core/events/bus"
	"github.com/zeusync/behave/internal/core/observability/log"
)

// Message is the JSON frame sent to inspector clients.
type Message struct {
	Type   string    `json:"type"`
	Source string    `json:"source"`
	Time   time.Time `json:"time"`
	Data   any       `json:"data,omitempty"`
}

type Options struct {
	// Buffer is the per-client queue length. Events for a client whose
	// queue is full are dropped.
	Buffer int
}

// Server streams bus events to websocket clients on /ws. Clients may narrow
// the stream with ?type=<event type>.
type Server struct {
	bus      bus.EventBus
	sub      bus.Subscription
	log      log.Log
	buffer   int
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	dropped atomic.Int64

	httpSrv *http.Server
	addr    net.Addr
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	filter string
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// New subscribes the server to every event on b.
func New(b bus.EventBus, opts Options, l log.Log) (*Server, error) {
	if l == nil {
		l = log.Nop()
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}
	s := &Server{
		bus:     b,
		log:     l.Named("inspect"),
		buffer:  opts.Buffer,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	sub, err := b.Subscribe(bus.Wildcard, s.onEvent)
	if err != nil {
		return nil, err
	}
	s.sub = sub
	return s, nil
}

// Handler serves /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"clients": s.Clients(),
			"dropped": s.Dropped(),
		})
	})
	return mux
}

// Listen binds addr and serves in the background until Close.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr()
	s.httpSrv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("inspector stopped", log.Error(err))
		}
	}()
	s.log.Info("inspector listening", log.String("addr", s.addr.String()))
	return nil
}

// Addr is the bound address after Listen.
func (s *Server) Addr() net.Addr { return s.addr }

func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Dropped counts events discarded for slow clients.
func (s *Server) Dropped() int64 { return s.dropped.Load() }

// Close unsubscribes from the bus, disconnects clients and stops serving.
func (s *Server) Close(ctx context.Context) error {
	err := s.bus.Unsubscribe(s.sub)
	s.mu.Lock()
	for c := range s.clients {
		c.close()
		delete(s.clients, c)
	}
	s.mu.Unlock()
	if s.httpSrv != nil {
		err = errors.Join(err, s.httpSrv.Shutdown(ctx))
	}
	return err
}

func (s *Server) onEvent(e bus.Event) error {
	payload, err := json.Marshal(Message{Type: e.Type(), Source: e.Source(), Time: e.Timestamp(), Data: e.Data()})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if c.filter != "" && c.filter != e.Type() {
			continue
		}
		select {
		case c.send <- payload:
		default:
			s.dropped.Add(1)
		}
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, s.buffer), filter: r.URL.Query().Get("type")}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.log.Debug("inspector client connected", log.String("remote", conn.RemoteAddr().String()))

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop discards client frames and unregisters the client once the
// connection fails.
func (s *Server) readLoop(c *client) {
	defer func() {
		s.mu.Lock()
		if _, ok := s.clients[c]; ok {
			delete(s.clients, c)
			c.close()
		}
		s.mu.Unlock()
		s.log.Debug("inspector client disconnected", log.String("remote", c.conn.RemoteAddr().String()))
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.log.Debug("inspector write failed", log.Error(err))
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
