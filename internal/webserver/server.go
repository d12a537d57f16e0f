// Package webserver runs a local stand-in for the chat backend: the HTTP API and the metrics push channel.
package webserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/shaharia-lab/cypherchat/internal/logger"
)

// WebServer serves the backend API and push channel
type WebServer struct {
	Addr    string
	backend *Backend
	log     logger.Logger

	server   *http.Server
	router   *chi.Mux
	upgrader websocket.Upgrader

	pushInterval time.Duration

	mu      sync.Mutex
	clients map[*pushClient]struct{}
	wg      sync.WaitGroup
	stop    chan struct{}
}

// Option configures a WebServer
type Option func(*WebServer)

// WithLogger sets the server logger and enables request logging
func WithLogger(l logger.Logger) Option {
	return func(ws *WebServer) {
		ws.log = l
	}
}

// WithPushInterval sets how often every push client receives a metrics update. Zero disables the ticker.
func WithPushInterval(d time.Duration) Option {
	return func(ws *WebServer) {
		ws.pushInterval = d
	}
}

// NewWebServer creates a server answering from backend
func NewWebServer(addr string, backend *Backend, opts ...Option) *WebServer {
	ws := &WebServer{
		Addr:         addr,
		backend:      backend,
		log:          logger.Discard,
		pushInterval: 5 * time.Second,
		clients:      make(map[*pushClient]struct{}),
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ws)
	}

	ws.router = chi.NewRouter()
	ws.router.Use(middleware.Recoverer)
	ws.setupRoutes()

	return ws
}

// Router returns the chi router to allow adding routes from outside
func (ws *WebServer) Router() *chi.Mux {
	return ws.router
}

// Handler returns the HTTP handler, e.g. for httptest.NewServer
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Backend returns the state the server answers from
func (ws *WebServer) Backend() *Backend {
	return ws.backend
}

func (ws *WebServer) setupRoutes() {
	ws.router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})

	ws.router.Route("/api", func(r chi.Router) {
		r.Get("/health", ws.handleHealth)
		r.Post("/chat", ws.handleChat)
		r.Get("/chat/history", ws.handleHistory)
		r.Post("/chat/clear", ws.handleClear)
		r.Get("/examples", ws.handleExamples)
		r.Get("/metrics", ws.handleMetrics)
	})

	ws.router.Get("/ws", ws.handlePush)
}

// Start listens on Addr and serves in the background
func (ws *WebServer) Start() error {
	ln, err := net.Listen("tcp", ws.Addr)
	if err != nil {
		return err
	}

	ws.server = &http.Server{
		Handler:           ws.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ws.wg.Add(1)
	go func() {
		defer ws.wg.Done()
		if err := ws.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ws.log.Error("web server stopped", map[string]interface{}{logger.ErrorKey: err})
		}
	}()

	ws.log.Info("web server started", map[string]interface{}{"addr": ln.Addr().String()})
	return nil
}

// Stop closes push connections and gracefully shuts down the server with a timeout
func (ws *WebServer) Stop() error {
	ws.mu.Lock()
	select {
	case <-ws.stop:
	default:
		close(ws.stop)
	}
	for c := range ws.clients {
		c.close()
	}
	ws.mu.Unlock()

	var err error
	if ws.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = ws.server.Shutdown(ctx)
	}

	ws.wg.Wait()
	return err
}
