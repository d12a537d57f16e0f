package webserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shaharia-lab/cypherchat/internal/logger"
	"github.com/shaharia-lab/cypherchat/internal/metrics"
	"github.com/shaharia-lab/cypherchat/internal/push"
)

type pushClient struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *pushClient) send(env push.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *pushClient) close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

// handlePush upgrades to a WebSocket, sends metrics on connect, on request and on every tick
func (ws *WebServer) handlePush(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.log.Warn("push upgrade failed", map[string]interface{}{logger.ErrorKey: err})
		return
	}

	client := &pushClient{conn: conn}

	ws.mu.Lock()
	select {
	case <-ws.stop:
		ws.mu.Unlock()
		client.close()
		return
	default:
	}
	ws.clients[client] = struct{}{}
	ws.wg.Add(1)
	ws.mu.Unlock()

	defer func() {
		ws.mu.Lock()
		delete(ws.clients, client)
		ws.mu.Unlock()
		client.close()
		ws.wg.Done()
	}()

	ws.sendMetrics(client, ws.backend.Metrics())

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env push.Envelope
			if json.Unmarshal(data, &env) == nil && env.Event == push.EventRequestMetrics {
				ws.sendMetrics(client, ws.backend.Metrics())
			}
		}
	}()

	var tick <-chan time.Time
	if ws.pushInterval > 0 {
		ticker := time.NewTicker(ws.pushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-readerDone:
			return
		case <-ws.stop:
			client.close()
			<-readerDone
			return
		case <-tick:
			ws.sendMetrics(client, ws.backend.Metrics())
		}
	}
}

func (ws *WebServer) sendMetrics(c *pushClient, u metrics.Update) {
	env, err := push.NewEnvelope(push.EventMetricsUpdate, u)
	if err != nil {
		return
	}
	if err := c.send(env); err != nil {
		ws.log.Debug("push send failed", map[string]interface{}{logger.ErrorKey: err})
	}
}

// Broadcast sends an arbitrary metrics update to every connected push client
func (ws *WebServer) Broadcast(u metrics.Update) {
	ws.mu.Lock()
	clients := make([]*pushClient, 0, len(ws.clients))
	for c := range ws.clients {
		clients = append(clients, c)
	}
	ws.mu.Unlock()

	for _, c := range clients {
		ws.sendMetrics(c, u)
	}
}

// PushClients returns the number of connected push clients
func (ws *WebServer) PushClients() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.clients)
}
