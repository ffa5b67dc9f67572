// Package ws pushes job progress events to browser clients over websockets,
// replacing the need to poll the job endpoint for UI updates.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"speakerscope/internal/jobs"
)

const (
	readDeadline = 60 * time.Second
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// client is one subscriber connection. The mutex serializes data writes;
// websocket connections allow only one concurrent writer, and Publish is
// called from every pipeline worker.
type client struct {
	conn *websocket.Conn

	mu sync.Mutex
}

// writeEvent sends one event, holding the write lock for the deadline and the
// frame together.
func (c *client) writeEvent(ev jobs.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(ev)
}

// Hub tracks websocket subscribers per job id. A client subscribing with
// job_id "*" receives events for every job.
type Hub struct {
	log      *logrus.Logger
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	subs map[string]map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		subs: make(map[string]map[*client]struct{}),
	}
}

// Handle upgrades the connection and registers it for the requested job id.
// The connection stays open until the client closes it or stops answering
// pings.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		jobID = "*"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("Websocket upgrade failed: %v", err)
		return
	}

	cl := &client{conn: conn}
	h.register(jobID, cl)
	defer h.unregister(jobID, cl)

	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	done := make(chan struct{})
	go h.pingLoop(conn, done)
	defer close(done)

	// Drain client frames; the hub only writes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			// WriteControl is safe alongside the data writes in Publish.
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *Hub) register(jobID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[jobID] == nil {
		h.subs[jobID] = make(map[*client]struct{})
	}
	h.subs[jobID][cl] = struct{}{}
}

func (h *Hub) unregister(jobID string, cl *client) {
	h.mu.Lock()
	if set, ok := h.subs[jobID]; ok {
		delete(set, cl)
		if len(set) == 0 {
			delete(h.subs, jobID)
		}
	}
	h.mu.Unlock()
	_ = cl.conn.Close()
}

// Publish sends the event to subscribers of its job id and to wildcard
// subscribers. Connections that fail to accept the write are dropped.
func (h *Hub) Publish(ev jobs.Event) {
	h.mu.RLock()
	clients := make([]*client, 0)
	for cl := range h.subs[ev.JobID] {
		clients = append(clients, cl)
	}
	for cl := range h.subs["*"] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.writeEvent(ev); err != nil {
			h.log.Debugf("Dropping websocket subscriber: %v", err)
			_ = cl.conn.Close()
		}
	}
}

// Serve runs a standalone HTTP listener for websocket subscriptions at /ws/jobs.
func (h *Hub) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/jobs", h.Handle)
	h.log.Infof("Event push server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
