package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tradeAdmin/internal/services"
	"tradeAdmin/internal/session"
)

const (
	readLimit     = 1 << 10
	readDeadline  = 60 * time.Second
	writeDeadline = 5 * time.Second
	pingInterval  = 25 * time.Second
	publishBuffer = 64
)

type registration struct {
	conn    *websocket.Conn
	userID  string
	initial services.StoreState
}

// StatusHub pushes every store state change to the open admin pages.
type StatusHub struct {
	clients    map[*websocket.Conn]string
	broadcast  chan services.StoreState
	register   chan registration
	unregister chan *websocket.Conn
	quit       chan struct{}
	errorLog   *log.Logger
}

func NewStatusHub(errorLog *log.Logger) *StatusHub {
	return &StatusHub{
		clients:    make(map[*websocket.Conn]string),
		broadcast:  make(chan services.StoreState, publishBuffer),
		register:   make(chan registration),
		unregister: make(chan *websocket.Conn),
		quit:       make(chan struct{}),
		errorLog:   errorLog,
	}
}

// Publish queues st for delivery. It never blocks the store; when the queue
// is full the state is dropped.
func (h *StatusHub) Publish(st services.StoreState) {
	select {
	case h.broadcast <- st:
	default:
		h.errorLog.Printf("status hub: queue full, dropping %s state", st.Status)
	}
}

// All operations on clients happen here.
func (h *StatusHub) Run(ctx context.Context) {
	defer close(h.quit)
	for {
		select {
		case <-ctx.Done():
			for conn := range h.clients {
				_ = writeClose(conn, websocket.CloseGoingAway, "server shutting down")
				_ = conn.Close()
				delete(h.clients, conn)
			}
			return

		case reg := <-h.register:
			h.clients[reg.conn] = reg.userID
			h.send(reg.conn, reg.initial)

		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				_ = conn.Close()
				delete(h.clients, conn)
			}

		case st := <-h.broadcast:
			for conn := range h.clients {
				h.send(conn, st)
			}
		}
	}
}

func (h *StatusHub) send(conn *websocket.Conn, st services.StoreState) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err := conn.WriteJSON(st); err != nil {
		h.errorLog.Printf("status hub: send to user=%s failed: %v", h.clients[conn], err)
		_ = conn.Close()
		delete(h.clients, conn)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
}

// statusWebSocket upgrades an admin connection and streams store states to it.
func (app *application) statusWebSocket(w http.ResponseWriter, r *http.Request) {
	who := session.FromRequest(r)
	if !who.Role().IsAdmin() {
		http.Error(w, services.MsgAdminOnly, http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.errorLog.Printf("websocket upgrade: %v", err)
		return
	}
	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	reg := registration{conn: conn, userID: who.UserID(), initial: app.store.Snapshot()}
	select {
	case app.statusHub.register <- reg:
	case <-app.statusHub.quit:
		_ = conn.Close()
		return
	}

	done := make(chan struct{})
	go pingLoop(conn, done)
	go func() {
		defer close(done)
		defer func() {
			select {
			case app.statusHub.unregister <- conn:
			case <-app.statusHub.quit:
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func writeClose(conn *websocket.Conn, code int, reason string) error {
	return conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeDeadline),
	)
}
