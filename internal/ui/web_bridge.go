package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog"
	"github.com/gorilla/websocket"

	"lansocial/internal/authutil"
	"lansocial/internal/router"
	"lansocial/internal/social"
)

// Backend is the slice of the router the web bridge drives.
type Backend interface {
	PublishPost(content string) (router.Post, error)
	SendDirect(to, content string) error
	Follow(target string) error
	Unfollow(target string) error
	SendGroupMessage(id, content string) error
	Like(postID string) error
	Unlike(postID string) error
	Feed() []router.Post
	Groups() *social.Groups
	Stats() router.MetricsSnapshot
}

// WebBridge exposes the local peer over HTTP and WebSocket so a browser can
// act as another UI surface. It is a control plane for the local user only;
// peers on the network never talk to it.
type WebBridge struct {
	addr      string
	self      string
	backend   Backend
	presence  func() []Presence
	submit    func(string)
	srv       *http.Server
	upgrader  websocket.Upgrader
	clientsMu sync.Mutex
	clients   map[*websocket.Conn]struct{}
}

func NewWebBridge(addr, self string, backend Backend, presence func() []Presence, submit func(string)) *WebBridge {
	wb := &WebBridge{
		addr:     addr,
		self:     self,
		backend:  backend,
		presence: presence,
		submit:   submit,
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	logger := httplog.NewLogger("web", httplog.Options{JSON: false})
	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", wb.handleHealth)
	r.Post("/api/session", wb.handleSession)
	r.Get("/ws", wb.handleWS)
	r.Group(func(r chi.Router) {
		r.Use(wb.authenticated)
		r.Get("/api/peers", wb.handlePeers)
		r.Get("/api/feed", wb.handleFeed)
		r.Get("/api/groups", wb.handleGroups)
		r.Get("/api/stats", wb.handleStats)
		r.Post("/api/intents", wb.handleIntent)
	})

	wb.srv = &http.Server{Addr: addr, Handler: r}
	return wb
}

func (wb *WebBridge) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		_ = wb.srv.Shutdown(context.Background())
	}()
	log.Printf("web bridge listening on http://%s", wb.addr)
	if err := wb.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("web bridge error: %v", err)
	}
}

func (wb *WebBridge) Close() {
	_ = wb.srv.Shutdown(context.Background())
	wb.clientsMu.Lock()
	for conn := range wb.clients {
		_ = conn.Close()
	}
	wb.clientsMu.Unlock()
}

// Addr exposes the bound address so other layers can print reachable URLs.
func (wb *WebBridge) Addr() string {
	return wb.addr
}

// Handler exposes the HTTP routes for tests.
func (wb *WebBridge) Handler() http.Handler {
	return wb.srv.Handler
}

func (wb *WebBridge) handleHealth(w http.ResponseWriter, r *http.Request) {
	wb.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "user_id": wb.self})
}

// handleSession issues a signed token for the local user. The bridge serves
// one identity, so there is no password exchange; binding to loopback is the
// access control.
func (wb *WebBridge) handleSession(w http.ResponseWriter, r *http.Request) {
	tok, err := authutil.IssueToken(wb.self)
	if err != nil {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	wb.writeJSON(w, http.StatusOK, map[string]string{"user_id": wb.self, "token": tok})
}

func (wb *WebBridge) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := wb.requireAuth(r); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (wb *WebBridge) requireAuth(r *http.Request) (string, error) {
	if token := r.URL.Query().Get("token"); token != "" {
		return authutil.ValidateToken(token)
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("missing authorization")
	}
	return authutil.ValidateToken(parts[1])
}

func (wb *WebBridge) handlePeers(w http.ResponseWriter, r *http.Request) {
	wb.writeJSON(w, http.StatusOK, wb.presence())
}

func (wb *WebBridge) handleFeed(w http.ResponseWriter, r *http.Request) {
	wb.writeJSON(w, http.StatusOK, wb.backend.Feed())
}

func (wb *WebBridge) handleGroups(w http.ResponseWriter, r *http.Request) {
	wb.writeJSON(w, http.StatusOK, wb.backend.Groups().List())
}

func (wb *WebBridge) handleStats(w http.ResponseWriter, r *http.Request) {
	wb.writeJSON(w, http.StatusOK, wb.backend.Stats())
}

type intentRequest struct {
	Kind    string `json:"kind"`
	To      string `json:"to,omitempty"`
	Content string `json:"content,omitempty"`
	GroupID string `json:"group_id,omitempty"`
	PostID  string `json:"post_id,omitempty"`
}

func (wb *WebBridge) handleIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid intent", http.StatusBadRequest)
		return
	}
	var err error
	switch req.Kind {
	case "post":
		_, err = wb.backend.PublishPost(req.Content)
	case "dm":
		err = wb.backend.SendDirect(req.To, req.Content)
	case "follow":
		err = wb.backend.Follow(req.To)
	case "unfollow":
		err = wb.backend.Unfollow(req.To)
	case "group_message":
		err = wb.backend.SendGroupMessage(req.GroupID, req.Content)
	case "like":
		err = wb.backend.Like(req.PostID)
	case "unlike":
		err = wb.backend.Unlike(req.PostID)
	default:
		http.Error(w, fmt.Sprintf("unknown intent %q", req.Kind), http.StatusBadRequest)
		return
	}
	if err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "unknown") {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (wb *WebBridge) handleWS(w http.ResponseWriter, r *http.Request) {
	if _, err := wb.requireAuth(r); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	conn, err := wb.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}
	wb.register(conn)
	go wb.readLoop(conn)
	wb.sendEventTo(conn, webEvent{Kind: "feed", Feed: wb.backend.Feed()})
}

func (wb *WebBridge) register(conn *websocket.Conn) {
	wb.clientsMu.Lock()
	wb.clients[conn] = struct{}{}
	wb.clientsMu.Unlock()
}

func (wb *WebBridge) unregister(conn *websocket.Conn) {
	wb.clientsMu.Lock()
	delete(wb.clients, conn)
	wb.clientsMu.Unlock()
	_ = conn.Close()
}

// readLoop accepts the same slash command lines the CLI takes, so a thin web
// client needs no intent plumbing of its own.
func (wb *WebBridge) readLoop(conn *websocket.Conn) {
	defer wb.unregister(conn)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		line := strings.TrimSpace(string(data))
		if line == "" || wb.submit == nil {
			continue
		}
		go wb.submit(line)
	}
}

func (wb *WebBridge) sendEvent(evt webEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("web event encode: %v", err)
		return
	}
	wb.clientsMu.Lock()
	for conn := range wb.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("web send: %v", err)
			delete(wb.clients, conn)
			_ = conn.Close()
		}
	}
	wb.clientsMu.Unlock()
}

func (wb *WebBridge) sendEventTo(conn *websocket.Conn, evt webEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (wb *WebBridge) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("json write: %v", err)
	}
}

func (wb *WebBridge) ShowMessage(msg Message) {
	wb.sendEvent(webEvent{Kind: "message", Message: &msg})
}

func (wb *WebBridge) ShowSystem(text string) {
	wb.sendEvent(webEvent{Kind: "system", Text: text})
}

func (wb *WebBridge) UpdatePeers(peers []Presence) {
	wb.sendEvent(webEvent{Kind: "peers", Users: peers})
}

func (wb *WebBridge) ShowNotification(n Notification) {
	wb.sendEvent(webEvent{Kind: "notification", Notification: &n})
}

type webEvent struct {
	Kind         string        `json:"kind"`
	Message      *Message      `json:"message,omitempty"`
	Text         string        `json:"text,omitempty"`
	Users        []Presence    `json:"users,omitempty"`
	Feed         []router.Post `json:"feed,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}
