// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ttbt-io/wicketkeeper/backend/scoring"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// A hub with no clients and no requests for this long shuts down.
	hubIdleTimeout = 5 * time.Minute

	// How often a hub writes out its dirty match.
	hubFlushInterval = 5 * time.Second

	// Action ids remembered for duplicate detection.
	recentActions = 100
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Message is a websocket frame in either direction.
type Message struct {
	Type    string          `json:"type"`
	MatchID string          `json:"matchId,omitempty"`
	Match   *scoring.Match  `json:"match,omitempty"`
	Action  json.RawMessage `json:"action,omitempty"`
	Error   string          `json:"error,omitempty"`
	// InningsEnd is set on snapshots once the current innings can no longer continue.
	InningsEnd scoring.InningsEnd `json:"inningsEnd,omitempty"`
}

func snapshotMessage(matchID string, m *scoring.Match) Message {
	msg := Message{Type: MsgSnapshot, MatchID: matchID, Match: m}
	if m.Status == scoring.StatusInProgress {
		msg.InningsEnd = m.InningsComplete()
	}
	return msg
}

// HubRequest types
const (
	ReqTypeLoad   = "LOAD"
	ReqTypeAction = "ACTION"
	ReqTypeDelete = "DELETE"
)

// HubRequest is a unit of work for a Hub.
type HubRequest struct {
	Type      string
	Client    *wsClient       // set for websocket actions
	Action    json.RawMessage // ReqTypeAction
	Authorize func(owner string) error
	Reply     chan HubResponse // HTTP requests
}

// HubResponse carries the match after the request was handled.
type HubResponse struct {
	Match scoring.Match
	Error error
}

// errHubClosed is returned for requests that reach a hub after it stopped.
var errHubClosed = errors.New("hub closed")

// hubStore adapts a MatchRepository to the Keeper. Ball events stay in
// memory until the next flush; lifecycle transitions are written through.
type hubStore struct {
	repo MatchRepository
}

func (s hubStore) LoadMatch(id string) (*scoring.Match, error) {
	return s.repo.LoadMatch(id)
}

func (s hubStore) SaveMatch(m *scoring.Match) error {
	return s.repo.SaveMatchInMemory(m, m.Status != scoring.StatusInProgress)
}

// Hub is the single writer of one match. Every change goes through run, and
// every change is followed by a snapshot to all connected clients.
type Hub struct {
	matchID string

	clients    map[*wsClient]bool
	requests   chan HubRequest
	register   chan *wsClient
	unregister chan *wsClient

	keeper *scoring.Keeper
	loaded bool
	recent []string

	repo    MatchRepository
	reg     *Registry
	hm      *HubManager
	metrics *Metrics
}

func newHub(matchID string, hm *HubManager) *Hub {
	return &Hub{
		matchID:    matchID,
		clients:    make(map[*wsClient]bool),
		requests:   make(chan HubRequest, 64),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		keeper:     scoring.NewKeeper(hubStore{repo: hm.repo}),
		repo:       hm.repo,
		reg:        hm.reg,
		hm:         hm,
		metrics:    hm.metrics,
	}
}

func (h *Hub) run() {
	idleTimer := time.NewTicker(hubIdleTimeout)
	defer idleTimer.Stop()
	flushTimer := time.NewTicker(hubFlushInterval)
	defer flushTimer.Stop()
	busy := false

	for {
		select {
		case client := <-h.register:
			busy = true
			h.clients[client] = true
			h.metrics.wsClients.Inc()
			if err := h.ensureLoaded(); err != nil {
				client.sendJSON(Message{Type: MsgError, Error: errorName(err)})
				continue
			}
			snap, _ := h.keeper.Snapshot()
			client.sendJSON(snapshotMessage(h.matchID, &snap))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.wsClients.Dec()
			}
		case req := <-h.requests:
			busy = true
			h.handle(req)
		case <-flushTimer.C:
			if err := h.repo.Flush(h.matchID); err != nil {
				log.Printf("[HUB] Error flushing match %s: %v", h.matchID, err)
			}
		case <-idleTimer.C:
			if len(h.clients) == 0 && !busy {
				h.stop()
				return
			}
			busy = false
		}
	}
}

// stop flushes the match and answers anything still queued.
func (h *Hub) stop() {
	h.hm.RemoveHub(h.matchID, h)
	if err := h.repo.Flush(h.matchID); err != nil {
		log.Printf("[HUB] Error flushing match %s: %v", h.matchID, err)
	}
	for {
		select {
		case req := <-h.requests:
			h.reply(req, HubResponse{Error: errHubClosed})
		default:
			return
		}
	}
}

func (h *Hub) ensureLoaded() error {
	if h.loaded {
		return nil
	}
	if err := h.keeper.Load(h.matchID); err != nil {
		log.Printf("[HUB] Error loading match %s: %v", h.matchID, err)
		return err
	}
	h.loaded = true
	return nil
}

func (h *Hub) reply(req HubRequest, resp HubResponse) {
	if req.Reply != nil {
		req.Reply <- resp
		return
	}
	if req.Client != nil && resp.Error != nil {
		req.Client.sendJSON(Message{Type: MsgError, MatchID: h.matchID, Error: errorName(resp.Error)})
	}
}

func (h *Hub) handle(req HubRequest) {
	if err := h.ensureLoaded(); err != nil {
		h.reply(req, HubResponse{Error: err})
		return
	}
	snap, _ := h.keeper.Snapshot()

	if req.Authorize != nil {
		if err := req.Authorize(snap.OwnerID); err != nil {
			h.reply(req, HubResponse{Error: err})
			return
		}
	}

	switch req.Type {
	case ReqTypeLoad:
		h.reply(req, HubResponse{Match: snap})
	case ReqTypeAction:
		m, err := h.handleAction(req.Action)
		h.reply(req, HubResponse{Match: m, Error: err})
	case ReqTypeDelete:
		h.reply(req, HubResponse{Match: snap, Error: h.deleteMatch()})
	default:
		h.reply(req, HubResponse{Error: errors.New("unknown hub request")})
	}
}

func (h *Hub) handleAction(raw json.RawMessage) (scoring.Match, error) {
	start := time.Now()
	action, payload, err := ParseAction(raw)
	if err != nil {
		h.metrics.observeAction("", err, start)
		return scoring.Match{}, err
	}
	if slices.Contains(h.recent, action.ID) {
		h.hm.debugf("[HUB] Duplicate action %s on match %s", action.ID, h.matchID)
		return h.keeper.Snapshot()
	}

	m, err := applyAction(h.keeper, action.Type, payload)
	h.metrics.observeAction(action.Type, err, start)
	if err != nil {
		h.hm.debugf("[HUB] Action %s rejected on match %s: %v", action.Type, h.matchID, err)
		return scoring.Match{}, err
	}

	h.recent = append(h.recent, action.ID)
	if len(h.recent) > recentActions {
		h.recent = h.recent[len(h.recent)-recentActions:]
	}
	h.reg.UpdateMatch(&m)
	h.broadcast(snapshotMessage(h.matchID, &m))
	return m, nil
}

// deleteMatch removes the match and disconnects everyone following it.
func (h *Hub) deleteMatch() error {
	if err := h.repo.DeleteMatch(h.matchID); err != nil {
		return err
	}
	h.reg.DeleteMatch(h.matchID)
	h.broadcast(Message{Type: MsgError, MatchID: h.matchID, Error: "Match deleted"})
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		h.metrics.wsClients.Dec()
	}
	h.keeper = scoring.NewKeeper(hubStore{repo: h.repo})
	h.loaded = false
	h.recent = nil
	log.Printf("[HUB] Match %s deleted", h.matchID)
	return nil
}

// broadcast sends msg to every client, dropping the ones that cannot keep up.
func (h *Hub) broadcast(msg Message) {
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			close(client.send)
			delete(h.clients, client)
			h.metrics.wsClients.Dec()
		}
	}
}

// HubManager owns the hubs of all matches being followed or scored.
type HubManager struct {
	hubs map[string]*Hub
	mu   sync.Mutex

	repo    MatchRepository
	reg     *Registry
	metrics *Metrics
	debugf  func(string, ...any)
}

func NewHubManager(repo MatchRepository, reg *Registry, metrics *Metrics, debugf func(string, ...any)) *HubManager {
	if debugf == nil {
		debugf = func(string, ...any) {}
	}
	return &HubManager{
		hubs:    make(map[string]*Hub),
		repo:    repo,
		reg:     reg,
		metrics: metrics,
		debugf:  debugf,
	}
}

// GetHub returns the running hub of a match, starting one if needed.
func (hm *HubManager) GetHub(matchID string) *Hub {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if hub, ok := hm.hubs[matchID]; ok {
		return hub
	}
	hub := newHub(matchID, hm)
	hm.hubs[matchID] = hub
	hm.metrics.hubs.Inc()
	go hub.run()
	return hub
}

// RemoveHub forgets hub if it is still the one registered for matchID.
func (hm *HubManager) RemoveHub(matchID string, hub *Hub) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	if hm.hubs[matchID] == hub {
		delete(hm.hubs, matchID)
		hm.metrics.hubs.Dec()
	}
}

// wsClient is a middleman between the websocket connection and the hub.
type wsClient struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan Message

	// authorize checks scoring rights captured at connect time.
	authorize func(owner string) error
}

// readPump pumps messages from the websocket connection to the hub.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[HUB] websocket error: %v", err)
			}
			break
		}

		switch msg.Type {
		case MsgAction:
			select {
			case c.hub.requests <- HubRequest{Type: ReqTypeAction, Client: c, Action: msg.Action, Authorize: c.authorize}:
			default:
				c.sendJSON(Message{Type: MsgError, Error: "Busy: try again"})
			}
		case MsgPing:
			c.sendJSON(Message{Type: MsgPong})
		default:
			c.sendJSON(Message{Type: MsgError, Error: "Unknown message type"})
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) sendJSON(msg Message) {
	select {
	case c.send <- msg:
	default:
	}
}

// ServeWS upgrades a spectator or scorer connection. Spectators join with
// ?code=; a scorer may also send ACTION frames if authorized.
func ServeWS(s *Server, w http.ResponseWriter, r *http.Request) {
	matchID := r.URL.Query().Get("matchId")
	if code := r.URL.Query().Get("code"); code != "" {
		m, err := s.repo.FindByCode(code)
		if err != nil {
			writeError(w, err)
			return
		}
		matchID = m.ID
	}
	if matchID == "" {
		writeError(w, scoring.ErrInvalidJoinCode)
		return
	}
	if !isValidUUID(matchID) {
		http.Error(w, "Bad Request: match id is missing or invalid", http.StatusBadRequest)
		return
	}

	authorize := func(owner string) error {
		return authorizeScorer(s.tokens, r, matchID, owner)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[HUB] upgrade failed: %v", err)
		return
	}
	s.debugf("[HUB] Client %s joined match %s", maskEmail(getUserID(r)), matchID)

	hub := s.hubs.GetHub(matchID)
	client := &wsClient{hub: hub, conn: conn, send: make(chan Message, 256), authorize: authorize}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}
