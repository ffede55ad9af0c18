package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/cosmetica-backend/internal/cart"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
)

const (
	// Maximum client messages handled per second
	maxMessagesPerSecond = 10

	sendBufferSize      = 32
	broadcastBufferSize = 1024

	MessageTypeCart  = "cart"
	MessageTypeError = "error"
)

// CartSource is where the hub gets cart state from. CartService satisfies it.
type CartSource interface {
	GetCart(ctx context.Context, key string) (cart.State, error)
	Subscribe(ctx context.Context, key string, fn cart.Listener) (cart.State, func(), error)
}

// ServerMessage is every frame pushed to a browser
type ServerMessage struct {
	Type    string      `json:"type"`
	Cart    *cart.State `json:"cart,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ClientMessage is what a browser may send. "refresh" asks for the current
// cart again.
type ClientMessage struct {
	Type string `json:"type"`
}

type broadcastMessage struct {
	cartKey string
	payload []byte
}

// Hub fans cart updates out to every open tab of a shopper. It holds one
// cart subscription per key and drops it when the last tab disconnects.
type Hub struct {
	source CartSource

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	unsubs  map[string]func()
	closed  bool

	broadcast chan broadcastMessage
}

func NewHub(source CartSource) *Hub {
	return &Hub{
		source:    source,
		clients:   make(map[string]map[*Client]struct{}),
		unsubs:    make(map[string]func()),
		broadcast: make(chan broadcastMessage, broadcastBufferSize),
	}
}

// Run delivers broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg broadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[msg.cartKey] {
		select {
		case client.send <- msg.payload:
		default:
			// slow consumer; drop it rather than stall every other tab
			go h.Unregister(client)
			logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
				"cart_key": msg.cartKey,
			})
		}
	}
}

// publish is the cart listener. It never blocks the store's notify path.
func (h *Hub) publish(key string, state cart.State) {
	payload, err := encodeCart(state)
	if err != nil {
		logger.Error("Failed to marshal cart update", err, nil)
		return
	}

	select {
	case h.broadcast <- broadcastMessage{cartKey: key, payload: payload}:
	default:
		logger.Warn("Broadcast channel full, cart update dropped", map[string]interface{}{
			"cart_key": key,
		})
	}
}

// Register attaches client and queues the current cart as its first frame
func (h *Hub) Register(ctx context.Context, client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return cart.ErrStoreClosed
	}

	key := client.CartKey
	var state cart.State
	if _, subscribed := h.unsubs[key]; subscribed {
		var err error
		if state, err = h.source.GetCart(ctx, key); err != nil {
			return err
		}
	} else {
		initial, unsubscribe, err := h.source.Subscribe(ctx, key, func(s cart.State) {
			h.publish(key, s)
		})
		if err != nil {
			return err
		}
		state = initial
		h.unsubs[key] = unsubscribe
		h.clients[key] = make(map[*Client]struct{})
	}

	payload, err := encodeCart(state)
	if err != nil {
		return err
	}
	client.send <- payload
	h.clients[key][client] = struct{}{}

	logger.Info("WebSocket client registered", map[string]interface{}{
		"cart_key": key,
		"sessions": len(h.clients[key]),
	})
	return nil
}

// Unregister detaches client and closes its send channel. Safe to call more
// than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := client.CartKey
	clients, ok := h.clients[key]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.clients, key)
		if unsubscribe, ok := h.unsubs[key]; ok {
			unsubscribe()
			delete(h.unsubs, key)
		}
	}

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"cart_key":           key,
		"remaining_sessions": len(clients),
	})
}

// Sessions reports how many tabs are watching key
func (h *Hub) Sessions(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[key])
}

// Close disconnects every client and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for key, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
		if unsubscribe, ok := h.unsubs[key]; ok {
			unsubscribe()
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	h.unsubs = make(map[string]func())
}

// HandleClientMessage answers a browser frame
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, message []byte) {
	now := time.Now()
	if now.Sub(client.lastReset) >= time.Second {
		client.messageCount = 0
		client.lastReset = now
	}
	client.messageCount++
	if client.messageCount > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"cart_key": client.CartKey,
			"count":    client.messageCount,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"cart_key": client.CartKey,
			"error":    err.Error(),
		})
		return
	}

	switch msg.Type {
	case "refresh":
		state, err := h.source.GetCart(ctx, client.CartKey)
		if err != nil {
			h.reply(client, ServerMessage{Type: MessageTypeError, Message: "cart unavailable"})
			return
		}
		h.reply(client, ServerMessage{Type: MessageTypeCart, Cart: &state})
	default:
		h.reply(client, ServerMessage{Type: MessageTypeError, Message: "unknown message type"})
	}
}

func (h *Hub) reply(client *Client, msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client.CartKey][client]; !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}

func encodeCart(state cart.State) ([]byte, error) {
	return json.Marshal(ServerMessage{Type: MessageTypeCart, Cart: &state})
}
