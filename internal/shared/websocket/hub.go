package websocket

import (
	"context"
	"time"

	"github.com/cdexmarket/cdex/internal/shared/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Hub keeps the client registry, grouped by listing ID, and fans broadcast
// messages out to every client watching the same listing.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	// InboundMessages is consumed by module-specific handlers (e.g. the
	// listing bid handler).
	InboundMessages chan *ClientMessage
}

// Client represents one websocket connection, pinned to a single listing.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	ListingID string
	ID        string
}

type Message struct {
	ListingID string
	Data      []byte
}

// ClientMessage wraps an inbound frame together with the client that sent it.
type ClientMessage struct {
	Client *Client
	Data   []byte
}

func NewHub() *Hub {
	return &Hub{
		broadcast:       make(chan *Message),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		clients:         make(map[string]map[*Client]bool),
		InboundMessages: make(chan *ClientMessage),
	}
}

// Run starts the hub loop. Blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log.Info("WebSocket hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info("WebSocket hub shutting down")
			return

		case client := <-h.register:
			if _, ok := h.clients[client.ListingID]; !ok {
				h.clients[client.ListingID] = make(map[*Client]bool)
			}
			h.clients[client.ListingID][client] = true
			log.Info("Client registered",
				zap.String("clientID", client.ID),
				zap.String("listingID", client.ListingID),
			)

		case client := <-h.unregister:
			if clients, ok := h.clients[client.ListingID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.ListingID)
					}
					log.Info("Client unregistered",
						zap.String("clientID", client.ID),
						zap.String("listingID", client.ListingID),
					)
				}
			}

		case message := <-h.broadcast:
			for client := range h.clients[message.ListingID] {
				select {
				case client.Send <- message.Data:
				default:
					// Client not draining its channel, drop it.
					close(client.Send)
					delete(h.clients[message.ListingID], client)
					log.Warn("Failed to send message to client, unregistering",
						zap.String("clientID", client.ID),
						zap.String("listingID", client.ListingID),
					)
				}
			}
		}
	}
}

// RegisterClient queues a client for registration.
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	default:
		log.Error("Register channel is full, client registration failed",
			zap.String("clientID", client.ID),
			zap.String("listingID", client.ListingID),
		)
		_ = client.Conn.Close()
	}
}

// UnregisterClient queues a client for removal.
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	default:
		log.Error("Unregister channel is full",
			zap.String("clientID", client.ID),
			zap.String("listingID", client.ListingID),
		)
	}
}

// BroadcastToListing sends data to every client watching listingID.
func (h *Hub) BroadcastToListing(listingID string, data []byte) {
	select {
	case h.broadcast <- &Message{ListingID: listingID, Data: data}:
	default:
		log.Error("Broadcast channel is full, message dropped", zap.String("listingID", listingID))
	}
}

// ReadPump reads frames from the connection and forwards them to the hub's
// inbound channel. Runs as one goroutine per client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("WebSocket read error",
					zap.String("clientID", c.ID),
					zap.String("listingID", c.ListingID),
					zap.Error(err),
				)
			}
			break
		}

		select {
		case c.Hub.InboundMessages <- &ClientMessage{Client: c, Data: message}:
		default:
			// Handlers are not keeping up, drop the frame.
			log.Error("Hub inbound channel is full, dropping message",
				zap.String("clientID", c.ID),
				zap.String("listingID", c.ListingID),
			)
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection and keeps
// the connection alive with pings. The single writer per connection lives here.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return

		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("Failed to write message to client",
					zap.String("clientID", c.ID),
					zap.String("listingID", c.ListingID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
