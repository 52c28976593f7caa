package websocket

import (
	"sync"

	"github.com/rs/zerolog/log"
)

const publishBuffer = 256

type envelope struct {
	username string
	message  []byte
}

type reply struct {
	client  *Client
	message []byte
}

// Hub fans punch events out to the websocket clients of the user they belong
// to. Each client only ever sees its own user's events.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	publish    chan envelope
	replies    chan reply
	done       chan struct{}
	stopOnce   sync.Once

	// A map of usernames to the set of clients connected for that user.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		publish:       make(chan envelope, publishBuffer),
		replies:       make(chan reply, publishBuffer),
		done:          make(chan struct{}),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.subscriptions[client.Username] == nil {
				h.subscriptions[client.Username] = make(map[*Client]bool)
			}
			h.subscriptions[client.Username][client] = true
			log.Info().Str("username", client.Username).Int("user_clients", len(h.subscriptions[client.Username])).Msg("Client connected")
		case client := <-h.unregister:
			if h.remove(client) {
				log.Info().Str("username", client.Username).Msg("Client disconnected")
			}
		case env := <-h.publish:
			for client := range h.subscriptions[env.username] {
				select {
				case client.Send <- env.message:
				default:
					// slow consumer
					h.remove(client)
					log.Warn().Str("username", client.Username).Msg("Dropped slow websocket client")
				}
			}
		case r := <-h.replies:
			if h.subscriptions[r.client.Username][r.client] {
				select {
				case r.client.Send <- r.message:
				default:
				}
			}
		case <-h.done:
			for _, subs := range h.subscriptions {
				for client := range subs {
					close(client.Send)
				}
			}
			h.subscriptions = make(map[string]map[*Client]bool)
			return
		}
	}
}

// Stop ends Run and closes every connected client's send channel.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds a client to its user's feed.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes a client and closes its send channel. It is a no-op once
// the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for every client of username. It never blocks: when
// the queue is full the event is dropped.
func (h *Hub) Publish(username, action string, payload interface{}) {
	msg, err := NewMessage(action, payload)
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode punch event")
		return
	}

	select {
	case h.publish <- envelope{username: username, message: msg}:
	default:
		log.Warn().Str("username", username).Str("action", action).Msg("Websocket publish queue full, event dropped")
	}
}

// Reply queues a message for a single client. Send channels are only written
// from Run, so a client that is gone simply never receives it.
func (h *Hub) Reply(client *Client, message []byte) {
	select {
	case h.replies <- reply{client: client, message: message}:
	case <-h.done:
	default:
		log.Warn().Str("username", client.Username).Msg("Websocket reply queue full, message dropped")
	}
}

func (h *Hub) remove(client *Client) bool {
	subs, ok := h.subscriptions[client.Username]
	if !ok || !subs[client] {
		return false
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.subscriptions, client.Username)
	}
	close(client.Send)
	return true
}
