package websocket

import (
	"strconv"
	"sync"

	"github.com/isdelr/blogpress/internal/models"
	"github.com/rs/zerolog/log"
)

// TopicGlobal receives every activity event.
const TopicGlobal = "global"

// ArticleTopic names the topic carrying events about a single article.
func ArticleTopic(articleID int64) string {
	return "article:" + strconv.FormatInt(articleID, 10)
}

type directMessage struct {
	client  *Client
	payload []byte
}

type topicMessage struct {
	topic   string
	payload []byte
}

// Hub maintains the set of active clients and fans activity out to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Outbound messages waiting to be routed to a topic.
	broadcast chan topicMessage

	// Replies addressed to a single client.
	direct chan directMessage

	// A map of topics to the set of clients subscribed to it.
	subscriptions map[string]map[*Client]bool

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		broadcast:     make(chan topicMessage, 256),
		direct:        make(chan directMessage),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.addSubscription(client, client.Topic)
			log.Info().Int("total_clients", len(h.clients)).Str("topic", client.Topic).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case msg := <-h.broadcast:
			for client := range h.subscriptions[msg.topic] {
				select {
				case client.Send <- msg.payload:
				default:
					// Slow consumer; cut it loose rather than stall the feed.
					h.drop(client)
				}
			}
		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; !ok {
				continue
			}
			select {
			case msg.client.Send <- msg.payload:
			default:
				h.drop(msg.client)
			}
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// Stop ends the processing loop and closes every client's send channel.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Join registers client unless the hub has stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters client. It is a no-op once the hub has stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Publish pushes an activity event to global subscribers and, when the event
// concerns an article, to that article's subscribers.
func (h *Hub) Publish(event models.Event) {
	payload := NewEventMessage(event)
	if payload == nil {
		return
	}
	h.BroadcastTo(TopicGlobal, payload)
	if event.ArticleID != nil {
		h.BroadcastTo(ArticleTopic(*event.ArticleID), payload)
	}
}

// BroadcastTo queues a message for all clients subscribed to topic. It never
// blocks; when the queue is full the message is dropped.
func (h *Hub) BroadcastTo(topic string, payload []byte) {
	select {
	case h.broadcast <- topicMessage{topic: topic, payload: payload}:
	case <-h.done:
	default:
		log.Warn().Str("topic", topic).Msg("Websocket broadcast queue full, dropping message")
	}
}

// SendTo delivers payload to a single registered client.
func (h *Hub) SendTo(client *Client, payload []byte) {
	if payload == nil {
		return
	}
	select {
	case h.direct <- directMessage{client: client, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	h.removeSubscription(client)
}

func (h *Hub) addSubscription(client *Client, topic string) {
	if h.subscriptions[topic] == nil {
		h.subscriptions[topic] = make(map[*Client]bool)
	}
	h.subscriptions[topic][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for topic, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, topic)
			}
		}
	}
}
