package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quizleague/match-server-go/internal/model"
	redisclient "github.com/quizleague/match-server-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second

	EventSessionUpdate   = "session_update"
	EventSessionFinished = "session_finished"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	SessionID string
	Events    chan Event
	Done      chan struct{}
}

// sessionHub is the fan-out state for one session: its connected clients and
// the cancel func for the redis listener goroutine. The listener lives
// exactly as long as the hub; sessions are short-lived, so leaving listeners
// running after the last client disconnects would leak a goroutine and a
// redis subscription per finished match.
type sessionHub struct {
	clients map[*Client]bool
	cancel  context.CancelFunc
}

// Broker fans session change notifications out to connected clients. Events
// travel through redis pub/sub so every server instance sees mutations made
// by any of them.
type Broker struct {
	redis  *redisclient.Client
	hubs   map[string]*sessionHub
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc

	// listen consumes the session's redis channel until ctx is canceled.
	listen func(ctx context.Context, sessionID string)
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Broker{
		redis:  redisClient,
		hubs:   make(map[string]*sessionHub),
		ctx:    ctx,
		cancel: cancel,
	}
	b.listen = b.consumeRedis
	return b
}

func (b *Broker) Subscribe(sessionID string) *Client {
	client := &Client{
		SessionID: sessionID,
		Events:    make(chan Event, 100),
		Done:      make(chan struct{}),
	}

	b.mu.Lock()
	hub, ok := b.hubs[sessionID]
	if !ok {
		hubCtx, cancel := context.WithCancel(b.ctx)
		hub = &sessionHub{clients: make(map[*Client]bool), cancel: cancel}
		b.hubs[sessionID] = hub
		go b.listen(hubCtx, sessionID)
	}
	hub.clients[client] = true
	clientCount := len(hub.clients)
	b.mu.Unlock()

	log.Info().
		Str("sessionId", sessionID).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

// Unsubscribe removes the client; when it was the session's last, the redis
// listener is stopped and the hub discarded.
func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	hub, ok := b.hubs[client.SessionID]
	if !ok {
		return
	}

	delete(hub.clients, client)
	close(client.Done)

	if len(hub.clients) == 0 {
		hub.cancel()
		delete(b.hubs, client.SessionID)
	}

	log.Info().
		Str("sessionId", client.SessionID).
		Int("clientCount", len(hub.clients)).
		Msg("sse client unsubscribed")
}

func (b *Broker) Publish(ctx context.Context, sessionID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := redisclient.SessionChannel(sessionID)
	return b.redis.Publish(ctx, channel, data).Err()
}

// PublishSessionUpdate pushes the client-observable view of a session. The
// finished event carries the same snapshot under its own type so clients can
// stop listening.
func (b *Broker) PublishSessionUpdate(ctx context.Context, s *model.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	eventType := EventSessionUpdate
	if s.Status == model.SessionStatusFinished {
		eventType = EventSessionFinished
	}

	return b.Publish(ctx, s.ID, Event{Type: eventType, Data: data})
}

func (b *Broker) consumeRedis(ctx context.Context, sessionID string) {
	channel := redisclient.SessionChannel(sessionID)
	pubsub := b.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("sessionId", sessionID).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			log.Debug().
				Str("sessionId", sessionID).
				Msg("redis pubsub listener stopped")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(sessionID, event)
		}
	}
}

func (b *Broker) broadcast(sessionID string, event Event) {
	b.mu.RLock()
	var clients []*Client
	if hub, ok := b.hubs[sessionID]; ok {
		for client := range hub.clients {
			clients = append(clients, client)
		}
	}
	b.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("sessionId", sessionID).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, hub := range b.hubs {
		for client := range hub.clients {
			close(client.Done)
		}
	}
	b.hubs = make(map[string]*sessionHub)
}

func (b *Broker) ClientCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	hub, ok := b.hubs[sessionID]
	if !ok {
		return 0
	}
	return len(hub.clients)
}
