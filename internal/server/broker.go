package server

import (
	"encoding/json"
	"sync"
)

// SSEEvent is the payload published to a player's event stream.
type SSEEvent struct {
	Type             string `json:"type"`
	SecondsRemaining int    `json:"secondsRemaining,omitempty"`
	Question         string `json:"question,omitempty"`
	Result           *bool  `json:"result,omitempty"`
	State            string `json:"state,omitempty"`
	Score            int    `json:"score,omitempty"`
}

// Event types published over SSE.
const (
	eventTick     = "tick"
	eventAnswer   = "answer"
	eventRoundEnd = "round_end"
)

// Broker is an in-process pub/sub for SSE events, keyed by player ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded SSE events for the
// given player.
func (b *Broker) Subscribe(playerID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[playerID] == nil {
		b.subs[playerID] = make(map[chan []byte]struct{})
	}
	b.subs[playerID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the player's subscribers.
func (b *Broker) Unsubscribe(playerID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[playerID], ch)
	if len(b.subs[playerID]) == 0 {
		delete(b.subs, playerID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given player.
func (b *Broker) Publish(playerID string, event SSEEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[playerID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
