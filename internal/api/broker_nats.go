package api

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
)

// NATSBroker implements EventBroker over NATS subjects, one subject per trip.
type NATSBroker struct {
	nc *nats.Conn

	mu  sync.Mutex
	sub map[chan SSEEvent]*nats.Subscription
}

func NewNATSBroker(url string) (*NATSBroker, error) {
	nc, err := nats.Connect(url, nats.Name("daynav-api"))
	if err != nil {
		return nil, err
	}
	return &NATSBroker{nc: nc, sub: map[chan SSEEvent]*nats.Subscription{}}, nil
}

func (b *NATSBroker) Subscribe(tripID string) chan SSEEvent {
	ch := make(chan SSEEvent, 16)
	sub, err := b.nc.Subscribe(b.subject(tripID), func(msg *nats.Msg) {
		var evt SSEEvent
		if err := json.Unmarshal(msg.Data, &evt); err == nil {
			select {
			case ch <- evt:
			default:
			}
		}
	})
	if err != nil {
		close(ch)
		return ch
	}
	b.mu.Lock()
	b.sub[ch] = sub
	b.mu.Unlock()
	return ch
}

func (b *NATSBroker) Unsubscribe(tripID string, ch chan SSEEvent) {
	b.mu.Lock()
	sub := b.sub[ch]
	delete(b.sub, ch)
	b.mu.Unlock()
	if sub != nil {
		_ = sub.Unsubscribe()
	}
	close(ch)
}

func (b *NATSBroker) Publish(tripID string, evt SSEEvent) {
	data, _ := json.Marshal(evt)
	_ = b.nc.Publish(b.subject(tripID), data)
}

func (b *NATSBroker) Close() {
	if b.nc != nil {
		_ = b.nc.Drain()
		b.nc.Close()
	}
}

func (b *NATSBroker) subject(tripID string) string {
	return "daynav.trips." + subjectToken(tripID)
}

func subjectToken(s string) string {
	// NATS tokens cannot contain spaces, '>', '*', or '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_")
	s = repl.Replace(strings.TrimSpace(s))
	if s == "" {
		return "_"
	}
	return s
}
