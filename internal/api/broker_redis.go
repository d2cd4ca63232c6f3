package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisBroker implements EventBroker over Redis Pub/Sub so plan events reach
// subscribers connected to other instances.
type RedisBroker struct {
	rdb *redis.Client

	mu  sync.Mutex
	sub map[chan SSEEvent]*redis.PubSub
}

func NewRedisBroker(url string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisBroker{rdb: redis.NewClient(opt), sub: map[chan SSEEvent]*redis.PubSub{}}, nil
}

func (b *RedisBroker) Subscribe(tripID string) chan SSEEvent {
	ch := make(chan SSEEvent, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(tripID))
	// initial receive confirms the subscription before we hand the channel out
	_, _ = ps.Receive(ctx)
	b.mu.Lock()
	b.sub[ch] = ps
	b.mu.Unlock()
	go func() {
		for msg := range ps.Channel() {
			var evt SSEEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
				select {
				case ch <- evt:
				default:
				}
			}
		}
		close(ch)
	}()
	return ch
}

func (b *RedisBroker) Unsubscribe(tripID string, ch chan SSEEvent) {
	b.mu.Lock()
	ps := b.sub[ch]
	delete(b.sub, ch)
	b.mu.Unlock()
	if ps != nil {
		_ = ps.Close() // closing the PubSub ends the reader goroutine, which closes ch
	}
}

func (b *RedisBroker) Publish(tripID string, evt SSEEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(evt)
	_ = b.rdb.Publish(ctx, b.chanName(tripID), data).Err()
}

func (b *RedisBroker) chanName(tripID string) string { return "trip:" + tripID }
