package kds

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fragisir/automatic-resturent-system/utils"
)

const (
	publishTimeout = 2 * time.Second
	connectTimeout = 5 * time.Second
)

type relayMessage struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// RedisBridge mirrors hub events across processes over a redis pub/sub
// channel. Events that came from this process are ignored on the way back in.
type RedisBridge struct {
	client  *redis.Client
	channel string
	origin  string
	hub     *Hub

	out    chan Event
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub, buffer int) *RedisBridge {
	if buffer < 1 {
		buffer = 1
	}
	return &RedisBridge{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		hub:     hub,
		out:     make(chan Event, buffer),
	}
}

// Forward queues an event for publishing. Full queue drops the event.
func (b *RedisBridge) Forward(e Event) {
	select {
	case b.out <- e:
	default:
		utils.ErrorLogger.WithField("event", e.Event).Warn("Redis relay queue full, dropping event")
	}
}

// Start subscribes to the channel and registers the bridge as the hub relay.
func (b *RedisBridge) Start(ctx context.Context) error {
	pingCtx, cancelPing := context.WithTimeout(ctx, connectTimeout)
	err := b.client.Ping(pingCtx).Err()
	cancelPing()
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		pubsub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.handle(msg.Payload)
			}
		}
	}()
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-b.out:
				b.publish(ctx, e)
			}
		}
	}()

	b.hub.SetRelay(b)
	utils.InfoLogger.Printf("Redis relay subscribed to %s", b.channel)
	return nil
}

func (b *RedisBridge) publish(ctx context.Context, e Event) {
	payload, err := b.encode(e)
	if err != nil {
		utils.ErrorLogger.Printf("Error encoding relay event: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		utils.ErrorLogger.Printf("Error publishing relay event: %v", err)
	}
}

func (b *RedisBridge) encode(e Event) ([]byte, error) {
	return json.Marshal(relayMessage{Origin: b.origin, Event: e})
}

func (b *RedisBridge) handle(payload string) {
	var msg relayMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		utils.ErrorLogger.Printf("Error decoding relay event: %v", err)
		return
	}
	if msg.Origin == b.origin {
		return
	}
	b.hub.Deliver(msg.Event)
}

// Close stops both pumps and detaches from the hub. The redis client is left open.
func (b *RedisBridge) Close() {
	b.hub.SetRelay(nil)
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}
