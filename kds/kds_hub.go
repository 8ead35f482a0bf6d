// Package kds fans order events out to kitchen displays, front-of-house
// screens and customer devices.
package kds

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fragisir/automatic-resturent-system/utils"
)

// Event types
const (
	EventNewOrder           = "new_order"
	EventOrderStatusUpdated = "order_status_updated"
	EventOrderCancelled     = "order_cancelled"
)

// EventVersion is bumped whenever the payload shape of an event changes.
const EventVersion = 1

// Subscriber groups
const (
	GroupKitchen  = "kitchen"
	GroupDisplay  = "display"
	GroupCustomer = "customer"
)

const subscriberBuffer = 32

type Event struct {
	Event       string      `json:"event"`
	Version     int         `json:"version"`
	TableNumber int         `json:"tableNumber"`
	Data        interface{} `json:"data"`
}

func NewEvent(name string, tableNumber int, data interface{}) Event {
	return Event{Event: name, Version: EventVersion, TableNumber: tableNumber, Data: data}
}

// ValidGroup reports whether group names a known subscriber group.
func ValidGroup(group string) bool {
	switch group {
	case GroupKitchen, GroupDisplay, GroupCustomer:
		return true
	}
	return false
}

// Relay forwards locally published events to other processes.
type Relay interface {
	Forward(Event)
}

// Subscription is one connected listener. Messages is closed when the hub
// drops the subscriber or stops.
type Subscription struct {
	Group       string
	TableNumber int
	send        chan []byte
}

func (s *Subscription) Messages() <-chan []byte {
	return s.send
}

func (s *Subscription) wants(e Event) bool {
	if s.Group == GroupCustomer {
		return e.TableNumber == s.TableNumber
	}
	return true
}

type envelope struct {
	event Event
	relay bool
}

type Hub struct {
	events chan envelope
	done   chan struct{}

	mu    sync.Mutex
	subs  map[*Subscription]struct{}
	relay Relay

	stopOnce sync.Once
	stopped  chan struct{}
}

func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		events:  make(chan envelope, buffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		subs:    make(map[*Subscription]struct{}),
	}
}

func (h *Hub) SetRelay(r Relay) {
	h.mu.Lock()
	h.relay = r
	h.mu.Unlock()
}

// Publish queues an event for local subscribers and the relay. It never
// blocks; when the queue is full the event is dropped.
func (h *Hub) Publish(e Event) {
	h.enqueue(envelope{event: e, relay: true})
}

// Deliver queues an event for local subscribers only.
func (h *Hub) Deliver(e Event) {
	h.enqueue(envelope{event: e})
}

func (h *Hub) enqueue(env envelope) {
	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.events <- env:
	default:
		utils.ErrorLogger.WithFields(logrus.Fields{
			"event": env.event.Event,
			"table": env.event.TableNumber,
		}).Warn("Event queue full, dropping event")
	}
}

// Run dispatches queued events until Stop is called.
func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.done:
			h.closeAll()
			return
		case env := <-h.events:
			h.dispatch(env.event)
			if env.relay {
				h.mu.Lock()
				relay := h.relay
				h.mu.Unlock()
				if relay != nil {
					relay.Forward(env.event)
				}
			}
		}
	}
}

// Stop ends Run and closes every subscription. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// Wait blocks until Run has returned.
func (h *Hub) Wait() {
	<-h.stopped
}

func (h *Hub) Subscribe(group string, tableNumber int) *Subscription {
	sub := &Subscription{
		Group:       group,
		TableNumber: tableNumber,
		send:        make(chan []byte, subscriberBuffer),
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// remove must be called with mu held.
func (h *Hub) remove(sub *Subscription) {
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.send)
	}
}

func (h *Hub) dispatch(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling event %s: %v", e.Event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for sub := range h.subs {
		if !sub.wants(e) {
			continue
		}
		select {
		case sub.send <- data:
			delivered++
		default:
			utils.ErrorLogger.WithField("group", sub.Group).Warn("Subscriber too slow, disconnecting")
			h.remove(sub)
		}
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"event":     e.Event,
		"table":     e.TableNumber,
		"delivered": delivered,
	}).Debug("Event dispatched")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		h.remove(sub)
	}
}
