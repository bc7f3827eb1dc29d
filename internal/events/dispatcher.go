package events

import (
	"context"
	"sync"
	"time"
)

const (
	// TopicMint carries one message per successful mint.
	TopicMint = "mint"
	// TopicSigned carries one message per successful signature.
	TopicSigned = "signed"

	sourceLedger = "docsign-ledger"
)

// Message is one ledger event. Signer and Status are empty on mint messages;
// Recipient is empty on signed messages.
type Message struct {
	Topic     string
	TokenID   uint32
	Recipient string
	Signer    string
	Status    string
	Source    string
	Timestamp time.Time
}

// Dispatcher fans ledger events out to in-process subscribers. Delivery is
// best effort: a subscriber whose buffer is full misses the message.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*subscriber
	nextID      int64
	bufferSize  int
	clock       func() time.Time
}

type subscriber struct {
	id     int64
	stream chan Message
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		subscribers: make(map[string]map[int64]*subscriber),
		bufferSize:  16,
		clock:       time.Now,
	}
}

// Subscribe registers a listener for one topic. The returned cleanup is also
// invoked automatically when ctx is done.
func (d *Dispatcher) Subscribe(ctx context.Context, topic string) (<-chan Message, func()) {
	if topic == "" {
		ch := make(chan Message)
		close(ch)
		return ch, func() {}
	}
	listener := &subscriber{
		id:     d.nextSequence(),
		stream: make(chan Message, d.bufferSize),
	}
	d.registerSubscriber(topic, listener)
	cleanup := func() {
		d.unregisterSubscriber(topic, listener.id)
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return listener.stream, cleanup
}

// Publish delivers the message to every subscriber of its topic.
func (d *Dispatcher) Publish(message Message) {
	if message.Topic == "" {
		return
	}
	if message.Source == "" {
		message.Source = sourceLedger
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = d.clock().UTC()
	}
	d.mu.RLock()
	listeners := d.subscribers[message.Topic]
	if len(listeners) == 0 {
		d.mu.RUnlock()
		return
	}
	copies := make([]*subscriber, 0, len(listeners))
	for _, listener := range listeners {
		copies = append(copies, listener)
	}
	d.mu.RUnlock()
	for _, listener := range copies {
		select {
		case listener.stream <- message:
		default:
		}
	}
}

// MintEmitted implements ledger event emission for successful mints.
func (d *Dispatcher) MintEmitted(recipient string, tokenID uint32) {
	d.Publish(Message{
		Topic:     TopicMint,
		TokenID:   tokenID,
		Recipient: recipient,
	})
}

// SignatureEmitted implements ledger event emission for successful signs.
func (d *Dispatcher) SignatureEmitted(tokenID uint32, signer, status string) {
	d.Publish(Message{
		Topic:   TopicSigned,
		TokenID: tokenID,
		Signer:  signer,
		Status:  status,
	})
}

func (d *Dispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *Dispatcher) registerSubscriber(topic string, listener *subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[topic]; !ok {
		d.subscribers[topic] = make(map[int64]*subscriber)
	}
	d.subscribers[topic][listener.id] = listener
}

func (d *Dispatcher) unregisterSubscriber(topic string, subscriberID int64) {
	d.mu.Lock()
	listeners := d.subscribers[topic]
	if listeners != nil {
		delete(listeners, subscriberID)
		if len(listeners) == 0 {
			delete(d.subscribers, topic)
		}
	}
	d.mu.Unlock()
}
