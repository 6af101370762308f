package utils

import (
	"github.com/sasha-s/go-deadlock"
)

const DEFAULT_TOPIC_BUFFER = 64

// Topic fans a value out to every subscriber. Publish never blocks: a
// subscriber whose buffer is full misses that value and the others still
// receive it.
type Topic[T any] struct {
	subscribers map[chan T]struct{}
	buffer      int
	mutex       deadlock.Mutex
}

func NewTopic[T any](buffer int) *Topic[T] {
	if buffer <= 0 {
		buffer = DEFAULT_TOPIC_BUFFER
	}

	return &Topic[T]{
		subscribers: make(map[chan T]struct{}),
		buffer:      buffer,
	}
}

// Publish delivers value to all subscribers and returns how many of them
// could not take it.
func (t *Topic[T]) Publish(value T) (missed int) {
	t.mutex.Lock()
	for subscriber := range t.subscribers {
		select {
		case subscriber <- value:
		default:
			missed++
		}
	}
	t.mutex.Unlock()
	return
}

func (t *Topic[T]) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.subscribers)
}

type Subscriber[T any] struct {
	channel chan T
	topic   *Topic[T]
}

func (t *Topic[T]) Subscribe() *Subscriber[T] {
	channel := make(chan T, t.buffer)
	t.mutex.Lock()
	t.subscribers[channel] = struct{}{}
	t.mutex.Unlock()

	return &Subscriber[T]{channel, t}
}

func (t *Subscriber[T]) Recv() <-chan T {
	return t.channel
}

// Done unsubscribes and closes the channel returned by Recv.
func (t *Subscriber[T]) Done() {
	topic := t.topic
	topic.mutex.Lock()
	if _, ok := topic.subscribers[t.channel]; ok {
		delete(topic.subscribers, t.channel)
		close(t.channel)
	}
	topic.mutex.Unlock()
}
