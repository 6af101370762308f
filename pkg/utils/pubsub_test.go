package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicDeliversToAllSubscribers(t *testing.T) {
	topic := NewTopic[int](4)
	a := topic.Subscribe()
	b := topic.Subscribe()
	defer a.Done()
	defer b.Done()

	missed := topic.Publish(7)
	assert.Equal(t, 0, missed)
	assert.Equal(t, 7, <-a.Recv())
	assert.Equal(t, 7, <-b.Recv())
}

func TestTopicSlowSubscriberDoesNotBlock(t *testing.T) {
	topic := NewTopic[int](1)
	slow := topic.Subscribe()
	fast := topic.Subscribe()
	defer slow.Done()
	defer fast.Done()

	assert.Equal(t, 0, topic.Publish(1))
	<-fast.Recv()

	// slow never reads, so its single slot is still taken
	assert.Equal(t, 1, topic.Publish(2))
	assert.Equal(t, 2, <-fast.Recv())
	assert.Equal(t, 1, <-slow.Recv())
}

func TestSubscriberDone(t *testing.T) {
	topic := NewTopic[string](0)
	sub := topic.Subscribe()
	require.Equal(t, 1, topic.Len())

	sub.Done()
	assert.Equal(t, 0, topic.Len())

	_, ok := <-sub.Recv()
	assert.False(t, ok, "channel should be closed")

	// calling Done twice is harmless
	sub.Done()
	assert.Equal(t, 0, topic.Publish("nobody"))
}
