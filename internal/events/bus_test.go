package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitDeliversToSubscriber(t *testing.T) {
	b := NewBus(true)
	sub := b.Subscribe(4)

	b.Emit(string(TypeCandidateRegistered), map[string]interface{}{
		"domain": "adapter", "key": "cache", "provider": "redis",
	})

	select {
	case ev := <-sub.Events():
		assert.Equal(t, TypeCandidateRegistered, ev.Type)
		assert.Equal(t, "adapter", ev.Domain)
		assert.Equal(t, "redis", ev.Provider)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEmitScrubsSecretFields(t *testing.T) {
	b := NewBus(true)
	sub := b.Subscribe(4)

	b.Emit(string(TypeCandidateRegistered), map[string]interface{}{
		"domain": "adapter", "key": "cache", "api_token": "super-secret",
	})

	ev := <-sub.Events()
	require.NotNil(t, ev.Fields)
	assert.Equal(t, "***REDACTED***", ev.Fields["api_token"])
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(true)
	sub := b.Subscribe(1)
	b.Unsubscribe(sub)

	_, ok := <-sub.Events()
	assert.False(t, ok)
}

func TestSlowSubscriberDoesNotBlockEmit(t *testing.T) {
	b := NewBus(true)
	_ = b.Subscribe(1) // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Emit(string(TypePostSwap), map[string]interface{}{"domain": "adapter", "key": "cache"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full subscriber buffer")
	}
}
