package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe()
	defer cancelA()
	b, cancelB := h.Subscribe()
	defer cancelB()

	h.Publish()

	for _, ch := range []<-chan struct{}{a, b} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("signal not delivered")
		}
	}
}

func TestHub_Coalesces(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish()
	h.Publish()
	h.Publish()

	<-ch
	select {
	case <-ch:
		t.Fatal("bursts must coalesce into one signal")
	default:
	}
}

func TestHub_Cancel(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	require.Equal(t, 1, h.Subscribers())

	cancel()
	cancel()
	require.Equal(t, 0, h.Subscribers())

	_, ok := <-ch
	require.False(t, ok)

	// publishing without subscribers is fine
	h.Publish()
}
