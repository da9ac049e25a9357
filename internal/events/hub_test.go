package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub(nil)
	a, unsubA := h.Subscribe(4)
	b, unsubB := h.Subscribe(4)
	defer unsubB()

	h.Publish(context.Background(), Event{Type: RoundOpened, RoundID: "r1", At: time.Now()})

	require.Equal(t, RoundOpened, (<-a).Type)
	require.Equal(t, "r1", (<-b).RoundID)

	unsubA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, h.Subscribers())
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub(nil)
	ch, unsub := h.Subscribe(1)
	defer unsub()

	h.Publish(context.Background(), Event{Type: RoundTick})
	h.Publish(context.Background(), Event{Type: RoundTick})

	assert.Len(t, ch, 1)
	assert.Equal(t, uint64(1), h.Dropped())
}

func TestMultiSkipsNil(t *testing.T) {
	h := NewHub(nil)
	ch, unsub := h.Subscribe(1)
	defer unsub()

	Multi{nil, Discard{}, h}.Publish(context.Background(), Event{Type: BetPlaced})
	assert.Equal(t, BetPlaced, (<-ch).Type)
}
