package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesOnlyTargetUser(t *testing.T) {
	h := NewHub()
	a1, a2, b := NewClient(1), NewClient(1), NewClient(2)
	h.Register(a1)
	h.Register(a2)
	h.Register(b)
	assert.Equal(t, 2, h.ClientCount(1))

	h.BroadcastToUser(1, map[string]string{"type": "order_status"})

	for _, c := range []*Client{a1, a2} {
		select {
		case msg := <-c.Send:
			var got map[string]string
			require.NoError(t, json.Unmarshal(msg, &got))
			assert.Equal(t, "order_status", got["type"])
		default:
			t.Fatal("expected a message")
		}
	}
	assert.Len(t, b.Send, 0)
}

func TestCloseUnregistersOnce(t *testing.T) {
	h := NewHub()
	c := NewClient(5)
	h.Register(c)
	c.Close()
	c.Close()
	assert.Equal(t, 0, h.ClientCount(5))

	_, open := <-c.Send
	assert.False(t, open)
	h.BroadcastToUser(5, "ignored")
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := NewClient(9)
	h.Register(c)
	for i := 0; i < cap(c.Send)+5; i++ {
		h.BroadcastToUser(9, i)
	}
	assert.Equal(t, cap(c.Send), len(c.Send))
}

func TestConcurrentBroadcastAndClose(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		c := NewClient(3)
		h.Register(c)
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.BroadcastToUser(3, "tick")
		}()
		go func() {
			defer wg.Done()
			c.Close()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.ClientCount(3))
}
