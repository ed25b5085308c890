//go:build redis_integration

package events

import (
	"os"
	"testing"
	"time"
)

func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set; skipping integration test")
	}
	b, err := NewRedis(url, nil)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer b.Close()
	if err := b.Ping(t.Context()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	ch := b.Subscribe("it-run")
	b.Publish(Event{RunID: "it-run", Type: RunStarted})
	select {
	case evt := <-ch:
		if evt.Type != RunStarted {
			t.Fatalf("got %s", evt.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	b.Unsubscribe("it-run", ch)
}
