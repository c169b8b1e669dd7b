package mqtt

import (
	"sync"
	"testing"
)

func TestOutboxEmptyDrain(t *testing.T) {
	o := newOutbox(10)
	got, dropped := o.drain()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
	if dropped != 0 {
		t.Errorf("expected 0 dropped, got %d", dropped)
	}
}

func TestOutboxPushAndDrain(t *testing.T) {
	o := newOutbox(10)
	for i := 0; i < 5; i++ {
		o.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got, _ := o.drain()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	// Second drain should be empty
	got2, _ := o.drain()
	if got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestOutboxOverflow(t *testing.T) {
	capacity := 5
	o := newOutbox(capacity)

	// Push capacity+3 items (0..7), outbox should keep the most recent 5 (3..7)
	for i := 0; i < capacity+3; i++ {
		o.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got, dropped := o.drain()
	if len(got) != capacity {
		t.Fatalf("expected %d items, got %d", capacity, len(got))
	}
	if dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", dropped)
	}
	for i := 0; i < capacity; i++ {
		want := byte(i + 3) // oldest 3 were dropped
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}

	if _, dropped := o.drain(); dropped != 0 {
		t.Errorf("drop count should reset after drain, got %d", dropped)
	}
}

func TestOutboxMultipleCycles(t *testing.T) {
	o := newOutbox(5)

	for i := 0; i < 3; i++ {
		o.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	got, _ := o.drain()
	if len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	for i := 10; i < 14; i++ {
		o.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	got, _ = o.drain()
	if len(got) != 4 {
		t.Fatalf("cycle 2: expected 4 items, got %d", len(got))
	}
	for i, msg := range got {
		want := byte(10 + i)
		if msg.payload[0] != want {
			t.Errorf("cycle 2 item %d: expected %d, got %d", i, want, msg.payload[0])
		}
	}
}

func TestOutboxLen(t *testing.T) {
	o := newOutbox(10)
	if o.len() != 0 {
		t.Errorf("expected len 0, got %d", o.len())
	}

	o.push(bufferedMsg{topic: "t"})
	o.push(bufferedMsg{topic: "t"})
	if o.len() != 2 {
		t.Errorf("expected len 2, got %d", o.len())
	}

	o.drain()
	if o.len() != 0 {
		t.Errorf("expected len 0 after drain, got %d", o.len())
	}
}

func TestOutboxMinimumCapacity(t *testing.T) {
	o := newOutbox(0)
	o.push(bufferedMsg{topic: "a"})
	o.push(bufferedMsg{topic: "b"})

	got, dropped := o.drain()
	if len(got) != 1 || got[0].topic != "b" {
		t.Errorf("expected only the newest message, got %+v", got)
	}
	if dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", dropped)
	}
}

func TestOutboxPreservesFields(t *testing.T) {
	o := newOutbox(10)
	o.push(bufferedMsg{
		topic:    "environment/test",
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got, _ := o.drain()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != "environment/test" {
		t.Errorf("topic: got %s, want environment/test", got[0].topic)
	}
	if string(got[0].payload) != `{"test":true}` {
		t.Errorf("payload: got %s", got[0].payload)
	}
	if got[0].qos != 1 {
		t.Errorf("qos: got %d, want 1", got[0].qos)
	}
	if !got[0].retained {
		t.Error("retained: got false, want true")
	}
}

func TestOutboxConcurrentPush(t *testing.T) {
	o := newOutbox(1000)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				o.push(bufferedMsg{topic: "t"})
			}
		}()
	}
	wg.Wait()

	if o.len() != 400 {
		t.Errorf("expected 400 messages, got %d", o.len())
	}
}
