package mqtt

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a fixed-capacity FIFO holding messages published while the
// broker is unreachable. Oldest messages are dropped on overflow.
// Safe for concurrent use: it is filled by the read loop and drained by the
// paho connect handler.
type outbox struct {
	mu      sync.Mutex
	buf     []bufferedMsg
	head    int // next write position
	count   int
	dropped int // messages lost since last drain
}

func newOutbox(capacity int) *outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &outbox{buf: make([]bufferedMsg, capacity)}
}

func (o *outbox) push(msg bufferedMsg) {
	o.mu.Lock()
	defer o.mu.Unlock()

	capacity := len(o.buf)
	o.buf[o.head] = msg
	o.head = (o.head + 1) % capacity
	if o.count == capacity {
		// Overwrote the oldest; count stays at capacity.
		if o.dropped == 0 {
			log.Warnf("mqtt: outbox full (%d messages), dropping oldest", capacity)
		}
		o.dropped++
		return
	}
	o.count++
}

// drain returns buffered messages oldest first and the number dropped since
// the previous drain, leaving the outbox empty.
func (o *outbox) drain() ([]bufferedMsg, int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	dropped := o.dropped
	o.dropped = 0
	if o.count == 0 {
		return nil, dropped
	}

	capacity := len(o.buf)
	result := make([]bufferedMsg, o.count)
	start := (o.head - o.count + capacity) % capacity
	for i := range result {
		result[i] = o.buf[(start+i)%capacity]
	}

	o.count = 0
	o.head = 0
	return result, dropped
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.count
}
