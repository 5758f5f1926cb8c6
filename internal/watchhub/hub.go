// Package watchhub is an in-process pubsub of freshly classified SSH records,
// feeding the SSE stream. Best-effort broadcast with bounded per-subscriber
// buffers; slow consumers lose records rather than stall ingest.
package watchhub

import (
	"encoding/json"
	"sync"

	"github.com/hanamahes78/sshsift/internal/parsers"
)

type Hub struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func New() *Hub {
	return &Hub{subs: make(map[chan []byte]struct{})}
}

func (h *Hub) Subscribe(buf int) chan []byte {
	ch := make(chan []byte, buf)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}

// PublishRecord marshals the record once and fans it out.
func (h *Hub) PublishRecord(rec *parsers.SSHRecord) {
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- b:
		default:
			// drop for slow consumers
		}
	}
}
