package live

import (
	"context"
	"sort"
	"time"
)

// Publish queues u for the next frame. Several updates of one fixture within
// a frame collapse into the last one.
func (h *Hub) Publish(u Update) {
	h.mu.Lock()
	h.pending[u.Fixture] = u
	h.mu.Unlock()
	h.sched.MarkDirty(h.task)
}

// Start runs the publish loop until ctx is done or Close is called
func (h *Hub) Start(ctx context.Context, frameInterval time.Duration) {
	if frameInterval > 0 {
		h.sched.SetFrameInterval(frameInterval)
	}
	h.sched.Start(ctx)
}

// Flush broadcasts queued updates immediately
func (h *Hub) Flush() {
	h.sched.Flush()
}

func (h *Hub) flushPending() {
	h.mu.Lock()
	batch := make([]Update, 0, len(h.pending))
	for _, u := range h.pending {
		batch = append(batch, u)
	}
	h.pending = make(map[string]Update)
	h.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].Fixture < batch[j].Fixture })
	for _, u := range batch {
		h.Broadcast(u)
	}
}
