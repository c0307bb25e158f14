package fanout

import "sync"

// Outbox is a bounded per-connection frame queue. When full, the oldest frame is
// dropped so producers never wait on a slow reader. Frames leave in push order.
type Outbox struct {
	mu      sync.Mutex
	frames  [][]byte
	limit   int
	closed  bool
	dropped uint64
	ready   chan struct{}
}

func NewOutbox(limit int) *Outbox {
	if limit < 1 {
		limit = 1
	}
	return &Outbox{
		frames: make([][]byte, 0, limit),
		limit:  limit,
		ready:  make(chan struct{}, 1),
	}
}

// Push enqueues frame, dropping the oldest queued frame when full. It returns false
// only when the outbox is closed.
func (o *Outbox) Push(frame []byte) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	if len(o.frames) == o.limit {
		o.frames[0] = nil
		o.frames = o.frames[1:]
		o.dropped++
	}
	o.frames = append(o.frames, frame)
	o.mu.Unlock()

	select {
	case o.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready is signalled whenever frames may be available.
func (o *Outbox) Ready() <-chan struct{} { return o.ready }

// Drain removes and returns every queued frame.
func (o *Outbox) Drain() [][]byte {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.frames) == 0 {
		return nil
	}
	out := o.frames
	o.frames = make([][]byte, 0, o.limit)
	return out
}

// Close rejects further pushes. Frames already queued can still be drained.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

// Dropped returns how many frames were discarded on overflow.
func (o *Outbox) Dropped() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.frames)
}
