package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/fingerlink/internal/detector"
	"github.com/ayusman/fingerlink/internal/fingers"
	"gocv.io/x/gocv"
)

// HandState is one classified hand in a snapshot.
type HandState struct {
	Handedness detector.Handedness                      `json:"handedness"`
	Score      float64                                  `json:"score"`
	State      fingers.State                            `json:"state"`
	Points     [detector.NumLandmarks]detector.Point3D `json:"points"`
}

// Snapshot describes one processed frame.
type Snapshot struct {
	Sequence    uint64      `json:"sequence"`
	Timestamp   int64       `json:"timestamp"`
	Hands       []HandState `json:"hands"`
	Transmitted int         `json:"transmitted"`
}

// Update is what subscribers receive: the snapshot and the annotated frame
// as JPEG, which is nil when the publisher sent no frame.
type Update struct {
	Snapshot Snapshot
	JPEG     []byte
}

// Hub fans out the latest processed frame to HTTP clients. The capture loop
// publishes; handlers subscribe. Slow subscribers miss intermediate updates
// instead of blocking the loop.
type Hub struct {
	mu     sync.RWMutex
	latest Update
	has    bool
	seq    uint64
	subs   map[chan Update]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Update]struct{})}
}

// Publish stores snap as the latest update and notifies subscribers.
// Sequence and Timestamp are assigned here.
func (h *Hub) Publish(snap Snapshot, jpeg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	snap.Sequence = h.seq
	if snap.Timestamp == 0 {
		snap.Timestamp = time.Now().UnixMilli()
	}

	u := Update{Snapshot: snap, JPEG: jpeg}
	h.latest = u
	h.has = true

	for ch := range h.subs {
		select {
		case ch <- u:
		default:
			// Drop the stale pending update and deliver the new one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
			}
		}
	}
}

// PublishFrame encodes frame as JPEG and publishes it with snap.
func (h *Hub) PublishFrame(snap Snapshot, frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		h.Publish(snap, nil)
		return nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	h.Publish(snap, data)
	return nil
}

// Latest returns the most recent update, if any.
func (h *Hub) Latest() (Update, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.has
}

// Subscribe returns a channel of updates and a function that unsubscribes
// and closes it.
func (h *Hub) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
