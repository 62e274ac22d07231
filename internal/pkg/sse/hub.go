package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Event names pushed to attendance streams
const (
	EventConnected       = "connected"
	EventAttendance      = "attendance.status"
	EventPunchDeleted    = "attendance.punch_deleted"
	EventAbsentEligible  = "attendance.absent_eligible"
	EventMarkedAbsent    = "attendance.marked_absent"
	EventScheduleChanged = "schedule.updated"
)

const subscriberBuffer = 16

// Event represents an SSE event to be sent to subscribers
type Event struct {
	UserID string
	Event  string
	Data   interface{}
}

// WriteTo writes e in text/event-stream framing.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return 0, fmt.Errorf("marshal sse event %s: %w", e.Event, err)
	}
	n, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Event, data)
	return int64(n), err
}

// Hub manages SSE subscribers and event broadcasting
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	dropped     int
}

// NewHub creates a new SSE Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a new subscriber for a user and returns the event channel and cleanup function.
// The cleanup function is safe to call more than once.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)

	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan Event]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[userID], ch)
			close(ch)
			if len(h.subscribers[userID]) == 0 {
				delete(h.subscribers, userID)
			}
		})
	}

	return ch, cleanup
}

// Publish sends an event to all subscribers of a specific user.
// Slow subscribers miss the event instead of blocking the publisher.
func (h *Hub) Publish(userID string, event Event) {
	event.UserID = userID

	h.mu.RLock()
	var missed int
	for ch := range h.subscribers[userID] {
		select {
		case ch <- event:
		default:
			missed++
		}
	}
	h.mu.RUnlock()

	if missed > 0 {
		h.mu.Lock()
		h.dropped += missed
		h.mu.Unlock()
	}
}

// PublishToMany sends an event to multiple users, each user at most once
func (h *Hub) PublishToMany(userIDs []string, event Event) {
	seen := make(map[string]struct{}, len(userIDs))
	for _, userID := range userIDs {
		if _, ok := seen[userID]; ok || userID == "" {
			continue
		}
		seen[userID] = struct{}{}
		h.Publish(userID, event)
	}
}

// SubscriberCount returns the number of active subscribers for a user
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

// TotalSubscribers returns the total number of active subscribers across all users
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

// Dropped returns how many deliveries were skipped because a subscriber buffer was full
func (h *Hub) Dropped() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}
