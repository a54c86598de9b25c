package service

import "sync"

// NotificationKind selects how a notification is styled.
type NotificationKind string

const (
	NotificationDefault     NotificationKind = "default"
	NotificationDestructive NotificationKind = "destructive"
)

// Notification is a transient message shown to the user on the next rendered page.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
}

// maxPendingNotifications bounds a scope's queue; the oldest entries are dropped first.
const maxPendingNotifications = 10

// Notifications is a per-scope FIFO queue of pending notifications.
type Notifications struct {
	mu      sync.Mutex
	pending []Notification
}

// Push queues a notification.
func (n *Notifications) Push(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, note)
	if over := len(n.pending) - maxPendingNotifications; over > 0 {
		n.pending = n.pending[over:]
	}
}

// Drain returns and clears every queued notification.
func (n *Notifications) Drain() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	return out
}
