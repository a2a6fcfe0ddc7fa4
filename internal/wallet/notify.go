package wallet

import (
	"sync"
	"time"
)

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

const (
	SuccessToastDuration = 3000 * time.Millisecond
	ErrorToastDuration   = 5000 * time.Millisecond
)

// Toast is a transient, dismissible notification.
type Toast struct {
	ID        int
	Kind      ToastKind
	Title     string
	Message   string
	Duration  time.Duration
	CreatedAt time.Time
}

// Notifier holds the active toasts. Toasts drop out once their duration
// has passed or when dismissed.
type Notifier struct {
	mu       sync.Mutex
	nextID   int
	toasts   []Toast
	now      func() time.Time
	onChange func()
}

func NewNotifier() *Notifier {
	return &Notifier{now: time.Now}
}

func (n *Notifier) Success(title, message string) Toast {
	return n.push(ToastSuccess, title, message, SuccessToastDuration)
}

func (n *Notifier) Error(title, message string) Toast {
	return n.push(ToastError, title, message, ErrorToastDuration)
}

func (n *Notifier) push(kind ToastKind, title, message string, d time.Duration) Toast {
	n.mu.Lock()
	n.nextID++
	t := Toast{
		ID:        n.nextID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		Duration:  d,
		CreatedAt: n.now(),
	}
	n.toasts = append(n.toasts, t)
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn()
	}
	return t
}

// Dismiss removes a toast and reports whether it was still active.
func (n *Notifier) Dismiss(id int) bool {
	n.mu.Lock()
	found := false
	for i, t := range n.toasts {
		if t.ID == id {
			n.toasts = append(n.toasts[:i], n.toasts[i+1:]...)
			found = true
			break
		}
	}
	fn := n.onChange
	n.mu.Unlock()

	if found && fn != nil {
		fn()
	}
	return found
}

// Active returns toasts that are neither dismissed nor expired, oldest
// first.
func (n *Notifier) Active() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	kept := n.toasts[:0]
	for _, t := range n.toasts {
		if now.Sub(t.CreatedAt) < t.Duration {
			kept = append(kept, t)
		}
	}
	n.toasts = kept
	return append([]Toast(nil), kept...)
}

func (n *Notifier) setOnChange(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = fn
}
