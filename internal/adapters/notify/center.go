package notify

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/takecare/core/internal/infrastructure/logger"
	"github.com/takecare/core/internal/ports"
)

// Delivery is one fired reminder, emitted on the center's channel for a
// push transport to pick up.
type Delivery struct {
	ActorID    string
	Identifier string
	Title      string
	Body       string
	FiredAt    time.Time
}

type queueEntry struct {
	actorID    string
	identifier string
	fireAt     time.Time
}

type fireQueue []queueEntry

func (q fireQueue) Len() int { return len(q) }

func (q fireQueue) Less(i, j int) bool {
	return q[i].fireAt.Before(q[j].fireAt)
}

func (q fireQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *fireQueue) Push(x any) {
	*q = append(*q, x.(queueEntry))
}

func (q *fireQueue) Pop() any {
	old := *q
	n := len(old)
	entry := old[n-1]
	*q = old[0 : n-1]
	return entry
}

// Center is the process-local stand-in for the device's notification
// store. It keeps pending reminder requests per actor, fires them through
// a timer loop over a min-heap, and tracks each actor's permission state
// as reported by the device. It implements both ports.NotificationScheduler
// and ports.ConsentGateway.
//
// Cancelled reminders are removed lazily: heap entries are checked against
// the pending map at fire time, which keeps Cancel O(1) per identifier.
type Center struct {
	logger *logger.Logger

	mu        sync.Mutex
	pending   map[string]map[string]ports.ReminderRequest
	consent   map[string]ports.ConsentStatus
	requested map[string]bool
	queue     fireQueue
	started   bool
	stopped   bool

	out     chan Delivery
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	dropped uint64
}

// NewCenter creates a notification center with the given delivery buffer.
func NewCenter(bufferSize int, log *logger.Logger) *Center {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Center{
		logger:    log.WithComponent("notify"),
		pending:   make(map[string]map[string]ports.ReminderRequest),
		consent:   make(map[string]ports.ConsentStatus),
		requested: make(map[string]bool),
		queue:     make(fireQueue, 0),
		out:       make(chan Delivery, bufferSize),
		wakeup:    make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// C is the stream of fired reminders.
func (c *Center) C() <-chan Delivery {
	return c.out
}

// Start launches the firing loop.
func (c *Center) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	heap.Init(&c.queue)
	go c.loop()
}

// Stop shuts the firing loop down and waits for it to exit.
func (c *Center) Stop() {
	c.mu.Lock()
	if !c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	close(c.stopCh)
	c.mu.Unlock()
	<-c.doneCh
}

// Dropped reports deliveries discarded because the consumer lagged.
func (c *Center) Dropped() uint64 {
	return atomic.LoadUint64(&c.dropped)
}

// PendingIdentifiers returns the identifiers of all reminders currently
// registered for the actor.
func (c *Center) PendingIdentifiers(ctx context.Context, actorID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.pending[actorID]))
	for id := range c.pending[actorID] {
		ids = append(ids, id)
	}
	return ids, nil
}

// Schedule registers a reminder. Re-registering an identifier replaces the
// previous request.
func (c *Center) Schedule(ctx context.Context, actorID string, req ports.ReminderRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[actorID] == nil {
		c.pending[actorID] = make(map[string]ports.ReminderRequest)
	}
	c.pending[actorID][req.Identifier] = req
	heap.Push(&c.queue, queueEntry{actorID: actorID, identifier: req.Identifier, fireAt: req.FireAt})
	c.signalWakeup()
	return nil
}

// Cancel removes reminders by identifier. Unknown identifiers are ignored.
func (c *Center) Cancel(ctx context.Context, actorID string, identifiers []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range identifiers {
		delete(c.pending[actorID], id)
	}
	return nil
}

// Status returns the actor's notification permission state.
func (c *Center) Status(ctx context.Context, actorID string) (ports.ConsentStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.consent[actorID]
	if !ok {
		return ports.ConsentNotDetermined, nil
	}
	return status, nil
}

// Request records that authorization was asked for. The actual prompt
// happens on the device; until it reports a decision through SetStatus,
// the request is not granted. At most one prompt is issued per actor.
func (c *Center) Request(ctx context.Context, actorID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.consent[actorID] == ports.ConsentAuthorized {
		return true, nil
	}
	if !c.requested[actorID] {
		c.requested[actorID] = true
		c.logger.Debugw("Notification authorization requested", "actor_id", actorID)
	}
	return false, nil
}

// SetStatus stores the permission state the device reported.
func (c *Center) SetStatus(ctx context.Context, actorID string, status ports.ConsentStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consent[actorID] = status
	return nil
}

func (c *Center) loop() {
	defer close(c.doneCh)
	defer close(c.out)

	var timer *time.Timer
	for {
		next, hasNext := c.peek()
		if !hasNext {
			select {
			case <-c.wakeup:
				continue
			case <-c.stopCh:
				return
			}
		}

		wait := time.Until(next.fireAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, d := range c.fireDue(time.Now()) {
				select {
				case c.out <- d:
				default:
					atomic.AddUint64(&c.dropped, 1)
				}
			}
		case <-c.wakeup:
			continue
		case <-c.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (c *Center) signalWakeup() {
	select {
	case c.wakeup <- struct{}{}:
	default:
	}
}

func (c *Center) peek() (queueEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return queueEntry{}, false
	}
	return c.queue[0], true
}

// fireDue pops every entry whose time has come, skips entries whose
// reminder was cancelled or replaced since they were queued, and re-arms
// repeating reminders a day ahead.
func (c *Center) fireDue(now time.Time) []Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Delivery
	for len(c.queue) > 0 {
		next := c.queue[0]
		if next.fireAt.After(now) {
			break
		}
		heap.Pop(&c.queue)

		req, ok := c.pending[next.actorID][next.identifier]
		if !ok || !req.FireAt.Equal(next.fireAt) {
			continue
		}

		out = append(out, Delivery{
			ActorID:    next.actorID,
			Identifier: next.identifier,
			Title:      req.Title,
			Body:       req.Body,
			FiredAt:    now,
		})

		if req.Repeats {
			req.FireAt = req.FireAt.AddDate(0, 0, 1)
			c.pending[next.actorID][next.identifier] = req
			heap.Push(&c.queue, queueEntry{actorID: next.actorID, identifier: next.identifier, fireAt: req.FireAt})
		} else {
			delete(c.pending[next.actorID], next.identifier)
		}
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
