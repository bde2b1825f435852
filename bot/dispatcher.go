package bot

import (
	"errors"
	"sync"
	"time"
)

const (
	maxPending  = 64
	idleTimeout = time.Minute
)

var (
	errDispatcherClosed = errors.New("dispatcher closed")
	errQueueFull        = errors.New("chat queue full")
)

// chatQueue holds the jobs waiting for one chat's worker.
type chatQueue struct {
	jobs   []func()
	wake   chan struct{}
	closed bool
}

// dispatcher runs jobs one at a time per chat and concurrently across chats.
// A chat's worker exits after being idle for a while and is started again by
// the next job. submit never waits on a busy chat.
type dispatcher struct {
	mu     sync.Mutex
	queues map[int64]*chatQueue
	wg     sync.WaitGroup
	closed bool
	idle   time.Duration
}

func newDispatcher(idle time.Duration) *dispatcher {
	return &dispatcher{
		queues: make(map[int64]*chatQueue),
		idle:   idle,
	}
}

// submit queues job for chatID. It fails after close and when the chat
// already has maxPending jobs waiting.
func (d *dispatcher) submit(chatID int64, job func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errDispatcherClosed
	}
	q, ok := d.queues[chatID]
	if !ok {
		q = &chatQueue{wake: make(chan struct{}, 1)}
		d.queues[chatID] = q
		d.wg.Add(1)
		go d.work(chatID, q)
	}
	if len(q.jobs) >= maxPending {
		return errQueueFull
	}
	q.jobs = append(q.jobs, job)
	q.signal()
	return nil
}

func (q *chatQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) work(chatID int64, q *chatQueue) {
	defer d.wg.Done()
	timer := time.NewTimer(d.idle)
	defer timer.Stop()
	for {
		d.mu.Lock()
		if len(q.jobs) > 0 {
			job := q.jobs[0]
			q.jobs[0] = nil
			q.jobs = q.jobs[1:]
			d.mu.Unlock()
			job()
			continue
		}
		if q.closed {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()

		timer.Reset(d.idle)
		select {
		case <-q.wake:
		case <-timer.C:
			d.mu.Lock()
			if len(q.jobs) == 0 {
				if d.queues[chatID] == q {
					delete(d.queues, chatID)
				}
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
		}
	}
}

// close stops accepting jobs, lets the queued ones finish and waits for the
// workers to exit.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for chatID, q := range d.queues {
		q.closed = true
		q.signal()
		delete(d.queues, chatID)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
