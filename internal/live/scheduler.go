package live

import (
	"sync"
	"time"
)

// Handle cancels a scheduled task. Cancel is idempotent and never blocks;
// a run already in progress finishes on its own.
type Handle interface {
	Cancel()
}

// Scheduler runs a task periodically.
//
// Implementations must not call task before Schedule returns, must not
// overlap runs of the same task, and must stop calling it once the handle
// is canceled (a run already started may complete).
type Scheduler interface {
	Schedule(every time.Duration, task func()) Handle
}

// TickerScheduler runs each task on its own goroutine driven by a
// time.Ticker. A run that outlasts the interval causes the missed firings
// to be skipped rather than queued.
type TickerScheduler struct{}

const minInterval = 10 * time.Millisecond

// Schedule starts task every interval until the handle is canceled.
func (TickerScheduler) Schedule(every time.Duration, task func()) Handle {
	if every < minInterval {
		every = minInterval
	}
	h := &tickerHandle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go h.run(every, task)
	return h
}

type tickerHandle struct {
	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func (h *tickerHandle) run(every time.Duration, task func()) {
	defer close(h.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}
		// Cancel may race with the tick; cancellation wins.
		select {
		case <-h.stop:
			return
		default:
		}
		task()
		select {
		case <-ticker.C:
		default:
		}
	}
}

func (h *tickerHandle) Cancel() {
	h.once.Do(func() { close(h.stop) })
}

// Done is closed once the task goroutine has exited.
func (h *tickerHandle) Done() <-chan struct{} { return h.done }
