package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidDueTime = errors.New("scheduler: invalid due time")
	ErrStopped        = errors.New("scheduler: engine stopped")
)

// DueEvent says a recurring schedule reached its next boundary.
type DueEvent struct {
	ScheduleID string
	Title      string
	DueAt      time.Time
}

// dueQueue is a min-heap on DueAt. Each entry tracks its heap index so a
// schedule can be rescheduled or cancelled in place.
type dueQueue []*pending

type pending struct {
	event DueEvent
	index int
}

func (q dueQueue) Len() int           { return len(q) }
func (q dueQueue) Less(i, j int) bool { return q[i].event.DueAt.Before(q[j].event.DueAt) }

func (q dueQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *dueQueue) Push(x any) {
	p := x.(*pending)
	p.index = len(*q)
	*q = append(*q, p)
}

func (q *dueQueue) Pop() any {
	old := *q
	p := old[len(old)-1]
	old[len(old)-1] = nil
	p.index = -1
	*q = old[:len(old)-1]
	return p
}

type engineState int

const (
	stateIdle engineState = iota
	stateRunning
	stateClosed
)

// Engine holds at most one pending event per schedule and emits each on C once
// its due time passes. Sends never block: when the consumer lags, events are
// dropped and counted.
type Engine struct {
	mu    sync.Mutex
	state engineState
	queue dueQueue
	byID  map[string]*pending

	out      chan DueEvent
	kick     chan struct{}
	quit     chan struct{}
	finished chan struct{}
	dropped  atomic.Uint64
}

func NewEngine(bufferSize int) *Engine {
	return &Engine{
		byID:     make(map[string]*pending),
		out:      make(chan DueEvent, max(bufferSize, 1)),
		kick:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// C delivers due events. It is closed after Stop.
func (e *Engine) C() <-chan DueEvent { return e.out }

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateIdle {
		return
	}
	e.state = stateRunning
	go e.run()
}

// Stop halts delivery and waits for the run loop to exit. Stopping an engine
// that was never started is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != stateRunning {
		e.mu.Unlock()
		return
	}
	e.state = stateClosed
	close(e.quit)
	e.mu.Unlock()
	<-e.finished
}

// Schedule queues ev, replacing any pending event for the same schedule.
func (e *Engine) Schedule(ev DueEvent) error {
	if ev.DueAt.IsZero() {
		return ErrInvalidDueTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateClosed {
		return ErrStopped
	}
	if p, ok := e.byID[ev.ScheduleID]; ok {
		p.event = ev
		heap.Fix(&e.queue, p.index)
	} else {
		p := &pending{event: ev}
		heap.Push(&e.queue, p)
		e.index(p)
	}
	e.notify()
	return nil
}

// Sync replaces the whole queue with events. Events without a due time are
// skipped and a repeated schedule id keeps its last event.
func (e *Engine) Sync(events []DueEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateClosed {
		return ErrStopped
	}

	e.queue = make(dueQueue, 0, len(events))
	clear(e.byID)
	for _, ev := range events {
		if ev.DueAt.IsZero() {
			continue
		}
		if p, ok := e.byID[ev.ScheduleID]; ok {
			p.event = ev
			continue
		}
		p := &pending{event: ev, index: len(e.queue)}
		e.queue = append(e.queue, p)
		e.index(p)
	}
	heap.Init(&e.queue)
	e.notify()
	return nil
}

// Cancel drops the pending event for scheduleID, if any.
func (e *Engine) Cancel(scheduleID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.byID[scheduleID]
	if !ok {
		return
	}
	heap.Remove(&e.queue, p.index)
	delete(e.byID, scheduleID)
	e.notify()
}

func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Len()
}

// Dropped counts events discarded because C was full.
func (e *Engine) Dropped() uint64 { return e.dropped.Load() }

// index registers p under its schedule id. Anonymous events are queued but
// cannot be replaced or cancelled.
func (e *Engine) index(p *pending) {
	if p.event.ScheduleID != "" {
		e.byID[p.event.ScheduleID] = p
	}
}

func (e *Engine) notify() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

func (e *Engine) run() {
	defer close(e.finished)
	defer close(e.out)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		var fire <-chan time.Time
		if wait, ok := e.untilNext(time.Now()); ok {
			timer.Reset(wait)
			fire = timer.C
		}

		select {
		case <-fire:
			e.deliver(e.popDue(time.Now()))
		case <-e.kick:
		case <-e.quit:
			return
		}
	}
}

// untilNext reports how long until the earliest event is due, floored at zero.
func (e *Engine) untilNext(now time.Time) (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.queue.Len() == 0 {
		return 0, false
	}
	return max(e.queue[0].event.DueAt.Sub(now), 0), true
}

// popDue removes and returns every event due at or before now, earliest first.
func (e *Engine) popDue(now time.Time) []DueEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	var due []DueEvent
	for e.queue.Len() > 0 && !e.queue[0].event.DueAt.After(now) {
		p := heap.Pop(&e.queue).(*pending)
		if e.byID[p.event.ScheduleID] == p {
			delete(e.byID, p.event.ScheduleID)
		}
		due = append(due, p.event)
	}
	return due
}

func (e *Engine) deliver(events []DueEvent) {
	for _, ev := range events {
		select {
		case e.out <- ev:
		default:
			e.dropped.Add(1)
		}
	}
}
