package game

import (
	"sort"
	"sync"
	"time"
)

// CancelFunc stops a scheduled task. Calling it more than once is safe.
type CancelFunc func()

// Scheduler runs a callback at a fixed interval until cancelled.
type Scheduler interface {
	Schedule(interval time.Duration, fn func(now time.Time)) CancelFunc
	Now() time.Time
}

// TickerScheduler drives tasks from real time, one goroutine per task.
type TickerScheduler struct{}

func (TickerScheduler) Now() time.Time {
	return time.Now()
}

func (TickerScheduler) Schedule(interval time.Duration, fn func(now time.Time)) CancelFunc {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				fn(now)
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}

// ManualScheduler is a virtual clock. Tasks only fire inside Advance, on the
// caller's goroutine, in scheduling order for equal due times.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	tasks  map[int]*manualTask
}

type manualTask struct {
	id       int
	interval time.Duration
	next     time.Time
	fn       func(now time.Time)
}

// NewManualScheduler starts the virtual clock at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{
		now:   start,
		tasks: make(map[int]*manualTask),
	}
}

func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) Schedule(interval time.Duration, fn func(now time.Time)) CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.tasks[id] = &manualTask{id: id, interval: interval, next: s.now.Add(interval), fn: fn}

	return func() {
		s.mu.Lock()
		delete(s.tasks, id)
		s.mu.Unlock()
	}
}

// Pending returns the number of live tasks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Advance moves the clock forward by d, firing every task that comes due.
// Callbacks may schedule or cancel tasks.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	end := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		task := s.nextDue(end)
		if task == nil {
			s.now = end
			s.mu.Unlock()
			return
		}
		s.now = task.next
		task.next = task.next.Add(task.interval)
		now := s.now
		s.mu.Unlock()

		task.fn(now)
	}
}

// nextDue must be called with s.mu held.
func (s *ManualScheduler) nextDue(end time.Time) *manualTask {
	due := make([]*manualTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.next.After(end) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].next.Equal(due[j].next) {
			return due[i].id < due[j].id
		}
		return due[i].next.Before(due[j].next)
	})
	return due[0]
}
