// Package scheduler coalesces deferred work into frames. A task marked dirty
// any number of times before the next frame runs once in that frame.
//
// Frames are driven either by the host calling Flush from its redraw loop or
// by Start, which flushes from its own goroutine after each wake-up.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// TaskFunc is the work a task performs when its frame is flushed
type TaskFunc func()

// ErrorHandler handles panics during task execution
// Returns true to keep the task, false to remove it
type ErrorHandler func(task *Task, err interface{}) bool

// Task is a unit of deferred work that runs at most once per frame
type Task struct {
	id  uint32
	run TaskFunc

	// Scheduling state
	dirty atomic.Bool

	// Error handling
	onError ErrorHandler

	// User data
	userData interface{}
}

// debugLog is installed by pkg/debug
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// Scheduler manages task execution
type Scheduler struct {
	mu         sync.Mutex
	tasks      map[uint32]*Task
	nextID     uint32
	dirtyQueue []*Task
	wake       chan struct{}
	stop       chan struct{}
	running    atomic.Bool
	frame      time.Duration

	defaultError ErrorHandler
}

// DefaultFrameInterval approximates one display refresh
const DefaultFrameInterval = 16 * time.Millisecond

var (
	defaultOnce      sync.Once
	defaultScheduler *Scheduler
)

// Default returns the process-wide scheduler. It is not started; hosts either
// call Flush on every redraw or Start it once.
func Default() *Scheduler {
	defaultOnce.Do(func() {
		defaultScheduler = NewScheduler()
	})
	return defaultScheduler
}

// NewScheduler creates a new scheduler instance
func NewScheduler() *Scheduler {
	return &Scheduler{
		tasks:      make(map[uint32]*Task),
		nextID:     1,
		dirtyQueue: make([]*Task, 0, 64),
		wake:       make(chan struct{}, 1),
		frame:      DefaultFrameInterval,
	}
}

// SetFrameInterval sets how long the loop started by Start waits after a
// wake-up before flushing. Zero flushes immediately.
func (s *Scheduler) SetFrameInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < 0 {
		d = 0
	}
	s.frame = d
}

// SetDefaultErrorHandler sets the default error handler for tasks
func (s *Scheduler) SetDefaultErrorHandler(handler ErrorHandler) {
	s.defaultError = handler
}

// CreateTask registers run as a new task
func (s *Scheduler) CreateTask(run TaskFunc) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	task := &Task{
		id:  id,
		run: run,
	}

	// Use default error handler if none specified
	if s.defaultError != nil {
		task.onError = s.defaultError
	}

	s.tasks[id] = task
	return task
}

// RemoveTask removes a task from the scheduler. A pending run is dropped.
func (s *Scheduler) RemoveTask(task *Task) {
	if task == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, task.id)
}

// MarkDirty schedules task for the next frame. It reports whether this call
// scheduled it; a task that is already pending is not queued twice.
func (s *Scheduler) MarkDirty(task *Task) bool {
	if task == nil {
		return false
	}

	if !task.dirty.CompareAndSwap(false, true) {
		if debugLog != nil {
			debugLog("[Scheduler] Task", task.ID(), "already pending")
		}
		return false
	}

	s.mu.Lock()
	s.dirtyQueue = append(s.dirtyQueue, task)
	s.mu.Unlock()

	if debugLog != nil {
		debugLog("[Scheduler] Task", task.ID(), "marked dirty")
	}

	select {
	case s.wake <- struct{}{}:
	default:
		// A wake-up is already pending; the task rides along
	}
	return true
}

// Pending returns the number of tasks waiting for the next frame
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirtyQueue)
}

// Flush runs every pending task once and returns how many ran. Tasks marked
// dirty while the frame is running are left for the next frame.
func (s *Scheduler) Flush() int {
	s.mu.Lock()
	batch := s.dirtyQueue
	s.dirtyQueue = make([]*Task, 0, cap(batch))
	s.mu.Unlock()

	if len(batch) == 0 {
		return 0
	}
	if debugLog != nil {
		debugLog("[Scheduler] Processing batch of", len(batch), "tasks")
	}

	ran := 0
	for _, task := range batch {
		if s.processTask(task) {
			ran++
		}
	}
	return ran
}

// Start begins the scheduler loop. The loop ends when ctx is done or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.running.CompareAndSwap(false, true) {
		if debugLog != nil {
			debugLog("[Scheduler] Scheduler already running")
		}
		return
	}

	s.mu.Lock()
	stop := make(chan struct{})
	s.stop = stop
	pending := len(s.dirtyQueue) > 0
	s.mu.Unlock()

	if pending {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}

	if debugLog != nil {
		debugLog("[Scheduler] Starting scheduler loop")
	}
	go s.loop(ctx, stop)
}

// Stop stops the scheduler loop. Pending tasks stay queued for Flush.
func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// loop is the main scheduler event loop
func (s *Scheduler) loop(ctx context.Context, stop <-chan struct{}) {
	defer func() {
		if debugLog != nil {
			debugLog("[Scheduler] Loop ended")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-stop:
			return
		case <-s.wake:
		}

		// Let further wake-ups of this frame coalesce
		s.mu.Lock()
		frame := s.frame
		s.mu.Unlock()
		if frame > 0 {
			timer := time.NewTimer(frame)
			select {
			case <-ctx.Done():
				timer.Stop()
				s.Stop()
				return
			case <-stop:
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		s.Flush()
	}
}

// processTask runs a single task if it is still registered and dirty
func (s *Scheduler) processTask(task *Task) bool {
	// Check if still dirty (might have been processed in a previous batch)
	if !task.dirty.CompareAndSwap(true, false) {
		return false
	}
	if s.GetTask(task.id) == nil {
		if debugLog != nil {
			debugLog("[Scheduler] Task", task.ID(), "was removed, skipping")
		}
		return false
	}

	// Wrap run in panic recovery
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.handleTaskError(task, r)
			}
		}()

		if debugLog != nil {
			debugLog("[Scheduler] Running task", task.ID())
		}
		task.run()
	}()
	return true
}

// handleTaskError handles a panic during task execution
func (s *Scheduler) handleTaskError(task *Task, err interface{}) {
	// Create error with stack trace
	errorMsg := fmt.Sprintf("Task %d panic: %v\n%s", task.id, err, debug.Stack())

	// Call error handler
	shouldContinue := false
	if task.onError != nil {
		shouldContinue = task.onError(task, errorMsg)
	} else if debugLog != nil {
		debugLog("[Scheduler]", errorMsg)
	}

	// If error handler says not to continue, remove the task
	if !shouldContinue {
		s.RemoveTask(task)
	}
}

// GetTask returns a task by ID
func (s *Scheduler) GetTask(id uint32) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id]
}

// TaskCount returns the number of registered tasks
func (s *Scheduler) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// SetUserData sets custom data on a task
func (t *Task) SetUserData(data interface{}) {
	t.userData = data
}

// GetUserData gets custom data from a task
func (t *Task) GetUserData() interface{} {
	return t.userData
}

// ID returns the task's unique ID
func (t *Task) ID() uint32 {
	return t.id
}

// Pending reports whether the task waits for the next frame
func (t *Task) Pending() bool {
	return t.dirty.Load()
}

// SetErrorHandler sets a custom error handler for this task
func (t *Task) SetErrorHandler(handler ErrorHandler) {
	t.onError = handler
}
