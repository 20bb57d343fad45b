package htag

import (
	"sync"

	"github.com/recera/htag/pkg/scheduler"
)

// CallbackID identifies a callback inside one CallbackSet
type CallbackID uint64

// thunk is shared between sets when they are merged, so merging the same
// set twice does not duplicate callbacks
type thunk struct {
	fn func() bool
}

type callbackEntry struct {
	id      CallbackID
	thunk   *thunk
	removed bool
}

// CallbackSet is an ordered set of deferred callbacks. A callback returning
// false is removed right after it ran.
type CallbackSet struct {
	mu      sync.Mutex
	entries []*callbackEntry
	byID    map[CallbackID]*callbackEntry
	byThunk map[*thunk]CallbackID
	nextID  CallbackID
	depth   int // nested Run calls

	// async state
	sched *scheduler.Scheduler
	task  *scheduler.Task
}

// NewCallbackSet creates an empty set
func NewCallbackSet() *CallbackSet {
	return &CallbackSet{
		byID:    make(map[CallbackID]*callbackEntry),
		byThunk: make(map[*thunk]CallbackID),
	}
}

// Add appends fn to the set
func (c *CallbackSet) Add(fn func() bool) CallbackID {
	if fn == nil {
		return 0
	}
	return c.addThunk(&thunk{fn: fn})
}

func (c *CallbackSet) addThunk(t *thunk) CallbackID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.byID == nil {
		c.byID = make(map[CallbackID]*callbackEntry)
		c.byThunk = make(map[*thunk]CallbackID)
	}
	if id, ok := c.byThunk[t]; ok {
		return id
	}
	c.nextID++
	e := &callbackEntry{id: c.nextID, thunk: t}
	c.entries = append(c.entries, e)
	c.byID[e.id] = e
	c.byThunk[t] = e.id
	return e.id
}

// Delete removes a callback. A callback deleting itself still completes its
// current invocation.
func (c *CallbackSet) Delete(id CallbackID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteLocked(id)
}

func (c *CallbackSet) deleteLocked(id CallbackID) bool {
	e, ok := c.byID[id]
	if !ok {
		return false
	}
	e.removed = true
	delete(c.byID, id)
	delete(c.byThunk, e.thunk)
	if c.depth == 0 {
		c.compactLocked()
	}
	return true
}

// Has reports whether id is still in the set
func (c *CallbackSet) Has(id CallbackID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.byID[id]
	return ok
}

// Len returns the number of callbacks in the set
func (c *CallbackSet) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byID)
}

// Merge adds every callback of other to c, keeping other's order
func (c *CallbackSet) Merge(other *CallbackSet) {
	if other == nil || other == c {
		return
	}
	other.mu.Lock()
	var thunks []*thunk
	for _, e := range other.entries {
		if !e.removed {
			thunks = append(thunks, e.thunk)
		}
	}
	other.mu.Unlock()

	for _, t := range thunks {
		c.addThunk(t)
	}
}

// Run executes every callback once, in insertion order. Callbacks added
// during the run are executed in the same run.
func (c *CallbackSet) Run() {
	c.mu.Lock()
	c.depth++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.depth--
		if c.depth == 0 {
			c.compactLocked()
		}
		c.mu.Unlock()
	}()

	for i := 0; ; i++ {
		c.mu.Lock()
		if i >= len(c.entries) {
			c.mu.Unlock()
			return
		}
		e := c.entries[i]
		c.mu.Unlock()

		if e.removed {
			continue
		}
		if !e.thunk.fn() {
			c.Delete(e.id)
		}
	}
}

// RunAsync schedules Run on the default scheduler's next frame
func (c *CallbackSet) RunAsync() bool {
	return c.RunAsyncOn(scheduler.Default())
}

// RunAsyncOn schedules Run on the next frame of s. It reports whether this
// call scheduled a run; at most one run is pending at a time.
func (c *CallbackSet) RunAsyncOn(s *scheduler.Scheduler) bool {
	if s == nil {
		return false
	}
	c.mu.Lock()
	if c.sched != s {
		if c.task != nil {
			c.sched.RemoveTask(c.task)
		}
		c.sched = s
		c.task = s.CreateTask(c.Run)
	} else if s.GetTask(c.task.ID()) == nil {
		// A panicking run unregisters the task
		c.task = s.CreateTask(c.Run)
	}
	task := c.task
	c.mu.Unlock()

	scheduled := s.MarkDirty(task)
	if debugLog != nil && !scheduled {
		debugLog("[htag] Callback run already pending")
	}
	return scheduled
}

// Pending reports whether an asynchronous run is scheduled
func (c *CallbackSet) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.task != nil && c.task.Pending()
}

func (c *CallbackSet) compactLocked() {
	kept := c.entries[:0]
	for _, e := range c.entries {
		if !e.removed {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(c.entries); i++ {
		c.entries[i] = nil
	}
	c.entries = kept
}
