package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_CreateTask(t *testing.T) {
	sched := NewScheduler()

	runCalled := false
	task := sched.CreateTask(func() { runCalled = true })

	if task == nil {
		t.Fatal("CreateTask returned nil")
	}

	if task.ID() == 0 {
		t.Error("Task ID should not be 0")
	}

	if runCalled {
		t.Error("Run should not be called during creation")
	}

	// Check task is tracked
	if sched.TaskCount() != 1 {
		t.Errorf("Expected 1 task, got %d", sched.TaskCount())
	}
}

func TestScheduler_FlushCoalesces(t *testing.T) {
	sched := NewScheduler()

	runs := 0
	task := sched.CreateTask(func() { runs++ })

	if !sched.MarkDirty(task) {
		t.Error("first MarkDirty should schedule the task")
	}
	if sched.MarkDirty(task) {
		t.Error("second MarkDirty should not schedule again")
	}
	if !task.Pending() || sched.Pending() != 1 {
		t.Errorf("expected one pending task, got %d", sched.Pending())
	}

	if n := sched.Flush(); n != 1 {
		t.Errorf("Flush ran %d tasks, want 1", n)
	}
	if runs != 1 {
		t.Errorf("Expected 1 run, got %d", runs)
	}
	if task.Pending() {
		t.Error("task should not be pending after Flush")
	}

	// Nothing pending: Flush is a no-op
	if n := sched.Flush(); n != 0 {
		t.Errorf("empty Flush ran %d tasks", n)
	}
}

func TestScheduler_MarkDirtyDuringRun(t *testing.T) {
	sched := NewScheduler()

	runs := 0
	var task *Task
	task = sched.CreateTask(func() {
		runs++
		if runs == 1 {
			sched.MarkDirty(task)
		}
	})

	sched.MarkDirty(task)
	sched.Flush()
	if runs != 1 {
		t.Fatalf("re-marking during a run must wait for the next frame, got %d runs", runs)
	}
	sched.Flush()
	if runs != 2 {
		t.Errorf("Expected 2 runs after second frame, got %d", runs)
	}
}

func TestScheduler_StartProcessesTasks(t *testing.T) {
	sched := NewScheduler()
	sched.SetFrameInterval(time.Millisecond)

	var runCount atomic.Int32
	task := sched.CreateTask(func() { runCount.Add(1) })

	sched.Start(context.Background())
	defer sched.Stop()

	sched.MarkDirty(task)
	time.Sleep(50 * time.Millisecond)

	if runCount.Load() != 1 {
		t.Errorf("Expected run to be called once, got %d", runCount.Load())
	}

	// Mark dirty again
	sched.MarkDirty(task)
	time.Sleep(50 * time.Millisecond)

	if runCount.Load() != 2 {
		t.Errorf("Expected run to be called twice, got %d", runCount.Load())
	}
}

func TestScheduler_BatchProcessing(t *testing.T) {
	sched := NewScheduler()
	sched.SetFrameInterval(5 * time.Millisecond)

	var totalRuns atomic.Int32
	tasks := make([]*Task, 10)
	for i := range tasks {
		tasks[i] = sched.CreateTask(func() { totalRuns.Add(1) })
	}

	sched.Start(context.Background())
	defer sched.Stop()

	// Mark all tasks dirty at once
	for _, task := range tasks {
		sched.MarkDirty(task)
	}

	// Wait for batch processing
	time.Sleep(100 * time.Millisecond)

	if totalRuns.Load() != 10 {
		t.Errorf("Expected 10 runs, got %d", totalRuns.Load())
	}
}

func TestScheduler_ErrorHandling(t *testing.T) {
	sched := NewScheduler()

	handled := 0
	shouldContinue := true
	sched.SetDefaultErrorHandler(func(task *Task, err interface{}) bool {
		handled++
		return shouldContinue
	})

	panicRun := func() { panic("test panic") }

	task := sched.CreateTask(panicRun)
	sched.MarkDirty(task)
	sched.Flush()

	if handled != 1 {
		t.Error("Error handler was not called")
	}

	// Task should still exist
	if sched.GetTask(task.ID()) == nil {
		t.Error("Task was removed despite error handler returning true")
	}

	// Test with error handler returning false
	shouldContinue = false

	task2 := sched.CreateTask(panicRun)
	sched.MarkDirty(task2)
	sched.Flush()

	if handled != 2 {
		t.Error("Error handler was not called for second task")
	}

	// Task should be removed
	if sched.GetTask(task2.ID()) != nil {
		t.Error("Task was not removed when error handler returned false")
	}
}

func TestScheduler_ConcurrentMarkDirty(t *testing.T) {
	sched := NewScheduler()

	var runCount atomic.Int32
	task := sched.CreateTask(func() { runCount.Add(1) })

	// Concurrently mark dirty from multiple goroutines
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.MarkDirty(task)
		}()
	}
	wg.Wait()

	sched.Flush()

	if runCount.Load() != 1 {
		t.Errorf("Expected exactly one run for 100 dirty marks, got %d", runCount.Load())
	}
}

func TestScheduler_RemoveTask(t *testing.T) {
	sched := NewScheduler()

	ran := false
	task1 := sched.CreateTask(func() { ran = true })
	task2 := sched.CreateTask(func() {})

	if sched.TaskCount() != 2 {
		t.Errorf("Expected 2 tasks, got %d", sched.TaskCount())
	}

	sched.MarkDirty(task1)
	sched.RemoveTask(task1)

	if sched.TaskCount() != 1 {
		t.Errorf("Expected 1 task after removal, got %d", sched.TaskCount())
	}

	if sched.GetTask(task1.ID()) != nil {
		t.Error("Task1 should not be found after removal")
	}

	if sched.GetTask(task2.ID()) == nil {
		t.Error("Task2 should still exist")
	}

	sched.Flush()
	if ran {
		t.Error("removed task should not run")
	}
}

func TestScheduler_StopStart(t *testing.T) {
	sched := NewScheduler()
	sched.SetFrameInterval(0)

	if sched.IsRunning() {
		t.Error("Scheduler should not be running initially")
	}

	sched.Start(context.Background())
	time.Sleep(10 * time.Millisecond)

	if !sched.IsRunning() {
		t.Error("Scheduler should be running after Start")
	}

	sched.Stop()
	time.Sleep(10 * time.Millisecond)

	if sched.IsRunning() {
		t.Error("Scheduler should not be running after Stop")
	}

	// Verify no processing happens when stopped
	var runCount atomic.Int32
	task := sched.CreateTask(func() { runCount.Add(1) })

	sched.MarkDirty(task)
	time.Sleep(50 * time.Millisecond)

	if runCount.Load() != 0 {
		t.Error("Task should not run when scheduler is stopped")
	}

	// Restarting picks up the queued task
	sched.Start(context.Background())
	defer sched.Stop()
	time.Sleep(50 * time.Millisecond)

	if runCount.Load() != 1 {
		t.Errorf("Expected queued task to run after restart, got %d", runCount.Load())
	}
}

func TestScheduler_ContextCancel(t *testing.T) {
	sched := NewScheduler()
	ctx, cancel := context.WithCancel(context.Background())

	sched.Start(ctx)
	cancel()
	time.Sleep(20 * time.Millisecond)

	if sched.IsRunning() {
		t.Error("Scheduler should stop when its context is cancelled")
	}
}

func TestTask_UserData(t *testing.T) {
	sched := NewScheduler()
	task := sched.CreateTask(func() {})

	type customData struct {
		value string
	}

	task.SetUserData(&customData{value: "test"})

	retrieved, ok := task.GetUserData().(*customData)
	if !ok {
		t.Fatal("User data type assertion failed")
	}

	if retrieved.value != "test" {
		t.Errorf("Expected user data value 'test', got '%s'", retrieved.value)
	}
}

func TestScheduler_NilTask(t *testing.T) {
	sched := NewScheduler()

	// Should not panic
	sched.MarkDirty(nil)
	sched.RemoveTask(nil)
}

func TestDefault_IsShared(t *testing.T) {
	if Default() != Default() {
		t.Error("Default should return the same scheduler")
	}
}

func BenchmarkScheduler_MarkDirty(b *testing.B) {
	sched := NewScheduler()
	task := sched.CreateTask(func() {})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sched.MarkDirty(task)
		sched.Flush()
	}
}
