// Package scheduler runs periodic tasks cooperatively on a single goroutine.
package scheduler

import (
	"context"
	"log"
	"runtime/debug"
	"time"

	"github.com/funktionpi/pacs/pkg/timer"
)

// DefaultIdle is the longest sleep between two passes.
const DefaultIdle = time.Millisecond

// Task is one unit of periodic work. Always tasks run on every pass;
// others run when their Timer has elapsed.
type Task struct {
	Name   string
	Timer  timer.Timer
	Always bool
	Run    func(now time.Time)

	runs   uint64
	panics uint64
}

// Runs returns how many times the task has been started.
func (t *Task) Runs() uint64 {
	return t.runs
}

// Panics returns how many runs ended in a recovered panic.
func (t *Task) Panics() uint64 {
	return t.panics
}

// Dispatcher checks its tasks in registration order on every pass.
// It is not safe for concurrent use.
type Dispatcher struct {
	tasks []*Task
	idle  time.Duration
	log   *log.Logger
	now   func() time.Time
}

// New creates a Dispatcher. idle of 0 uses DefaultIdle; a nil logger
// uses the standard logger.
func New(idle time.Duration, logger *log.Logger) *Dispatcher {
	if idle <= 0 {
		idle = DefaultIdle
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		idle: idle,
		log:  logger,
		now:  time.Now,
	}
}

// Add appends a task. Tasks run in the order they were added.
func (d *Dispatcher) Add(t *Task) *Task {
	d.tasks = append(d.tasks, t)
	return t
}

// Every adds a task that runs each time interval has elapsed, first at start+interval.
func (d *Dispatcher) Every(name string, interval time.Duration, start time.Time, run func(now time.Time)) *Task {
	return d.Add(&Task{Name: name, Timer: timer.New(interval, start), Run: run})
}

// Always adds a task that runs on every pass.
func (d *Dispatcher) Always(name string, run func(now time.Time)) *Task {
	return d.Add(&Task{Name: name, Always: true, Run: run})
}

// Tasks returns the task names in execution order.
func (d *Dispatcher) Tasks() []string {
	names := make([]string, 0, len(d.tasks))
	for _, t := range d.tasks {
		names = append(names, t.Name)
	}
	return names
}

// Pass runs every due task once, in order. A due timer is reset to now
// before its task runs. It returns the number of tasks run.
func (d *Dispatcher) Pass(now time.Time) int {
	n := 0
	for _, t := range d.tasks {
		if !t.Always {
			if !t.Timer.Elapsed(now) {
				continue
			}
			t.Timer.Reset(now)
		}
		d.run(t, now)
		n++
	}
	return n
}

// Run loops passes until ctx is cancelled. Cancellation is observed
// between passes, never inside a task.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Printf("Scheduler started: %v", d.Tasks())
	defer d.log.Printf("Scheduler stopped")

	sleep := time.NewTimer(d.idle)
	defer sleep.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		d.Pass(d.now())

		wait := d.next(d.now())
		if wait <= 0 {
			continue
		}
		sleep.Reset(wait)
		select {
		case <-ctx.Done():
			return nil
		case <-sleep.C:
		}
	}
}

// next returns how long to sleep before the next pass: the time until
// the earliest timer is due, capped at idle.
func (d *Dispatcher) next(now time.Time) time.Duration {
	wait := d.idle
	for _, t := range d.tasks {
		if t.Always {
			continue
		}
		wait = min(wait, t.Timer.Remaining(now))
	}
	return wait
}

func (d *Dispatcher) run(t *Task, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			t.panics++
			d.log.Printf("Task %s panicked: %v\n%s", t.Name, r, debug.Stack())
		}
	}()
	t.runs++
	t.Run(now)
}
