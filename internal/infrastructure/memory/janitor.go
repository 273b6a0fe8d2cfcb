package memory

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Sweeper is an in-process store that can drop its expired entries.
type Sweeper interface {
	Sweep() int
}

// Janitor sweeps its sweepers on a fixed interval until stopped.
type Janitor struct {
	interval time.Duration
	sweepers []Sweeper
	logger   *slog.Logger

	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	started atomic.Bool
}

func NewJanitor(interval time.Duration, logger *slog.Logger, sweepers ...Sweeper) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{
		interval: interval,
		sweepers: sweepers,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in the background.
func (j *Janitor) Start() {
	if j.started.CompareAndSwap(false, true) {
		go j.run()
	}
}

// Stop ends the sweep loop and waits for it to exit. Stop on a janitor that
// was never started returns immediately.
func (j *Janitor) Stop() {
	j.once.Do(func() { close(j.stop) })
	if j.started.Load() {
		<-j.done
	}
}

// SweepOnce runs every sweeper and returns the total number of entries removed.
func (j *Janitor) SweepOnce() int {
	removed := 0
	for _, s := range j.sweepers {
		removed += s.Sweep()
	}
	if removed > 0 {
		j.logger.Debug("Swept expired cache entries", "removed", removed)
	}
	return removed
}

func (j *Janitor) run() {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.SweepOnce()
		case <-j.stop:
			return
		}
	}
}
