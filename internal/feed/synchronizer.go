package feed

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Liveness is the observable freshness state of the dashboard feed.
type Liveness string

const (
	// LivenessIdle means no refresh happened within the display window.
	LivenessIdle Liveness = "idle"
	// LivenessLive means a refresh just occurred; shown for a fixed window
	// shorter than the poll interval.
	LivenessLive Liveness = "live"
)

// RefreshFunc re-fetches the data the feed serves. Its failures are the
// data owner's concern; the synchronizer only keeps cadence and liveness
// bookkeeping.
type RefreshFunc func(ctx context.Context)

// tickerFactory lets tests drive ticks with a manual channel instead of
// wall-clock waits.
type tickerFactory func(d time.Duration) (<-chan time.Time, func())

func defaultTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Synchronizer owns the polling loop behind the map and alert views. It
// invokes the refresh callback on a fixed interval, flips the liveness
// indicator to live on every tick and back to idle after the display
// window. The two timers are independent: the live window is not coupled
// to refresh latency or to the next tick.
type Synchronizer struct {
	interval   time.Duration
	liveWindow time.Duration
	refresh    RefreshFunc
	logger     *logrus.Logger
	newTicker  tickerFactory

	mu          sync.Mutex
	live        bool
	liveGen     uint64
	lastRefresh time.Time
	liveTimer   *time.Timer
	running     bool
	cancel      context.CancelFunc
	done        chan struct{}
	wg          sync.WaitGroup
}

// NewSynchronizer creates a stopped synchronizer.
func NewSynchronizer(interval, liveWindow time.Duration, refresh RefreshFunc, logger *logrus.Logger) *Synchronizer {
	return &Synchronizer{
		interval:   interval,
		liveWindow: liveWindow,
		refresh:    refresh,
		logger:     logger,
		newTicker:  defaultTicker,
	}
}

// Start launches the polling loop. Starting an already running
// synchronizer is a no-op.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"component":     "feed_synchronizer",
		"poll_interval": s.interval.String(),
		"live_window":   s.liveWindow.String(),
	}).Info("Feed synchronizer started")

	go s.loop(ctx)
}

func (s *Synchronizer) loop(ctx context.Context) {
	defer close(s.done)

	tick, stop := s.newTicker(s.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			// Liveness is anchored to the tick, not to refresh completion,
			// and the callback gets its own goroutine. A slow refresh can
			// neither stretch the display window nor starve later ticks.
			s.markLive()
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.refresh(ctx)
			}()
		}
	}
}

// markLive flips the liveness flag and arms the display-window timer. A
// new tick inside the window rearms it.
func (s *Synchronizer) markLive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markLiveLocked()
}

// markLiveLocked requires s.mu held. The generation counter invalidates a
// window expiry that already fired but is still waiting on the mutex, so
// a rearm racing the expiry keeps the full new window.
func (s *Synchronizer) markLiveLocked() {
	s.live = true
	s.lastRefresh = time.Now().UTC()
	if s.liveTimer != nil {
		s.liveTimer.Stop()
	}
	s.liveGen++
	gen := s.liveGen
	s.liveTimer = time.AfterFunc(s.liveWindow, func() {
		s.mu.Lock()
		if s.liveGen == gen {
			s.live = false
		}
		s.mu.Unlock()
	})
}

// ForceRefresh runs one refresh outside the poll cadence, through the same
// liveness path a tick takes.
func (s *Synchronizer) ForceRefresh(ctx context.Context) {
	s.markLive()
	s.refresh(ctx)
}

// State returns the current liveness and the timestamp of the last
// refresh (zero if none happened yet).
func (s *Synchronizer) State() (Liveness, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live {
		return LivenessLive, s.lastRefresh
	}
	return LivenessIdle, s.lastRefresh
}

// Stop tears the loop down, waits out in-flight refreshes and releases
// both timers. The liveness flag is cleared so a window open at teardown
// does not report live forever.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	done := s.done
	if s.liveTimer != nil {
		s.liveTimer.Stop()
	}
	s.live = false
	s.mu.Unlock()

	cancel()
	<-done
	s.wg.Wait()
	s.logger.WithField("component", "feed_synchronizer").Info("Feed synchronizer stopped")
}
