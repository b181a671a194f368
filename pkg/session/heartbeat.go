package session

import (
	"sync"
	"time"
)

// heartbeatTimer mirrors a lease timer: it fires a callback after
// Interval elapses without a Reset call. A session uses one to notice
// silence from its counterparty (drives EventTestRequestTimeout) and
// another, independently, to know when it owes the counterparty a
// Heartbeat of its own.
type heartbeatTimer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	stopped  bool
	lastKick time.Time
	onFire   func()
}

// newHeartbeatTimer starts a timer that calls onFire after interval
// unless Reset is called first. The timer re-checks elapsed time under
// its lock before firing, so a Reset racing with an in-flight timer pop
// is resolved in favor of the Reset rather than a spurious callback.
func newHeartbeatTimer(interval time.Duration, onFire func()) *heartbeatTimer {
	ht := &heartbeatTimer{
		interval: interval,
		lastKick: time.Now(),
		onFire:   onFire,
	}
	ht.timer = time.AfterFunc(interval, ht.fire)
	return ht
}

func (ht *heartbeatTimer) fire() {
	ht.mu.Lock()
	if ht.stopped {
		ht.mu.Unlock()
		return
	}
	elapsed := time.Since(ht.lastKick)
	if elapsed < ht.interval {
		// A Reset slipped in while this pop was in flight; re-arm for
		// the remainder instead of firing early.
		ht.timer.Reset(ht.interval - elapsed)
		ht.mu.Unlock()
		return
	}
	// Re-arm before invoking the callback so the timer keeps ticking
	// through a quiet counterparty; lastKick is left alone, so Idle()
	// keeps growing until real activity resets it.
	ht.timer.Reset(ht.interval)
	ht.mu.Unlock()

	if ht.onFire != nil {
		ht.onFire()
	}
}

// Idle reports how long it has been since the last Reset (or since
// construction, if Reset was never called).
func (ht *heartbeatTimer) Idle() time.Duration {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	return time.Since(ht.lastKick)
}

// Reset restarts the countdown, as if the monitored activity just
// happened.
func (ht *heartbeatTimer) Reset() {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	if ht.stopped {
		return
	}
	ht.lastKick = time.Now()
	ht.timer.Reset(ht.interval)
}

// SetInterval changes the period used by future Reset/fire cycles
// (Logon's HeartBtInt negotiation can change it after the timer already
// exists).
func (ht *heartbeatTimer) SetInterval(interval time.Duration) {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	ht.interval = interval
	if !ht.stopped {
		ht.timer.Reset(interval)
	}
}

// Stop halts the timer permanently.
func (ht *heartbeatTimer) Stop() {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	ht.stopped = true
	ht.timer.Stop()
}
