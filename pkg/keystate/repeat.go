package keystate

import "time"

// initialRepeat fires once after the initial delay: it re-emits the held key
// and starts the fixed-interval ticker. An emission failure ends the session
// instead of retrying.
func (m *Machine) initialRepeat() {
	m.mu.Lock()
	if m.repeating == "" {
		m.mu.Unlock()
		return
	}

	if !m.emitLocked(m.repeating) {
		m.stopRepeatLocked()
		m.mu.Unlock()
		m.flushAlerts()
		return
	}

	m.ticker = time.NewTicker(m.cfg.RepeatInterval)
	m.tickerDone = make(chan struct{})
	go m.repeatLoop(m.ticker, m.tickerDone)
	m.mu.Unlock()
}

func (m *Machine) repeatLoop(ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.repeatTick()
		}
	}
}

func (m *Machine) repeatTick() {
	m.mu.Lock()
	if m.repeating == "" {
		m.mu.Unlock()
		return
	}
	if !m.emitLocked(m.repeating) {
		m.stopRepeatLocked()
	}
	m.mu.Unlock()
	m.flushAlerts()
}

// stopRepeatLocked cancels the session immediately. Idempotent; callers hold
// the lock.
func (m *Machine) stopRepeatLocked() {
	if m.delayTimer != nil {
		m.delayTimer.Stop()
		m.delayTimer = nil
	}
	if m.ticker != nil {
		m.ticker.Stop()
		close(m.tickerDone)
		m.ticker = nil
		m.tickerDone = nil
	}
	m.repeating = ""
}
