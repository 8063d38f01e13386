package daemon

import "time"

// timerSlot is a single-slot timer: resetting replaces any pending
// expiration, and an inactive slot exposes a nil channel so it never fires
// in a select.
type timerSlot struct {
	timer *time.Timer
	c     <-chan time.Time
}

func (t *timerSlot) Reset(d time.Duration) {
	t.Stop()
	t.timer = time.NewTimer(d)
	t.c = t.timer.C
}

func (t *timerSlot) Stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
		t.c = nil
	}
}

func (t *timerSlot) C() <-chan time.Time {
	return t.c
}
