package engine

import (
	log "github.com/sirupsen/logrus"
)

// Barrier is a completion counter. It is armed with the number of jobs about to
// be dispatched and calls onZero once, after the last job signalled.
type Barrier struct {
	name      string
	armed     int
	issued    int
	remaining int
	fired     bool
	onZero    func()
}

// NewBarrier arms a barrier for n jobs. With n == 0 onZero runs before NewBarrier returns.
func NewBarrier(name string, n int, onZero func()) *Barrier {
	b := &Barrier{name: name, armed: n, remaining: n, onZero: onZero}
	if n <= 0 {
		b.fire()
	}
	return b
}

// Job hands out the completion callback of one dispatched job. Calling it more
// than once counts once.
func (b *Barrier) Job() func() {
	b.issued++
	if b.issued > b.armed {
		log.WithFields(log.Fields{"barrier": b.name, "armed": b.armed}).Error("more jobs than the barrier was armed for")
		return func() {}
	}
	done := false
	return func() {
		if done {
			log.WithField("barrier", b.name).Warn("job completion signalled twice")
			return
		}
		done = true
		b.done()
	}
}

func (b *Barrier) Remaining() int {
	return b.remaining
}

func (b *Barrier) Fired() bool {
	return b.fired
}

func (b *Barrier) done() {
	b.remaining--
	if b.remaining == 0 {
		b.fire()
	}
}

func (b *Barrier) fire() {
	b.fired = true
	if b.onZero != nil {
		b.onZero()
	}
}
