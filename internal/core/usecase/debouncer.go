package usecase

import (
	"property-browser-service/internal/core/port"
	"sync"
	"time"
)

// Debouncer откладывает вызов до паузы длиной delay.
// Каждый Schedule перезапускает ожидание, выполняется только последний fn.
type Debouncer struct {
	mu    sync.Mutex
	clock port.ClockPort
	delay time.Duration
	timer port.TimerPort
	gen   uint64
}

func NewDebouncer(clock port.ClockPort, delay time.Duration) *Debouncer {
	return &Debouncer{clock: clock, delay: delay}
}

// Schedule заменяет ранее запланированный вызов
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// таймер мог сработать уже после Cancel или нового Schedule
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel отменяет ожидающий вызов. false, если отменять нечего.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.gen++
	d.timer.Stop()
	d.timer = nil
	return true
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
