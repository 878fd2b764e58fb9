package port

import "time"

// TimerPort - отменяемый отложенный вызов
type TimerPort interface {
	// Stop отменяет вызов; false, если он уже состоялся или был отменен
	Stop() bool
}

// ClockPort - источник времени и таймеров. Подменяется в тестах.
type ClockPort interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) TimerPort
	After(d time.Duration) <-chan time.Time
}
