package clock

import (
	"property-browser-service/internal/core/port"
	"time"
)

// RealClock - часы процесса
type RealClock struct{}

func New() RealClock { return RealClock{} }

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) port.TimerPort {
	return time.AfterFunc(d, f)
}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
