package bench

import (
	"syscall"
	"time"
)

// eventTimer measures wall and process CPU time across one pipeline
// step.
type eventTimer struct {
	wallStart time.Time
	cpuStart  time.Duration
}

func startTimer() eventTimer {
	return eventTimer{
		wallStart: time.Now(),
		cpuStart:  cpuNow(),
	}
}

func (t eventTimer) stop() (wall, cpu time.Duration) {
	return time.Since(t.wallStart), cpuNow() - t.cpuStart
}

// cpuNow returns the process's accumulated user plus system CPU time.
func cpuNow() time.Duration {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return 0
	}

	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano())
}
