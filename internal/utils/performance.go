// Package utils holds small cross-cutting helpers.
package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// Timer measures the duration of one operation (a sweep run, a field
// recompute) and logs it on Stop.
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
}

// NewTimer starts a timer with the given operation name.
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
		log:   log,
	}
}

// Stop stops the timer, logs the duration and returns it. Runs that exceed
// a minute are surfaced at warn level so slow sweep cells stand out.
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)

	evt := t.log.Debug()
	if duration > time.Minute {
		evt = t.log.Warn()
	}
	evt.
		Str("operation", t.name).
		Dur("duration_ms", duration).
		Float64("duration_seconds", duration.Seconds()).
		Msg("Performance measurement")

	return duration
}
