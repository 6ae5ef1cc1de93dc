// Package monitoring defines error reporting used around CLI operations.
package monitoring

import "time"

// Monitor reports errors and panics to an external service.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// Recover reports a value obtained from recover().
	Recover(v any)
	Flush(timeout time.Duration)
}

// NopMonitor discards everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover(any)                               {}
func (NopMonitor) Flush(time.Duration)                       {}
