package toolcast

import "time"

// SetSleep replaces the inter-batch sleep so tests can observe pauses.
func (d *Dispatcher) SetSleep(sleep func(time.Duration)) {
	d.sleep = sleep
}
