// Package pacing provides the fixed-rate throttle used by the notification dispatcher.
// It partitions an audience into fixed-size batches and defines the pause between them.
package pacing

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultBatchSize is the number of recipients delivered concurrently per batch.
	DefaultBatchSize = 50

	// DefaultInterBatchDelay is the pause between two consecutive batches.
	DefaultInterBatchDelay = time.Second
)

// Throttle defines the pacing behavior of a dispatch cycle.
//
// Delivery is a simple fixed-rate schedule: every batch of BatchSize
// recipients is followed by InterBatchDelay, except the last one.
// There is no adaptive backoff and no per-recipient retry.
//
// Example with defaults (50 per batch, 1s pause) and 120 recipients:
//
//	Batch 1: recipients 1-50
//	pause 1s
//	Batch 2: recipients 51-100
//	pause 1s
//	Batch 3: recipients 101-120
type Throttle struct {
	BatchSize       int           // Recipients per batch, also the delivery parallelism
	InterBatchDelay time.Duration // Pause between consecutive batches
}

// DefaultThrottle returns the default pacing: 50 recipients per batch, 1s apart.
func DefaultThrottle() Throttle {
	return Throttle{
		BatchSize:       DefaultBatchSize,
		InterBatchDelay: DefaultInterBatchDelay,
	}
}

// Validate rejects a throttle that cannot make progress.
func (t Throttle) Validate() error {
	if t.BatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0, got %d", t.BatchSize)
	}
	if t.InterBatchDelay < 0 {
		return fmt.Errorf("inter-batch delay must be >= 0, got %v", t.InterBatchDelay)
	}
	return nil
}

// BatchCount returns ceil(recipients / BatchSize).
func (t Throttle) BatchCount(recipients int) int {
	if recipients <= 0 || t.BatchSize <= 0 {
		return 0
	}
	return (recipients + t.BatchSize - 1) / t.BatchSize
}

// PauseCount returns how many inter-batch pauses a cycle of recipients takes.
func (t Throttle) PauseCount(recipients int) int {
	batches := t.BatchCount(recipients)
	if batches == 0 {
		return 0
	}
	return batches - 1
}

// MinDuration returns the lower bound of a cycle's wall time imposed by pacing alone.
func (t Throttle) MinDuration(recipients int) time.Duration {
	return time.Duration(t.PauseCount(recipients)) * t.InterBatchDelay
}

// Describe returns a human-readable description of the schedule for recipients.
// Useful for startup logs.
//
// Example output:
//
//	Dispatch Schedule (120 recipients):
//	  Batch 1: 50 recipients
//	  → pause 1s
//	  Batch 2: 50 recipients
//	  → pause 1s
//	  Batch 3: 20 recipients
func (t Throttle) Describe(recipients int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dispatch Schedule (%d recipients):\n", recipients)
	batches := t.BatchCount(recipients)
	for i := 1; i <= batches; i++ {
		size := t.BatchSize
		if i == batches {
			size = recipients - (batches-1)*t.BatchSize
		}
		fmt.Fprintf(&b, "  Batch %d: %d recipients\n", i, size)
		if i < batches {
			fmt.Fprintf(&b, "  → pause %v\n", t.InterBatchDelay)
		}
	}
	return b.String()
}

// Partition splits items into consecutive batches of at most size elements,
// preserving order. The batches share the backing array of items.
func Partition[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end:end])
	}
	return batches
}
