package pacing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultThrottle(t *testing.T) {
	throttle := DefaultThrottle()

	assert.Equal(t, 50, throttle.BatchSize)
	assert.Equal(t, time.Second, throttle.InterBatchDelay)
	assert.NoError(t, throttle.Validate())
}

func TestThrottle_Validate(t *testing.T) {
	tests := []struct {
		name     string
		throttle Throttle
		wantErr  bool
	}{
		{"defaults", DefaultThrottle(), false},
		{"no delay", Throttle{BatchSize: 10}, false},
		{"zero batch", Throttle{BatchSize: 0, InterBatchDelay: time.Second}, true},
		{"negative batch", Throttle{BatchSize: -3}, true},
		{"negative delay", Throttle{BatchSize: 5, InterBatchDelay: -time.Millisecond}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.throttle.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestThrottle_BatchCount(t *testing.T) {
	throttle := DefaultThrottle()

	tests := []struct {
		recipients int
		batches    int
		pauses     int
	}{
		{0, 0, 0},
		{1, 1, 0},
		{49, 1, 0},
		{50, 1, 0},
		{51, 2, 1},
		{100, 2, 1},
		{120, 3, 2},
		{1000, 20, 19},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.batches, throttle.BatchCount(tt.recipients), "recipients=%d", tt.recipients)
		assert.Equal(t, tt.pauses, throttle.PauseCount(tt.recipients), "recipients=%d", tt.recipients)
	}
}

func TestThrottle_MinDuration(t *testing.T) {
	throttle := DefaultThrottle()

	assert.Equal(t, time.Duration(0), throttle.MinDuration(0))
	assert.Equal(t, time.Duration(0), throttle.MinDuration(50))
	assert.Equal(t, 2*time.Second, throttle.MinDuration(120))
}

func TestThrottle_Describe(t *testing.T) {
	schedule := DefaultThrottle().Describe(120)

	assert.Contains(t, schedule, "Dispatch Schedule (120 recipients):")
	assert.Contains(t, schedule, "Batch 1: 50 recipients")
	assert.Contains(t, schedule, "Batch 2: 50 recipients")
	assert.Contains(t, schedule, "Batch 3: 20 recipients")
	assert.Equal(t, 2, strings.Count(schedule, "→ pause 1s"))
}

func TestPartition(t *testing.T) {
	items := make([]int, 120)
	for i := range items {
		items[i] = i
	}

	batches := Partition(items, 50)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 50)
	assert.Len(t, batches[1], 50)
	assert.Len(t, batches[2], 20)

	// Order is preserved across batches.
	var flattened []int
	for _, b := range batches {
		flattened = append(flattened, b...)
	}
	assert.Equal(t, items, flattened)
}

func TestPartition_Edges(t *testing.T) {
	assert.Nil(t, Partition([]string{}, 10))
	assert.Nil(t, Partition([]string{"a"}, 0))

	batches := Partition([]string{"a", "b", "c"}, 10)
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"a", "b", "c"}, batches[0])

	// Appending to a batch must not clobber the next one.
	parts := Partition([]int{1, 2, 3, 4}, 2)
	_ = append(parts[0], 99)
	assert.Equal(t, []int{3, 4}, parts[1])
}
