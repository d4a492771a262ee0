package transport

import (
	"context"
	"sync/atomic"

	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/model"
)

// LogTransport "delivers" by writing one log line per recipient.
// Used by the server when no relay endpoint is configured.
type LogTransport struct {
	logger    toolcast.Logger
	delivered atomic.Int64
}

// NewLogTransport creates a LogTransport writing to logger.
func NewLogTransport(logger toolcast.Logger) *LogTransport {
	if logger == nil {
		logger = &toolcast.NoopLogger{}
	}
	return &LogTransport{logger: logger}
}

// Deliver logs the subject and address.
func (t *LogTransport) Deliver(_ context.Context, address string, message *model.Message) error {
	t.delivered.Add(1)
	t.logger.Infof("📧 %s -> %s", message.Subject, address)
	return nil
}

// Delivered returns the number of messages logged so far.
func (t *LogTransport) Delivered() int64 {
	return t.delivered.Load()
}
