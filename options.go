package toolcast

import (
	"fmt"
	"time"

	"github.com/coregx/toolcast/pacing"
)

// Option is a function that configures a Dispatcher.
//
// Example:
//
//	dispatcher, err := toolcast.NewDispatcher(
//	    toolcast.WithRecipients(subscriberRepo),
//	    toolcast.WithTransport(relay),
//	    toolcast.WithRenderer(renderer),
//	    toolcast.WithLogger(logger),
//	    toolcast.WithBatchSize(100), // optional
//	)
type Option func(*Dispatcher) error

// WithRecipients sets the recipient store read at the start of every cycle.
//
// This is a required option for NewDispatcher.
func WithRecipients(repo SubscriberRepository) Option {
	return func(d *Dispatcher) error {
		if repo == nil {
			return fmt.Errorf("subscriber repository cannot be nil")
		}
		d.recipients = repo
		return nil
	}
}

// WithTransport sets the relay that delivers one message to one address.
//
// This is a required option for NewDispatcher.
func WithTransport(transport Transport) Option {
	return func(d *Dispatcher) error {
		if transport == nil {
			return fmt.Errorf("transport cannot be nil")
		}
		d.transport = transport
		return nil
	}
}

// WithRenderer sets the message renderer.
//
// This is a required option for NewDispatcher.
func WithRenderer(renderer MessageRenderer) Option {
	return func(d *Dispatcher) error {
		if renderer == nil {
			return fmt.Errorf("renderer cannot be nil")
		}
		d.renderer = renderer
		return nil
	}
}

// WithLogger sets the logger instance for the dispatcher.
// Logger is required and must not be nil.
//
// Use NoopLogger for silent operation or implement Logger interface
// to integrate with your logging system (slog, zap, logrus, etc.).
func WithLogger(logger Logger) Option {
	return func(d *Dispatcher) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		d.logger = logger
		return nil
	}
}

// WithThrottle replaces both pacing parameters at once.
func WithThrottle(t pacing.Throttle) Option {
	return func(d *Dispatcher) error {
		if err := t.Validate(); err != nil {
			return err
		}
		d.throttle = t
		return nil
	}
}

// WithBatchSize sets the number of recipients delivered concurrently.
// This is an optional configuration - default is 50 recipients per batch.
//
// Must be > 0. Larger batches finish sooner but put more load on the relay.
func WithBatchSize(size int) Option {
	return func(d *Dispatcher) error {
		if size <= 0 {
			return fmt.Errorf("batch size must be > 0, got %d", size)
		}
		d.throttle.BatchSize = size
		return nil
	}
}

// WithInterBatchDelay sets the pause between consecutive batches.
// This is an optional configuration - default is one second. Zero disables pacing.
func WithInterBatchDelay(delay time.Duration) Option {
	return func(d *Dispatcher) error {
		if delay < 0 {
			return fmt.Errorf("inter-batch delay must be >= 0, got %v", delay)
		}
		d.throttle.InterBatchDelay = delay
		return nil
	}
}

// WithNotifications sets an optional notification service for the dispatcher.
// If not provided, NoOpNotificationService is used.
//
// The notification service receives callbacks for:
//   - Delivery failures (one per failed recipient)
//   - Cycle completion (including aborted cycles)
func WithNotifications(service NotificationService) Option {
	return func(d *Dispatcher) error {
		if service == nil {
			return fmt.Errorf("notification service cannot be nil")
		}
		d.notificationService = service
		return nil
	}
}
