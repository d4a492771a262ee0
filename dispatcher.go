package toolcast

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coregx/toolcast/model"
	"github.com/coregx/toolcast/pacing"
)

// Transport delivers a rendered message to a single address.
// This interface keeps the dispatcher independent of the relay in use
// (HTTP mail relay, SMTP bridge, log sink, test recorder).
//
// Implementations must be safe for concurrent use: up to BatchSize
// deliveries run at the same time.
type Transport interface {
	// Deliver sends message to address. Returns error if the relay rejected it.
	Deliver(ctx context.Context, address string, message *model.Message) error
}

// MessageRenderer turns an item snapshot into the message sent to every recipient.
type MessageRenderer interface {
	Render(snapshot model.ItemSnapshot) (*model.Message, error)
}

// DispatchReport summarizes one dispatch cycle.
type DispatchReport struct {
	JobID            string        `json:"jobID"`
	ItemID           int64         `json:"itemID"`
	Recipients       int           `json:"recipients"`
	Batches          int           `json:"batches"`
	Delivered        int           `json:"delivered"`
	Failed           int           `json:"failed"`
	FailedRecipients []string      `json:"failedRecipients,omitempty"`
	Duration         time.Duration `json:"duration"`
	Err              error         `json:"-"` // Set when the cycle was aborted before delivery
}

// Dispatcher fans a publish event out to every active subscriber.
//
// A cycle loads the audience once, renders one message, and delivers it in
// fixed-size batches. Deliveries within a batch run concurrently; batches run
// strictly one after another with a pause in between. A failed delivery is
// logged and counted, never retried, and never affects other recipients.
//
// Thread safety: OnItemPublished may be called concurrently, but Run
// processes events one cycle at a time.
type Dispatcher struct {
	recipients          SubscriberRepository
	transport           Transport
	renderer            MessageRenderer
	logger              Logger
	notificationService NotificationService
	throttle            pacing.Throttle
	sleep               func(time.Duration)
}

// NewDispatcher creates a new dispatcher with the provided options.
//
// Required options:
//   - WithRecipients: subscriber repository
//   - WithTransport: delivery relay
//   - WithRenderer: message renderer
//   - WithLogger: logger instance
//
// Optional options:
//   - WithBatchSize / WithInterBatchDelay / WithThrottle (default: 50 per batch, 1s apart)
//   - WithNotifications (default: NoOpNotificationService)
func NewDispatcher(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		throttle:            pacing.DefaultThrottle(),
		notificationService: &NoOpNotificationService{},
		sleep:               time.Sleep,
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply option", err)
		}
	}

	if d.recipients == nil {
		return nil, NewError(ErrCodeConfiguration, "SubscriberRepository is required (use WithRecipients)")
	}
	if d.transport == nil {
		return nil, NewError(ErrCodeConfiguration, "Transport is required (use WithTransport)")
	}
	if d.renderer == nil {
		return nil, NewError(ErrCodeConfiguration, "MessageRenderer is required (use WithRenderer)")
	}
	if d.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithLogger)")
	}

	return d, nil
}

// Throttle returns the pacing in effect.
func (d *Dispatcher) Throttle() pacing.Throttle {
	return d.throttle
}

// OnItemPublished runs one dispatch cycle for snapshot.
//
// It never returns an error: a recipient load or render failure aborts the
// cycle and is recorded in the report, delivery failures are recorded per
// recipient. The cycle ignores cancellation of ctx once started.
func (d *Dispatcher) OnItemPublished(ctx context.Context, snapshot model.ItemSnapshot) (report DispatchReport) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	report.ItemID = snapshot.ItemID
	defer func() {
		report.Duration = time.Since(start)
		if err := d.notificationService.NotifyCycleCompleted(ctx, report); err != nil {
			d.logger.Warnf("Cycle notification failed for item %d: %v", snapshot.ItemID, err)
		}
	}()

	recipients, err := d.recipients.FindActive(ctx)
	if err != nil {
		if IsNoData(err) {
			d.logger.Debugf("No active subscribers, skipping dispatch for item %d", snapshot.ItemID)
			return report
		}
		report.Err = NewErrorWithCause(ErrCodeRecipientLoad, "failed to load active subscribers", err)
		d.logger.Errorf("Dispatch aborted for item %d: %v", snapshot.ItemID, report.Err)
		return report
	}
	if len(recipients) == 0 {
		d.logger.Debugf("No active subscribers, skipping dispatch for item %d", snapshot.ItemID)
		return report
	}

	job := model.NewNotificationJob(snapshot, recipients)
	report.JobID = job.ID
	report.Recipients = len(recipients)

	message, err := d.renderer.Render(snapshot)
	if err != nil {
		report.Err = NewErrorWithCause(ErrCodeRender, "failed to render notification", err)
		d.logger.Errorf("Dispatch aborted for item %d: %v", snapshot.ItemID, report.Err)
		return report
	}

	d.logger.Infof("Dispatching item %d to %d subscribers (job=%s, batches=%d, at least %v)",
		snapshot.ItemID, len(recipients), job.ID, d.throttle.BatchCount(len(recipients)), d.throttle.MinDuration(len(recipients)))
	d.logger.Debugf("Schedule for job %s:\n%s", job.ID, d.throttle.Describe(len(recipients)))

	batches := pacing.Partition(job.Addresses(), d.throttle.BatchSize)
	report.Batches = len(batches)

	for i, batch := range batches {
		failed := d.deliverBatch(ctx, job.ID, message, batch)
		report.Delivered += len(batch) - len(failed)
		report.Failed += len(failed)
		report.FailedRecipients = append(report.FailedRecipients, failed...)

		d.logger.Debugf("Batch %d/%d done: job=%s, size=%d, failed=%d", i+1, len(batches), job.ID, len(batch), len(failed))

		if i < len(batches)-1 && d.throttle.InterBatchDelay > 0 {
			d.sleep(d.throttle.InterBatchDelay)
		}
	}

	return report
}

// deliverBatch sends message to every address concurrently and waits for all
// of them. It returns the addresses whose delivery failed, in batch order.
func (d *Dispatcher) deliverBatch(ctx context.Context, jobID string, message *model.Message, batch []string) []string {
	errs := make([]error, len(batch))

	var g errgroup.Group
	g.SetLimit(len(batch))

	for i, address := range batch {
		g.Go(func() error {
			errs[i] = d.deliverOne(ctx, address, message)
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed = append(failed, batch[i])
		d.logger.Warnf("Delivery failed: job=%s, recipient=%s, error=%v", jobID, batch[i], err)
		if nerr := d.notificationService.NotifyDeliveryFailure(ctx, jobID, batch[i], err); nerr != nil {
			d.logger.Warnf("Failure notification failed for %s: %v", batch[i], nerr)
		}
	}
	return failed
}

// deliverOne calls the transport and converts a panic into a delivery error.
func (d *Dispatcher) deliverOne(ctx context.Context, address string, message *model.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewError(ErrCodeDelivery, fmt.Sprintf("transport panic: %v", r))
		}
	}()

	if err := d.transport.Deliver(ctx, address, message); err != nil {
		return NewErrorWithCause(ErrCodeDelivery, "delivery failed", err)
	}
	return nil
}

// Run consumes publish events until the channel is closed or ctx is done,
// running one cycle per event. A cycle already started is finished before
// Run observes cancellation.
func (d *Dispatcher) Run(ctx context.Context, events <-chan ItemPublished) {
	d.logger.Info("Dispatcher started")
	defer d.logger.Info("Dispatcher stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			d.OnItemPublished(ctx, event.Snapshot)
		}
	}
}
