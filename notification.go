package toolcast

import (
	"context"

	"github.com/coregx/toolcast/model"
)

// NotificationService defines an optional interface for observing dispatch and
// audience events (failed deliveries, finished cycles, subscriber changes).
//
// Implementations might page an operator, update a dashboard or log to a
// monitoring system. Errors returned here are logged and otherwise ignored.
type NotificationService interface {
	// NotifyDeliveryFailure is called once per recipient whose delivery failed.
	NotifyDeliveryFailure(ctx context.Context, jobID, address string, err error) error

	// NotifyCycleCompleted is called when a dispatch cycle ends, including
	// cycles aborted because the audience could not be loaded.
	NotifyCycleCompleted(ctx context.Context, report DispatchReport) error

	// NotifySubscriberCreated is called when a new subscriber record is created.
	NotifySubscriberCreated(ctx context.Context, subscriber model.Subscriber) error

	// NotifySubscriberDeactivated is called when a subscriber unsubscribes.
	NotifySubscriberDeactivated(ctx context.Context, subscriber model.Subscriber) error
}

// NoOpNotificationService is a no-op implementation of NotificationService.
// Use this when notifications are not needed.
type NoOpNotificationService struct{}

// NotifyDeliveryFailure does nothing.
func (n *NoOpNotificationService) NotifyDeliveryFailure(_ context.Context, _, _ string, _ error) error {
	return nil
}

// NotifyCycleCompleted does nothing.
func (n *NoOpNotificationService) NotifyCycleCompleted(_ context.Context, _ DispatchReport) error {
	return nil
}

// NotifySubscriberCreated does nothing.
func (n *NoOpNotificationService) NotifySubscriberCreated(_ context.Context, _ model.Subscriber) error {
	return nil
}

// NotifySubscriberDeactivated does nothing.
func (n *NoOpNotificationService) NotifySubscriberDeactivated(_ context.Context, _ model.Subscriber) error {
	return nil
}

// LoggingNotificationService is a simple implementation that logs notifications.
type LoggingNotificationService struct {
	logger Logger
}

// NewLoggingNotificationService creates a new LoggingNotificationService.
func NewLoggingNotificationService(logger Logger) *LoggingNotificationService {
	return &LoggingNotificationService{logger: logger}
}

// NotifyDeliveryFailure logs a failed delivery.
func (n *LoggingNotificationService) NotifyDeliveryFailure(_ context.Context, jobID, address string, err error) error {
	n.logger.Warnf("⚠️ Delivery failed: job=%s, recipient=%s, error=%v", jobID, address, err)
	return nil
}

// NotifyCycleCompleted logs the cycle summary.
func (n *LoggingNotificationService) NotifyCycleCompleted(_ context.Context, report DispatchReport) error {
	if report.Err != nil {
		n.logger.Errorf("🔴 Dispatch aborted: item_id=%d, error=%v", report.ItemID, report.Err)
		return nil
	}
	n.logger.Infof("✅ Dispatch finished: job=%s, item_id=%d, recipients=%d, batches=%d, delivered=%d, failed=%d, took=%v",
		report.JobID, report.ItemID, report.Recipients, report.Batches, report.Delivered, report.Failed, report.Duration)
	return nil
}

// NotifySubscriberCreated logs subscriber creation.
func (n *LoggingNotificationService) NotifySubscriberCreated(_ context.Context, subscriber model.Subscriber) error {
	n.logger.Infof("✅ Subscriber created: id=%d, email=%s", subscriber.ID, subscriber.Email)
	return nil
}

// NotifySubscriberDeactivated logs subscriber deactivation.
func (n *LoggingNotificationService) NotifySubscriberDeactivated(_ context.Context, subscriber model.Subscriber) error {
	n.logger.Infof("🔴 Subscriber deactivated: id=%d, email=%s", subscriber.ID, subscriber.Email)
	return nil
}
