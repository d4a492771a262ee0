package toolcast

import (
	"context"
	"fmt"
	"time"

	"github.com/coregx/toolcast/model"
)

// SubscriberManager handles the newsletter audience lifecycle.
//
// Key operations:
//   - Subscribe: create, reactivate, or leave an active subscriber as is
//   - Unsubscribe: deactivate without deleting the record
//   - GetByEmail / CountActive: queries for the admin console
//
// Thread safety: Safe for concurrent use. Two concurrent first-time
// subscriptions of one address converge on a single record through the
// repository's unique email constraint.
type SubscriberManager struct {
	subscriberRepo      SubscriberRepository
	logger              Logger
	notificationService NotificationService
}

// SubscriberManagerOption is a function that configures a SubscriberManager.
type SubscriberManagerOption func(*SubscriberManager) error

// NewSubscriberManager creates a new SubscriberManager with the provided options.
//
// Required options:
//   - WithSubscriberRepository: subscriber persistence
//   - WithSubscriberManagerLogger: logger instance
//
// Optional options:
//   - WithSubscriberNotifications (default: NoOpNotificationService)
//
// Example:
//
//	manager, err := toolcast.NewSubscriberManager(
//	    toolcast.WithSubscriberRepository(subscriberRepo),
//	    toolcast.WithSubscriberManagerLogger(logger),
//	)
func NewSubscriberManager(opts ...SubscriberManagerOption) (*SubscriberManager, error) {
	sm := &SubscriberManager{
		notificationService: &NoOpNotificationService{},
	}

	for _, opt := range opts {
		if err := opt(sm); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply subscriber manager option", err)
		}
	}

	if sm.subscriberRepo == nil {
		return nil, NewError(ErrCodeConfiguration, "SubscriberRepository is required")
	}
	if sm.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required")
	}

	return sm, nil
}

// WithSubscriberRepository sets the subscriber repository.
//
// This is a required option for NewSubscriberManager.
func WithSubscriberRepository(repo SubscriberRepository) SubscriberManagerOption {
	return func(sm *SubscriberManager) error {
		if repo == nil {
			return fmt.Errorf("subscriberRepo cannot be nil")
		}
		sm.subscriberRepo = repo
		return nil
	}
}

// WithSubscriberManagerLogger sets the logger instance for the subscriber manager.
//
// This is a required option for NewSubscriberManager.
func WithSubscriberManagerLogger(logger Logger) SubscriberManagerOption {
	return func(sm *SubscriberManager) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		sm.logger = logger
		return nil
	}
}

// WithSubscriberNotifications sets the hooks called on subscriber changes.
func WithSubscriberNotifications(service NotificationService) SubscriberManagerOption {
	return func(sm *SubscriberManager) error {
		if service == nil {
			return fmt.Errorf("notification service cannot be nil")
		}
		sm.notificationService = service
		return nil
	}
}

// Subscribe adds email to the audience.
//
// Outcomes:
//   - unknown address: a new active record is created
//   - inactive record: reactivated, SubscribedAt refreshed, same ID kept
//   - active record: returned unchanged, nothing is written
//
// Returns a validation error for a malformed address.
func (sm *SubscriberManager) Subscribe(ctx context.Context, email string) (*model.Subscriber, error) {
	candidate := model.NewSubscriber(email)
	if err := candidate.Validate(); err != nil {
		return nil, NewValidationError("invalid email", err)
	}

	existing, err := sm.subscriberRepo.FindByEmail(ctx, candidate.Email)
	switch {
	case err == nil:
		return sm.resubscribe(ctx, existing)
	case !IsNoData(err):
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to load subscriber", err)
	}

	created, err := sm.subscriberRepo.Save(ctx, candidate)
	if err != nil {
		// Lost a race with a concurrent subscribe of the same address.
		if raced, ferr := sm.subscriberRepo.FindByEmail(ctx, candidate.Email); ferr == nil {
			return sm.resubscribe(ctx, raced)
		}
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to save subscriber", err)
	}

	sm.logger.Infof("Subscriber created: id=%d, email=%s", created.ID, created.Email)
	if nerr := sm.notificationService.NotifySubscriberCreated(ctx, created); nerr != nil {
		sm.logger.Warnf("Subscriber notification failed: %v", nerr)
	}

	return &created, nil
}

func (sm *SubscriberManager) resubscribe(ctx context.Context, subscriber model.Subscriber) (*model.Subscriber, error) {
	if subscriber.IsActive {
		sm.logger.Warnf("Subscriber already active: id=%d, email=%s", subscriber.ID, subscriber.Email)
		return &subscriber, nil
	}

	now := time.Now()
	if err := sm.subscriberRepo.Reactivate(ctx, subscriber.ID, now); err != nil {
		return nil, notFoundOr(err, "subscriber", subscriber.ID, "failed to reactivate subscriber")
	}

	subscriber.IsActive = true
	subscriber.SubscribedAt = now

	sm.logger.Infof("Subscriber reactivated: id=%d, email=%s", subscriber.ID, subscriber.Email)
	return &subscriber, nil
}

// Unsubscribe deactivates email. The record is kept so that a later
// Subscribe reuses it. Unsubscribing an inactive record is a no-op.
//
// Returns a NotFound error if the address never subscribed.
func (sm *SubscriberManager) Unsubscribe(ctx context.Context, email string) (*model.Subscriber, error) {
	normalized := model.NormalizeEmail(email)
	if normalized == "" {
		return nil, NewError(ErrCodeValidation, "email is required")
	}

	subscriber, err := sm.subscriberRepo.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, notFoundOr(err, "subscriber", normalized, "failed to load subscriber")
	}

	if !subscriber.IsActive {
		sm.logger.Warnf("Subscriber already inactive: id=%d", subscriber.ID)
		return &subscriber, nil
	}

	if err := sm.subscriberRepo.SetActive(ctx, subscriber.ID, false); err != nil {
		return nil, notFoundOr(err, "subscriber", subscriber.ID, "failed to deactivate subscriber")
	}
	subscriber.Deactivate()

	sm.logger.Infof("Subscriber deactivated: id=%d", subscriber.ID)
	if nerr := sm.notificationService.NotifySubscriberDeactivated(ctx, subscriber); nerr != nil {
		sm.logger.Warnf("Subscriber notification failed: %v", nerr)
	}

	return &subscriber, nil
}

// GetByEmail retrieves a subscriber by address, active or not.
func (sm *SubscriberManager) GetByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	normalized := model.NormalizeEmail(email)
	subscriber, err := sm.subscriberRepo.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, notFoundOr(err, "subscriber", normalized, "failed to load subscriber")
	}
	return &subscriber, nil
}

// CountActive returns the size of the current audience.
func (sm *SubscriberManager) CountActive(ctx context.Context) (int, error) {
	n, err := sm.subscriberRepo.CountActive(ctx)
	if err != nil {
		return 0, NewErrorWithCause(ErrCodeDatabase, "failed to count subscribers", err)
	}
	return n, nil
}
