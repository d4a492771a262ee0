package toolcast_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/adapters/memory"
	"github.com/coregx/toolcast/model"
)

type subscriberEvents struct {
	toolcast.NoOpNotificationService
	mu          sync.Mutex
	created     []string
	deactivated []string
}

func (n *subscriberEvents) NotifySubscriberCreated(_ context.Context, s model.Subscriber) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, s.Email)
	return nil
}

func (n *subscriberEvents) NotifySubscriberDeactivated(_ context.Context, s model.Subscriber) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deactivated = append(n.deactivated, s.Email)
	return nil
}

// writeCountingSubscribers counts state writes and can fail reactivation.
type writeCountingSubscribers struct {
	*memory.SubscriberRepository
	mu             sync.Mutex
	setActive      int
	touches        int
	reactivations  int
	failReactivate bool
}

func (r *writeCountingSubscribers) SetActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	r.setActive++
	r.mu.Unlock()
	return r.SubscriberRepository.SetActive(ctx, id, active)
}

func (r *writeCountingSubscribers) TouchSubscribedAt(ctx context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	r.touches++
	r.mu.Unlock()
	return r.SubscriberRepository.TouchSubscribedAt(ctx, id, at)
}

func (r *writeCountingSubscribers) Reactivate(ctx context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	r.reactivations++
	fail := r.failReactivate
	r.mu.Unlock()
	if fail {
		return errors.New("database is locked")
	}
	return r.SubscriberRepository.Reactivate(ctx, id, at)
}

func newSubscriberManager(t *testing.T, repo toolcast.SubscriberRepository, notifications toolcast.NotificationService) *toolcast.SubscriberManager {
	t.Helper()
	opts := []toolcast.SubscriberManagerOption{
		toolcast.WithSubscriberRepository(repo),
		toolcast.WithSubscriberManagerLogger(&toolcast.NoopLogger{}),
	}
	if notifications != nil {
		opts = append(opts, toolcast.WithSubscriberNotifications(notifications))
	}
	sm, err := toolcast.NewSubscriberManager(opts...)
	require.NoError(t, err)
	return sm
}

func TestNewSubscriberManager_RequiredOptions(t *testing.T) {
	_, err := toolcast.NewSubscriberManager(toolcast.WithSubscriberManagerLogger(&toolcast.NoopLogger{}))
	require.Error(t, err)
	assert.True(t, toolcast.HasCode(err, toolcast.ErrCodeConfiguration))

	_, err = toolcast.NewSubscriberManager(toolcast.WithSubscriberRepository(memory.NewSubscriberRepository()))
	require.Error(t, err)

	_, err = toolcast.NewSubscriberManager(toolcast.WithSubscriberRepository(nil))
	require.Error(t, err)
}

func TestSubscriberManager_SubscribeIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubscriberRepository()
	events := &subscriberEvents{}
	sm := newSubscriberManager(t, repo, events)

	first, err := sm.Subscribe(ctx, "Ann@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", first.Email)
	assert.True(t, first.IsActive)

	second, err := sm.Subscribe(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.SubscribedAt, second.SubscribedAt, "an active subscription is left unchanged")

	assert.Equal(t, 1, repo.Len())
	assert.Equal(t, []string{"ann@example.com"}, events.created)
}

func TestSubscriberManager_ResubscribeReusesRecord(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubscriberRepository()
	sm := newSubscriberManager(t, repo, nil)

	first, err := sm.Subscribe(ctx, "ann@example.com")
	require.NoError(t, err)

	_, err = sm.Unsubscribe(ctx, "ann@example.com")
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	again, err := sm.Subscribe(ctx, "ann@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.IsActive)
	assert.True(t, again.SubscribedAt.After(first.SubscribedAt))

	stored, err := sm.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.Equal(t, again.SubscribedAt.Unix(), stored.SubscribedAt.Unix())
	assert.Equal(t, 1, repo.Len())
}

func TestSubscriberManager_ResubscribeIsOneWrite(t *testing.T) {
	ctx := context.Background()
	repo := &writeCountingSubscribers{SubscriberRepository: memory.NewSubscriberRepository()}
	sm := newSubscriberManager(t, repo, nil)

	first, err := sm.Subscribe(ctx, "ann@example.com")
	require.NoError(t, err)
	_, err = sm.Unsubscribe(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, 1, repo.setActive)

	repo.failReactivate = true
	_, err = sm.Subscribe(ctx, "ann@example.com")
	require.Error(t, err)

	stored, err := sm.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.False(t, stored.IsActive, "failed reactivation leaves the record untouched")
	assert.True(t, first.SubscribedAt.Equal(stored.SubscribedAt))

	repo.failReactivate = false
	again, err := sm.Subscribe(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.True(t, again.IsActive)

	assert.Equal(t, 2, repo.reactivations)
	assert.Equal(t, 1, repo.setActive, "reactivation never goes through SetActive")
	assert.Equal(t, 0, repo.touches)
}

func TestSubscriberManager_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	events := &subscriberEvents{}
	sm := newSubscriberManager(t, memory.NewSubscriberRepository(), events)

	_, err := sm.Unsubscribe(ctx, "nobody@example.com")
	require.Error(t, err)
	assert.True(t, toolcast.IsNotFound(err))

	_, err = sm.Subscribe(ctx, "ann@example.com")
	require.NoError(t, err)

	sub, err := sm.Unsubscribe(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.False(t, sub.IsActive)

	sub, err = sm.Unsubscribe(ctx, "ann@example.com")
	require.NoError(t, err, "unsubscribing twice is a no-op")
	assert.False(t, sub.IsActive)

	assert.Equal(t, []string{"ann@example.com"}, events.deactivated)

	_, err = sm.Unsubscribe(ctx, "  ")
	assert.True(t, toolcast.IsValidation(err))
}

func TestSubscriberManager_InvalidEmail(t *testing.T) {
	repo := memory.NewSubscriberRepository()
	sm := newSubscriberManager(t, repo, nil)

	for _, email := range []string{"", "not-an-email", "a@b", "two@@example.com"} {
		_, err := sm.Subscribe(context.Background(), email)
		require.Error(t, err, email)
		assert.True(t, toolcast.IsValidation(err), email)
	}
	assert.Equal(t, 0, repo.Len())
}

func TestSubscriberManager_CountActive(t *testing.T) {
	ctx := context.Background()
	sm := newSubscriberManager(t, memory.NewSubscriberRepository(), nil)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := sm.Subscribe(ctx, email)
		require.NoError(t, err)
	}
	_, err := sm.Unsubscribe(ctx, "b@example.com")
	require.NoError(t, err)

	n, err := sm.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSubscriberManager_ConcurrentSubscribe(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSubscriberRepository()
	sm := newSubscriberManager(t, repo, nil)

	var wg sync.WaitGroup
	ids := make([]int64, 20)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub, err := sm.Subscribe(ctx, "race@example.com")
			if assert.NoError(t, err) {
				ids[i] = sub.ID
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.Len())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}
