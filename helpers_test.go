package toolcast_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/adapters/memory"
	"github.com/coregx/toolcast/model"
)

// recordingTransport records every delivery and fails for configured addresses.
type recordingTransport struct {
	mu        sync.Mutex
	delivered []string
	attempts  map[string]int
	fail      map[string]bool
	failAll   bool
	delay     time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newRecordingTransport(failing ...string) *recordingTransport {
	t := &recordingTransport{
		attempts: make(map[string]int),
		fail:     make(map[string]bool),
	}
	for _, a := range failing {
		t.fail[a] = true
	}
	return t
}

func (t *recordingTransport) Deliver(_ context.Context, address string, _ *model.Message) error {
	n := t.inFlight.Add(1)
	defer t.inFlight.Add(-1)
	for {
		current := t.maxInFlight.Load()
		if n <= current || t.maxInFlight.CompareAndSwap(current, n) {
			break
		}
	}

	if t.delay > 0 {
		time.Sleep(t.delay)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts[address]++
	if t.failAll || t.fail[address] {
		return errors.New("relay unavailable")
	}
	t.delivered = append(t.delivered, address)
	return nil
}

func (t *recordingTransport) deliveredSet() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := make(map[string]bool, len(t.delivered))
	for _, a := range t.delivered {
		set[a] = true
	}
	return set
}

func (t *recordingTransport) attemptCount(address string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts[address]
}

// panicTransport panics for one address and succeeds for the rest.
type panicTransport struct {
	address string
}

func (p panicTransport) Deliver(_ context.Context, address string, _ *model.Message) error {
	if address == p.address {
		panic("boom")
	}
	return nil
}

// countingRenderer renders a fixed message and counts calls.
type countingRenderer struct {
	calls atomic.Int32
	err   error
}

func (r *countingRenderer) Render(snapshot model.ItemSnapshot) (*model.Message, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &model.Message{Subject: "New tool: " + snapshot.Name}, nil
}

// brokenSubscribers fails every audience read.
type brokenSubscribers struct {
	*memory.SubscriberRepository
}

func (brokenSubscribers) FindActive(context.Context) ([]model.Subscriber, error) {
	return nil, errors.New("connection refused")
}

// recordingPublisher captures publish events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []toolcast.ItemPublished
	reject bool
}

func (p *recordingPublisher) Publish(event toolcast.ItemPublished) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject {
		return false
	}
	p.events = append(p.events, event)
	return true
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// recordingNotifications captures dispatcher hook calls.
type recordingNotifications struct {
	toolcast.NoOpNotificationService
	mu       sync.Mutex
	failures []string
	reports  []toolcast.DispatchReport
}

func (n *recordingNotifications) NotifyDeliveryFailure(_ context.Context, _, address string, _ error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, address)
	return nil
}

func (n *recordingNotifications) NotifyCycleCompleted(_ context.Context, report toolcast.DispatchReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, report)
	return nil
}

// seedSubscribers stores n active subscribers r1..rn and returns their addresses.
func seedSubscribers(t *testing.T, repo toolcast.SubscriberRepository, n int) []string {
	t.Helper()
	addrs := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		addr := fmt.Sprintf("r%d@example.com", i)
		_, err := repo.Save(context.Background(), model.NewSubscriber(addr))
		require.NoError(t, err)
		addrs = append(addrs, addr)
	}
	return addrs
}

func newCatalogService(t *testing.T, repo toolcast.CatalogRepository, events toolcast.EventPublisher, opts ...toolcast.CatalogOption) *toolcast.CatalogService {
	t.Helper()
	base := []toolcast.CatalogOption{
		toolcast.WithCatalogRepository(repo),
		toolcast.WithCatalogEvents(events),
		toolcast.WithCatalogLogger(&toolcast.NoopLogger{}),
	}
	svc, err := toolcast.NewCatalogService(append(base, opts...)...)
	require.NoError(t, err)
	return svc
}

func validItem(name string) model.CatalogItem {
	return model.NewCatalogItem(name, "Developer Tools", "Does things.", "https://"+name+".example", model.PricingFree)
}
