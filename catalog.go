package toolcast

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coregx/toolcast/model"
)

// TransitionPolicy decides whether a catalog item may move from one status to another.
// Returning an error rejects the write.
type TransitionPolicy func(from, to model.ItemStatus) error

// AllowAnyTransition permits every status change, including moving backwards.
func AllowAnyTransition(_, _ model.ItemStatus) error {
	return nil
}

// ForwardOnlyTransitions permits Pending → Approved → Featured and rejects demotions.
// Writing the current status again is allowed.
func ForwardOnlyTransitions(from, to model.ItemStatus) error {
	rank := map[model.ItemStatus]int{
		model.ItemStatusPending:  0,
		model.ItemStatusApproved: 1,
		model.ItemStatusFeatured: 2,
	}
	if rank[to] < rank[from] {
		return NewError(ErrCodeValidation, fmt.Sprintf("status transition %s -> %s is not allowed", from, to))
	}
	return nil
}

// CatalogService owns the catalog item state machine.
//
// Creating an item publishes exactly one ItemPublished event, whatever the
// initial status. Later edits, status changes and featured toggles never
// publish. Every mutation refreshes UpdatedAt.
//
// Thread safety: Safe for concurrent use.
type CatalogService struct {
	repo          CatalogRepository
	events        EventPublisher
	logger        Logger
	policy        TransitionPolicy
	publicURLBase string
}

// CatalogOption configures a CatalogService.
type CatalogOption func(*CatalogService) error

// NewCatalogService creates a new CatalogService with the provided options.
//
// Required options:
//   - WithCatalogRepository: catalog item persistence
//   - WithCatalogEvents: publish event sink (usually an *EventBus)
//   - WithCatalogLogger: logger instance
//
// Optional options:
//   - WithTransitionPolicy (default: AllowAnyTransition)
//   - WithPublicURLBase (default: notifications link to the tool itself)
func NewCatalogService(opts ...CatalogOption) (*CatalogService, error) {
	s := &CatalogService{
		policy: AllowAnyTransition,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply catalog option", err)
		}
	}

	if s.repo == nil {
		return nil, NewError(ErrCodeConfiguration, "CatalogRepository is required (use WithCatalogRepository)")
	}
	if s.events == nil {
		return nil, NewError(ErrCodeConfiguration, "EventPublisher is required (use WithCatalogEvents)")
	}
	if s.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithCatalogLogger)")
	}

	return s, nil
}

// WithCatalogRepository sets the catalog item repository.
func WithCatalogRepository(repo CatalogRepository) CatalogOption {
	return func(s *CatalogService) error {
		if repo == nil {
			return fmt.Errorf("catalog repository cannot be nil")
		}
		s.repo = repo
		return nil
	}
}

// WithCatalogEvents sets the sink receiving publish events.
func WithCatalogEvents(events EventPublisher) CatalogOption {
	return func(s *CatalogService) error {
		if events == nil {
			return fmt.Errorf("event publisher cannot be nil")
		}
		s.events = events
		return nil
	}
}

// WithCatalogLogger sets the logger instance.
func WithCatalogLogger(logger Logger) CatalogOption {
	return func(s *CatalogService) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithTransitionPolicy restricts which status changes SetStatus accepts.
func WithTransitionPolicy(policy TransitionPolicy) CatalogOption {
	return func(s *CatalogService) error {
		if policy == nil {
			return fmt.Errorf("transition policy cannot be nil")
		}
		s.policy = policy
		return nil
	}
}

// WithPublicURLBase sets the directory's public base URL. Notifications then
// link to <base>/tools/<id> instead of the tool's own link.
func WithPublicURLBase(base string) CatalogOption {
	return func(s *CatalogService) error {
		if base == "" {
			return nil
		}
		u, err := url.Parse(base)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid public URL base %q", base)
		}
		s.publicURLBase = strings.TrimRight(base, "/")
		return nil
	}
}

// Create validates and stores a new item, then publishes it.
//
// An empty status defaults to Pending. The publish event is raised after the
// item is committed; a full event buffer is logged but does not fail Create.
func (s *CatalogService) Create(ctx context.Context, item model.CatalogItem) (model.CatalogItem, error) {
	now := time.Now()
	item.ID = 0
	if item.Status == "" {
		item.Status = model.ItemStatusPending
	}
	if item.Pricing == "" {
		item.Pricing = model.PricingFree
	}
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := item.Validate(); err != nil {
		return model.CatalogItem{}, NewValidationError("invalid catalog item", err)
	}

	saved, err := s.repo.Save(ctx, item)
	if err != nil {
		return model.CatalogItem{}, NewErrorWithCause(ErrCodeDatabase, "failed to save catalog item", err)
	}

	s.logger.Infof("Catalog item created: id=%d, name=%s, status=%s", saved.ID, saved.Name, saved.Status)

	event := ItemPublished{
		Snapshot:    saved.Snapshot(s.publicURL(saved.ID)),
		PublishedAt: now,
	}
	if !s.events.Publish(event) {
		s.logger.Errorf("Publish event for item %d was not accepted; subscribers will not be notified", saved.ID)
	}

	return saved, nil
}

// Get returns the item with id or a NotFound error.
func (s *CatalogService) Get(ctx context.Context, id int64) (model.CatalogItem, error) {
	item, err := s.repo.Load(ctx, id)
	if err != nil {
		return model.CatalogItem{}, notFoundOr(err, "catalog item", id, "failed to load catalog item")
	}
	return item, nil
}

// Update applies a partial edit of the descriptive fields.
func (s *CatalogService) Update(ctx context.Context, id int64, update model.ItemUpdate) (model.CatalogItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return model.CatalogItem{}, err
	}
	if update.IsEmpty() {
		return item, nil
	}

	update.Apply(&item)
	if err := item.Validate(); err != nil {
		return model.CatalogItem{}, NewValidationError("invalid catalog item", err)
	}

	return s.save(ctx, item)
}

// SetStatus moves the item to status, subject to the transition policy.
func (s *CatalogService) SetStatus(ctx context.Context, id int64, status model.ItemStatus) (model.CatalogItem, error) {
	if !status.Valid() {
		return model.CatalogItem{}, NewValidationError("invalid status", model.ErrInvalidItemStatus)
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return model.CatalogItem{}, err
	}
	if err := s.policy(item.Status, status); err != nil {
		return model.CatalogItem{}, err
	}

	from := item.Status
	if err := item.SetStatus(status); err != nil {
		return model.CatalogItem{}, NewValidationError("invalid status", err)
	}

	saved, err := s.save(ctx, item)
	if err != nil {
		return model.CatalogItem{}, err
	}
	s.logger.Infof("Catalog item %d status: %s -> %s", id, from, status)
	return saved, nil
}

// SetFeatured toggles the featured flag. The status is left as is.
func (s *CatalogService) SetFeatured(ctx context.Context, id int64, featured bool) (model.CatalogItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return model.CatalogItem{}, err
	}
	item.SetFeatured(featured)
	return s.save(ctx, item)
}

// Delete permanently removes the item. Existing reviews keep their
// denormalized tool name.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "catalog item", id, "failed to delete catalog item")
	}
	s.logger.Infof("Catalog item deleted: id=%d", id)
	return nil
}

// List returns one page of items matching filter, newest first.
func (s *CatalogService) List(ctx context.Context, filter model.CatalogFilter, page model.Page) (model.PageResult[model.CatalogItem], error) {
	page = page.Normalize()

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return model.PageResult[model.CatalogItem]{}, NewErrorWithCause(ErrCodeDatabase, "failed to count catalog items", err)
	}
	items, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return model.PageResult[model.CatalogItem]{}, NewErrorWithCause(ErrCodeDatabase, "failed to list catalog items", err)
	}

	return model.PageResult[model.CatalogItem]{
		Items:    items,
		Total:    total,
		Page:     page.Number,
		PageSize: page.Size,
	}, nil
}

// ResolveToolName returns the name of the item referenced by toolID.
// toolID is the decimal item ID; anything else is NotFound.
func (s *CatalogService) ResolveToolName(ctx context.Context, toolID string) (string, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(toolID), 10, 64)
	if err != nil || id <= 0 {
		return "", NewNotFoundError("catalog item", toolID)
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return item.Name, nil
}

func (s *CatalogService) save(ctx context.Context, item model.CatalogItem) (model.CatalogItem, error) {
	saved, err := s.repo.Save(ctx, item)
	if err != nil {
		return model.CatalogItem{}, notFoundOr(err, "catalog item", item.ID, "failed to save catalog item")
	}
	return saved, nil
}

func (s *CatalogService) publicURL(id int64) string {
	if s.publicURLBase == "" {
		return ""
	}
	return fmt.Sprintf("%s/tools/%d", s.publicURLBase, id)
}
