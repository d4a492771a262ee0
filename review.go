package toolcast

import (
	"context"
	"fmt"

	"github.com/coregx/toolcast/model"
)

// ToolNameResolver looks up the display name of a review's subject.
// *CatalogService implements it.
type ToolNameResolver interface {
	ResolveToolName(ctx context.Context, toolID string) (string, error)
}

// ReviewService attaches visitor reviews to catalog items.
//
// Each review stores a denormalized copy of the item name. When the name
// cannot be resolved at creation time "Unknown Tool" is stored instead.
// Legacy rows with an empty name are backfilled on read, best-effort.
type ReviewService struct {
	repo     ReviewRepository
	resolver ToolNameResolver
	logger   Logger
}

// ReviewOption configures a ReviewService.
type ReviewOption func(*ReviewService) error

// NewReviewService creates a new ReviewService with the provided options.
//
// Required options:
//   - WithReviewRepository: review persistence
//   - WithToolNameResolver: subject name lookup (usually the CatalogService)
//   - WithReviewLogger: logger instance
func NewReviewService(opts ...ReviewOption) (*ReviewService, error) {
	s := &ReviewService{}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply review option", err)
		}
	}

	if s.repo == nil {
		return nil, NewError(ErrCodeConfiguration, "ReviewRepository is required (use WithReviewRepository)")
	}
	if s.resolver == nil {
		return nil, NewError(ErrCodeConfiguration, "ToolNameResolver is required (use WithToolNameResolver)")
	}
	if s.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithReviewLogger)")
	}

	return s, nil
}

// WithReviewRepository sets the review repository.
func WithReviewRepository(repo ReviewRepository) ReviewOption {
	return func(s *ReviewService) error {
		if repo == nil {
			return fmt.Errorf("review repository cannot be nil")
		}
		s.repo = repo
		return nil
	}
}

// WithToolNameResolver sets the subject name lookup.
func WithToolNameResolver(resolver ToolNameResolver) ReviewOption {
	return func(s *ReviewService) error {
		if resolver == nil {
			return fmt.Errorf("tool name resolver cannot be nil")
		}
		s.resolver = resolver
		return nil
	}
}

// WithReviewLogger sets the logger instance.
func WithReviewLogger(logger Logger) ReviewOption {
	return func(s *ReviewService) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// Add validates and stores a review with no helpful votes, visible by default.
//
// A caller-supplied ToolName is kept as is. Otherwise the name is resolved
// from the catalog, and any resolution failure stores UnknownToolName.
func (s *ReviewService) Add(ctx context.Context, review model.Review) (model.Review, error) {
	return s.AddWithToolName(ctx, review, review.ToolName)
}

// AddWithToolName is Add with an explicit subject name. An empty toolName
// falls back to catalog resolution.
func (s *ReviewService) AddWithToolName(ctx context.Context, review model.Review, toolName string) (model.Review, error) {
	r := model.NewReview(review.ToolID, review.Rating, review.AuthorName, review.AuthorEmail, review.Comment)
	model.ReviewUpdate{ToolName: &toolName}.Apply(&r)
	if err := r.Validate(); err != nil {
		return model.Review{}, NewValidationError("invalid review", err)
	}
	return s.add(ctx, r)
}

func (s *ReviewService) add(ctx context.Context, review model.Review) (model.Review, error) {
	if review.NeedsToolName() {
		review.ToolName = s.resolveOrUnknown(ctx, review.ToolID)
	}

	saved, err := s.repo.Save(ctx, review)
	if err != nil {
		return model.Review{}, NewErrorWithCause(ErrCodeDatabase, "failed to save review", err)
	}

	s.logger.Infof("Review added: id=%d, tool_id=%s, rating=%d", saved.ID, saved.ToolID, saved.Rating)
	return saved, nil
}

// Get returns the review with id or a NotFound error.
func (s *ReviewService) Get(ctx context.Context, id int64) (model.Review, error) {
	review, err := s.repo.Load(ctx, id)
	if err != nil {
		return model.Review{}, notFoundOr(err, "review", id, "failed to load review")
	}
	return review, nil
}

// List returns one page of reviews, newest first.
//
// Rows with an empty tool name are resolved and written back. A failed
// lookup or write-back leaves that row as read; List itself never fails
// because of backfill.
func (s *ReviewService) List(ctx context.Context, filter model.ReviewFilter, page model.Page) (model.PageResult[model.Review], error) {
	page = page.Normalize()

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return model.PageResult[model.Review]{}, NewErrorWithCause(ErrCodeDatabase, "failed to count reviews", err)
	}
	items, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return model.PageResult[model.Review]{}, NewErrorWithCause(ErrCodeDatabase, "failed to list reviews", err)
	}

	for i := range items {
		if items[i].NeedsToolName() {
			s.backfill(ctx, &items[i])
		}
	}

	return model.PageResult[model.Review]{
		Items:    items,
		Total:    total,
		Page:     page.Number,
		PageSize: page.Size,
	}, nil
}

// MarkHelpful adds one helpful vote.
func (s *ReviewService) MarkHelpful(ctx context.Context, id int64) error {
	if err := s.repo.IncrementHelpful(ctx, id); err != nil {
		return notFoundOr(err, "review", id, "failed to mark review helpful")
	}
	s.logger.Debugf("Review %d marked helpful", id)
	return nil
}

// SetVisibility shows or hides a review.
func (s *ReviewService) SetVisibility(ctx context.Context, id int64, visible bool) (model.Review, error) {
	return s.Update(ctx, id, model.ReviewUpdate{Visible: &visible})
}

// Report flags a review for moderation.
func (s *ReviewService) Report(ctx context.Context, id int64) (model.Review, error) {
	reported := true
	return s.Update(ctx, id, model.ReviewUpdate{Reported: &reported})
}

// Update applies a partial edit. The helpful counter cannot be edited.
func (s *ReviewService) Update(ctx context.Context, id int64, update model.ReviewUpdate) (model.Review, error) {
	review, err := s.Get(ctx, id)
	if err != nil {
		return model.Review{}, err
	}
	if update.IsEmpty() {
		return review, nil
	}

	update.Apply(&review)
	if err := review.Validate(); err != nil {
		return model.Review{}, NewValidationError("invalid review", err)
	}

	saved, err := s.repo.Save(ctx, review)
	if err != nil {
		return model.Review{}, notFoundOr(err, "review", id, "failed to update review")
	}
	return saved, nil
}

// Delete permanently removes the review.
func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "review", id, "failed to delete review")
	}
	s.logger.Infof("Review deleted: id=%d", id)
	return nil
}

func (s *ReviewService) resolveOrUnknown(ctx context.Context, toolID string) string {
	name, err := s.resolver.ResolveToolName(ctx, toolID)
	if err != nil || name == "" {
		s.logger.Debugf("Tool %q not resolved, storing %q: %v", toolID, model.UnknownToolName, err)
		return model.UnknownToolName
	}
	return name
}

func (s *ReviewService) backfill(ctx context.Context, review *model.Review) {
	name, err := s.resolver.ResolveToolName(ctx, review.ToolID)
	if err != nil || name == "" {
		s.logger.Debugf("Backfill skipped for review %d: %v", review.ID, err)
		return
	}

	review.ToolName = name
	if err := s.repo.SetToolName(ctx, review.ID, name); err != nil {
		s.logger.Warnf("Backfill write-back failed for review %d: %v", review.ID, err)
	}
}
