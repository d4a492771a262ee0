package toolcast

import (
	"context"
	"fmt"
	"time"

	"github.com/coregx/toolcast/model"
)

// SubmissionService owns the visitor submission state machine.
//
// The reviewed flag is derived from the status and is always written in
// the same repository statement, so no reader sees one without the other.
type SubmissionService struct {
	repo   SubmissionRepository
	logger Logger
}

// SubmissionOption configures a SubmissionService.
type SubmissionOption func(*SubmissionService) error

// NewSubmissionService creates a new SubmissionService with the provided options.
//
// Required options:
//   - WithSubmissionRepository: submission persistence
//   - WithSubmissionLogger: logger instance
func NewSubmissionService(opts ...SubmissionOption) (*SubmissionService, error) {
	s := &SubmissionService{}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply submission option", err)
		}
	}

	if s.repo == nil {
		return nil, NewError(ErrCodeConfiguration, "SubmissionRepository is required (use WithSubmissionRepository)")
	}
	if s.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithSubmissionLogger)")
	}

	return s, nil
}

// WithSubmissionRepository sets the submission repository.
func WithSubmissionRepository(repo SubmissionRepository) SubmissionOption {
	return func(s *SubmissionService) error {
		if repo == nil {
			return fmt.Errorf("submission repository cannot be nil")
		}
		s.repo = repo
		return nil
	}
}

// WithSubmissionLogger sets the logger instance.
func WithSubmissionLogger(logger Logger) SubmissionOption {
	return func(s *SubmissionService) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// Submit stores a new pending, unreviewed submission.
func (s *SubmissionService) Submit(ctx context.Context, sub model.Submission) (model.Submission, error) {
	now := time.Now()
	sub.ID = 0
	sub.Status = model.SubmissionStatusPending
	sub.Reviewed = false
	sub.CreatedAt = now
	sub.UpdatedAt = now

	if err := sub.Validate(); err != nil {
		return model.Submission{}, NewValidationError("invalid submission", err)
	}

	saved, err := s.repo.Save(ctx, sub)
	if err != nil {
		return model.Submission{}, NewErrorWithCause(ErrCodeDatabase, "failed to save submission", err)
	}

	s.logger.Infof("Submission received: id=%d, name=%s", saved.ID, saved.Name)
	return saved, nil
}

// Get returns the submission with id or a NotFound error.
func (s *SubmissionService) Get(ctx context.Context, id int64) (model.Submission, error) {
	sub, err := s.repo.Load(ctx, id)
	if err != nil {
		return model.Submission{}, notFoundOr(err, "submission", id, "failed to load submission")
	}
	return sub, nil
}

// SetStatus writes status and the matching reviewed flag atomically.
// Writing pending re-opens a reviewed submission.
func (s *SubmissionService) SetStatus(ctx context.Context, id int64, status model.SubmissionStatus) (model.Submission, error) {
	if !status.Valid() {
		return model.Submission{}, NewValidationError("invalid status", model.ErrInvalidSubmissionStatus)
	}

	now := time.Now()
	if err := s.repo.UpdateStatus(ctx, id, status, model.ReviewedFor(status), now); err != nil {
		return model.Submission{}, notFoundOr(err, "submission", id, "failed to update submission status")
	}

	s.logger.Infof("Submission %d status: %s (reviewed=%t)", id, status, model.ReviewedFor(status))
	return s.Get(ctx, id)
}

// Delete permanently removes the submission.
func (s *SubmissionService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "submission", id, "failed to delete submission")
	}
	s.logger.Infof("Submission deleted: id=%d", id)
	return nil
}

// List returns one page of submissions matching filter, newest first.
func (s *SubmissionService) List(ctx context.Context, filter model.SubmissionFilter, page model.Page) (model.PageResult[model.Submission], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return model.PageResult[model.Submission]{}, NewValidationError("invalid status filter", model.ErrInvalidSubmissionStatus)
	}
	page = page.Normalize()

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return model.PageResult[model.Submission]{}, NewErrorWithCause(ErrCodeDatabase, "failed to count submissions", err)
	}
	items, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return model.PageResult[model.Submission]{}, NewErrorWithCause(ErrCodeDatabase, "failed to list submissions", err)
	}

	return model.PageResult[model.Submission]{
		Items:    items,
		Total:    total,
		Page:     page.Number,
		PageSize: page.Size,
	}, nil
}
