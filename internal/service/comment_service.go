package service

import (
	"context"
	"time"

	"minirsn/internal/models"
	"minirsn/internal/policy"
	"minirsn/internal/repository"
	"minirsn/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	PostID uint
	Text   string
}

type UpdateCommentInput struct {
	CommentID uint
	Text      string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// ListOwnComments returns the actor's comments, newest first.
func (s *CommentService) ListOwnComments(ctx context.Context, actor *models.User) ([]*models.Comment, error) {
	return s.commentRepo.ListByUser(ctx, actor.ID)
}

func (s *CommentService) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	return s.commentRepo.GetByID(ctx, id)
}

// CreateComment adds a comment by actor to a post. Both the form path and
// the quick-add path go through here, so the length bounds cannot diverge.
func (s *CommentService) CreateComment(ctx context.Context, actor *models.User, in CreateCommentInput) (*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}
	input := validation.CommentInput{Text: in.Text}
	if errs := input.Validate(); errs.Any() {
		return nil, models.NewValidationError(errs["text"])
	}

	comment := &models.Comment{
		Text:   input.Normalize(),
		UserID: actor.ID,
		PostID: in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// UpdateComment edits a comment's text. The owner or an admin may edit.
func (s *CommentService) UpdateComment(ctx context.Context, actor *models.User, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditComment(actor, comment) {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	input := validation.CommentInput{Text: in.Text}
	if errs := input.Validate(); errs.Any() {
		return nil, models.NewValidationError(errs["text"])
	}

	comment.Text = input.Normalize()
	now := time.Now()
	comment.UpdatedAt = &now
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// DeleteComment removes a comment and returns it so the caller can redirect
// back to the parent post. The owner or an admin may delete.
func (s *CommentService) DeleteComment(ctx context.Context, actor *models.User, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !policy.CanDeleteComment(actor, comment) {
		return nil, models.NewForbiddenError("You can only delete your own comments")
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return nil, err
	}
	return comment, nil
}
