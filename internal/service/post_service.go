// Package service implements the application's use cases on top of the
// repository, policy, storage, and validation layers. Every operation takes
// the acting user explicitly; nothing reads authentication state implicitly.
package service

import (
	"context"
	"log/slog"
	"time"

	"minirsn/internal/models"
	"minirsn/internal/observability"
	"minirsn/internal/policy"
	"minirsn/internal/repository"
	"minirsn/internal/storage"
	"minirsn/internal/validation"
)

type PostService struct {
	postRepo repository.PostRepository
	images   *storage.ImageStore
}

type CreatePostInput struct {
	Content string
	// Image is the stored filename of an already-saved upload, or empty.
	Image string
}

type UpdatePostInput struct {
	PostID  uint
	Content string
	// NewImage is the stored filename of a replacement upload, or empty to
	// keep the current image.
	NewImage string
}

func NewPostService(postRepo repository.PostRepository, images *storage.ImageStore) *PostService {
	return &PostService{
		postRepo: postRepo,
		images:   images,
	}
}

func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return s.postRepo.List(ctx)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// CreatePost persists a new post owned by actor. Content is normalized and
// bounds-checked here so no caller can skip either.
func (s *PostService) CreatePost(ctx context.Context, actor *models.User, in CreatePostInput) (*models.Post, error) {
	input := validation.PostInput{Content: in.Content}
	if errs := input.Validate(); errs.Any() {
		return nil, models.NewValidationError(errs["content"])
	}

	post := &models.Post{
		Content: input.Normalize(),
		Image:   in.Image,
		UserID:  actor.ID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID)
}

// UpdatePost edits a post's content and optionally swaps its image. Only the
// owner may edit. The replacement image must already be on disk; the old file
// is removed only after the record points at the new one, so a failed update
// never leaves the post without any image file.
func (s *PostService) UpdatePost(ctx context.Context, actor *models.User, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditPost(actor, post) {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}
	input := validation.PostInput{Content: in.Content}
	if errs := input.Validate(); errs.Any() {
		return nil, models.NewValidationError(errs["content"])
	}

	oldImage := post.Image
	post.Content = input.Normalize()
	if in.NewImage != "" {
		post.Image = in.NewImage
	}
	now := time.Now()
	post.UpdatedAt = &now

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	if in.NewImage != "" && oldImage != "" && oldImage != in.NewImage {
		if err := s.images.Remove(oldImage); err != nil {
			observability.RequestLogger(ctx).Warn("failed to remove replaced post image",
				slog.String("image", oldImage),
				slog.String("error", err.Error()),
			)
		}
	}

	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost removes a post, its comments, and its image file. Only the
// owner may delete through this path; admin moderation goes through
// AdminService.
func (s *PostService) DeletePost(ctx context.Context, actor *models.User, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if !policy.CanDeletePost(actor, post) {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	if post.HasImage() {
		if err := s.images.Remove(post.Image); err != nil {
			return models.NewInternalError(err)
		}
	}
	return s.postRepo.Delete(ctx, postID)
}
