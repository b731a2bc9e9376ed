package service

import (
	"context"
	"log/slog"

	"minirsn/internal/models"
	"minirsn/internal/observability"
	"minirsn/internal/policy"
	"minirsn/internal/repository"
	"minirsn/internal/storage"
)

// AdminService backs the moderation dashboard. Every operation requires the
// actor to hold the admin role; routes enforce this too, but the service
// checks again so it cannot be misused from elsewhere.
type AdminService struct {
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	images      *storage.ImageStore
}

func NewAdminService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	images *storage.ImageStore,
) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		images:      images,
	}
}

func (s *AdminService) requireAdmin(actor *models.User) error {
	if !policy.IsAdmin(actor) {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}

func (s *AdminService) ListUsers(ctx context.Context, actor *models.User) ([]*models.User, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.userRepo.List(ctx)
}

func (s *AdminService) ListPosts(ctx context.Context, actor *models.User) ([]*models.Post, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.postRepo.List(ctx)
}

func (s *AdminService) ListComments(ctx context.Context, actor *models.User) ([]*models.Comment, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.commentRepo.List(ctx)
}

func (s *AdminService) GetUser(ctx context.Context, actor *models.User, userID uint) (*models.User, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// DeleteUser hard-deletes a user and cascades to their posts (including
// image files) and comments.
func (s *AdminService) DeleteUser(ctx context.Context, actor *models.User, userID uint) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}

	posts, err := s.postRepo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	// Image cleanup is best effort once the rows are gone.
	for _, post := range posts {
		if !post.HasImage() {
			continue
		}
		if err := s.images.Remove(post.Image); err != nil {
			observability.RequestLogger(ctx).Warn("failed to remove image of deleted user's post",
				slog.Uint64("post_id", uint64(post.ID)),
				slog.String("image", post.Image),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// DeletePost removes any post regardless of ownership, along with its
// comments and image file.
func (s *AdminService) DeletePost(ctx context.Context, actor *models.User, postID uint) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	if post.HasImage() {
		if err := s.images.Remove(post.Image); err != nil {
			return models.NewInternalError(err)
		}
	}
	return s.postRepo.Delete(ctx, postID)
}

// DeleteComment removes any comment regardless of ownership.
func (s *AdminService) DeleteComment(ctx context.Context, actor *models.User, commentID uint) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, commentID)
}
