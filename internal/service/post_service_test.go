package service

import (
	"context"
	"strings"
	"testing"

	"minirsn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostPersistsForActor(t *testing.T) {
	repo := noopPostRepo()
	var created *models.Post
	repo.createFn = func(_ context.Context, post *models.Post) error {
		created = post
		created.ID = 42
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, Content: created.Content, UserID: created.UserID}, nil
	}

	svc := NewPostService(repo, testImageStore(t))
	post, err := svc.CreatePost(context.Background(), testOwner, CreatePostInput{
		Content: "  hello from the test suite  ",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, testOwner.ID, created.UserID)
	assert.Equal(t, "hello from the test suite", created.Content)
	assert.Equal(t, uint(42), post.ID)
}

func TestCreatePostRejectsContentBounds(t *testing.T) {
	cases := map[string]string{
		"too short": "hi",
		"too long":  strings.Repeat("a", 1001),
		"blank":     "   ",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			repo := noopPostRepo()
			repo.createFn = func(_ context.Context, _ *models.Post) error {
				t.Fatal("create should not be reached")
				return nil
			}
			svc := NewPostService(repo, testImageStore(t))
			_, err := svc.CreatePost(context.Background(), testOwner, CreatePostInput{Content: content})
			assertErrorCode(t, err, models.CodeValidation)
		})
	}
}

func TestUpdatePostOwnerOnly(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, Content: "original content", UserID: testOwner.ID}, nil
	}
	repo.updateFn = func(_ context.Context, _ *models.Post) error {
		t.Fatal("update should not be reached")
		return nil
	}
	svc := NewPostService(repo, testImageStore(t))

	_, err := svc.UpdatePost(context.Background(), testStranger, UpdatePostInput{PostID: 7, Content: "edited content"})
	assertErrorCode(t, err, models.CodeForbidden)

	// Admins have no shortcut here either, moderation goes through the dashboard.
	_, err = svc.UpdatePost(context.Background(), testAdmin, UpdatePostInput{PostID: 7, Content: "edited content"})
	assertErrorCode(t, err, models.CodeForbidden)
}

func TestUpdatePostSwapsImage(t *testing.T) {
	images := testImageStore(t)
	oldName, err := images.Save("before.jpg", "jpg", []byte("old-bytes"))
	require.NoError(t, err)

	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, Content: "original content", Image: oldName, UserID: testOwner.ID}, nil
	}
	var updated *models.Post
	repo.updateFn = func(_ context.Context, post *models.Post) error {
		updated = post
		return nil
	}

	svc := NewPostService(repo, images)
	_, err = svc.UpdatePost(context.Background(), testOwner, UpdatePostInput{
		PostID:   7,
		Content:  "edited content",
		NewImage: "fresh-upload.jpg",
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "fresh-upload.jpg", updated.Image)
	assert.NotNil(t, updated.UpdatedAt)
	assert.False(t, images.Exists(oldName), "the replaced image should be removed")
}

func TestDeletePostRemovesImage(t *testing.T) {
	images := testImageStore(t)
	name, err := images.Save("holiday.png", "png", []byte("png-bytes"))
	require.NoError(t, err)

	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, Content: "original content", Image: name, UserID: testOwner.ID}, nil
	}
	var deletedID uint
	repo.deleteFn = func(_ context.Context, id uint) error {
		deletedID = id
		return nil
	}

	svc := NewPostService(repo, images)
	require.NoError(t, svc.DeletePost(context.Background(), testOwner, 7))
	assert.Equal(t, uint(7), deletedID)
	assert.False(t, images.Exists(name))
}

func TestDeletePostForbiddenForNonOwner(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, Content: "original content", UserID: testOwner.ID}, nil
	}
	repo.deleteFn = func(_ context.Context, _ uint) error {
		t.Fatal("delete should not be reached")
		return nil
	}
	svc := NewPostService(repo, testImageStore(t))

	err := svc.DeletePost(context.Background(), testAdmin, 7)
	assertErrorCode(t, err, models.CodeForbidden)
}

func TestGetPostNotFoundPropagates(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return nil, models.NewNotFoundError("post", id)
	}
	svc := NewPostService(repo, testImageStore(t))

	_, err := svc.GetPost(context.Background(), 99)
	assertErrorCode(t, err, models.CodeNotFound)
}
