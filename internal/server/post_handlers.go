package server

import (
	"io"
	"log/slog"
	"net/http"

	"minirsn/internal/models"
	"minirsn/internal/observability"
	"minirsn/internal/policy"
	"minirsn/internal/service"
	"minirsn/internal/session"
	"minirsn/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// uploadedImage is an accepted multipart image, read into memory and sniffed.
type uploadedImage struct {
	originalName string
	ext          string
	content      []byte
}

// readImageUpload pulls the optional image file from the multipart form.
// Returns (nil, nil) when no file was provided, and field errors when the
// file fails size or type validation.
func readImageUpload(c *fiber.Ctx) (*uploadedImage, validation.Errors, error) {
	header, err := c.FormFile("imageFile")
	if err != nil {
		// No file in the form.
		return nil, nil, nil
	}

	f, err := header.Open()
	if err != nil {
		return nil, nil, models.NewUploadError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, validation.MaxImageSize+1))
	if err != nil {
		return nil, nil, models.NewUploadError(err)
	}
	if len(content) == 0 {
		// Empty file input submitted with the form.
		return nil, nil, nil
	}

	contentType := http.DetectContentType(content)
	if errs := validation.ValidateImageUpload(int64(len(content)), contentType); errs.Any() {
		return nil, errs, nil
	}

	ext, _ := validation.ExtensionForImageType(contentType)
	return &uploadedImage{originalName: header.Filename, ext: ext, content: content}, nil, nil
}

// storeImage writes an accepted upload to the image store. A storage failure
// is surfaced as an error flash and the post goes on without the image.
func (s *Server) storeImage(c *fiber.Ctx, sess *sessionHandle, upload *uploadedImage) string {
	if upload == nil {
		return ""
	}
	name, err := s.images.Save(upload.originalName, upload.ext, upload.content)
	if err != nil {
		observability.RequestLogger(c.UserContext()).Error("image store failed",
			slog.String("error", err.Error()))
		sess.Flash(session.FlashError, "The image could not be saved.")
		return ""
	}
	return name
}

// ListPosts handles GET /post/.
func (s *Server) ListPosts(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	posts, err := s.postService.ListPosts(c.Context())
	if err != nil {
		return s.renderError(c, err)
	}
	return s.render(c, sess, "post/index", fiber.Map{
		"Title": "Posts",
		"Posts": posts,
	})
}

// NewPost handles GET /post/new.
func (s *Server) NewPost(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	return s.render(c, sess, "post/new", fiber.Map{
		"Title":     "New post",
		"Content":   "",
		"CSRFToken": sess.CSRFToken(session.IntentPostForm),
	})
}

// CreatePost handles POST /post/new.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	if !sess.ValidCSRF(session.IntentPostForm, c.FormValue("_token")) {
		return s.redirectWithFlash(c, sess, session.FlashError,
			"Invalid security token, please try again.", "/post/new")
	}

	in := validation.PostInput{Content: c.FormValue("content")}
	errs := in.Validate()

	upload, uploadErrs, err := readImageUpload(c)
	if err != nil {
		observability.RequestLogger(c.UserContext()).Error("image upload read failed",
			slog.String("error", err.Error()))
		sess.Flash(session.FlashError, "The image could not be processed.")
	}
	for field, msg := range uploadErrs {
		errs[field] = msg
	}

	if errs.Any() {
		return s.render(c, sess, "post/new", fiber.Map{
			"Title":     "New post",
			"Content":   in.Content,
			"Errors":    errs,
			"CSRFToken": sess.CSRFToken(session.IntentPostForm),
		})
	}

	image := s.storeImage(c, sess, upload)

	post, err := s.postService.CreatePost(c.Context(), s.currentUser(c), service.CreatePostInput{
		Content: in.Content,
		Image:   image,
	})
	if err != nil {
		return s.renderError(c, err)
	}

	// Notification failures must not fail the request; the post is already
	// persisted.
	if nerr := s.notifyService.NotifyNewPost(c.Context(), post); nerr != nil {
		observability.RequestLogger(c.UserContext()).Error("post notification failed",
			slog.Any("post_id", post.ID), slog.String("error", nerr.Error()))
	}

	return s.redirectWithFlash(c, sess, session.FlashSuccess, "Your post has been published.", "/post/")
}

// ShowPost handles GET /post/:id.
func (s *Server) ShowPost(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("post", c.Params("id")))
	}
	post, err := s.postService.GetPost(c.Context(), id)
	if err != nil {
		return s.renderError(c, err)
	}

	actor := s.currentUser(c)
	data := fiber.Map{
		"Title":         "Post",
		"Post":          post,
		"CanEdit":       policy.CanEditPost(actor, post),
		"QuickAddToken": sess.CSRFToken(session.IntentCommentQuickAdd),
	}
	if policy.CanDeletePost(actor, post) {
		data["DeleteToken"] = sess.CSRFToken(session.DeleteIntent(post.ID))
	}
	return s.render(c, sess, "post/show", data)
}

// EditPost handles GET /post/:id/edit.
func (s *Server) EditPost(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("post", c.Params("id")))
	}
	post, err := s.postService.GetPost(c.Context(), id)
	if err != nil {
		return s.renderError(c, err)
	}
	if !policy.CanEditPost(s.currentUser(c), post) {
		return s.renderError(c, models.NewForbiddenError("You cannot edit this post"))
	}

	return s.render(c, sess, "post/edit", fiber.Map{
		"Title":       "Edit post",
		"Post":        post,
		"Content":     post.Content,
		"CSRFToken":   sess.CSRFToken(session.IntentPostForm),
		"DeleteToken": sess.CSRFToken(session.DeleteIntent(post.ID)),
	})
}

// UpdatePost handles POST /post/:id/edit.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("post", c.Params("id")))
	}
	if !sess.ValidCSRF(session.IntentPostForm, c.FormValue("_token")) {
		return s.redirectWithFlash(c, sess, session.FlashError,
			"Invalid security token, please try again.", "/post/"+c.Params("id")+"/edit")
	}

	// Authorize before validating, so a non-owner never sees the edit form
	// again and no upload of theirs touches the image store.
	post, err := s.postService.GetPost(c.Context(), id)
	if err != nil {
		return s.renderError(c, err)
	}
	if !policy.CanEditPost(s.currentUser(c), post) {
		return s.renderError(c, models.NewForbiddenError("You cannot edit this post"))
	}

	in := validation.PostInput{Content: c.FormValue("content")}
	errs := in.Validate()

	upload, uploadErrs, err := readImageUpload(c)
	if err != nil {
		observability.RequestLogger(c.UserContext()).Error("image upload read failed",
			slog.String("error", err.Error()))
		sess.Flash(session.FlashError, "The image could not be processed.")
	}
	for field, msg := range uploadErrs {
		errs[field] = msg
	}

	if errs.Any() {
		return s.render(c, sess, "post/edit", fiber.Map{
			"Title":       "Edit post",
			"Post":        post,
			"Content":     in.Content,
			"Errors":      errs,
			"CSRFToken":   sess.CSRFToken(session.IntentPostForm),
			"DeleteToken": sess.CSRFToken(session.DeleteIntent(post.ID)),
		})
	}

	newImage := s.storeImage(c, sess, upload)

	if _, err := s.postService.UpdatePost(c.Context(), s.currentUser(c), service.UpdatePostInput{
		PostID:   id,
		Content:  in.Content,
		NewImage: newImage,
	}); err != nil {
		return s.renderError(c, err)
	}

	return s.redirectWithFlash(c, sess, session.FlashSuccess, "Your post has been updated.",
		"/post/"+c.Params("id"))
}

// DeletePost handles POST /post/:id.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("post", c.Params("id")))
	}
	if !sess.ValidCSRF(session.DeleteIntent(id), c.FormValue("_token")) {
		return s.redirectWithFlash(c, sess, session.FlashError,
			"Invalid security token, the post was not deleted.", "/post/"+c.Params("id"))
	}

	if err := s.postService.DeletePost(c.Context(), s.currentUser(c), id); err != nil {
		return s.renderError(c, err)
	}

	return s.redirectWithFlash(c, sess, session.FlashSuccess, "The post has been deleted.", "/post/")
}
