package server

import (
	"strconv"

	"minirsn/internal/models"
	"minirsn/internal/policy"
	"minirsn/internal/service"
	"minirsn/internal/session"
	"minirsn/internal/validation"

	"github.com/gofiber/fiber/v2"
)

func postPath(postID uint) string {
	return "/post/" + strconv.FormatUint(uint64(postID), 10)
}

// ListOwnComments handles GET /comment/.
func (s *Server) ListOwnComments(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	comments, err := s.commentService.ListOwnComments(c.Context(), s.currentUser(c))
	if err != nil {
		return s.renderError(c, err)
	}
	return s.render(c, sess, "comment/index", fiber.Map{
		"Title":    "My comments",
		"Comments": comments,
	})
}

// NewComment handles GET /comment/new/:postId.
func (s *Server) NewComment(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("post", c.Params("postId")))
	}
	post, err := s.postService.GetPost(c.Context(), postID)
	if err != nil {
		return s.renderError(c, err)
	}
	return s.render(c, sess, "comment/new", fiber.Map{
		"Title":     "New comment",
		"Post":      post,
		"Text":      "",
		"CSRFToken": sess.CSRFToken(session.IntentCommentForm),
	})
}

// CreateComment handles POST /comment/new/:postId.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("post", c.Params("postId")))
	}
	if !sess.ValidCSRF(session.IntentCommentForm, c.FormValue("_token")) {
		return s.redirectWithFlash(c, sess, session.FlashError,
			"Invalid security token, please try again.", "/comment/new/"+c.Params("postId"))
	}

	in := validation.CommentInput{Text: c.FormValue("text")}
	if errs := in.Validate(); errs.Any() {
		post, getErr := s.postService.GetPost(c.Context(), postID)
		if getErr != nil {
			return s.renderError(c, getErr)
		}
		return s.render(c, sess, "comment/new", fiber.Map{
			"Title":     "New comment",
			"Post":      post,
			"Text":      in.Text,
			"Errors":    errs,
			"CSRFToken": sess.CSRFToken(session.IntentCommentForm),
		})
	}

	if _, err := s.commentService.CreateComment(c.Context(), s.currentUser(c), service.CreateCommentInput{
		PostID: postID,
		Text:   in.Text,
	}); err != nil {
		return s.renderError(c, err)
	}

	return s.redirectWithFlash(c, sess, session.FlashSuccess, "Your comment has been added.", postPath(postID))
}

// QuickAddComment handles POST /comment/quick-add/:postId, the inline form on
// the post page. Validation failures come back as flashes since there is no
// dedicated form page to re-render.
func (s *Server) QuickAddComment(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("post", c.Params("postId")))
	}
	if !sess.ValidCSRF(session.IntentCommentQuickAdd, c.FormValue("_token")) {
		return s.redirectWithFlash(c, sess, session.FlashError,
			"Invalid security token, the comment was not added.", postPath(postID))
	}

	in := validation.CommentInput{Text: c.FormValue("text")}
	if errs := in.Validate(); errs.Any() {
		return s.redirectWithFlash(c, sess, session.FlashError, errs["text"], postPath(postID))
	}

	if _, err := s.commentService.CreateComment(c.Context(), s.currentUser(c), service.CreateCommentInput{
		PostID: postID,
		Text:   in.Text,
	}); err != nil {
		return s.renderError(c, err)
	}

	return s.redirectWithFlash(c, sess, session.FlashSuccess, "Your comment has been added.", postPath(postID))
}

// ShowComment handles GET /comment/:id. Reachable without a login.
func (s *Server) ShowComment(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("comment", c.Params("id")))
	}
	comment, err := s.commentService.GetComment(c.Context(), id)
	if err != nil {
		return s.renderError(c, err)
	}
	return s.render(c, sess, "comment/show", fiber.Map{
		"Title":   "Comment",
		"Comment": comment,
	})
}

// EditComment handles GET /comment/:id/edit.
func (s *Server) EditComment(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("comment", c.Params("id")))
	}
	comment, err := s.commentService.GetComment(c.Context(), id)
	if err != nil {
		return s.renderError(c, err)
	}
	if !policy.CanEditComment(s.currentUser(c), comment) {
		return s.renderError(c, models.NewForbiddenError("You cannot edit this comment"))
	}

	return s.render(c, sess, "comment/edit", fiber.Map{
		"Title":       "Edit comment",
		"Comment":     comment,
		"Text":        comment.Text,
		"CSRFToken":   sess.CSRFToken(session.IntentCommentForm),
		"DeleteToken": sess.CSRFToken(session.DeleteIntent(comment.ID)),
	})
}

// UpdateComment handles POST /comment/:id/edit.
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("comment", c.Params("id")))
	}
	if !sess.ValidCSRF(session.IntentCommentForm, c.FormValue("_token")) {
		return s.redirectWithFlash(c, sess, session.FlashError,
			"Invalid security token, please try again.", "/comment/"+c.Params("id")+"/edit")
	}

	in := validation.CommentInput{Text: c.FormValue("text")}
	if errs := in.Validate(); errs.Any() {
		comment, getErr := s.commentService.GetComment(c.Context(), id)
		if getErr != nil {
			return s.renderError(c, getErr)
		}
		return s.render(c, sess, "comment/edit", fiber.Map{
			"Title":       "Edit comment",
			"Comment":     comment,
			"Text":        in.Text,
			"Errors":      errs,
			"CSRFToken":   sess.CSRFToken(session.IntentCommentForm),
			"DeleteToken": sess.CSRFToken(session.DeleteIntent(comment.ID)),
		})
	}

	comment, err := s.commentService.UpdateComment(c.Context(), s.currentUser(c), service.UpdateCommentInput{
		CommentID: id,
		Text:      in.Text,
	})
	if err != nil {
		return s.renderError(c, err)
	}

	return s.redirectWithFlash(c, sess, session.FlashSuccess, "The comment has been updated.", postPath(comment.PostID))
}

// DeleteComment handles POST /comment/:id.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("comment", c.Params("id")))
	}
	if !sess.ValidCSRF(session.DeleteIntent(id), c.FormValue("_token")) {
		return s.redirectWithFlash(c, sess, session.FlashError,
			"Invalid security token, the comment was not deleted.", "/comment/"+c.Params("id"))
	}

	comment, err := s.commentService.DeleteComment(c.Context(), s.currentUser(c), id)
	if err != nil {
		return s.renderError(c, err)
	}

	return s.redirectWithFlash(c, sess, session.FlashSuccess, "The comment has been deleted.", postPath(comment.PostID))
}
