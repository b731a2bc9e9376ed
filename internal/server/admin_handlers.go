package server

import (
	"minirsn/internal/models"
	"minirsn/internal/session"

	"github.com/gofiber/fiber/v2"
)

// AdminDashboard handles GET /admin/.
func (s *Server) AdminDashboard(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	actor := s.currentUser(c)

	users, err := s.adminService.ListUsers(c.Context(), actor)
	if err != nil {
		return s.renderError(c, err)
	}
	posts, err := s.adminService.ListPosts(c.Context(), actor)
	if err != nil {
		return s.renderError(c, err)
	}
	comments, err := s.adminService.ListComments(c.Context(), actor)
	if err != nil {
		return s.renderError(c, err)
	}

	return s.render(c, sess, "admin/index", fiber.Map{
		"Title":        "Administration",
		"UserCount":    len(users),
		"PostCount":    len(posts),
		"CommentCount": len(comments),
	})
}

// AdminUsers handles GET /admin/users.
func (s *Server) AdminUsers(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	users, err := s.adminService.ListUsers(c.Context(), s.currentUser(c))
	if err != nil {
		return s.renderError(c, err)
	}
	return s.render(c, sess, "admin/users", fiber.Map{
		"Title": "Users",
		"Users": users,
	})
}

// AdminEditUser handles GET /admin/users/:id/edit.
func (s *Server) AdminEditUser(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("user", c.Params("id")))
	}
	user, err := s.adminService.GetUser(c.Context(), s.currentUser(c), id)
	if err != nil {
		return s.renderError(c, err)
	}
	return s.render(c, sess, "admin/user_edit", fiber.Map{
		"Title": "Edit user",
		"User":  user,
	})
}

// AdminUpdateUser handles POST /admin/users/:id/edit. User editing is a stub:
// the form renders but submitting it only reports that nothing was changed.
func (s *Server) AdminUpdateUser(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	if _, err := parseID(c, "id"); err != nil {
		return s.renderError(c, models.NewNotFoundError("user", c.Params("id")))
	}
	return s.redirectWithFlash(c, sess, session.FlashError,
		"User editing is not available yet.", "/admin/users")
}

// AdminDeleteUser handles GET /admin/users/:id/delete.
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("user", c.Params("id")))
	}
	if err := s.adminService.DeleteUser(c.Context(), s.currentUser(c), id); err != nil {
		return s.renderError(c, err)
	}
	return s.redirectWithFlash(c, sess, session.FlashSuccess, "The user has been deleted.", "/admin/users")
}

// AdminPosts handles GET /admin/posts.
func (s *Server) AdminPosts(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	posts, err := s.adminService.ListPosts(c.Context(), s.currentUser(c))
	if err != nil {
		return s.renderError(c, err)
	}
	return s.render(c, sess, "admin/posts", fiber.Map{
		"Title": "Posts",
		"Posts": posts,
	})
}

// AdminDeletePost handles GET /admin/post/:id/delete.
func (s *Server) AdminDeletePost(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("post", c.Params("id")))
	}
	if err := s.adminService.DeletePost(c.Context(), s.currentUser(c), id); err != nil {
		return s.renderError(c, err)
	}
	return s.redirectWithFlash(c, sess, session.FlashSuccess, "The post has been deleted.", "/admin/posts")
}

// AdminComments handles GET /admin/comments.
func (s *Server) AdminComments(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	comments, err := s.adminService.ListComments(c.Context(), s.currentUser(c))
	if err != nil {
		return s.renderError(c, err)
	}
	return s.render(c, sess, "admin/comments", fiber.Map{
		"Title":    "Comments",
		"Comments": comments,
	})
}

// AdminDeleteComment handles GET /admin/comment/:id/delete.
func (s *Server) AdminDeleteComment(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return s.renderError(c, models.NewNotFoundError("comment", c.Params("id")))
	}
	if err := s.adminService.DeleteComment(c.Context(), s.currentUser(c), id); err != nil {
		return s.renderError(c, err)
	}
	return s.redirectWithFlash(c, sess, session.FlashSuccess, "The comment has been deleted.", "/admin/comments")
}
