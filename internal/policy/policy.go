// Package policy holds the authorization rules for posts and comments as pure
// functions over an explicit actor, usable without any web or database context.
package policy

import (
	"minirsn/internal/models"
)

// IsAdmin reports whether the actor holds the admin role.
func IsAdmin(actor *models.User) bool {
	return actor != nil && actor.IsAdmin()
}

// CanEditPost allows only the owner to edit a post. Admins get no override
// here; moderation removes posts through the admin dashboard instead.
func CanEditPost(actor *models.User, post *models.Post) bool {
	return actor != nil && post != nil && actor.ID == post.UserID
}

// CanDeletePost allows only the owner to delete a post through the post routes.
func CanDeletePost(actor *models.User, post *models.Post) bool {
	return actor != nil && post != nil && actor.ID == post.UserID
}

// CanEditComment allows the comment owner or an admin to edit a comment.
func CanEditComment(actor *models.User, comment *models.Comment) bool {
	if actor == nil || comment == nil {
		return false
	}
	return actor.ID == comment.UserID || actor.IsAdmin()
}

// CanDeleteComment allows the comment owner or an admin to delete a comment.
func CanDeleteComment(actor *models.User, comment *models.Comment) bool {
	if actor == nil || comment == nil {
		return false
	}
	return actor.ID == comment.UserID || actor.IsAdmin()
}
