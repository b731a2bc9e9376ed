package server

import (
	"net/http"
	"testing"

	"minirsn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutesForbiddenForRegularUser(t *testing.T) {
	srv, db, _ := newTestServer(t)
	user := createTestUser(t, db, "user@example.com", models.RoleUser)

	b := newBrowser(t, srv)
	b.loginAs(srv, user)
	for _, path := range []string{"/admin/", "/admin/users", "/admin/posts", "/admin/comments"} {
		resp := b.get(path)
		readBody(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "path %s", path)
	}
}

func TestAdminDashboardCounts(t *testing.T) {
	srv, db, _ := newTestServer(t)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "user@example.com", models.RoleUser)
	post := createTestPost(t, db, user.ID, "a post under moderation")
	createTestComment(t, db, user.ID, post.ID, "a comment under moderation")

	b := newBrowser(t, srv)
	b.loginAs(srv, admin)
	resp := b.get("/admin/")
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "2") // users
	assert.Contains(t, body, "Administration")
}

func TestAdminListsShowContent(t *testing.T) {
	srv, db, _ := newTestServer(t)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "user@example.com", models.RoleUser)
	post := createTestPost(t, db, user.ID, "a post under moderation")
	createTestComment(t, db, user.ID, post.ID, "a comment under moderation")

	b := newBrowser(t, srv)
	b.loginAs(srv, admin)

	users := readBody(t, b.get("/admin/users"))
	assert.Contains(t, users, "user@example.com")
	assert.Contains(t, users, "admin@example.com")

	posts := readBody(t, b.get("/admin/posts"))
	assert.Contains(t, posts, "a post under moderation")
	assert.Contains(t, posts, "user@example.com")

	comments := readBody(t, b.get("/admin/comments"))
	assert.Contains(t, comments, "a comment under moderation")
}

func TestAdminDeleteUserCascades(t *testing.T) {
	srv, db, _ := newTestServer(t)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	doomed := createTestUser(t, db, "doomed@example.com", models.RoleUser)
	bystander := createTestUser(t, db, "bystander@example.com", models.RoleUser)

	doomedPost := createTestPost(t, db, doomed.ID, "this post will vanish")
	keptPost := createTestPost(t, db, bystander.ID, "this post stays around")
	createTestComment(t, db, bystander.ID, doomedPost.ID, "on the doomed post")
	createTestComment(t, db, doomed.ID, keptPost.ID, "by the doomed user")
	kept := createTestComment(t, db, bystander.ID, keptPost.ID, "untouched comment")

	b := newBrowser(t, srv)
	b.loginAs(srv, admin)
	resp := b.get("/admin/users/" + itoa(doomed.ID) + "/delete")
	readBody(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/users", resp.Header.Get("Location"))

	var userCount, postCount, commentCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&commentCount).Error)
	assert.EqualValues(t, 2, userCount)
	assert.EqualValues(t, 1, postCount)
	assert.EqualValues(t, 1, commentCount)

	var remaining models.Comment
	require.NoError(t, db.First(&remaining).Error)
	assert.Equal(t, kept.ID, remaining.ID)
}

func TestAdminDeletePost(t *testing.T) {
	srv, db, _ := newTestServer(t)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "user@example.com", models.RoleUser)
	post := createTestPost(t, db, user.ID, "reported content")
	createTestComment(t, db, user.ID, post.ID, "a reply")

	b := newBrowser(t, srv)
	b.loginAs(srv, admin)
	resp := b.get("/admin/post/" + itoa(post.ID) + "/delete")
	readBody(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/posts", resp.Header.Get("Location"))

	var postCount, commentCount int64
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&commentCount).Error)
	assert.Zero(t, postCount)
	assert.Zero(t, commentCount)
}

func TestAdminDeleteComment(t *testing.T) {
	srv, db, _ := newTestServer(t)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "user@example.com", models.RoleUser)
	post := createTestPost(t, db, user.ID, "a fine post")
	comment := createTestComment(t, db, user.ID, post.ID, "spam spam spam")

	b := newBrowser(t, srv)
	b.loginAs(srv, admin)
	resp := b.get("/admin/comment/" + itoa(comment.ID) + "/delete")
	readBody(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/comments", resp.Header.Get("Location"))

	var commentCount, postCount int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&commentCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	assert.Zero(t, commentCount)
	assert.EqualValues(t, 1, postCount, "the post itself stays")

	followUp := readBody(t, b.get("/admin/comments"))
	assert.Contains(t, followUp, "The comment has been deleted.")
}

func TestAdminUpdateUserIsStubbed(t *testing.T) {
	srv, db, _ := newTestServer(t)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "user@example.com", models.RoleUser)

	b := newBrowser(t, srv)
	b.loginAs(srv, admin)
	readBody(t, b.get("/admin/users/" + itoa(user.ID) + "/edit"))

	resp := b.postForm("/admin/users/"+itoa(user.ID)+"/edit", nil)
	readBody(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/users", resp.Header.Get("Location"))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, "user@example.com", reloaded.Email)
}
