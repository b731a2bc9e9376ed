package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"minirsn/internal/config"
	"minirsn/internal/database"
	"minirsn/internal/models"
	"minirsn/internal/notify"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recorderMailer captures outgoing notification emails.
type recorderMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *recorderMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recorderMailer) Sent() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.sent...)
}

func newTestServer(t *testing.T) (*Server, *gorm.DB, *recorderMailer) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	cfg := &config.Config{
		JWTSecret:      "test-secret-which-is-long-enough",
		Port:           "8080",
		Env:            "test",
		UploadDir:      t.TempDir(),
		MailFrom:       "noreply@minirsn.local",
		MailSubject:    "New post on MiniRSN",
		SessionTTLMins: 60,
	}

	mailer := &recorderMailer{}
	srv, err := NewServerWithDeps(cfg, db, nil, mailer)
	require.NoError(t, err)
	return srv, db, mailer
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Email: email, Password: string(hash), Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, userID uint, content string) *models.Post {
	t.Helper()
	post := &models.Post{Content: content, UserID: userID}
	require.NoError(t, db.Create(post).Error)
	return post
}

func createTestComment(t *testing.T, db *gorm.DB, userID, postID uint, text string) *models.Comment {
	t.Helper()
	comment := &models.Comment{Text: text, UserID: userID, PostID: postID}
	require.NoError(t, db.Create(comment).Error)
	return comment
}

// browser drives the app the way a cookie-keeping client would.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, srv *Server) *browser {
	t.Helper()
	return &browser{t: t, app: srv.App(), cookies: map[string]*http.Cookie{}}
}

// loginAs authenticates the browser without going through the login form.
func (b *browser) loginAs(srv *Server, user *models.User) {
	token, err := srv.generateToken(user.ID)
	require.NoError(b.t, err)
	b.cookies[authCookieName] = &http.Cookie{Name: authCookieName, Value: token}
}

func (b *browser) do(req *http.Request) *http.Response {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	for _, c := range resp.Cookies() {
		b.cookies[c.Name] = c
	}
	return resp
}

func (b *browser) get(path string) *http.Response {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, form url.Values) *http.Response {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

var csrfTokenRe = regexp.MustCompile(`name="_token" value="([^"]+)"`)

// csrfTokenFrom extracts the first hidden CSRF token from a rendered page.
func csrfTokenFrom(t *testing.T, body string) string {
	t.Helper()
	match := csrfTokenRe.FindStringSubmatch(body)
	require.NotNil(t, match, "expected a CSRF token in the page")
	return match[1]
}

// formTokenFrom extracts the CSRF token of the form posting to action,
// which is how delete and quick-add tokens are told apart on pages that
// render several forms.
func formTokenFrom(t *testing.T, body, action string) string {
	t.Helper()
	re := regexp.MustCompile(`action="` + regexp.QuoteMeta(action) + `"[^>]*>\s*<input type="hidden" name="_token" value="([^"]+)"`)
	match := re.FindStringSubmatch(body)
	require.NotNil(t, match, "expected a CSRF token for form %s", action)
	return match[1]
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
