package server

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"minirsn/internal/middleware"
	"minirsn/internal/models"
	"minirsn/internal/observability"
	"minirsn/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	authCookieName = "minirsn_token"
	tokenIssuer    = "minirsn"
	tokenAudience  = "minirsn-web"
)

// parseID extracts a route parameter by name as a positive uint.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("Invalid " + param)
	}
	return uint(id), nil
}

// currentUser returns the authenticated user stored by AuthRequired, or nil.
func (s *Server) currentUser(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals("user").(*models.User); ok {
		return user
	}
	return nil
}

// session returns the Fiber session for this request.
func (s *Server) session(c *fiber.Ctx) (*sessionHandle, error) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &sessionHandle{sess: sess}, nil
}

// sessionHandle wraps a Fiber session so mutations are saved exactly once at
// the end of the handler.
type sessionHandle struct {
	sess  session.Saver
	dirty bool
}

func (h *sessionHandle) Flash(kind, message string) {
	session.AddFlash(h.sess, kind, message)
	h.dirty = true
}

func (h *sessionHandle) ConsumeFlashes() []session.Flash {
	flashes := session.ConsumeFlashes(h.sess)
	if len(flashes) > 0 {
		h.dirty = true
	}
	return flashes
}

func (h *sessionHandle) CSRFToken(intention string) string {
	tok := session.CSRFToken(h.sess, intention)
	h.dirty = true
	return tok
}

func (h *sessionHandle) ValidCSRF(intention, submitted string) bool {
	return session.ValidCSRFToken(h.sess, intention, submitted)
}

func (h *sessionHandle) Destroy() error {
	h.dirty = false
	return h.sess.Destroy()
}

// Save persists the session if anything changed. Call before writing the
// response.
func (h *sessionHandle) Save(ctx context.Context) {
	if !h.dirty {
		return
	}
	h.dirty = false
	if err := h.sess.Save(); err != nil {
		observability.RequestLogger(ctx).Error("session save failed", slog.String("error", err.Error()))
	}
}

// render renders a view inside the main layout, adding the current user and
// any pending flash messages to the template data.
func (s *Server) render(c *fiber.Ctx, sess *sessionHandle, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["CurrentUser"] = s.currentUser(c)
	if sess != nil {
		data["Flashes"] = sess.ConsumeFlashes()
		sess.Save(c.UserContext())
	}
	return c.Render(name, data)
}

// renderError translates an application error into the matching error page.
func (s *Server) renderError(c *fiber.Ctx, err error) error {
	status := models.HTTPStatus(err)
	data := fiber.Map{"CurrentUser": s.currentUser(c)}

	switch models.ErrorCode(err) {
	case models.CodeNotFound:
		data["Title"] = "Not found"
		return c.Status(status).Render("errors/404", data)
	case models.CodeForbidden:
		data["Title"] = "Access denied"
		return c.Status(status).Render("errors/403", data)
	default:
		observability.RequestLogger(c.UserContext()).Error("request error",
			slog.String("error", err.Error()))
		data["Title"] = "Something went wrong"
		return c.Status(fiber.StatusInternalServerError).Render("errors/500", data)
	}
}

// redirectWithFlash saves the session and issues a 303 redirect; the flash is
// displayed on the target page.
func (s *Server) redirectWithFlash(c *fiber.Ctx, sess *sessionHandle, kind, message, target string) error {
	sess.Flash(kind, message)
	sess.Save(c.UserContext())
	return c.Redirect(target, fiber.StatusSeeOther)
}

// generateToken creates a signed JWT carrying the user ID as subject.
func (s *Server) generateToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": now.Add(time.Duration(s.config.SessionTTLMins) * time.Minute).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// setAuthCookie writes the HTTP-only authentication cookie.
func (s *Server) setAuthCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    token,
		Expires:  time.Now().Add(time.Duration(s.config.SessionTTLMins) * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// clearAuthCookie expires the authentication cookie.
func (s *Server) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// userFromCookie validates the auth cookie and loads the matching user.
// Returns nil (and no error) for missing or invalid credentials.
func (s *Server) userFromCookie(c *fiber.Ctx) (*models.User, error) {
	tokenString := c.Cookies(authCookieName)
	if tokenString == "" {
		return nil, nil
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, models.NewInvalidTokenError()
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, nil
	}
	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
		return nil, nil
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
		return nil, nil
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, nil
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return nil, nil
	}

	user, err := s.userRepo.GetByID(c.Context(), uint(userID))
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// AuthRequired returns the authentication middleware. Browser-facing, so
// failures redirect to the login form instead of returning 401.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.userFromCookie(c)
		if err != nil {
			return s.renderError(c, err)
		}
		if user == nil {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		c.Locals("userID", user.ID)
		c.Locals("user", user)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// formValue returns a trimmed form field.
func formValue(c *fiber.Ctx, name string) string {
	return strings.TrimSpace(c.FormValue(name))
}
