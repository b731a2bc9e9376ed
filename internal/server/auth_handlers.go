package server

import (
	"minirsn/internal/models"
	"minirsn/internal/session"
	"minirsn/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// ShowLogin handles GET /login.
func (s *Server) ShowLogin(c *fiber.Ctx) error {
	if user, _ := s.userFromCookie(c); user != nil {
		return c.Redirect("/post/", fiber.StatusSeeOther)
	}
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	return s.render(c, sess, "login", fiber.Map{
		"Title":     "Log in",
		"Email":     "",
		"CSRFToken": sess.CSRFToken(session.IntentLogin),
	})
}

// Login handles POST /login.
func (s *Server) Login(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}

	if !sess.ValidCSRF(session.IntentLogin, c.FormValue("_token")) {
		return s.redirectWithFlash(c, sess, session.FlashError, "Invalid security token, please try again.", "/login")
	}

	email := formValue(c, "email")
	password := c.FormValue("password")

	user, err := s.userRepo.GetByEmail(c.Context(), email)
	if err != nil {
		return s.renderError(c, err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		sess.Flash(session.FlashError, "Invalid credentials.")
		return s.render(c, sess, "login", fiber.Map{
			"Title":     "Log in",
			"Email":     email,
			"CSRFToken": sess.CSRFToken(session.IntentLogin),
		})
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return s.renderError(c, models.NewInternalError(err))
	}
	s.setAuthCookie(c, token)

	return s.redirectWithFlash(c, sess, session.FlashSuccess, "Welcome back!", "/post/")
}

// Logout handles POST /logout.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.clearAuthCookie(c)
	if sess, err := s.session(c); err == nil {
		_ = sess.Destroy()
	}
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// ShowRegister handles GET /register.
func (s *Server) ShowRegister(c *fiber.Ctx) error {
	if user, _ := s.userFromCookie(c); user != nil {
		return c.Redirect("/post/", fiber.StatusSeeOther)
	}
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}
	return s.render(c, sess, "register", fiber.Map{
		"Title":     "Register",
		"Email":     "",
		"CSRFToken": sess.CSRFToken(session.IntentLogin),
	})
}

// Register handles POST /register.
func (s *Server) Register(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.renderError(c, err)
	}

	if !sess.ValidCSRF(session.IntentLogin, c.FormValue("_token")) {
		return s.redirectWithFlash(c, sess, session.FlashError, "Invalid security token, please try again.", "/register")
	}

	email := formValue(c, "email")
	password := c.FormValue("password")

	errs := validation.Errors{}
	if err := validation.ValidateEmail(email); err != nil {
		errs["email"] = err.Error()
	}
	if err := validation.ValidatePassword(password); err != nil {
		errs["password"] = err.Error()
	}
	if !errs.Any() {
		existing, lookupErr := s.userRepo.GetByEmail(c.Context(), email)
		if lookupErr != nil {
			return s.renderError(c, lookupErr)
		}
		if existing != nil {
			errs["email"] = "An account with this email already exists"
		}
	}
	if errs.Any() {
		return s.render(c, sess, "register", fiber.Map{
			"Title":     "Register",
			"Email":     email,
			"Errors":    errs,
			"CSRFToken": sess.CSRFToken(session.IntentLogin),
		})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return s.renderError(c, models.NewInternalError(err))
	}

	user := &models.User{
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleUser,
	}
	if createErr := s.userRepo.Create(c.Context(), user); createErr != nil {
		return s.renderError(c, createErr)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return s.renderError(c, models.NewInternalError(err))
	}
	s.setAuthCookie(c, token)

	return s.redirectWithFlash(c, sess, session.FlashSuccess, "Your account has been created.", "/post/")
}
