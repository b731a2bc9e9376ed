// Package validation provides input validation for the application's forms.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Content length bounds shared by post content and comment text.
const (
	MinContentLen = 3
	MaxContentLen = 1000
)

// Errors maps field names to human-readable validation messages.
type Errors map[string]string

// Any reports whether at least one field failed validation.
func (e Errors) Any() bool {
	return len(e) > 0
}

// PostInput is the validated shape of the post creation/edit form.
type PostInput struct {
	Content string
}

// Normalize returns the content with surrounding whitespace removed; the
// normalized form is what validation judges and what gets persisted.
func (in PostInput) Normalize() string {
	return strings.TrimSpace(in.Content)
}

// Validate checks the post form and returns field-scoped error messages.
func (in PostInput) Validate() Errors {
	errs := Errors{}
	content := in.Normalize()
	switch n := utf8.RuneCountInString(content); {
	case n == 0:
		errs["content"] = "Please enter some content for your post"
	case n < MinContentLen:
		errs["content"] = fmt.Sprintf("Content must be at least %d characters", MinContentLen)
	case n > MaxContentLen:
		errs["content"] = fmt.Sprintf("Content cannot exceed %d characters", MaxContentLen)
	}
	return errs
}

// CommentInput is the validated shape of the comment form. The quick-add path
// runs through the same bounds so both entry points behave identically.
type CommentInput struct {
	Text string
}

// Normalize returns the text with surrounding whitespace removed.
func (in CommentInput) Normalize() string {
	return strings.TrimSpace(in.Text)
}

// Validate checks the comment form and returns field-scoped error messages.
func (in CommentInput) Validate() Errors {
	errs := Errors{}
	text := in.Normalize()
	switch n := utf8.RuneCountInString(text); {
	case n < MinContentLen:
		errs["text"] = fmt.Sprintf("Comment must be at least %d characters", MinContentLen)
	case n > MaxContentLen:
		errs["text"] = fmt.Sprintf("Comment cannot exceed %d characters", MaxContentLen)
	}
	return errs
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}

	return nil
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}
	return nil
}
