// Package seed provides database seeding utilities for development and demos.
package seed

import (
	"fmt"
	"math/rand"
	"time"
	"unicode/utf8"

	"minirsn/internal/models"
	"minirsn/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// Password is the login password applied to every seeded account.
	Password string
}

// AdminEmail is the login of the seeded administrator account.
const AdminEmail = "admin@minirsn.local"

// Seeder populates the database with demo users, posts and comments.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a seeder bound to the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll removes all seeded entities, children first.
func (s *Seeder) ClearAll() error {
	for _, model := range []any{&models.Comment{}, &models.Post{}, &models.User{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run creates NumUsers accounts (the first one an admin), NumPosts posts by
// random authors and a handful of comments per post.
func (s *Seeder) Run(opts Options) error {
	gofakeit.Seed(time.Now().UnixNano())

	if opts.NumUsers < 1 {
		opts.NumUsers = 1
	}
	if opts.Password == "" {
		opts.Password = "password123"
	}

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	users := make([]*models.User, 0, opts.NumUsers)
	admin := &models.User{
		Email:    AdminEmail,
		Password: string(hash),
		Role:     models.RoleAdmin,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	users = append(users, admin)

	for i := 1; i < opts.NumUsers; i++ {
		user := &models.User{
			Email:    gofakeit.Email(),
			Password: string(hash),
			Role:     models.RoleUser,
		}
		if err := s.db.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		post := &models.Post{
			Content: clampContent(gofakeit.Paragraph(1, 3, 8, " ")),
			UserID:  users[rand.Intn(len(users))].ID,
		}
		if err := s.db.Create(post).Error; err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		posts = append(posts, post)
	}

	for _, post := range posts {
		for i := 0; i < rand.Intn(4); i++ {
			comment := &models.Comment{
				Text:   clampContent(gofakeit.Sentence(8)),
				UserID: users[rand.Intn(len(users))].ID,
				PostID: post.ID,
			}
			if err := s.db.Create(comment).Error; err != nil {
				return fmt.Errorf("create comment: %w", err)
			}
		}
	}

	return nil
}

// clampContent keeps generated text inside the accepted content bounds.
func clampContent(text string) string {
	if utf8.RuneCountInString(text) < validation.MinContentLen {
		return "..."
	}
	runes := []rune(text)
	if len(runes) > validation.MaxContentLen {
		return string(runes[:validation.MaxContentLen])
	}
	return text
}
