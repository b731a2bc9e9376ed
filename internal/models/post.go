// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Post is a user-authored publication, optionally carrying one image.
// Image holds the bare generated filename inside the posts upload
// directory, never a path; empty means no image.
type Post struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Content string `gorm:"type:text;not null" json:"content"`
	Image   string `json:"image,omitempty"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user"`

	Comments  []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt stays nil until the first edit; the service sets it
	// explicitly, so GORM's automatic update timestamp is disabled.
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// HasImage reports whether the post references an uploaded image.
func (p *Post) HasImage() bool {
	return p.Image != ""
}
