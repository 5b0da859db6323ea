package models

import (
	"html/template"
	"time"
)

type Submission struct {
	// ID equals the author's profile ID: one submission per author, a
	// resubmission replaces the previous one under the same key.
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	AuthorID    string    `gorm:"not null;index;size:64" json:"author_id"`
	AuthorName  string    `json:"author_name"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"` // markdown
	Prompt      string    `gorm:"type:text" json:"prompt"`
	Link        string    `gorm:"not null" json:"link"`
	Thumbnail   string    `json:"thumbnail"`
	VoteCount   int       `gorm:"default:0" json:"vote_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Not stored; filled by the query views.
	DescriptionHTML template.HTML `gorm:"-" json:"description_html,omitempty"`
	Voters          []string      `gorm:"-" json:"voters"`
}
