package models

import "time"

// PostStatus is the moderation state of a post.
type PostStatus string

const (
	PostStatusPending  PostStatus = "Pending"
	PostStatusApproved PostStatus = "Approved"
	PostStatusRejected PostStatus = "Rejected"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusPending, PostStatusApproved, PostStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether moderation may move a post from s to next.
// Only pending posts can be decided; both decisions are final.
func (s PostStatus) CanTransitionTo(next PostStatus) bool {
	return s == PostStatusPending && (next == PostStatusApproved || next == PostStatusRejected)
}

// Post represents a blog post.
type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"size:200;not null" json:"title"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	User      User       `gorm:"foreignKey:UserID" json:"user"`
	Status    PostStatus `gorm:"type:varchar(16);not null;default:'Pending';index" json:"status"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Post) TableName() string {
	return "posts"
}
