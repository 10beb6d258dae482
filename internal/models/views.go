package models

import "time"

// PostView is the API representation of a post.
type PostView struct {
	ID         uint       `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	AuthorID   uint       `json:"author_id"`
	AuthorName string     `json:"author_name"`
	Status     PostStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// PostDetail is a post together with its comments.
type PostDetail struct {
	PostView
	Comments []CommentView `json:"comments"`
}

// CommentView is the API representation of a comment.
type CommentView struct {
	ID         uint      `json:"id"`
	Text       string    `json:"text"`
	PostID     uint      `json:"post_id"`
	PostTitle  string    `json:"post_title,omitempty"`
	AuthorID   uint      `json:"author_id"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserView is the API representation of an account.
type UserView struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	EmailConfirmed bool      `json:"email_confirmed"`
	Roles          []string  `json:"roles"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserRolesView answers a role lookup for one user.
type UserRolesView struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// NewPostView maps a post with its preloaded author.
func NewPostView(p *Post) PostView {
	return PostView{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		AuthorID:   p.UserID,
		AuthorName: p.User.Username,
		Status:     p.Status,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// NewPostViews maps a slice, never returning nil.
func NewPostViews(posts []Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for i := range posts {
		views = append(views, NewPostView(&posts[i]))
	}
	return views
}

// NewCommentView maps a comment with its preloaded author and, when loaded, post.
func NewCommentView(c *Comment) CommentView {
	v := CommentView{
		ID:         c.ID,
		Text:       c.Text,
		PostID:     c.PostID,
		AuthorID:   c.UserID,
		AuthorName: c.User.Username,
		CreatedAt:  c.CreatedAt,
	}
	if c.Post != nil {
		v.PostTitle = c.Post.Title
	}
	return v
}

// NewCommentViews maps a slice, never returning nil.
func NewCommentViews(comments []Comment) []CommentView {
	views := make([]CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, NewCommentView(&comments[i]))
	}
	return views
}

// NewUserView maps a user with preloaded roles.
func NewUserView(u *User) UserView {
	return UserView{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmed,
		Roles:          u.RoleNames(),
		CreatedAt:      u.CreatedAt,
	}
}
