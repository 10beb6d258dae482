// Package seed provides helpers to create demo data for the application
// database and to install the built-in roles.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"miniblog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password given to generated accounts.
const DefaultPassword = "password123"

// Factory builds domain entities with gofakeit and persists them.
type Factory struct {
	db       *gorm.DB
	faker    *gofakeit.Faker
	password string
	maxDays  int
}

// NewFactory creates a Factory bound to db. A zero seed picks a random one.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	return &Factory{
		db:       db,
		faker:    gofakeit.New(seed),
		password: DefaultPassword,
		maxDays:  60,
	}
}

// CreateUser persists a confirmed user holding roles. Overrides run before saving.
func (f *Factory) CreateUser(ctx context.Context, roles []string, overrides ...func(*models.User)) (*models.User, error) {
	first := alnum(f.faker.FirstName())
	if first == "" {
		first = "user"
	}
	username := fmt.Sprintf("%s%d", strings.ToLower(first), f.faker.Number(100, 99999))
	user := &models.User{
		Username:       username,
		Email:          username + "@" + f.faker.DomainName(),
		EmailConfirmed: true,
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(f.password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	user.Password = string(hashed)

	for _, override := range overrides {
		override(user)
	}

	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range roles {
			var role models.Role
			if err := tx.Where(models.Role{Name: models.CanonicalRoleName(name)}).FirstOrCreate(&role).Error; err != nil {
				return err
			}
			user.Roles = append(user.Roles, role)
		}
		return tx.Omit("Roles.*").Create(user).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreatePost persists a post by author with status and a created_at spread over the last maxDays.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, status models.PostStatus, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Title:     strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), "."),
		Content:   f.faker.Paragraph(1, 3, 8, "\n\n"),
		UserID:    author.ID,
		Status:    status,
		CreatedAt: f.pastTime(),
	}
	for _, override := range overrides {
		override(post)
	}
	post.UpdatedAt = post.CreatedAt

	if err := f.db.WithContext(ctx).Omit("User").Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateComment persists a comment by author on post, dated after the post.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Text:   truncate(f.faker.Sentence(f.faker.Number(4, 20)), models.MaxCommentLength),
		UserID: author.ID,
		PostID: post.ID,
	}
	if minutes := int(time.Since(post.CreatedAt) / time.Minute); minutes > 1 {
		comment.CreatedAt = post.CreatedAt.Add(time.Duration(f.faker.Number(1, minutes-1)) * time.Minute)
	}
	for _, override := range overrides {
		override(comment)
	}

	if err := f.db.WithContext(ctx).Omit("User", "Post").Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

func alnum(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, s)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
