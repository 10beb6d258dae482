package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"miniblog/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixture is a hand-written data set, usually loaded from YAML.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
	Posts []FixturePost `yaml:"posts"`
}

type FixtureUser struct {
	Username string   `yaml:"username"`
	Email    string   `yaml:"email"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

type FixturePost struct {
	Author   string           `yaml:"author"`
	Title    string           `yaml:"title"`
	Content  string           `yaml:"content"`
	Status   string           `yaml:"status"`
	Comments []FixtureComment `yaml:"comments"`
}

type FixtureComment struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

// LoadFixture decodes and validates a YAML fixture.
func LoadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	known := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if strings.TrimSpace(u.Username) == "" || strings.TrimSpace(u.Password) == "" {
			return fmt.Errorf("fixture user %d: username and password are required", i)
		}
		known[u.Username] = true
	}
	for i, p := range f.Posts {
		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("fixture post %d: title is required", i)
		}
		if p.Status != "" && !models.PostStatus(p.Status).Valid() {
			return fmt.Errorf("fixture post %q: unknown status %q", p.Title, p.Status)
		}
		if !known[p.Author] {
			return fmt.Errorf("fixture post %q: unknown author %q", p.Title, p.Author)
		}
		for _, c := range p.Comments {
			if !known[c.Author] {
				return fmt.Errorf("fixture post %q: unknown commenter %q", p.Title, c.Author)
			}
			if n := len([]rune(c.Text)); n == 0 || n > models.MaxCommentLength {
				return fmt.Errorf("fixture post %q: comment must be 1-%d characters", p.Title, models.MaxCommentLength)
			}
		}
	}
	return nil
}

// ApplyFixture writes the fixture. Users that already exist and posts with the
// same author and title are left alone, so applying twice is harmless.
func ApplyFixture(ctx context.Context, db *gorm.DB, f *Fixture) (*Result, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if err := EnsureRoles(ctx, db); err != nil {
		return nil, err
	}
	res := &Result{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make(map[string]*models.User, len(f.Users))
		for _, fu := range f.Users {
			user, created, err := applyUser(tx, fu)
			if err != nil {
				return err
			}
			if created {
				res.Users++
			}
			users[fu.Username] = user
		}

		for _, fp := range f.Posts {
			author := users[fp.Author]
			var existing int64
			if err := tx.Model(&models.Post{}).
				Where("user_id = ? AND title = ?", author.ID, fp.Title).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}

			status := models.PostStatus(fp.Status)
			if status == "" {
				status = models.PostStatusPending
			}
			post := &models.Post{Title: fp.Title, Content: fp.Content, UserID: author.ID, Status: status}
			if err := tx.Omit("User").Create(post).Error; err != nil {
				return fmt.Errorf("create post %q: %w", fp.Title, err)
			}
			res.Posts++

			for _, fc := range fp.Comments {
				comment := &models.Comment{Text: fc.Text, UserID: users[fc.Author].ID, PostID: post.ID}
				if err := tx.Omit("User", "Post").Create(comment).Error; err != nil {
					return fmt.Errorf("create comment on %q: %w", fp.Title, err)
				}
				res.Comments++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func applyUser(tx *gorm.DB, fu FixtureUser) (*models.User, bool, error) {
	var user models.User
	err := tx.Where("username = ?", fu.Username).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(fu.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}
	email := fu.Email
	if email == "" {
		email = strings.ToLower(fu.Username) + "@example.com"
	}
	user = models.User{
		Username:       fu.Username,
		Email:          email,
		Password:       string(hashed),
		EmailConfirmed: true,
	}
	roles := fu.Roles
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}
	for _, name := range roles {
		var role models.Role
		if err := tx.Where(models.Role{Name: models.CanonicalRoleName(name)}).FirstOrCreate(&role).Error; err != nil {
			return nil, false, err
		}
		user.Roles = append(user.Roles, role)
	}
	if err := tx.Omit("Roles.*").Create(&user).Error; err != nil {
		return nil, false, fmt.Errorf("create user %s: %w", fu.Username, err)
	}
	return &user, true, nil
}
