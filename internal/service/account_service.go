package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"miniblog/internal/middleware"
	"miniblog/internal/models"
	"miniblog/internal/notifications"
	"miniblog/internal/observability"
	"miniblog/internal/repository"
	"miniblog/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AccountService handles registration, email confirmation and sign-in.
type AccountService struct {
	userRepo            repository.UserRepository
	notify              Dispatcher
	jwtSecret           string
	publicBaseURL       string
	requireConfirmation bool
	now                 func() time.Time
}

type AccountOptions struct {
	JWTSecret                string
	PublicBaseURL            string
	RequireEmailConfirmation bool
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult is a signed token and the account it belongs to.
type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      models.UserView `json:"user"`
}

func NewAccountService(userRepo repository.UserRepository, notify Dispatcher, opts AccountOptions) *AccountService {
	return &AccountService{
		userRepo:            userRepo,
		notify:              dispatcherOrNoop(notify),
		jwtSecret:           opts.JWTSecret,
		publicBaseURL:       strings.TrimRight(opts.PublicBaseURL, "/"),
		requireConfirmation: opts.RequireEmailConfirmation,
		now:                 time.Now,
	}
}

// Register creates the account with the User role and sends the confirmation
// link. A send failure in sync mode is returned with the created account.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.UserView, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if existing, err := s.userRepo.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Username is already taken")
	}
	if existing, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:       username,
		Email:          email,
		Password:       string(hash),
		EmailConfirmed: !s.requireConfirmation,
	}
	if s.requireConfirmation {
		token := uuid.New().String()
		user.ConfirmationToken = &token
	}
	if err := s.userRepo.CreateWithRole(ctx, user, models.RoleUser); err != nil {
		return nil, err
	}
	observability.AuthEvents.WithLabelValues("register").Inc()
	middleware.Logger.InfoContext(ctx, "User registered",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("username", user.Username),
	)

	view := models.NewUserView(user)
	if user.ConfirmationToken == nil {
		return &view, nil
	}
	msg := notifications.ConfirmEmail(recipientOf(user), s.confirmationLink(*user.ConfirmationToken))
	if err := s.notify.Dispatch(ctx, msg); err != nil {
		return &view, err
	}
	return &view, nil
}

func (s *AccountService) confirmationLink(token string) string {
	return s.publicBaseURL + "/api/account/confirm?token=" + url.QueryEscape(token)
}

// ConfirmEmail marks the account owning token as confirmed.
func (s *AccountService) ConfirmEmail(ctx context.Context, token string) (*models.UserView, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, models.NewValidationError("Confirmation token is required")
	}
	user, err := s.userRepo.GetByConfirmationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("Confirmation token", token)
	}
	if err := s.userRepo.ConfirmEmail(ctx, user.ID); err != nil {
		return nil, err
	}
	observability.AuthEvents.WithLabelValues("confirm").Inc()
	user.EmailConfirmed = true
	user.ConfirmationToken = nil
	view := models.NewUserView(user)
	return &view, nil
}

// Login checks credentials and issues a token. identity is a username or an email.
func (s *AccountService) Login(ctx context.Context, identity, password string) (*LoginResult, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}

	var user *models.User
	var err error
	if strings.Contains(identity, "@") {
		user, err = s.userRepo.GetByEmail(ctx, identity)
	} else {
		user, err = s.userRepo.GetByUsername(ctx, identity)
	}
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		observability.AuthEvents.WithLabelValues("login_failed").Inc()
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}
	if s.requireConfirmation && !user.EmailConfirmed {
		observability.AuthEvents.WithLabelValues("login_unconfirmed").Inc()
		return nil, models.NewUnauthorizedError("Email not confirmed")
	}

	token, claims, err := middleware.IssueToken(s.jwtSecret, user.ID, user.Username, s.now())
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.AuthEvents.WithLabelValues("login").Inc()
	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
		User:      models.NewUserView(user),
	}, nil
}
