package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isdelr/blogpress/internal/auth"
	"github.com/isdelr/blogpress/internal/models"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, name, email, username, password string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db     *sql.DB
	events EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, events EventServiceProvider) *UserService {
	return &UserService{db: db, events: events}
}

// CreateUser registers a new user, hashing their password. A taken username
// yields ErrDuplicateUsername and no row is written.
func (s *UserService) CreateUser(ctx context.Context, name, email, username, password string) (models.User, error) {
	hashedPassword, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return models.User{}, &ValidationError{Fields: map[string]string{
			"password": fmt.Sprintf("Must be at most %d bytes long.", auth.MaxPasswordBytes),
		}}
	} else if err != nil {
		return models.User{}, err
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, email, username, password) VALUES (?, ?, ?, ?)",
		name, email, username, hashedPassword)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to read new user id: %w", err)
	}

	recordEvent(ctx, s.events, "user.register", "info", fmt.Sprintf("%s joined the blog.", username), username, nil)

	// Return user without password hash
	return models.User{ID: id, Name: name, Email: email, Username: username}, nil
}

// GetUserByUsername looks a user up by exact, case-sensitive username.
// The returned user never carries the password hash.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	user, err := s.getUserWithHash(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// AuthenticateUser verifies a user's credentials.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.getUserWithHash(ctx, username)
	if err != nil {
		return models.User{}, err
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return models.User{}, ErrWrongPassword
	}

	// Don't hand the password hash to callers
	user.PasswordHash = ""
	return user, nil
}

func (s *UserService) getUserWithHash(ctx context.Context, username string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, username, password FROM users WHERE username = ?", username)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Username, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("failed to load user %s: %w", username, err)
	}
	return user, nil
}
