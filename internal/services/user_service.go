package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/llm-admin-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetAllUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	CreateUser(ctx context.Context, username, email, password string) (models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error)
	ToggleUserActive(ctx context.Context, id string) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserService provides business logic for user management.
type UserService struct {
	db       *sql.DB
	notifier Notifier
	now      func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, notifier Notifier) *UserService {
	return &UserService{db: db, notifier: notifierOrNop(notifier), now: time.Now}
}

const userColumns = "id, username, email, password_hash, verified, active, created_at, updated_at"

func scanUser(scanner interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	var email, hash sql.NullString
	err := scanner.Scan(&user.ID, &user.Username, &email, &hash, &user.Verified, &user.Active, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}
	user.Email = email.String
	user.PasswordHash = hash.String
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

// GetAllUsers retrieves every user, oldest first.
func (s *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return users, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
		}
		return models.User{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return user, nil
}

// CreateUser creates a new user, hashing their password when one is given.
func (s *UserService) CreateUser(ctx context.Context, username, email, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, fmt.Errorf("username is required: %w", ErrValidation)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	now := s.now().UTC()
	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Verified:     false,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users("+userColumns+") VALUES(?, ?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Email, user.PasswordHash, user.Verified, user.Active, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("username %q already exists: %w", username, ErrValidation)
		}
		return models.User{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.notifier.Publish("user.created", user)
	return user, nil
}

// UpdateUser merges the patch into the stored user.
func (s *UserService) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	patch.Apply(&user)
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return models.User{}, fmt.Errorf("username is required: %w", ErrValidation)
	}
	if patch.Password != nil {
		if user.PasswordHash, err = hashPassword(*patch.Password); err != nil {
			return models.User{}, err
		}
	}
	user.UpdatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET username = ?, email = ?, password_hash = ?, verified = ?, active = ?, updated_at = ? WHERE id = ?",
		user.Username, user.Email, user.PasswordHash, user.Verified, user.Active, user.UpdatedAt, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("username %q already exists: %w", user.Username, ErrValidation)
		}
		return models.User{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.User{}, fmt.Errorf("user with id %s: %w", id, ErrNotFound)
	}

	s.notifier.Publish("user.updated", user)
	return user, nil
}

// ToggleUserActive flips the active flag of a user.
func (s *UserService) ToggleUserActive(ctx context.Context, id string) (models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	active := !user.Active
	return s.UpdateUser(ctx, id, models.UserPatch{Active: &active})
}

// DeleteUser removes a user from the database.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
	}
	s.notifier.Publish("user.deleted", map[string]string{"id": id})
	return nil
}

func hashPassword(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	if len(password) > 72 {
		return "", fmt.Errorf("password must be at most 72 bytes: %w", ErrValidation)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
