package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, display_name, password_hash, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		boolToInt(user.IsActive),
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

// GetUserByID retrieves a user by their ID, including the groups they joined.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.getUser(ctx, "id", id)
	if err != nil || user == nil {
		return user, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT group_id FROM memberships WHERE user_id = ? ORDER BY joined_at, group_id",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get joined groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var groupID string
		if err := rows.Scan(&groupID); err != nil {
			return nil, fmt.Errorf("failed to scan joined group: %w", err)
		}
		user.JoinedGroups = append(user.JoinedGroups, groupID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate joined groups: %w", err)
	}

	return user, nil
}

// getUser looks a user up by one unique column. column is never user input.
func (s *SQLiteStore) getUser(ctx context.Context, column, value string) (*models.User, error) {
	query := `
		SELECT id, email, display_name, password_hash, is_active, created_at, updated_at
		FROM users
		WHERE ` + column + ` = ?
	`

	user := &models.User{}
	var active int
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	user.IsActive = active == 1

	return user, nil
}
