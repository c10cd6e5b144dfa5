// Package directory implements the user/role directory port over the local
// SQLite database. Role assignments are either department-scoped or global
// (NULL department).
package directory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/port"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/entity"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// SQLiteDirectory implements port.DirectoryService
type SQLiteDirectory struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteDirectory creates a new directory backed by the local database
func NewSQLiteDirectory(db *sql.DB, logger *zap.Logger) port.DirectoryService {
	return &SQLiteDirectory{
		db:     db,
		logger: logger,
	}
}

// GetUser retrieves a user by ID; (nil, nil) when not found
func (d *SQLiteDirectory) GetUser(ctx context.Context, userID int64) (*entity.UserRef, error) {
	query := `
		SELECT id, name, email, department_id, is_active
		FROM users
		WHERE id = ?
	`

	var user entity.UserRef
	err := sqlite.ExecutorFrom(ctx, d.db).QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.DepartmentID,
		&user.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		d.logger.Error("Failed to get user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// UserHasRole reports whether an active user holds the role in the department
// (or globally)
func (d *SQLiteDirectory) UserHasRole(ctx context.Context, userID int64, role string, departmentID int64) (bool, error) {
	query := `
		SELECT COUNT(1)
		FROM user_roles ur
		JOIN users u ON u.id = ur.user_id
		WHERE ur.user_id = ? AND ur.role = ?
			AND (ur.department_id = ? OR ur.department_id IS NULL)
			AND u.is_active = 1
	`

	var count int
	err := sqlite.ExecutorFrom(ctx, d.db).QueryRowContext(ctx, query, userID, role, departmentID).Scan(&count)
	if err != nil {
		d.logger.Error("Failed to check role",
			zap.Int64("user_id", userID),
			zap.String("role", role),
			zap.Error(err))
		return false, fmt.Errorf("failed to check role: %w", err)
	}

	return count > 0, nil
}

// FindUsersWithRole returns active users holding the role in the department
// (or globally), ordered by ID for deterministic resolution
func (d *SQLiteDirectory) FindUsersWithRole(ctx context.Context, role string, departmentID int64) ([]*entity.UserRef, error) {
	query := `
		SELECT u.id, u.name, u.email, u.department_id, u.is_active
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		WHERE ur.role = ?
			AND (ur.department_id = ? OR ur.department_id IS NULL)
			AND u.is_active = 1
		ORDER BY u.id
	`

	rows, err := sqlite.ExecutorFrom(ctx, d.db).QueryContext(ctx, query, role, departmentID)
	if err != nil {
		d.logger.Error("Failed to find users with role",
			zap.String("role", role),
			zap.Int64("department_id", departmentID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find users with role: %w", err)
	}
	defer rows.Close()

	var users []*entity.UserRef
	for rows.Next() {
		var user entity.UserRef
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.DepartmentID,
			&user.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}

// Verify interface compliance
var _ port.DirectoryService = (*SQLiteDirectory)(nil)
