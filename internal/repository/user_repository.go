package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tutoria/auth/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `
	id, email, password_hash, first_name, last_name, google_id, role, status,
	avatar_url, phone, bio, email_verified, failed_login_attempts,
	locked_until, last_login_at, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, google_id, role,
			status, avatar_url, phone, bio, email_verified, last_login_at,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.GoogleID,
		user.Role,
		user.Status,
		user.AvatarURL,
		user.Phone,
		user.Bio,
		user.EmailVerified,
		user.LastLoginAt,
	)
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// FindByGoogleIDOrEmail prefers the google_id match so an already-linked
// account wins over an email collision.
func (r *UserRepository) FindByGoogleIDOrEmail(ctx context.Context, googleID, email string) (models.User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE google_id = $1 OR email = $2
		ORDER BY (google_id = $1) DESC NULLS LAST
		LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query, googleID, email))
}

func (r *UserRepository) RecordLoginFailure(ctx context.Context, id string, attempts int, lockedUntil *time.Time) error {
	const query = `
		UPDATE users
		SET failed_login_attempts = $2, locked_until = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, attempts, lockedUntil)
}

func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE users
		SET failed_login_attempts = 0, locked_until = NULL, last_login_at = $2,
		    updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, at)
}

func (r *UserRepository) LinkGoogle(ctx context.Context, id, googleID string, avatarURL *string, at time.Time) error {
	const query = `
		UPDATE users
		SET google_id = $2, avatar_url = $3, status = $4, email_verified = TRUE,
		    last_login_at = $5, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, googleID, avatarURL, models.UserStatusActive, at)
}

func (r *UserRepository) RefreshGoogleLogin(ctx context.Context, id string, avatarURL *string, at time.Time) error {
	const query = `
		UPDATE users
		SET avatar_url = $2, last_login_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, avatarURL, at)
}

func (r *UserRepository) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	const query = `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, query, id, role)
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status models.UserStatus) error {
	const query = `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, query, id, status)
}

func (r *UserRepository) UpdatePersonalInfo(ctx context.Context, id string, phone, bio *string) error {
	const query = `
		UPDATE users
		SET phone = COALESCE($2, phone), bio = COALESCE($3, bio), updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, phone, bio)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	return r.exec(ctx, query, id)
}

// DeleteStalePending removes accounts that never activated.
func (r *UserRepository) DeleteStalePending(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM users WHERE status = $1 AND created_at < $2`
	cmd, err := r.pool.Exec(ctx, query, models.UserStatusPending, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

type ListFilter struct {
	Search string
	Role   string
	Status string
	Page   int
	Limit  int
}

func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

func (r *UserRepository) List(ctx context.Context, filter ListFilter) ([]models.User, int, error) {
	filter = filter.Normalize()

	var (
		conditions []string
		args       []any
	)

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", n, n, n))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf("SELECT%s FROM users%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		userColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users, err := scanAll(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) ListByStatus(ctx context.Context, status models.UserStatus) ([]models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE status = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows)
}

func (r *UserRepository) CountByStatus(ctx context.Context) (map[models.UserStatus]int, error) {
	const query = `SELECT status, COUNT(*) FROM users GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.UserStatus]int)
	for rows.Next() {
		var status models.UserStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *UserRepository) CountByRole(ctx context.Context) (map[models.UserRole]int, error) {
	const query = `SELECT role, COUNT(*) FROM users GROUP BY role`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.UserRole]int)
	for rows.Next() {
		var role models.UserRole
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		counts[role] = count
	}
	return counts, rows.Err()
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.GoogleID,
		&user.Role,
		&user.Status,
		&user.AvatarURL,
		&user.Phone,
		&user.Bio,
		&user.EmailVerified,
		&user.FailedLoginAttempts,
		&user.LockedUntil,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanAll(rows pgx.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.FirstName,
			&user.LastName,
			&user.GoogleID,
			&user.Role,
			&user.Status,
			&user.AvatarURL,
			&user.Phone,
			&user.Bio,
			&user.EmailVerified,
			&user.FailedLoginAttempts,
			&user.LockedUntil,
			&user.LastLoginAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
