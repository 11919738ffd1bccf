package db

import (
	"context"

	"github.com/bishop254/vts-backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, phone, email, password_hash, status, role, last_login, created_at, updated_at`

// PostgresUserCollection implements UserCollection for PostgreSQL
type PostgresUserCollection struct {
	Pool *pgxpool.Pool
}

// InsertUser inserts the user and stores the generated id on it
func (c *PostgresUserCollection) InsertUser(ctx context.Context, user *models.User) error {
	err := c.Pool.QueryRow(ctx, `
		INSERT INTO users (name, phone, email, password_hash, status, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		user.Name, user.Phone, user.Email, user.PasswordHash, user.Status, string(user.Role),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return pgErr(err)
}

// FindUserByID finds a user by their ID
func (c *PostgresUserCollection) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return c.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindUserByEmail finds a user by their email
func (c *PostgresUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindUsersByRole lists users with the given role
func (c *PostgresUserCollection) FindUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	rows, err := c.Pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY id`, string(role))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanUser)
}

// UpdateUserStatus activates or deactivates a user
func (c *PostgresUserCollection) UpdateUserStatus(ctx context.Context, id int64, status bool) error {
	tag, err := c.Pool.Exec(ctx, `UPDATE users SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLastLogin updates the last login time for a user
func (c *PostgresUserCollection) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := c.Pool.Exec(ctx, `UPDATE users SET last_login = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (c *PostgresUserCollection) findOne(ctx context.Context, sql string, arg any) (*models.User, error) {
	rows, err := c.Pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	user, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		return nil, pgErr(err)
	}
	return &user, nil
}

func scanUser(row pgx.CollectableRow) (models.User, error) {
	var (
		u    models.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.Email, &u.PasswordHash, &u.Status, &role, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	u.Role = models.Role(role)
	return u, err
}
