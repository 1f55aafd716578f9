package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/cugino/restaurant-auth/internal/core/domain"
)

// mysqlDuplicateEntry is the MySQL error number for a unique-key violation.
const mysqlDuplicateEntry = 1062

// UserRepository is the relational credential store adapter. The users
// table carries a unique index on name as the final uniqueness backstop.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// userRow mirrors the users table.
type userRow struct {
	ID              int64
	Name            string
	PasswordHash    string
	Role            string
	EstablishmentID sql.NullInt64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const userColumns = "id, name, password_hash, role, establishment_id, created_at, updated_at"

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	return scanUser(row)
}

func (r *UserRepository) FindByName(ctx context.Context, name string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE name = ? LIMIT 1", name)
	return scanUser(row)
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	return r.queryUsers(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
}

func (r *UserRepository) FindByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	return r.queryUsers(ctx,
		"SELECT "+userColumns+" FROM users WHERE role = ? ORDER BY id", string(role))
}

func (r *UserRepository) FindByEstablishment(ctx context.Context, establishmentID int64) ([]*domain.User, error) {
	return r.queryUsers(ctx,
		"SELECT "+userColumns+" FROM users WHERE establishment_id = ? ORDER BY id", establishmentID)
}

// Create inserts the user and assigns the store-generated id on the
// aggregate. A duplicate name maps to ErrNameTaken.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, password_hash, role, establishment_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.Name(),
		user.PasswordHash().String(),
		string(user.Role()),
		nullableID(user.EstablishmentID()),
		user.CreatedAt(),
		user.UpdatedAt(),
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, domain.ErrNameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	user.AssignID(id)
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET name = ?, password_hash = ?, role = ?, establishment_id = ?, updated_at = ? WHERE id = ?",
		user.Name(),
		user.PasswordHash().String(),
		string(user.Role()),
		nullableID(user.EstablishmentID()),
		user.UpdatedAt(),
		user.ID(),
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, domain.ErrNameTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		// Either the row is gone or nothing changed; distinguish them.
		if _, err := r.FindByID(ctx, user.ID()); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role = ?", string(role)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	return users, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*domain.User, error) {
	var row userRow
	err := s.Scan(&row.ID, &row.Name, &row.PasswordHash, &row.Role,
		&row.EstablishmentID, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	hash, err := domain.ParsePasswordHash(row.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("user %d: stored hash rejected: %w", row.ID, err)
	}

	var estID *int64
	if row.EstablishmentID.Valid {
		estID = &row.EstablishmentID.Int64
	}
	return domain.Restore(row.ID, row.Name, hash, domain.Role(row.Role), estID,
		row.CreatedAt, row.UpdatedAt), nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
