package postgres

import (
	"context"
	"database/sql"

	"github.com/fairshare/fairshare/internal/models"
	"github.com/fairshare/fairshare/internal/storage"
)

// CreateUser inserts a new user and returns the assigned id.
func (s *Store) CreateUser(ctx context.Context, name string) (int64, error) {
	taken, err := s.nameTaken(ctx, name)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, storage.ErrDuplicateUser
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		"INSERT INTO users (name) VALUES ($1) RETURNING id", name,
	).Scan(&id)
	if err != nil {
		return 0, storeErr("insert user", err)
	}
	return id, nil
}

// RenameUser changes a user's name in place.
func (s *Store) RenameUser(ctx context.Context, oldName, newName string) error {
	taken, err := s.nameTaken(ctx, newName)
	if err != nil {
		return err
	}
	if taken {
		return storage.ErrDuplicateUser
	}

	res, err := s.db.ExecContext(ctx, "UPDATE users SET name = $1 WHERE name = $2", newName, oldName)
	if err != nil {
		return storeErr("rename user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("rename user", err)
	}
	if n == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM users ORDER BY name")
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, storeErr("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate users", err)
	}
	return users, nil
}

// UserIDByName resolves a name to an id.
func (s *Store) UserIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM users WHERE name = $1", name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, storage.ErrUserNotFound
	}
	if err != nil {
		return 0, storeErr("get user id", err)
	}
	return id, nil
}

// UserNames returns the id-to-name mapping for all users.
func (s *Store) UserNames(ctx context.Context) (map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM users")
	if err != nil {
		return nil, storeErr("get user names", err)
	}
	defer rows.Close()

	names := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, storeErr("scan user", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate users", err)
	}
	return names, nil
}

func (s *Store) nameTaken(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE name = $1", name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storeErr("check username", err)
	}
	return true, nil
}

func userExists(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = $1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storeErr("check user", err)
	}
	return true, nil
}
