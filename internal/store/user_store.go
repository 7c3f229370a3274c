package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/farmers-market-api/internal/models"
	"go.uber.org/zap"
)

const userColumns = "id, name, email, password_hash, role, created_at"

// UserStore reads and writes the users table.
type UserStore struct {
	db  *sql.DB
	log *zap.Logger
}

// NewUserStore creates a user store on top of the shared pool.
func NewUserStore(db *sql.DB, log *zap.Logger) *UserStore {
	return &UserStore{db: db, log: log}
}

func scanUser(r rowScanner, u *models.User) error {
	return r.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
}

// List returns every user. An empty table yields an empty, non-nil slice.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		s.log.Error("Error fetching all users", zap.Error(err))
		return nil, fmt.Errorf("could not retrieve users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			s.log.Error("Error scanning user row", zap.Error(err))
			return nil, fmt.Errorf("could not retrieve users: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		s.log.Error("Error iterating user rows", zap.Error(err))
		return nil, fmt.Errorf("could not retrieve users: %w", err)
	}
	return users, nil
}

func (s *UserStore) getOne(ctx context.Context, what, where string, arg interface{}) (*models.User, error) {
	var u models.User
	err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where+" = ?", arg), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.log.Error("Error fetching user", zap.String("by", what), zap.Error(err))
		return nil, fmt.Errorf("could not retrieve user by %s: %w", what, err)
	}
	return &u, nil
}

// GetByID returns the user with the given id, or ErrNotFound.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getOne(ctx, "id", "id", id)
}

// GetByEmail returns the user with the given email, or ErrNotFound.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, "email", "email", email)
}

// Create inserts a user and returns its generated id. An empty role is
// stored as the default "user" role.
func (s *UserStore) Create(ctx context.Context, in models.NewUser) (int64, error) {
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)",
		in.Name, in.Email, in.PasswordHash, role,
	)
	if err != nil {
		s.log.Error("Error creating user", zap.Error(err))
		return 0, fmt.Errorf("could not create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("could not read new user id: %w", err)
	}
	return id, nil
}

// Update applies the supplied fields to the user with the given id.
func (s *UserStore) Update(ctx context.Context, id int64, upd models.UserUpdate) error {
	var a assignments
	setIf(&a, "name", upd.Name)
	setIf(&a, "email", upd.Email)
	setIf(&a, "password_hash", upd.PasswordHash)
	setIf(&a, "role", upd.Role)

	query, args, err := a.build("users", id)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.log.Error("Error updating user", zap.Int64("user_id", id), zap.Error(err))
		return fmt.Errorf("could not update user %d: %w", id, err)
	}
	return requireAffected(res)
}

// Delete removes the user with the given id.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		s.log.Error("Error deleting user", zap.Int64("user_id", id), zap.Error(err))
		return fmt.Errorf("could not delete user %d: %w", id, err)
	}
	return requireAffected(res)
}
