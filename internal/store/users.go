package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/inkwell/internal/errs"
)

// EnsureUser returns the user called name, creating it on first use.
func (s *Store) EnsureUser(ctx context.Context, name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Validation("user name is required")
	}

	u, err := s.getUserBy(ctx, `name = ?`, name)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, formatTime(time.Now()),
	)
	if err != nil {
		return nil, errs.Database("insert user", err)
	}
	return s.GetUser(ctx, id)
}

func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	return s.getUserBy(ctx, `id = ?`, id)
}

func (s *Store) getUserBy(ctx context.Context, where string, arg string) (*User, error) {
	u := &User{}
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("user", arg)
	}
	if err != nil {
		return nil, errs.Database("get user", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}
