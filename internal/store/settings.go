package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// SettingOr returns the stored value for key, or fallback when it is unset.
func (s *Store) SettingOr(ctx context.Context, key, fallback string) string {
	v, err := s.GetSetting(ctx, key)
	if err != nil {
		return fallback
	}
	return v
}

func (s *Store) BoolSetting(ctx context.Context, key string, fallback bool) bool {
	b, err := strconv.ParseBool(s.SettingOr(ctx, key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return b
}

func (s *Store) IntSetting(ctx context.Context, key string, fallback int) int {
	n, err := strconv.Atoi(s.SettingOr(ctx, key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return n
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings(ctx context.Context) ([]Setting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// IsMissingSetting reports whether err came from an unset key.
func IsMissingSetting(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
