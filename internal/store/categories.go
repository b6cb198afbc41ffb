package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/inkwell/internal/errs"
)

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#6C63FF"

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func validateCategory(name, color string) error {
	if strings.TrimSpace(name) == "" {
		return errs.Validation("category name is required")
	}
	if !hexColor.MatchString(color) {
		return errs.Validation("color %q must look like #RRGGBB", color)
	}
	return nil
}

func (s *Store) CreateCategory(ctx context.Context, userID, name, color string) (*Category, error) {
	name = strings.TrimSpace(name)
	if color == "" {
		color = DefaultCategoryColor
	}
	if err := validateCategory(name, color); err != nil {
		return nil, err
	}

	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE user_id = ? AND name = ?`, userID, name,
	).Scan(&existing)
	if err == nil {
		return nil, errs.Validation("category %q already exists", name)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Database("check category", err)
	}

	id := uuid.NewString()
	now := formatTime(time.Now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, name, color, now, now,
	)
	if err != nil {
		return nil, errs.Database("insert category", err)
	}
	return s.GetCategory(ctx, id)
}

func (s *Store) GetCategory(ctx context.Context, id string) (*Category, error) {
	c := &Category{}
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.user_id, c.name, c.color, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM entry_categories ec WHERE ec.category_id = c.id)
		FROM categories c WHERE c.id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &createdAt, &updatedAt, &c.EntryCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("category", id)
	}
	if err != nil {
		return nil, errs.Database("get category", err)
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

// ListCategories returns the user's categories by name, each with the number
// of entries linked to it across the whole history.
func (s *Store) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.name, c.color, c.created_at, c.updated_at, COUNT(ec.entry_id)
		FROM categories c
		LEFT JOIN entry_categories ec ON ec.category_id = c.id
		WHERE c.user_id = ?
		GROUP BY c.id
		ORDER BY c.name`, userID)
	if err != nil {
		return nil, errs.Database("list categories", err)
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &createdAt, &updatedAt, &c.EntryCount); err != nil {
			return nil, errs.Database("scan category", err)
		}
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Database("list categories", err)
	}
	return categories, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id, name, color string) error {
	name = strings.TrimSpace(name)
	if err := validateCategory(name, color); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ?, updated_at = ? WHERE id = ?`,
		name, color, formatTime(time.Now()), id,
	)
	if err != nil {
		return errs.Database("update category", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("category", id)
	}
	return nil
}

// DeleteCategory removes the category and unlinks it from its entries.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return errs.Database("delete category", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("category", id)
	}
	return nil
}

// categoriesFor loads the categories linked to each of entryIDs.
func (s *Store) categoriesFor(ctx context.Context, entryIDs []string) (map[string][]Category, error) {
	out := make(map[string][]Category, len(entryIDs))
	const chunk = 500
	for start := 0; start < len(entryIDs); start += chunk {
		end := min(start+chunk, len(entryIDs))
		ids := entryIDs[start:end]

		args := make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

		rows, err := s.db.QueryContext(ctx, `
			SELECT ec.entry_id, c.id, c.user_id, c.name, c.color, c.created_at, c.updated_at
			FROM entry_categories ec
			JOIN categories c ON c.id = ec.category_id
			WHERE ec.entry_id IN (`+placeholders+`)
			ORDER BY c.name`, args...)
		if err != nil {
			return nil, errs.Database("list entry categories", err)
		}
		for rows.Next() {
			var entryID, createdAt, updatedAt string
			var c Category
			if err := rows.Scan(&entryID, &c.ID, &c.UserID, &c.Name, &c.Color, &createdAt, &updatedAt); err != nil {
				rows.Close()
				return nil, errs.Database("scan entry category", err)
			}
			c.CreatedAt = parseTime(createdAt)
			c.UpdatedAt = parseTime(updatedAt)
			out[entryID] = append(out[entryID], c)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, errs.Database("list entry categories", err)
		}
	}
	return out, nil
}
