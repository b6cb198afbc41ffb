package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/inkwell/internal/analysis"
	"github.com/sadopc/inkwell/internal/errs"
)

const entryColumns = `e.id, e.user_id, e.title, e.content, e.created_at, e.updated_at,
	m.entry_id, m.word_count, m.reading_time, m.sentiment_score, m.sentiment_magnitude, m.mood, m.analyzed_at`

const entryFrom = ` FROM entries e LEFT JOIN entry_metadata m ON m.entry_id = e.id`

// CreateEntry inserts the entry together with its metadata row. Word count
// and reading time are filled in; sentiment is left for the pipeline.
func (s *Store) CreateEntry(ctx context.Context, in NewEntry) (*Entry, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, errs.Validation("user id is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, errs.Validation("content is required")
	}

	id := uuid.NewString()
	now := time.Now()
	created := in.CreatedAt
	if created.IsZero() {
		created = now
	}

	err := s.InTx(ctx, func(tx *Tx) error {
		_, err := tx.tx.ExecContext(ctx,
			`INSERT INTO entries (id, user_id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, in.UserID, strings.TrimSpace(in.Title), in.Content, formatTime(created), formatTime(now),
		)
		if err != nil {
			return errs.Database("insert entry", err)
		}

		wc := analysis.WordCount(in.Content)
		_, err = tx.tx.ExecContext(ctx,
			`INSERT INTO entry_metadata (entry_id, word_count, reading_time) VALUES (?, ?, ?)`,
			id, wc, analysis.ReadingTime(wc),
		)
		if err != nil {
			return errs.Database("insert entry metadata", err)
		}
		return setEntryCategories(ctx, tx.tx, id, in.UserID, in.CategoryIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetEntry(ctx, id)
}

func (s *Store) GetEntry(ctx context.Context, id string) (*Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, `SELECT `+entryColumns+entryFrom+` WHERE e.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("entry", id)
	}
	if err != nil {
		return nil, errs.Database(fmt.Sprintf("get entry %s", id), err)
	}

	cats, err := s.categoriesFor(ctx, []string{e.ID})
	if err != nil {
		return nil, err
	}
	e.Categories = cats[e.ID]
	return &e, nil
}

// UpdateEntry applies upd. A content change recomputes word count and
// reading time and clears the stale sentiment in the same transaction.
func (s *Store) UpdateEntry(ctx context.Context, id string, upd EntryUpdate) (*Entry, error) {
	err := s.InTx(ctx, func(tx *Tx) error {
		var userID, content string
		err := tx.tx.QueryRowContext(ctx, `SELECT user_id, content FROM entries WHERE id = ?`, id).Scan(&userID, &content)
		if errors.Is(err, sql.ErrNoRows) {
			return errs.NotFound("entry", id)
		}
		if err != nil {
			return errs.Database("get entry", err)
		}

		now := formatTime(time.Now())
		if upd.Title != nil {
			if _, err := tx.tx.ExecContext(ctx,
				`UPDATE entries SET title = ?, updated_at = ? WHERE id = ?`,
				strings.TrimSpace(*upd.Title), now, id,
			); err != nil {
				return errs.Database("update entry title", err)
			}
		}

		if upd.Content != nil && *upd.Content != content {
			if strings.TrimSpace(*upd.Content) == "" {
				return errs.Validation("content is required")
			}
			if _, err := tx.tx.ExecContext(ctx,
				`UPDATE entries SET content = ?, updated_at = ? WHERE id = ?`,
				*upd.Content, now, id,
			); err != nil {
				return errs.Database("update entry content", err)
			}
			wc := analysis.WordCount(*upd.Content)
			if _, err := tx.tx.ExecContext(ctx, `
				INSERT INTO entry_metadata (entry_id, word_count, reading_time) VALUES (?, ?, ?)
				ON CONFLICT(entry_id) DO UPDATE SET
					word_count = excluded.word_count,
					reading_time = excluded.reading_time,
					sentiment_score = NULL,
					sentiment_magnitude = NULL,
					mood = NULL,
					analyzed_at = NULL`,
				id, wc, analysis.ReadingTime(wc),
			); err != nil {
				return errs.Database("reset entry metadata", err)
			}
		}

		if upd.CategoryIDs != nil {
			if _, err := tx.tx.ExecContext(ctx, `DELETE FROM entry_categories WHERE entry_id = ?`, id); err != nil {
				return errs.Database("clear entry categories", err)
			}
			return setEntryCategories(ctx, tx.tx, id, userID, *upd.CategoryIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetEntry(ctx, id)
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return errs.Database("delete entry", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("entry", id)
	}
	return nil
}

// ListEntries returns matching entries newest first, with metadata and
// categories attached.
func (s *Store) ListEntries(ctx context.Context, f EntryFilter) ([]Entry, error) {
	query := `SELECT ` + entryColumns + entryFrom + ` WHERE 1=1`
	var args []any

	if f.UserID != "" {
		query += ` AND e.user_id = ?`
		args = append(args, f.UserID)
	}
	if f.CategoryID != nil {
		query += ` AND EXISTS (SELECT 1 FROM entry_categories ec WHERE ec.entry_id = e.id AND ec.category_id = ?)`
		args = append(args, *f.CategoryID)
	}
	if f.From != nil {
		query += ` AND e.created_at >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += ` AND e.created_at < ?`
		args = append(args, formatTime(*f.To))
	}
	query += ` ORDER BY e.created_at DESC, e.rowid DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	entries, err := s.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(entries))
	for i := range entries {
		ids[i] = entries[i].ID
	}
	cats, err := s.categoriesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Categories = cats[entries[i].ID]
	}
	return entries, nil
}

// queryEntries drains the rows before returning so the single connection
// is free for follow-up queries.
func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Database("list entries", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errs.Database("scan entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Database("list entries", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var createdAt, updatedAt string
	var metaID, mood, analyzedAt sql.NullString
	var wordCount, readingTime sql.NullInt64
	var score, magnitude sql.NullFloat64

	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Content, &createdAt, &updatedAt,
		&metaID, &wordCount, &readingTime, &score, &magnitude, &mood, &analyzedAt)
	if err != nil {
		return e, err
	}
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	e.Categories = []Category{}

	if metaID.Valid {
		m := &EntryMetadata{
			WordCount:   int(wordCount.Int64),
			ReadingTime: int(readingTime.Int64),
		}
		if score.Valid && mood.Valid {
			sc, mg := score.Float64, magnitude.Float64
			md := analysis.Mood(mood.String)
			m.SentimentScore = &sc
			m.SentimentMagnitude = &mg
			m.Mood = &md
		}
		if analyzedAt.Valid {
			t := parseTime(analyzedAt.String)
			m.AnalyzedAt = &t
		}
		e.Metadata = m
	}
	return e, nil
}

func setEntryCategories(ctx context.Context, q querier, entryID, userID string, categoryIDs []string) error {
	seen := make(map[string]bool, len(categoryIDs))
	for _, cid := range categoryIDs {
		if seen[cid] {
			continue
		}
		seen[cid] = true

		var owner string
		err := q.QueryRowContext(ctx, `SELECT user_id FROM categories WHERE id = ?`, cid).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return errs.NotFound("category", cid)
		}
		if err != nil {
			return errs.Database("get category", err)
		}
		if owner != userID {
			return errs.Validation("category %s belongs to another user", cid)
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO entry_categories (entry_id, category_id) VALUES (?, ?)`, entryID, cid,
		); err != nil {
			return errs.Database("link entry category", err)
		}
	}
	return nil
}

// ============================================================
// Transaction-scoped operations used by the sentiment pipeline
// ============================================================

// EntryContent returns the content of entry id.
func (t *Tx) EntryContent(ctx context.Context, id string) (string, error) {
	var content string
	err := t.tx.QueryRowContext(ctx, `SELECT content FROM entries WHERE id = ?`, id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errs.NotFound("entry", id)
	}
	if err != nil {
		return "", errs.Database("read entry content", err)
	}
	return content, nil
}

// UpsertEntryMetadata writes counts and sentiment for entry id, creating the
// metadata row if it does not exist yet.
func (t *Tx) UpsertEntryMetadata(ctx context.Context, id string, a Analysis) error {
	if !a.Mood.Valid() {
		return errs.Validation("unknown mood %q", a.Mood)
	}
	if a.Score < -1 || a.Score > 1 {
		return errs.Validation("sentiment score %v out of range", a.Score)
	}
	if a.WordCount < 0 || a.ReadingTime < 0 || a.Magnitude < 0 {
		return errs.Validation("negative counts are not allowed")
	}
	analyzedAt := a.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Now()
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO entry_metadata (entry_id, word_count, reading_time, sentiment_score, sentiment_magnitude, mood, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entry_id) DO UPDATE SET
			word_count = excluded.word_count,
			reading_time = excluded.reading_time,
			sentiment_score = excluded.sentiment_score,
			sentiment_magnitude = excluded.sentiment_magnitude,
			mood = excluded.mood,
			analyzed_at = excluded.analyzed_at`,
		id, a.WordCount, a.ReadingTime, a.Score, a.Magnitude, string(a.Mood), formatTime(analyzedAt),
	)
	if err != nil {
		return errs.Database("upsert entry metadata", err)
	}
	return nil
}
