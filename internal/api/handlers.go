package api

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sadopc/inkwell/internal/analytics"
	"github.com/sadopc/inkwell/internal/errs"
	"github.com/sadopc/inkwell/internal/store"
)

type createEntryInput struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	CategoryIDs []string   `json:"categoryIds"`
	CreatedAt   *time.Time `json:"createdAt"`
}

type updateEntryInput struct {
	Title       *string   `json:"title"`
	Content     *string   `json:"content"`
	CategoryIDs *[]string `json:"categoryIds"`
}

type createCategoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type previewInput struct {
	Text string `json:"text"`
}

// ============================================================
// Entries
// ============================================================

func (s *Server) handleListEntries(c *fiber.Ctx) error {
	f := store.EntryFilter{UserID: s.cfg.UserID, Limit: c.QueryInt("limit", 0)}
	if cat := c.Query("category"); cat != "" {
		f.CategoryID = &cat
	}
	var err error
	if f.From, err = parseDate(c.Query("from")); err != nil {
		return err
	}
	if f.To, err = parseDate(c.Query("to")); err != nil {
		return err
	}

	items, err := s.deps.Store.ListEntries(c.UserContext(), f)
	if err != nil {
		return err
	}
	if items == nil {
		items = []store.Entry{}
	}
	return c.JSON(fiber.Map{"data": items, "meta": fiber.Map{"count": len(items)}})
}

func (s *Server) handleCreateEntry(c *fiber.Ctx) error {
	var payload createEntryInput
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	in := store.NewEntry{
		UserID:      s.cfg.UserID,
		Title:       payload.Title,
		Content:     payload.Content,
		CategoryIDs: payload.CategoryIDs,
	}
	if payload.CreatedAt != nil {
		in.CreatedAt = *payload.CreatedAt
	}
	e, err := s.deps.Store.CreateEntry(c.UserContext(), in)
	if err != nil {
		return err
	}
	s.enqueue(e.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": e})
}

func (s *Server) handleGetEntry(c *fiber.Ctx) error {
	e, err := s.ownEntry(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": e})
}

func (s *Server) handleUpdateEntry(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var payload updateEntryInput
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	before, err := s.ownEntry(ctx, c.Params("id"))
	if err != nil {
		return err
	}

	e, err := s.deps.Store.UpdateEntry(ctx, before.ID, store.EntryUpdate{
		Title:       payload.Title,
		Content:     payload.Content,
		CategoryIDs: payload.CategoryIDs,
	})
	if err != nil {
		return err
	}
	if payload.Content != nil && *payload.Content != before.Content {
		s.enqueue(e.ID)
	}
	return c.JSON(fiber.Map{"data": e})
}

func (s *Server) handleDeleteEntry(c *fiber.Ctx) error {
	ctx := c.UserContext()
	e, err := s.ownEntry(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	if err := s.deps.Store.DeleteEntry(ctx, e.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleAnalyzeEntry(c *fiber.Ctx) error {
	ctx := c.UserContext()
	e, err := s.ownEntry(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	res, err := s.deps.Analyzer.Analyze(ctx, e.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": res})
}

func (s *Server) handleInsights(c *fiber.Ctx) error {
	ctx := c.UserContext()
	e, err := s.ownEntry(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	ins, err := s.deps.Analyzer.Insights(ctx, e.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ins})
}

func (s *Server) handlePreview(c *fiber.Ctx) error {
	var payload previewInput
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	return c.JSON(fiber.Map{"data": s.deps.Analyzer.Preview(payload.Text)})
}

// ============================================================
// Analytics
// ============================================================

func (s *Server) handleAnalytics(c *fiber.Ctx) error {
	w := s.cfg.DefaultWindow
	if q := c.Query("window"); q != "" {
		var err error
		if w, err = analytics.ParseWindow(q); err != nil {
			return err
		}
	}
	sum, err := s.deps.Analytics.Summary(c.UserContext(), analytics.Query{
		UserID:     s.cfg.UserID,
		Window:     w,
		CategoryID: c.Query("category"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sum, "meta": fiber.Map{"window": w}})
}

// ============================================================
// Categories
// ============================================================

func (s *Server) handleListCategories(c *fiber.Ctx) error {
	items, err := s.deps.Store.ListCategories(c.UserContext(), s.cfg.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": items, "meta": fiber.Map{"count": len(items)}})
}

func (s *Server) handleCreateCategory(c *fiber.Ctx) error {
	var payload createCategoryInput
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	cat, err := s.deps.Store.CreateCategory(c.UserContext(), s.cfg.UserID, payload.Name, payload.Color)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": cat})
}

func (s *Server) handleDeleteCategory(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")
	cat, err := s.deps.Store.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if cat.UserID != s.cfg.UserID {
		return errs.NotFound("category", id)
	}
	if err := s.deps.Store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ============================================================
// Helpers
// ============================================================

// ownEntry loads id and hides entries of other users as missing.
func (s *Server) ownEntry(ctx context.Context, id string) (*store.Entry, error) {
	e, err := s.deps.Store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID != s.cfg.UserID {
		return nil, errs.NotFound("entry", id)
	}
	return e, nil
}

func (s *Server) enqueue(id string) {
	if s.deps.Queue == nil {
		return
	}
	if !s.deps.Queue.Enqueue(id) {
		s.log.WithField("entry_id", id).Warn("analysis not scheduled")
	}
}

// parseDate accepts YYYY-MM-DD (local midnight) or RFC3339.
func parseDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, errs.Validation("invalid date %q (want YYYY-MM-DD or RFC3339)", v)
	}
	return &t, nil
}
