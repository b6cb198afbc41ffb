package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/inkwell/internal/store"
)

var categoryColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

type categoriesModel struct {
	deps   Deps
	width  int
	height int

	categories []store.Category
	cursor     int

	formActive bool
	form       *huh.Form
	editingID  string

	formName  *string
	formColor *string
}

func newCategoriesModel(deps Deps) categoriesModel {
	name, color := "", categoryColors[0]
	return categoriesModel{
		deps:      deps,
		formName:  &name,
		formColor: &color,
	}
}

func (c *categoriesModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

type categoriesDataMsg struct {
	categories []store.Category
	err        error
}

func (c categoriesModel) refresh() tea.Cmd {
	deps := c.deps
	return func() tea.Msg {
		cats, err := deps.Store.ListCategories(context.Background(), deps.UserID)
		return categoriesDataMsg{categories: cats, err: err}
	}
}

func (c categoriesModel) update(msg tea.Msg) (categoriesModel, tea.Cmd) {
	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	switch msg := msg.(type) {
	case categoriesDataMsg:
		if msg.err != nil {
			return c, statusCmd(fmt.Sprintf("Load error: %v", msg.err), true)
		}
		c.categories = msg.categories
		if c.cursor >= len(c.categories) {
			c.cursor = max(0, len(c.categories)-1)
		}
		return c, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if c.cursor > 0 {
				c.cursor--
			}
		case key.Matches(msg, keys.Down):
			if c.cursor < len(c.categories)-1 {
				c.cursor++
			}
		case key.Matches(msg, keys.New):
			return c.showForm(nil)
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			if len(c.categories) > 0 {
				cat := c.categories[c.cursor]
				return c.showForm(&cat)
			}
		case key.Matches(msg, keys.Delete):
			if len(c.categories) > 0 {
				return c, c.deleteCategory(c.categories[c.cursor])
			}
		}
	}
	return c, nil
}

func (c categoriesModel) deleteCategory(cat store.Category) tea.Cmd {
	st := c.deps.Store
	return tea.Sequence(
		func() tea.Msg {
			if err := st.DeleteCategory(context.Background(), cat.ID); err != nil {
				return statusMsg{text: fmt.Sprintf("Delete error: %v", err), isError: true}
			}
			return statusMsg{text: "Deleted category " + cat.Name}
		},
		c.refresh(),
	)
}

func (c categoriesModel) showForm(cat *store.Category) (categoriesModel, tea.Cmd) {
	*c.formName = ""
	*c.formColor = categoryColors[0]
	c.editingID = ""
	if cat != nil {
		c.editingID = cat.ID
		*c.formName = cat.Name
		*c.formColor = cat.Color
	}

	colorOptions := make([]huh.Option[string], 0, len(categoryColors)+1)
	for _, col := range categoryColors {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(col)).Render("●")
		colorOptions = append(colorOptions, huh.NewOption(fmt.Sprintf("%s %s", dot, col), col))
	}
	if cat != nil && !containsColor(cat.Color) {
		colorOptions = append(colorOptions, huh.NewOption(cat.Color, cat.Color))
	}

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Category Name").Value(c.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(c.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func containsColor(col string) bool {
	for _, c := range categoryColors {
		if strings.EqualFold(c, col) {
			return true
		}
	}
	return false
}

func (c categoriesModel) updateForm(msg tea.Msg) (categoriesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			c.formActive = false
			c.form = nil
			return c, nil
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateCompleted {
		c.formActive = false
		c.form = nil
		return c, tea.Sequence(c.save(c.editingID, strings.TrimSpace(*c.formName), *c.formColor), c.refresh())
	}
	return c, cmd
}

func (c categoriesModel) save(id, name, color string) tea.Cmd {
	deps := c.deps
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		if id == "" {
			_, err = deps.Store.CreateCategory(ctx, deps.UserID, name, color)
		} else {
			err = deps.Store.UpdateCategory(ctx, id, name, color)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Save error: %v", err), isError: true}
		}
		return statusMsg{text: "Saved category " + name}
	}
}

func (c categoriesModel) view() string {
	w := c.width - 4

	if c.formActive && c.form != nil {
		title := titleStyle.Render("New Category")
		if c.editingID != "" {
			title = titleStyle.Render("Edit Category")
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", c.form.View()))
	}

	title := titleStyle.Render("Categories")
	if len(c.categories) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No categories yet. Press n to create one."),
		))
	}

	rows := []string{
		title,
		"",
		mutedStyle.Render(fmt.Sprintf("  %-3s %-24s %8s", "", "Name", "Entries")),
	}
	for i, cat := range c.categories {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(cat.Color)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == c.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %-24s %8d", cursor, dot, cat.Name, cat.EntryCount)))
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  e: edit  d: delete"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
