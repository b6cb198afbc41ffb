package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/inkwell/internal/pipeline"
	"github.com/sadopc/inkwell/internal/store"
)

const journalPageSize = 100

type journalModel struct {
	deps   Deps
	width  int
	height int

	entries    []store.Entry
	categories []store.Category
	cursor     int

	// Detail pane for the selected entry.
	detail   bool
	viewport viewport.Model
	preview  pipeline.Result
	insights *pipeline.Insights

	formActive bool
	form       *huh.Form
	editingID  string

	// Form field pointers (survive value copies)
	formTitle      *string
	formContent    *string
	formCategories *[]string
}

func newJournalModel(deps Deps) journalModel {
	title, content := "", ""
	var cats []string
	return journalModel{
		deps:           deps,
		viewport:       viewport.New(0, 0),
		formTitle:      &title,
		formContent:    &content,
		formCategories: &cats,
	}
}

func (j *journalModel) setSize(w, h int) {
	j.width = w
	j.height = h
	j.viewport.Width = max(w-8, 10)
	j.viewport.Height = max(h-6, 3)
}

type journalDataMsg struct {
	entries    []store.Entry
	categories []store.Category
	err        error
}

type insightsLoadedMsg struct {
	entryID  string
	insights pipeline.Insights
	err      error
}

func (j journalModel) refresh() tea.Cmd {
	deps := j.deps
	return func() tea.Msg {
		ctx := context.Background()
		entries, err := deps.Store.ListEntries(ctx, store.EntryFilter{UserID: deps.UserID, Limit: journalPageSize})
		if err != nil {
			return journalDataMsg{err: err}
		}
		cats, err := deps.Store.ListCategories(ctx, deps.UserID)
		return journalDataMsg{entries: entries, categories: cats, err: err}
	}
}

// pending reports whether a listed entry is still waiting on the queue.
func (j journalModel) pending() bool {
	if j.deps.Queue == nil {
		return false
	}
	for _, e := range j.entries {
		if !e.Metadata.Analyzed() {
			return true
		}
	}
	return false
}

func (j journalModel) selected() (store.Entry, bool) {
	if j.cursor < 0 || j.cursor >= len(j.entries) {
		return store.Entry{}, false
	}
	return j.entries[j.cursor], true
}

func (j journalModel) update(msg tea.Msg) (journalModel, tea.Cmd) {
	if j.formActive && j.form != nil {
		return j.updateForm(msg)
	}

	switch msg := msg.(type) {
	case journalDataMsg:
		if msg.err != nil {
			return j, statusCmd(fmt.Sprintf("Load error: %v", msg.err), true)
		}
		j.entries = msg.entries
		j.categories = msg.categories
		if j.cursor >= len(j.entries) {
			j.cursor = max(0, len(j.entries)-1)
		}
		if j.detail {
			j.syncDetail()
		}
		return j, nil

	case entrySavedMsg:
		for i, e := range j.entries {
			if e.ID == msg.entry.ID {
				j.cursor = i
			}
		}
		return j, j.refresh()

	case entryAnalyzedMsg:
		return j, j.refresh()

	case insightsLoadedMsg:
		e, ok := j.selected()
		if !j.detail || !ok || e.ID != msg.entryID {
			return j, nil
		}
		if msg.err != nil {
			return j, statusCmd(fmt.Sprintf("Insights error: %v", msg.err), true)
		}
		j.insights = &msg.insights
		j.syncDetail()
		return j, nil

	case tea.KeyMsg:
		if j.detail {
			return j.updateDetail(msg)
		}
		return j.updateList(msg)
	}
	return j, nil
}

func (j journalModel) updateList(msg tea.KeyMsg) (journalModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if j.cursor > 0 {
			j.cursor--
		}
	case key.Matches(msg, keys.Down):
		if j.cursor < len(j.entries)-1 {
			j.cursor++
		}
	case key.Matches(msg, keys.Enter):
		return j.openDetail()
	case key.Matches(msg, keys.New):
		return j.showForm(nil)
	case key.Matches(msg, keys.Edit):
		if e, ok := j.selected(); ok {
			return j.showForm(&e)
		}
	case key.Matches(msg, keys.Delete):
		if e, ok := j.selected(); ok {
			return j, j.deleteEntry(e.ID)
		}
	case key.Matches(msg, keys.Analyze):
		if e, ok := j.selected(); ok {
			return j, j.analyze(e.ID)
		}
	}
	return j, nil
}

func (j journalModel) updateDetail(msg tea.KeyMsg) (journalModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Quit):
		j.detail = false
		j.insights = nil
		return j, nil
	case key.Matches(msg, keys.Analyze):
		if e, ok := j.selected(); ok {
			return j, j.analyze(e.ID)
		}
	case key.Matches(msg, keys.Edit):
		if e, ok := j.selected(); ok {
			j.detail = false
			j.insights = nil
			return j.showForm(&e)
		}
	}
	var cmd tea.Cmd
	j.viewport, cmd = j.viewport.Update(msg)
	return j, cmd
}

func (j journalModel) openDetail() (journalModel, tea.Cmd) {
	e, ok := j.selected()
	if !ok {
		return j, nil
	}
	j.detail = true
	j.insights = nil
	j.syncDetail()
	j.viewport.GotoTop()
	return j, j.loadInsights(e.ID)
}

// syncDetail re-renders the detail pane for the selected entry.
func (j *journalModel) syncDetail() {
	e, ok := j.selected()
	if !ok {
		j.detail = false
		return
	}
	j.preview = j.deps.Pipeline.Preview(e.Content)
	j.viewport.SetContent(j.renderDetailBody(e))
}

func (j journalModel) loadInsights(id string) tea.Cmd {
	p := j.deps.Pipeline
	return func() tea.Msg {
		ins, err := p.Insights(context.Background(), id)
		return insightsLoadedMsg{entryID: id, insights: ins, err: err}
	}
}

func (j journalModel) analyze(id string) tea.Cmd {
	p := j.deps.Pipeline
	return func() tea.Msg {
		res, err := p.Analyze(context.Background(), id)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Analyze error: %v", err), isError: true}
		}
		return entryAnalyzedMsg{id: id, mood: res.Mood}
	}
}

func (j journalModel) deleteEntry(id string) tea.Cmd {
	st := j.deps.Store
	return func() tea.Msg {
		if err := st.DeleteEntry(context.Background(), id); err != nil {
			return statusMsg{text: fmt.Sprintf("Delete error: %v", err), isError: true}
		}
		return entryDeletedMsg{}
	}
}

// save creates or updates an entry and schedules analysis when the content
// is new or changed.
func (j journalModel) save(id, title, content string, cats []string) tea.Cmd {
	deps := j.deps
	return func() tea.Msg {
		ctx := context.Background()

		var (
			e       *store.Entry
			err     error
			changed = true
		)
		if id == "" {
			e, err = deps.Store.CreateEntry(ctx, store.NewEntry{
				UserID:      deps.UserID,
				Title:       title,
				Content:     content,
				CategoryIDs: cats,
			})
		} else {
			var before *store.Entry
			if before, err = deps.Store.GetEntry(ctx, id); err == nil {
				changed = before.Content != content
				e, err = deps.Store.UpdateEntry(ctx, id, store.EntryUpdate{
					Title:       &title,
					Content:     &content,
					CategoryIDs: &cats,
				})
			}
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Save error: %v", err), isError: true}
		}

		queued := false
		if changed {
			switch {
			case deps.Queue != nil:
				queued = deps.Queue.Enqueue(e.ID)
			case deps.Store.BoolSetting(ctx, store.SettingAutoAnalyze, true):
				if _, err := deps.Pipeline.Analyze(ctx, e.ID); err != nil {
					deps.Log.WithError(err).WithField("entry_id", e.ID).Warn("analysis failed")
				}
			}
		}
		return entrySavedMsg{entry: e, queued: queued}
	}
}

func (j journalModel) showForm(e *store.Entry) (journalModel, tea.Cmd) {
	*j.formTitle = ""
	*j.formContent = ""
	*j.formCategories = nil
	j.editingID = ""
	if e != nil {
		j.editingID = e.ID
		*j.formTitle = e.Title
		*j.formContent = e.Content
		for _, c := range e.Categories {
			*j.formCategories = append(*j.formCategories, c.ID)
		}
	}

	fields := []huh.Field{
		huh.NewInput().Title("Title").Value(j.formTitle),
		huh.NewText().Title("Entry").Lines(8).Value(j.formContent).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("write something first")
				}
				return nil
			}),
	}
	if len(j.categories) > 0 {
		opts := make([]huh.Option[string], len(j.categories))
		for i, c := range j.categories {
			dot := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("●")
			opts[i] = huh.NewOption(fmt.Sprintf("%s %s", dot, c.Name), c.ID)
		}
		fields = append(fields, huh.NewMultiSelect[string]().Title("Categories").Options(opts...).Value(j.formCategories))
	}

	j.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	j.formActive = true
	return j, j.form.Init()
}

func (j journalModel) updateForm(msg tea.Msg) (journalModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			j.formActive = false
			j.form = nil
			return j, nil
		}
	}

	form, cmd := j.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		j.form = f
	}

	if j.form.State == huh.StateCompleted {
		j.formActive = false
		j.form = nil
		cats := append([]string(nil), *j.formCategories...)
		return j, j.save(j.editingID, strings.TrimSpace(*j.formTitle), *j.formContent, cats)
	}
	return j, cmd
}

func (j journalModel) view() string {
	w := j.width - 4

	if j.formActive && j.form != nil {
		title := titleStyle.Render("New Entry")
		if j.editingID != "" {
			title = titleStyle.Render("Edit Entry")
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", j.form.View()))
	}

	if j.detail {
		e, _ := j.selected()
		header := titleStyle.Render(entryTitle(e, max(w-10, 10)))
		nav := mutedStyle.Render("  ↑/↓: scroll  a: re-analyze  e: edit  esc: back")
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", j.viewport.View(), "", nav),
		)
	}
	return j.renderList(w)
}

func (j journalModel) renderList(w int) string {
	title := titleStyle.Render("Journal")

	if len(j.entries) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No entries yet. Press n to write one."),
		))
	}

	titleWidth := max(w-52, 12)
	rows := []string{
		title,
		"",
		mutedStyle.Render(fmt.Sprintf("  %-16s %-*s %6s  %s", "Date", titleWidth, "Title", "Words", "Mood")),
	}

	visible := max(j.height-8, 1)
	start := 0
	if j.cursor >= visible {
		start = j.cursor - visible + 1
	}
	end := min(start+visible, len(j.entries))

	for i := start; i < end; i++ {
		e := j.entries[i]
		cursor := "  "
		style := normalItemStyle
		if i == j.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		words := 0
		if e.Metadata != nil {
			words = e.Metadata.WordCount
		}
		line := style.Render(fmt.Sprintf("%s%-16s %-*s %6d  ",
			cursor, e.CreatedAt.Local().Format("2006-01-02 15:04"), titleWidth, entryTitle(e, titleWidth), words))
		rows = append(rows, line+renderMood(e.Metadata))
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  e: edit  a: analyze  d: delete  enter: open"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (j journalModel) renderDetailBody(e store.Entry) string {
	width := max(j.viewport.Width, 10)
	wrap := lipgloss.NewStyle().Width(width)
	var b strings.Builder

	meta := []string{e.CreatedAt.Local().Format("Mon Jan 2 2006, 15:04")}
	if m := e.Metadata; m != nil {
		meta = append(meta, fmt.Sprintf("%d words", m.WordCount), fmt.Sprintf("%d min read", m.ReadingTime))
	}
	b.WriteString(mutedStyle.Render(strings.Join(meta, " · ")) + "\n")
	if len(e.Categories) > 0 {
		var tags []string
		for _, c := range e.Categories {
			tags = append(tags, lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("● "+c.Name))
		}
		b.WriteString(strings.Join(tags, "  ") + "\n")
	}
	b.WriteString("Mood: " + renderMood(e.Metadata) + "\n\n")
	b.WriteString(wrap.Render(e.Content) + "\n\n")

	if len(j.preview.Sentences) > 1 {
		b.WriteString(titleStyle.Render("Sentences") + "\n")
		for _, s := range j.preview.Sentences {
			score := formatScore(s.Score)
			switch {
			case s.Score > 0:
				score = successStyle.Render(score)
			case s.Score < 0:
				score = errorStyle.Render(score)
			default:
				score = mutedStyle.Render(score)
			}
			b.WriteString(fmt.Sprintf("  %s  %s\n", score, truncate(s.Content, max(width-10, 10))))
		}
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render("Insights") + "\n")
	if j.insights == nil {
		b.WriteString(mutedStyle.Render("  loading…") + "\n")
		return b.String()
	}
	ins := j.insights
	r := ins.Readability
	b.WriteString(fmt.Sprintf("  Readability  %s (complexity %.1f)\n", highlightStyle.Render(fmt.Sprintf("%.1f", r.Score)), r.Complexity))
	b.WriteString(fmt.Sprintf("  Sentences    %d, avg %.1f words\n", r.SentenceCount, r.AvgSentenceLength))
	if len(ins.Terms) > 0 {
		b.WriteString("  Key terms    " + accentStyle.Render(strings.Join(ins.Terms, ", ")) + "\n")
	}
	if len(ins.Themes) > 0 {
		b.WriteString("  Themes       " + strings.Join(ins.Themes, ", ") + "\n")
	}
	for _, s := range r.Suggestions {
		b.WriteString(wrap.Render(warningStyle.Render("  ! ")+s) + "\n")
	}
	if len(ins.Corrections) > 0 {
		b.WriteString("\n" + titleStyle.Render("Corrections") + "\n")
		for _, c := range ins.Corrections {
			b.WriteString(wrap.Render(fmt.Sprintf("  %s → %s  %s", c.Original, successStyle.Render(c.Suggestion), mutedStyle.Render(c.Reason))) + "\n")
		}
	}
	if len(ins.Completions) > 0 {
		b.WriteString("\n" + titleStyle.Render("Keep writing") + "\n")
		for _, c := range ins.Completions {
			b.WriteString(wrap.Render("  · "+c) + "\n")
		}
	}
	return b.String()
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isError: isError}
	}
}
