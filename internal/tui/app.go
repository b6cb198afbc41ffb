// Package tui is the terminal interface for the journal.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/inkwell/internal/analytics"
	"github.com/sadopc/inkwell/internal/export"
	"github.com/sadopc/inkwell/internal/logging"
	"github.com/sadopc/inkwell/internal/pipeline"
	"github.com/sadopc/inkwell/internal/store"
)

// Deps are the components the views read from and write to. Queue may be
// nil, in which case new entries are analyzed inline.
type Deps struct {
	Store         *store.Store
	Pipeline      *pipeline.Pipeline
	Analytics     *analytics.Aggregator
	Queue         *pipeline.Queue
	UserID        string
	DefaultWindow analytics.Window
	Log           logrus.FieldLogger
	ExportDir     string
}

// App is the root Bubble Tea model.
type App struct {
	deps   Deps
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	journal    journalModel
	categories categoriesModel
	insights   insightsModel
	settings   settingsModel

	help   help.Model
	status string
}

func NewApp(deps Deps) App {
	if deps.Log == nil {
		deps.Log = logging.Discard()
	}
	if deps.DefaultWindow == "" {
		deps.DefaultWindow = analytics.Week
	}
	if deps.ExportDir == "" {
		deps.ExportDir, _ = os.UserHomeDir()
	}

	h := help.New()
	h.ShowAll = false

	return App{
		deps:       deps,
		activeView: viewJournal,
		journal:    newJournalModel(deps),
		categories: newCategoriesModel(deps),
		insights:   newInsightsModel(deps),
		settings:   newSettingsModel(deps),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.journal.refresh(),
		tickCmd(),
	)
}

// tickCmd drives the journal's reload while background analysis is pending.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.journal.setSize(a.width, contentHeight)
		a.categories.setSize(a.width, contentHeight)
		a.insights.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A child view capturing input (form, detail pane) gets keys first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewJournal
			return a, a.journal.refresh()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewCategories
			return a, a.categories.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewInsights
			return a, a.insights.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.activeView == viewJournal && a.journal.pending() {
			cmds = append(cmds, a.journal.refresh())
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		if msg.isError {
			a.deps.Log.Warn(msg.text)
		}
		return a, nil

	case entrySavedMsg:
		a.status = "Entry saved"
		if msg.queued {
			a.status = "Entry saved, analyzing…"
		}
		var cmd tea.Cmd
		a.journal, cmd = a.journal.update(msg)
		return a, cmd

	case entryAnalyzedMsg:
		a.status = "Mood: " + moodLabel(msg.mood)
		var cmd tea.Cmd
		a.journal, cmd = a.journal.update(msg)
		return a, cmd

	case entryDeletedMsg:
		a.status = "Entry deleted"
		return a, a.journal.refresh()

	case exportDoneMsg:
		a.status = fmt.Sprintf("Exported %d entries to %s", msg.count, msg.path)
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewJournal:
		a.journal, cmd = a.journal.update(msg)
	case viewCategories:
		a.categories, cmd = a.categories.update(msg)
	case viewInsights:
		a.insights, cmd = a.insights.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewJournal:
		return a.journal.formActive || a.journal.detail
	case viewCategories:
		return a.categories.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewJournal:
		return a.journal.refresh()
	case viewCategories:
		return a.categories.refresh()
	case viewInsights:
		return a.insights.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewJournal:
		content = a.journal.view()
	case viewCategories:
		content = a.categories.view()
	case viewInsights:
		content = a.insights.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("inkwell")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	left := footerStyle.Render(helpView)
	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(status)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Entries"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	deps := a.deps
	return func() tea.Msg {
		entries, err := deps.Store.ListEntries(context.Background(), store.EntryFilter{UserID: deps.UserID})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		dateStr := time.Now().Format("2006-01-02")
		var path string
		if format == 0 {
			path = filepath.Join(deps.ExportDir, fmt.Sprintf("inkwell-export-%s.csv", dateStr))
			err = export.ToCSV(entries, path)
		} else {
			path = filepath.Join(deps.ExportDir, fmt.Sprintf("inkwell-export-%s.json", dateStr))
			err = export.ToJSON(entries, path)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		deps.Log.WithFields(logrus.Fields{"path": path, "entries": len(entries)}).Info("export written")
		return exportDoneMsg{path: path, count: len(entries)}
	}
}
