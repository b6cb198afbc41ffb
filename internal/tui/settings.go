package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/inkwell/internal/analysis"
	"github.com/sadopc/inkwell/internal/store"
)

type settingsModel struct {
	deps   Deps
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	defaultWindow *string
	autoAnalyze   *bool
	enrichment    *bool
	themeCount    *string
}

func newSettingsModel(deps Deps) settingsModel {
	dw, tc := "", ""
	aa, en := true, false
	return settingsModel{
		deps:          deps,
		defaultWindow: &dw,
		autoAnalyze:   &aa,
		enrichment:    &en,
		themeCount:    &tc,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
	err      error
}

func (s settingsModel) refresh() tea.Cmd {
	st := s.deps.Store
	return func() tea.Msg {
		settings, err := st.GetAllSettings(context.Background())
		return settingsDataMsg{settings: settings, err: err}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		if msg.err != nil {
			return s, statusCmd(fmt.Sprintf("Load error: %v", msg.err), true)
		}
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.defaultWindow = s.getVal(store.SettingDefaultWindow, "week")
	*s.autoAnalyze = parseBool(s.getVal(store.SettingAutoAnalyze, "true"), true)
	*s.enrichment = parseBool(s.getVal(store.SettingEnrichment, "false"), false)
	*s.themeCount = s.getVal(store.SettingThemeCount, strconv.Itoa(analysis.DefaultThemeCount))

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Default analytics window").
				Options(
					huh.NewOption("Day", "day"),
					huh.NewOption("Week", "week"),
					huh.NewOption("Month", "month"),
					huh.NewOption("Year", "year"),
				).Value(s.defaultWindow),
			huh.NewConfirm().Title("Analyze entries automatically").Value(s.autoAnalyze),
		).Title("Journal"),
		huh.NewGroup(
			huh.NewConfirm().Title("AI enrichment (needs an OpenAI key)").Value(s.enrichment),
			huh.NewInput().Title("Key terms per entry").Value(s.themeCount).
				Validate(func(v string) error {
					if n, err := strconv.Atoi(v); err != nil || n < 1 {
						return errors.New("enter a whole number of at least 1")
					}
					return nil
				}),
		).Title("Analysis"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.saveSettings(); err != nil {
			return s, statusCmd(fmt.Sprintf("Save error: %v", err), true)
		}
		return s, tea.Batch(s.refresh(), statusCmd("Settings saved; analysis changes apply on restart", false))
	}
	return s, cmd
}

func (s settingsModel) saveSettings() error {
	ctx := context.Background()
	values := []store.Setting{
		{Key: store.SettingDefaultWindow, Value: *s.defaultWindow},
		{Key: store.SettingAutoAnalyze, Value: strconv.FormatBool(*s.autoAnalyze)},
		{Key: store.SettingEnrichment, Value: strconv.FormatBool(*s.enrichment)},
		{Key: store.SettingThemeCount, Value: *s.themeCount},
	}
	for _, v := range values {
		if err := s.deps.Store.SetSetting(ctx, v.Key, v.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s settingsModel) getVal(k, fallback string) string {
	return s.deps.Store.SettingOr(context.Background(), k, fallback)
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(settingLabels[setting.Key])
		if settingLabels[setting.Key] == "" {
			label = lipgloss.NewStyle().Width(24).Render(setting.Key)
		}
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

var settingLabels = map[string]string{
	store.SettingDefaultWindow: "Default window",
	store.SettingAutoAnalyze:   "Auto-analyze",
	store.SettingEnrichment:    "AI enrichment",
	store.SettingThemeCount:    "Key terms per entry",
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.SettingAutoAnalyze, store.SettingEnrichment:
		if b, err := strconv.ParseBool(v); err == nil {
			if b {
				return "on"
			}
			return "off"
		}
	case store.SettingThemeCount:
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d terms", n)
		}
	}
	return v
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
