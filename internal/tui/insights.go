package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/inkwell/internal/analysis"
	"github.com/sadopc/inkwell/internal/analytics"
)

type insightsModel struct {
	deps   Deps
	width  int
	height int

	window  analytics.Window
	summary *analytics.Summary

	monthChart barchart.Model
	hourChart  barchart.Model
}

func newInsightsModel(deps Deps) insightsModel {
	return insightsModel{
		deps:       deps,
		window:     deps.DefaultWindow,
		monthChart: barchart.New(60, 10),
		hourChart:  barchart.New(60, 10),
	}
}

func (m *insightsModel) setSize(w, h int) {
	m.width = w
	m.height = h
	if m.summary != nil {
		m.buildCharts()
	}
}

type insightsDataMsg struct {
	summary *analytics.Summary
	err     error
}

func (m insightsModel) refresh() tea.Cmd {
	deps, w := m.deps, m.window
	return func() tea.Msg {
		sum, err := deps.Analytics.Summary(context.Background(), analytics.Query{UserID: deps.UserID, Window: w})
		return insightsDataMsg{summary: sum, err: err}
	}
}

func (m insightsModel) update(msg tea.Msg) (insightsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case insightsDataMsg:
		if msg.err != nil {
			return m, statusCmd(fmt.Sprintf("Analytics error: %v", msg.err), true)
		}
		m.summary = msg.summary
		m.buildCharts()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			m.window = shiftWindow(m.window, -1)
			return m, m.refresh()
		case key.Matches(msg, keys.Right):
			m.window = shiftWindow(m.window, 1)
			return m, m.refresh()
		}
	}
	return m, nil
}

// shiftWindow steps through day, week, month and year, stopping at the ends.
func shiftWindow(w analytics.Window, step int) analytics.Window {
	i := slices.Index(analytics.Windows, w)
	if i < 0 {
		return analytics.Week
	}
	i = min(max(i+step, 0), len(analytics.Windows)-1)
	return analytics.Windows[i]
}

func (m *insightsModel) buildCharts() {
	chartWidth := max((m.width-12)/2, 20)
	chartHeight := 10
	if m.height > 36 {
		chartHeight = 14
	}

	m.monthChart = barchart.New(chartWidth, chartHeight)
	var months []barchart.BarData
	for _, a := range m.summary.MonthlyActivity {
		label := a.Month
		if t, err := time.Parse("2006-01", a.Month); err == nil {
			label = t.Format("Jan")
		}
		months = append(months, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  a.Month,
				Value: float64(a.WordCount),
				Style: lipgloss.NewStyle().Foreground(colorPrimary),
			}},
		})
	}
	if len(months) > 0 {
		m.monthChart.PushAll(months)
	}
	m.monthChart.Draw()

	m.hourChart = barchart.New(chartWidth, chartHeight)
	var hours []barchart.BarData
	for _, a := range m.summary.TimeOfDay {
		label := ""
		if a.Hour%6 == 0 {
			label = fmt.Sprintf("%02d", a.Hour)
		}
		hours = append(hours, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  fmt.Sprintf("%02d:00", a.Hour),
				Value: float64(a.Entries),
				Style: lipgloss.NewStyle().Foreground(colorSecondary),
			}},
		})
	}
	if len(hours) > 0 {
		m.hourChart.PushAll(hours)
	}
	m.hourChart.Draw()
}

func (m insightsModel) view() string {
	w := m.width - 4

	var tabs []string
	for _, win := range analytics.Windows {
		name := strings.ToUpper(string(win[:1])) + string(win[1:])
		if win == m.window {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Insights"), "  ", lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...),
	)
	nav := mutedStyle.Render("  ←/→: change window")

	if m.summary == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("  Loading…"), "", nav))
	}
	s := m.summary

	dateLabel := mutedStyle.Render(fmt.Sprintf("  %s – %s",
		s.Start.Local().Format("Jan 02"), s.End.Local().Format("Jan 02, 2006")))

	stats := lipgloss.JoinVertical(lipgloss.Left,
		statLine("Entries", fmt.Sprintf("%d", s.TotalEntries)),
		statLine("Words", fmt.Sprintf("%d", s.TotalWordCount)),
		statLine("Words / entry", fmt.Sprintf("%.1f", s.AverageWordsPerEntry)),
		statLine("Words / day", fmt.Sprintf("%.1f", s.AverageWordsPerDay)),
		statLine("Streak", fmt.Sprintf("%d days", s.WritingStreak)),
		statLine("Longest", longestLabel(s.LongestEntry)),
	)
	moods := m.renderMoods()
	top := lipgloss.JoinHorizontal(lipgloss.Top, stats, "    ", moods)

	charts := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, subtitleStyle.Render("Words by month"), m.monthChart.View()),
		"    ",
		lipgloss.JoinVertical(lipgloss.Left, subtitleStyle.Render("Entries by hour"), m.hourChart.View()),
	)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		header, dateLabel, "", top, "", charts, "", m.renderCategories(), nav,
	))
}

func statLine(label, value string) string {
	return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(14).Foreground(colorMuted).Render(label), highlightStyle.Render(value))
}

func longestLabel(l *analytics.LongestEntry) string {
	if l == nil {
		return "-"
	}
	title := l.Title
	if title == "" {
		title = l.CreatedAt.Local().Format("Jan 02")
	}
	return fmt.Sprintf("%s (%d words)", truncate(title, 24), l.WordCount)
}

func (m insightsModel) renderMoods() string {
	s := m.summary.Sentiment
	if s == nil {
		return mutedStyle.Render("No analyzed entries in this window")
	}
	rows := []string{fmt.Sprintf("Average mood %s over %d entries", formatScore(s.Average), s.Analyzed)}
	for _, mood := range analysis.Moods {
		n := s.Distribution[mood]
		bar := strings.Repeat("■", n)
		rows = append(rows, fmt.Sprintf("%-14s %3d %s", moodLabel(mood), n, moodStyle(mood).Render(bar)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m insightsModel) renderCategories() string {
	cats := m.summary.CategoryDistribution
	if len(cats) == 0 {
		return ""
	}
	var items []string
	for _, c := range cats {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("●")
		items = append(items, fmt.Sprintf("%s %s %d", dot, c.Name, c.EntryCount))
	}
	return "  " + strings.Join(items, "  ") + "\n"
}
