package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/inkwell/internal/store"
)

func newEntriesCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Manage journal entries",
		Long:  `Create, list, update, delete and analyze journal entries.`,
	}
	cmd.AddCommand(
		newEntryCreateCmd(o),
		newEntryListCmd(o),
		newEntryGetCmd(o),
		newEntryUpdateCmd(o),
		newEntryDeleteCmd(o),
		newEntryAnalyzeCmd(o),
		newEntryInsightsCmd(o),
	)
	return cmd
}

func newEntryCreateCmd(o *options) *cobra.Command {
	var (
		title      string
		content    string
		categories []string
		noAnalyze  bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new entry",
		Long:  `Create an entry. Pass --content - to read the body from stdin.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			body, err := readContent(cmd.InOrStdin(), content)
			if err != nil {
				return err
			}

			a, err := o.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.store.CreateEntry(ctx, store.NewEntry{
				UserID:      a.user.ID,
				Title:       title,
				Content:     body,
				CategoryIDs: categories,
			})
			if err != nil {
				return fmt.Errorf("create entry: %w", err)
			}
			if !noAnalyze && a.store.BoolSetting(ctx, store.SettingAutoAnalyze, true) {
				if _, err := a.pipeline.Analyze(ctx, e.ID); err != nil {
					a.log.WithError(err).WithField("entry_id", e.ID).Warn("analysis failed")
				} else if e, err = a.store.GetEntry(ctx, e.ID); err != nil {
					return err
				}
			}
			return printEntry(cmd.OutOrStdout(), e, asJSON)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "entry title")
	cmd.Flags().StringVar(&content, "content", "", "entry body, or - for stdin")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "category id (repeatable)")
	cmd.Flags().BoolVar(&noAnalyze, "no-analyze", false, "skip sentiment analysis")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newEntryListCmd(o *options) *cobra.Command {
	var (
		limit    int
		category string
		from, to string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			f := store.EntryFilter{UserID: a.user.ID, Limit: limit}
			if category != "" {
				f.CategoryID = &category
			}
			if f.From, err = parseDay(from); err != nil {
				return err
			}
			if f.To, err = parseDay(to); err != nil {
				return err
			}

			entries, err := a.store.ListEntries(ctx, f)
			if err != nil {
				return fmt.Errorf("list entries: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entries found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), entriesTable(entries))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries (0 for all)")
	cmd.Flags().StringVar(&category, "category", "", "only entries in this category")
	cmd.Flags().StringVar(&from, "from", "", "only entries on or after this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "only entries before this day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newEntryGetCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get [entry-id]",
		Short: "Show an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.ownEntry(ctx, args[0])
			if err != nil {
				return err
			}
			return printEntry(cmd.OutOrStdout(), e, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newEntryUpdateCmd(o *options) *cobra.Command {
	var (
		title      string
		content    string
		categories []string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "update [entry-id]",
		Short: "Change an entry's title, content or categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			before, err := a.ownEntry(ctx, args[0])
			if err != nil {
				return err
			}

			var upd store.EntryUpdate
			if cmd.Flags().Changed("title") {
				upd.Title = &title
			}
			if cmd.Flags().Changed("content") {
				body, err := readContent(cmd.InOrStdin(), content)
				if err != nil {
					return err
				}
				upd.Content = &body
			}
			if cmd.Flags().Changed("category") {
				upd.CategoryIDs = &categories
			}

			e, err := a.store.UpdateEntry(ctx, before.ID, upd)
			if err != nil {
				return fmt.Errorf("update entry: %w", err)
			}
			if upd.Content != nil && *upd.Content != before.Content && a.store.BoolSetting(ctx, store.SettingAutoAnalyze, true) {
				if _, err := a.pipeline.Analyze(ctx, e.ID); err != nil {
					a.log.WithError(err).WithField("entry_id", e.ID).Warn("analysis failed")
				} else if e, err = a.store.GetEntry(ctx, e.ID); err != nil {
					return err
				}
			}
			return printEntry(cmd.OutOrStdout(), e, asJSON)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new body, or - for stdin")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "replace categories (repeatable; empty clears)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newEntryDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [entry-id]",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.ownEntry(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteEntry(ctx, e.ID); err != nil {
				return fmt.Errorf("delete entry: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %s\n", e.ID)
			return nil
		},
	}
}

func newEntryAnalyzeCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze [entry-id]",
		Short: "Score an entry's sentiment and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.ownEntry(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := a.pipeline.Analyze(ctx, e.ID)
			if err != nil {
				return fmt.Errorf("analyze entry: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Mood:      %s\n", res.Mood)
			fmt.Fprintf(w, "Score:     %.3f\n", res.Score)
			fmt.Fprintf(w, "Magnitude: %.1f\n", res.Magnitude)
			for _, s := range res.Sentences {
				fmt.Fprintf(w, "  %+.2f  %s\n", s.Score, truncate(s.Content, 60))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newEntryInsightsCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "insights [entry-id]",
		Short: "Readability, key terms and writing suggestions for an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.ownEntry(ctx, args[0])
			if err != nil {
				return err
			}
			ins, err := a.pipeline.Insights(ctx, e.ID)
			if err != nil {
				return fmt.Errorf("entry insights: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), ins)
			}

			w := cmd.OutOrStdout()
			r := ins.Readability
			fmt.Fprintf(w, "Readability: %.1f (complexity %.1f)\n", r.Score, r.Complexity)
			fmt.Fprintf(w, "Sentences:   %d, words: %d, avg sentence: %.1f words\n", r.SentenceCount, r.WordCount, r.AvgSentenceLength)
			fmt.Fprintf(w, "Key terms:   %s\n", strings.Join(ins.Terms, ", "))
			if len(ins.Themes) > 0 {
				fmt.Fprintf(w, "Themes:      %s\n", strings.Join(ins.Themes, ", "))
			}
			for _, s := range r.Suggestions {
				fmt.Fprintf(w, "Suggestion:  %s\n", s)
			}
			for _, c := range ins.Corrections {
				fmt.Fprintf(w, "Correction:  %q -> %q (%s)\n", c.Original, c.Suggestion, c.Reason)
			}
			for _, c := range ins.Completions {
				fmt.Fprintf(w, "Prompt:      %s\n", c)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// ============================================================
// Helpers
// ============================================================

// ownEntry loads id and reports entries of other users as missing.
func (a *app) ownEntry(ctx context.Context, id string) (*store.Entry, error) {
	e, err := a.store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID != a.user.ID {
		return nil, fmt.Errorf("entry %q not found", id)
	}
	return e, nil
}

func readContent(in io.Reader, flag string) (string, error) {
	if flag != "-" {
		return flag, nil
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

func parseDay(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", v)
	}
	return &t, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntry(w io.Writer, e *store.Entry, asJSON bool) error {
	if asJSON {
		return writeJSON(w, e)
	}
	fmt.Fprintf(w, "ID:       %s\n", e.ID)
	if e.Title != "" {
		fmt.Fprintf(w, "Title:    %s\n", e.Title)
	}
	fmt.Fprintf(w, "Created:  %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04"))
	if m := e.Metadata; m != nil {
		fmt.Fprintf(w, "Words:    %d (%d min read)\n", m.WordCount, m.ReadingTime)
		if m.Analyzed() {
			fmt.Fprintf(w, "Mood:     %s (%.2f)\n", *m.Mood, *m.SentimentScore)
		}
	}
	if len(e.Categories) > 0 {
		names := make([]string, len(e.Categories))
		for i, c := range e.Categories {
			names[i] = c.Name
		}
		fmt.Fprintf(w, "Tags:     %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(w, "\n%s\n", e.Content)
	return nil
}

func entriesTable(entries []store.Entry) string {
	t := table.New().Headers("ID", "DATE", "TITLE", "WORDS", "MOOD")
	for _, e := range entries {
		words, mood := "-", "-"
		if m := e.Metadata; m != nil {
			words = fmt.Sprintf("%d", m.WordCount)
			if m.Analyzed() {
				mood = string(*m.Mood)
			}
		}
		title := e.Title
		if title == "" {
			title = truncate(e.Content, 40)
		}
		t.Row(e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), title, words, mood)
	}
	return t.String()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
