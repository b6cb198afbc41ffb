package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sadopc/inkwell/internal/analysis"
	"github.com/sadopc/inkwell/internal/analytics"
)

func newAnalyticsCmd(o *options) *cobra.Command {
	var (
		window   string
		category string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Summarize writing activity and mood",
		Long: `Summarize writing over a window (day, week, month or year).
The window defaults to the default_window setting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			w := a.defaultWindow(ctx)
			if window != "" {
				if w, err = analytics.ParseWindow(window); err != nil {
					return err
				}
			}
			sum, err := a.analytics.Summary(ctx, analytics.Query{UserID: a.user.ID, Window: w, CategoryID: category})
			if err != nil {
				return fmt.Errorf("build analytics: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), sum)
			}
			printSummary(cmd.OutOrStdout(), sum)
			return nil
		},
	}
	cmd.Flags().StringVar(&window, "window", "", "day, week, month or year")
	cmd.Flags().StringVar(&category, "category", "", "only entries in this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printSummary(w io.Writer, s *analytics.Summary) {
	fmt.Fprintf(w, "Window:          %s (%s - %s)\n", s.Window,
		s.Start.Local().Format("2006-01-02"), s.End.Local().Format("2006-01-02"))
	fmt.Fprintf(w, "Entries:         %d\n", s.TotalEntries)
	fmt.Fprintf(w, "Words:           %d\n", s.TotalWordCount)
	fmt.Fprintf(w, "Words per entry: %.1f\n", s.AverageWordsPerEntry)
	fmt.Fprintf(w, "Words per day:   %.1f\n", s.AverageWordsPerDay)
	fmt.Fprintf(w, "Writing streak:  %d days\n", s.WritingStreak)
	if s.LongestEntry != nil {
		title := s.LongestEntry.Title
		if title == "" {
			title = s.LongestEntry.ID
		}
		fmt.Fprintf(w, "Longest entry:   %s (%d words)\n", title, s.LongestEntry.WordCount)
	}
	if s.Sentiment != nil {
		fmt.Fprintf(w, "Average mood:    %.2f over %d analyzed\n", s.Sentiment.Average, s.Sentiment.Analyzed)
		moods := make([]string, 0, len(s.Sentiment.Distribution))
		for m := range s.Sentiment.Distribution {
			moods = append(moods, string(m))
		}
		sort.Strings(moods)
		for _, m := range moods {
			fmt.Fprintf(w, "  %-14s %d\n", m, s.Sentiment.Distribution[analysis.Mood(m)])
		}
	}
	if len(s.CategoryDistribution) > 0 {
		fmt.Fprintln(w, "Categories:")
		for _, c := range s.CategoryDistribution {
			fmt.Fprintf(w, "  %-14s %d\n", c.Name, c.EntryCount)
		}
	}
}
