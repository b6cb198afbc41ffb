package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sadopc/inkwell/internal/analytics"
	"github.com/sadopc/inkwell/internal/export"
	"github.com/sadopc/inkwell/internal/store"
)

func newExportCmd(o *options) *cobra.Command {
	var (
		out      string
		category string
		from, to string
		summary  bool
		window   string
	)
	cmd := &cobra.Command{
		Use:       "export csv|json",
		Short:     "Export entries as CSV or JSON",
		Long:      `Export entries to a file, or stdout when --out is not given. With --summary the analytics summary is exported as JSON instead.`,
		ValidArgs: []string{"csv", "json"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if summary {
				if args[0] != "json" {
					return fmt.Errorf("--summary is only available as json")
				}
				w := a.defaultWindow(ctx)
				if window != "" {
					if w, err = analytics.ParseWindow(window); err != nil {
						return err
					}
				}
				sum, err := a.analytics.Summary(ctx, analytics.Query{UserID: a.user.ID, Window: w, CategoryID: category})
				if err != nil {
					return err
				}
				return emit(cmd.OutOrStdout(), out,
					func(w io.Writer) error { return export.WriteSummaryJSON(w, sum) },
					func(path string) error { return export.SummaryToJSON(sum, path) })
			}

			f := store.EntryFilter{UserID: a.user.ID}
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

			switch args[0] {
			case "csv":
				err = emit(cmd.OutOrStdout(), out,
					func(w io.Writer) error { return export.WriteCSV(w, entries) },
					func(path string) error { return export.ToCSV(entries, path) })
			default:
				err = emit(cmd.OutOrStdout(), out,
					func(w io.Writer) error { return export.WriteJSON(w, entries) },
					func(path string) error { return export.ToJSON(entries, path) })
			}
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries to %s\n", len(entries), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&category, "category", "", "only entries in this category")
	cmd.Flags().StringVar(&from, "from", "", "only entries on or after this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "only entries before this day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&summary, "summary", false, "export the analytics summary instead of entries")
	cmd.Flags().StringVar(&window, "window", "", "summary window: day, week, month or year")
	return cmd
}

func emit(stdout io.Writer, path string, toWriter func(io.Writer) error, toFile func(string) error) error {
	if path == "" {
		return toWriter(stdout)
	}
	return toFile(path)
}
