// Package cli is the inkwell command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/inkwell/internal/tui"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "inkwell",
		Short:         "A journal that reads along: sentiment, readability and writing analytics.",
		Long:          `Run without a subcommand to open the terminal UI.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), o)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "config file (default ~/.config/inkwell/config.yaml)")
	pf.StringVar(&o.dbPath, "db", "", "database path (default ~/.config/inkwell/inkwell.db)")
	pf.StringVar(&o.user, "user", "", "journal owner")
	pf.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newEntriesCmd(o),
		newCategoriesCmd(o),
		newAnalyticsCmd(o),
		newExportCmd(o),
		newServeCmd(o),
		newMCPCmd(o),
		newDBCmd(o),
		newVersionCmd(),
		newCompletionCmd(root),
	)
	return root
}

func runTUI(ctx context.Context, o *options) error {
	a, err := o.open(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	q := a.newQueue(ctx)
	if q != nil {
		defer q.Close()
	}

	m := tui.NewApp(tui.Deps{
		Store:         a.store,
		Pipeline:      a.pipeline,
		Analytics:     a.analytics,
		Queue:         q,
		UserID:        a.user.ID,
		DefaultWindow: a.defaultWindow(ctx),
		Log:           a.log,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for inkwell.

Examples:

  Bash (current shell):
    $ source <(inkwell completion bash)

  Zsh:
    $ inkwell completion zsh > "${fpath[1]}/_inkwell"

  Fish:
    $ inkwell completion fish > ~/.config/fish/completions/inkwell.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return root.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return root.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return root.GenPowerShellCompletion(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of inkwell",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

func newDBCmd(o *options) *cobra.Command {
	db := &cobra.Command{
		Use:   "db",
		Short: "Inspect the inkwell database",
	}
	db.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the resolved database path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.DBPath)
			return nil
		},
	})
	return db
}
