package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/patternshell/internal/app"
	"github.com/dshills/patternshell/internal/repl"
)

// guard is shared by every application started from this process so that
// only one command loop runs at a time.
var guard = repl.NewGuard()

type rootFlags struct {
	config   string
	group    string
	logLevel string
	noColor  bool
	watch    bool
}

func (f *rootFlags) options() app.Options {
	return app.Options{
		ConfigPath: f.config,
		Group:      f.group,
		LogLevel:   f.logLevel,
		NoColor:    f.noColor,
		Watch:      f.watch,
		Guard:      guard,
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "patternshell",
		Short: "Interactive shell for exploring design patterns",
		Long: `patternshell reads commands from standard input and dispatches them to
named command groups. Undoable commands are recorded so that "undo" and
"redo" work across every group.`,
		Example: `  patternshell                      Start in the configured group
  patternshell --group strategy     Start in the strategy group
  patternshell -c shell.toml -w     Use a config file and reload it on change`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := flags.options()
			opts.Input = cmd.InOrStdin()
			opts.Output = cmd.OutOrStdout()

			application, err := app.New(opts)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			// Ensure cleanup on all exit paths
			defer application.Shutdown()

			return application.Run(cmd.Context())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "path to configuration file (.toml, .yaml)")
	pf.StringVarP(&flags.group, "group", "g", "", "start group")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "reload the configuration file when it changes")

	cmd.AddCommand(newVersionCmd(), newGroupsCmd(flags))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "patternshell %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Built: %s\n", date)
		},
	}
}

func newGroupsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List command groups and their commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := flags.options()
			opts.Input = strings.NewReader("")
			opts.Output = io.Discard

			application, err := app.New(opts)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer application.Shutdown()

			reg := application.Registry()
			out := cmd.OutOrStdout()
			for _, g := range reg.Groups() {
				var names []string
				for _, d := range reg.List(g) {
					names = append(names, d.Name)
				}
				fmt.Fprintf(out, "%-10s %s\n", g, strings.Join(names, " "))
			}
			return nil
		},
	}
}
