package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/taskorg/internal/log"
	"github.com/amirbrooks/taskorg/internal/store"
)

// Exit codes
const (
	ExitOK       = 0
	ExitChanged  = 1
	ExitUsage    = 2
	ExitNotFound = 3
	ExitInternal = 10
)

type GlobalFlags struct {
	Root    string
	Verbose bool
	Quiet   bool
}

// usageError marks errors caused by bad invocation.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// errChanged is returned by --check when a document is not organized.
var errChanged = errors.New("document is not organized")

type app struct {
	gf     GlobalFlags
	ws     *store.Workspace
	logger log.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func Run(args []string) int {
	return run(args, os.Stdin, os.Stdout, os.Stderr)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, logger: log.NewNop()}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err == nil {
		return ExitOK
	}
	code := exitCode(err)
	if code != ExitChanged {
		fmt.Fprintln(stderr, "taskorg:", err)
	}
	if code == ExitUsage {
		fmt.Fprintln(stderr, "Run 'taskorg --help' for usage.")
	}
	return code
}

func exitCode(err error) int {
	var ue *usageError
	switch {
	case errors.Is(err, errChanged):
		return ExitChanged
	case errors.As(err, &ue), errors.Is(err, store.ErrInvalid):
		return ExitUsage
	case strings.HasPrefix(err.Error(), "unknown command"), strings.HasPrefix(err.Error(), "unknown flag"):
		return ExitUsage
	case errors.Is(err, store.ErrNotFound):
		return ExitNotFound
	default:
		return ExitInternal
	}
}

func defaultRoot() string {
	if env := os.Getenv("TASKORG_ROOT"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	if home != "" {
		return filepath.Join(home, ".taskorg")
	}
	return ".taskorg"
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskorg",
		Short: "taskorg - keep markdown checklists organized",
		Long: `taskorg moves incomplete checklist items ahead of completed ones at every
indentation level, keeping nested notes and subtasks with their parent item.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usagef("%v", err)
	})

	root.PersistentFlags().StringVar(&a.gf.Root, "root", defaultRoot(), "Settings root (default: ~/.taskorg or TASKORG_ROOT)")
	root.PersistentFlags().BoolVarP(&a.gf.Verbose, "verbose", "v", false, "Debug logging and extra output")
	root.PersistentFlags().BoolVarP(&a.gf.Quiet, "quiet", "q", false, "Only warnings and errors")

	root.AddCommand(
		a.initCmd(),
		a.organizeCmd(),
		a.runCmd(),
		a.watchCmd(),
		a.statsCmd(),
		a.commandsCmd(),
		a.configCmd(),
	)
	return root
}

// setup opens the settings store and builds the logger for every command.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.gf.Verbose && a.gf.Quiet {
		return usagef("--verbose and --quiet are mutually exclusive")
	}
	ws, err := store.Open(a.gf.Root)
	if err != nil {
		return err
	}
	a.ws = ws

	lc := ws.Settings().Logger
	level := lc.Level
	if a.gf.Verbose {
		level = "debug"
	}
	if a.gf.Quiet {
		level = "warn"
	}
	a.logger = log.Init(log.ZapConfig{
		Level:        level,
		Mode:         lc.Mode,
		Encoding:     lc.Encoding,
		ColorEnabled: lc.ColorEnabled,
	})
	a.logger.Debugf(cmd.Context(), "settings root %s", ws.Root)
	return nil
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("usage: %s", usage)
		}
		return nil
	}
}

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write default settings",
		Args:  exactArgs(0, "taskorg init"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ws.Init(); err != nil {
				return err
			}
			if !a.gf.Quiet {
				fmt.Fprintln(a.stdout, "Initialized taskorg settings at:", a.ws.SettingsPath())
			}
			return nil
		},
	}
}
