package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/taskorg/internal/organizer"
	"github.com/amirbrooks/taskorg/internal/plugin"
	"github.com/amirbrooks/taskorg/internal/store"
)

func (a *app) organizeCmd() *cobra.Command {
	var (
		check  bool
		stdout bool
		cursor string
	)
	cmd := &cobra.Command{
		Use:   "organize <file|->",
		Short: "Organize the checklist in one document",
		Long: `Runs the organize-tasks command on one document. With "-" the document is
read from stdin and the result written to stdout.`,
		Args: exactArgs(1, "taskorg organize <file|-> [--check] [--stdout] [--cursor line:col]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if check && stdout {
				return usagef("--check and --stdout are mutually exclusive")
			}
			pos, err := parseCursor(cursor)
			if err != nil {
				return err
			}
			p := plugin.New(a.logger, a.ws.Settings())
			target := args[0]

			if target == "-" {
				b, err := io.ReadAll(a.stdin)
				if err != nil {
					return err
				}
				if check {
					return checkOrganized(p, string(b))
				}
				ed := plugin.NewBufferEditor(string(b))
				ed.SetCursor(pos)
				if _, err := p.OrganizeTasks(cmd.Context(), ed); err != nil {
					return err
				}
				text, _ := ed.Text()
				fmt.Fprint(a.stdout, text)
				// stdout carries the document, so the cursor goes to stderr.
				if a.gf.Verbose {
					c := ed.Cursor()
					fmt.Fprintf(a.stderr, "Cursor: %d:%d\n", c.Line+1, c.Column+1)
				}
				return nil
			}

			ed := plugin.NewFileEditor(target)
			text, err := ed.Text()
			if err != nil {
				return err
			}
			if check {
				if err := checkOrganized(p, text); err != nil {
					if !a.gf.Quiet {
						fmt.Fprintln(a.stdout, "Would organize", target)
					}
					return err
				}
				return nil
			}
			if stdout {
				fmt.Fprint(a.stdout, p.Transform(text))
				return nil
			}

			ed.SetCursor(pos)
			changed, err := p.OrganizeTasks(cmd.Context(), ed)
			if err != nil {
				return err
			}
			if !a.gf.Quiet {
				if changed {
					fmt.Fprintln(a.stdout, "Organized", target)
				} else {
					fmt.Fprintln(a.stdout, "Already organized", target)
				}
			}
			if a.gf.Verbose {
				c := ed.Cursor()
				fmt.Fprintf(a.stdout, "Cursor: %d:%d\n", c.Line+1, c.Column+1)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Exit 1 if the document would change; write nothing")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the organized document instead of writing it")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Cursor to preserve, 1-based line:col")
	return cmd
}

func checkOrganized(p *plugin.Plugin, text string) error {
	if p.Transform(text) != text {
		return errChanged
	}
	return nil
}

// parseCursor reads a 1-based "line:col" (or "line") into a zero-based Position.
func parseCursor(s string) (plugin.Position, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return plugin.Position{}, nil
	}
	lineStr, colStr, hasCol := strings.Cut(s, ":")
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return plugin.Position{}, usagef("invalid --cursor %q (use line:col)", s)
	}
	col := 1
	if hasCol {
		col, err = strconv.Atoi(colStr)
		if err != nil || col < 1 {
			return plugin.Position{}, usagef("invalid --cursor %q (use line:col)", s)
		}
	}
	return plugin.Position{Line: line - 1, Column: col - 1}, nil
}

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <command-id> <file>",
		Short: "Run a registered command against a document",
		Args:  exactArgs(2, "taskorg run <command-id> <file>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := plugin.New(a.logger, a.ws.Settings())
			if err := p.Execute(cmd.Context(), args[0], plugin.NewFileEditor(args[1])); err != nil {
				return err
			}
			if !a.gf.Quiet {
				fmt.Fprintf(a.stdout, "Ran %s on %s\n", args[0], args[1])
			}
			return nil
		},
	}
}

func (a *app) commandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List registered commands",
		Args:  exactArgs(0, "taskorg commands"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := plugin.New(a.logger, a.ws.Settings())
			w := tabwriter.NewWriter(a.stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, c := range p.Commands() {
				fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
			}
			return w.Flush()
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file|->",
		Short: "Count checklist items",
		Args:  exactArgs(1, "taskorg stats <file|->"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if args[0] == "-" {
				b, err := io.ReadAll(a.stdin)
				if err != nil {
					return err
				}
				text = string(b)
			} else {
				t, err := store.ReadDocument(args[0])
				if err != nil {
					return err
				}
				text = t
			}
			s := organizer.CountTasks(text)
			w := tabwriter.NewWriter(a.stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintf(w, "total\t%d\n", s.Total)
			fmt.Fprintf(w, "pending\t%d\n", s.Pending)
			fmt.Fprintf(w, "completed\t%d\n", s.Completed)
			return w.Flush()
		},
	}
}
