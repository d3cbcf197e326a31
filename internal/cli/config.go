package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/taskorg/internal/store"
)

var loggerKeys = []string{"logger.level", "logger.mode", "logger.encoding", "logger.colorEnabled"}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Show or change settings",
	}

	var asJSON, plain bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Args:  exactArgs(0, "taskorg config show [--json|--plain]"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.showConfig(asJSON, plain)
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "JSON output")
	show.Flags().BoolVar(&plain, "plain", false, "TSV output")

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 2 {
				return usagef("usage: taskorg config set <key> <value>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			value := strings.TrimSpace(strings.Join(args[1:], " "))
			if err := a.setConfig(key, value); err != nil {
				return err
			}
			if !a.gf.Quiet {
				fmt.Fprintf(a.stdout, "Updated %s\n", key)
			}
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}

func (a *app) showConfig(asJSON, plain bool) error {
	s := a.ws.Settings()
	if asJSON {
		payload := map[string]any{
			"root":          a.ws.Root,
			"settings_path": a.ws.SettingsPath(),
			"exists":        a.ws.SettingsExist(),
			"settings":      s,
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	if plain {
		w := tabwriter.NewWriter(a.stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tVALUE")
		fmt.Fprintf(w, "root\t%s\n", a.ws.Root)
		fmt.Fprintf(w, "settings_path\t%s\n", a.ws.SettingsPath())
		fmt.Fprintf(w, "exists\t%t\n", a.ws.SettingsExist())
		for _, t := range store.Toggles() {
			fmt.Fprintf(w, "%s\t%t\n", t.Key, t.Get(s))
		}
		fmt.Fprintf(w, "logger.level\t%s\n", s.Logger.Level)
		fmt.Fprintf(w, "logger.mode\t%s\n", s.Logger.Mode)
		fmt.Fprintf(w, "logger.encoding\t%s\n", s.Logger.Encoding)
		fmt.Fprintf(w, "logger.colorEnabled\t%t\n", s.Logger.ColorEnabled)
		return w.Flush()
	}

	fmt.Fprintln(a.stdout, "Settings")
	fmt.Fprintln(a.stdout, "  Root:", a.ws.Root)
	if a.ws.SettingsExist() {
		fmt.Fprintln(a.stdout, "  Settings file:", a.ws.SettingsPath())
	} else {
		fmt.Fprintln(a.stdout, "  Settings file:", a.ws.SettingsPath(), "(not found; defaults shown)")
	}
	fmt.Fprintln(a.stdout)
	for _, t := range store.Toggles() {
		fmt.Fprintf(a.stdout, "  [%s] %s (%s)\n", checkbox(t.Get(s)), t.Name, t.Key)
		fmt.Fprintf(a.stdout, "      %s\n", t.Desc)
	}
	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, "Logger:")
	fmt.Fprintf(a.stdout, "  level: %s\n", s.Logger.Level)
	fmt.Fprintf(a.stdout, "  mode: %s\n", s.Logger.Mode)
	fmt.Fprintf(a.stdout, "  encoding: %s\n", s.Logger.Encoding)
	fmt.Fprintf(a.stdout, "  colorEnabled: %t\n", s.Logger.ColorEnabled)
	return nil
}

func checkbox(on bool) string {
	if on {
		return "x"
	}
	return " "
}

func (a *app) setConfig(key, value string) error {
	if _, ok := store.ToggleByKey(key); ok {
		v, ok := store.ParseBool(value)
		if !ok {
			return usagef("invalid value for %s: %q", key, value)
		}
		_, err := a.ws.SetToggle(key, v)
		return err
	}

	s := a.ws.StoredSettings()
	switch strings.ToLower(key) {
	case "logger.level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			s.Logger.Level = strings.ToLower(value)
		default:
			return usagef("invalid value for %s: %q", key, value)
		}
	case "logger.mode":
		switch strings.ToLower(value) {
		case "production", "development":
			s.Logger.Mode = strings.ToLower(value)
		default:
			return usagef("invalid value for %s: %q", key, value)
		}
	case "logger.encoding":
		switch strings.ToLower(value) {
		case "console", "json":
			s.Logger.Encoding = strings.ToLower(value)
		default:
			return usagef("invalid value for %s: %q", key, value)
		}
	case "logger.colorenabled":
		v, ok := store.ParseBool(value)
		if !ok {
			return usagef("invalid value for %s: %q", key, value)
		}
		s.Logger.ColorEnabled = v
	default:
		keys := []string{}
		for _, t := range store.Toggles() {
			keys = append(keys, t.Key)
		}
		keys = append(keys, loggerKeys...)
		return usagef("unknown config key %q (allowed: %s)", key, strings.Join(keys, ", "))
	}
	return a.ws.SaveSettings(s)
}
