package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/calcprefs/internal/config"
	"github.com/kalambet/calcprefs/internal/prefs"
)

// --- show / keys / get / set ---

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		changed, _ := cmd.Flags().GetBool("changed")

		return withSession(cmd, func(s *session) error {
			p, report := s.store.Load()
			if err := report.Err(); err != nil {
				printWarning("some stored values were unusable and fell back to defaults")
			}

			out := cmd.OutOrStdout()
			for _, e := range prefs.Entries(p, report) {
				if changed && e.Defaulted {
					continue
				}
				value := e.Value
				if e.Color {
					value = swatch(e.Value) + value
				}
				line := fmt.Sprintf("  %s = %s", colorize(styleBold, e.Key), value)
				if e.Defaulted {
					line += colorize(styleFaint, " (default)")
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "  %s = %d entries\n", colorize(styleBold, "History"), len(p.History))
			fmt.Fprintf(out, "  %s = %d bindings\n", colorize(styleBold, "Variables"), len(p.Variables))
			return nil
		})
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the preference keys accepted by get and set",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, k := range prefs.Keys() {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			p, _ := s.store.Load()
			v, err := p.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one preference",
	Long: `Set one preference.

Examples:
  calcprefs set View/Format Exp
  calcprefs set View/DecimalDigits 10
  calcprefs set SyntaxHighlight/NumberColor "#0000ff"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		return withSession(cmd, func(s *session) error {
			var stored string
			err := s.update(func(p *prefs.Preferences) error {
				if err := p.Set(key, value); err != nil {
					return err
				}
				stored, _ = p.Get(key)
				return nil
			})
			if err != nil {
				return err
			}
			printSuccess("Set %s = %s", key, stored)
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore every preference to its default",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will reset ALL preferences, history and variables. Use --confirm to proceed.")
			return nil
		}

		return withSession(cmd, func(s *session) error {
			if err := s.store.Save(prefs.Defaults()); err != nil {
				return fmt.Errorf("saving preferences: %w", err)
			}
			printSuccess("Preferences reset to defaults")
			return nil
		})
	},
}

func init() {
	showCmd.Flags().Bool("changed", false, "only show preferences with a stored value")
	resetCmd.Flags().Bool("confirm", false, "confirm the reset")
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the expression history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved expressions, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			p, _ := s.store.Load()
			if len(p.History) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history.")
				return nil
			}
			for i, expr := range p.History {
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s\n", i+1, expr)
			}
			return nil
		})
	},
}

var historyAddCmd = &cobra.Command{
	Use:   "add <expression>",
	Short: "Append an expression to the history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expr := strings.Join(args, " ")

		return withSession(cmd, func(s *session) error {
			var total int
			err := s.update(func(p *prefs.Preferences) error {
				if !p.General.SaveHistory {
					printWarning("General/SaveHistory is off; the calculator will not keep this entry")
				}
				p.AddHistory(expr)
				total = len(prefs.RetainedHistory(p.History))
				return nil
			})
			if err != nil {
				return err
			}
			printSuccess("Added %q (%d saved)", expr, total)
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			if err := s.update(func(p *prefs.Preferences) error {
				p.ClearHistory()
				return nil
			}); err != nil {
				return err
			}
			printSuccess("History cleared")
			return nil
		})
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd, historyAddCmd, historyClearCmd)
}

// --- vars ---

var varsCmd = &cobra.Command{
	Use:   "vars",
	Short: "Manage saved variable bindings",
}

var varsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved variables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			p, _ := s.store.Load()
			if len(p.Variables) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No variables.")
				return nil
			}
			for _, entry := range p.Variables {
				name, value, _ := strings.Cut(entry, "=")
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", colorize(styleBold, name), value)
			}
			return nil
		})
	},
}

var varsSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Bind a variable",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, value := args[0], args[1]

		return withSession(cmd, func(s *session) error {
			if err := s.update(func(p *prefs.Preferences) error {
				return p.SetVariable(name, value)
			}); err != nil {
				return err
			}
			printSuccess("Set %s = %s", name, value)
			return nil
		})
	},
}

var varsUnsetCmd = &cobra.Command{
	Use:   "unset <name>",
	Short: "Remove a variable binding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		return withSession(cmd, func(s *session) error {
			var found bool
			if err := s.update(func(p *prefs.Preferences) error {
				found = p.UnsetVariable(name)
				return nil
			}); err != nil {
				return err
			}
			if !found {
				printWarning("Variable %s was not set", name)
				return nil
			}
			printSuccess("Removed %s", name)
			return nil
		})
	},
}

func init() {
	varsCmd.AddCommand(varsListCmd, varsSetCmd, varsUnsetCmd)
}

// --- export / import ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all preferences as a JSON or TOML document",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		codec, _ := cmd.Flags().GetString("format")
		if codec == "" {
			codec = prefs.CodecForPath(output)
		}

		return withSession(cmd, func(s *session) error {
			p, _ := s.store.Load()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := prefs.Export(w, p, codec); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Preferences exported to %s", output)
			}
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all preferences with a document written by export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		codec, _ := cmd.Flags().GetString("format")
		if codec == "" {
			codec = prefs.CodecForPath(path)
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()

		printStep("Reading %s document %s", codec, path)
		p, err := prefs.Import(f, codec)
		if err != nil {
			return err
		}

		return withSession(cmd, func(s *session) error {
			if err := s.store.Save(p); err != nil {
				printError("Import was only partly written")
				return fmt.Errorf("saving preferences: %w", err)
			}
			printSuccess("Imported %d history entries and %d variables",
				len(prefs.RetainedHistory(p.History)), len(p.Variables))
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().String("output", "", "output file path (default: stdout)")
	exportCmd.Flags().String("format", "", "document format: json or toml (default: from file extension, else json)")
	importCmd.Flags().String("format", "", "document format: json or toml (default: from file extension)")
}

// --- env ---

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the environment variables that configure calcprefs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		for _, v := range config.EnvVars(cfg) {
			fmt.Fprintln(cmd.OutOrStdout(), "  "+v.String())
		}
		return nil
	},
}
