package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethanbaker/civicchat/internal/stores/session"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	searchLimit  int
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "Manage saved conversations",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved conversations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(current.out, renderSessionList(current.store.Sessions(), current.store.ActiveID()))
		return nil
	},
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new conversation and make it active",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := current.store.Create(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(current.out, idStyle.Render(s.ID))
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a conversation (the active one by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := lookup(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(current.out, renderTranscript(s))
		return nil
	},
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <id> <title...>",
	Short: "Rename a conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := current.store.Rename(cmd.Context(), args[0], strings.Join(args[1:], " "))
		if err != nil {
			return describe(err)
		}
		fmt.Fprintln(current.out, titleStyle.Render(s.Title))
		return nil
	},
}

var sessionsSelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Make a conversation active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return describe(current.store.Select(cmd.Context(), args[0]))
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return describe(current.store.Delete(cmd.Context(), args[0]))
	},
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every conversation and start fresh",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := current.store.ClearAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(current.out, idStyle.Render(s.ID))
		return nil
	},
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export a conversation as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := lookup(args)
		if err != nil {
			return err
		}

		data, err := session.ExportYAML(s)
		if err != nil {
			return err
		}

		if exportOutput == "" {
			_, err = current.out.Write(data)
			return err
		}
		if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Fprintln(current.out, hintStyle.Render("Exported to "+exportOutput))
		return nil
	},
}

var sessionsSearchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search every transcript for a phrase",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matches := current.store.Search(strings.Join(args, " "))
		if len(matches) == 0 {
			fmt.Fprintln(current.out, hintStyle.Render("No matches."))
			return nil
		}

		if searchLimit > 0 && len(matches) > searchLimit {
			matches = matches[:searchLimit]
		}
		for _, m := range matches {
			fmt.Fprintf(current.out, "%s %s [%s] %s\n",
				titleStyle.Render(m.Title),
				idStyle.Render(m.SessionID),
				m.Speaker,
				m.Text,
			)
		}
		return nil
	},
}

func init() {
	sessionsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write the export to a file instead of stdout")
	sessionsSearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of matches to print")

	sessionsCmd.AddCommand(
		sessionsListCmd,
		sessionsNewCmd,
		sessionsShowCmd,
		sessionsRenameCmd,
		sessionsSelectCmd,
		sessionsDeleteCmd,
		sessionsClearCmd,
		sessionsExportCmd,
		sessionsSearchCmd,
	)
}

// lookup returns the session named by args, or the active one
func lookup(args []string) (session.Session, error) {
	if len(args) == 0 {
		return current.store.Active(), nil
	}
	s, err := current.store.Get(args[0])
	if err != nil {
		return session.Session{}, describe(err)
	}
	return s, nil
}
