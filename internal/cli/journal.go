package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/posledger/journal"
)

func newJournalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query the settlement journal (sqlite only)",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "entry ENTRY_ID",
			Short: "Show a single settlement entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				j, err := a.sqliteJournal()
				if err != nil {
					return err
				}
				defer j.Close()

				e, err := j.GetEntry(args[0])
				if err != nil {
					return err
				}
				return printJSON(e)
			},
		},
		&cobra.Command{
			Use:   "day YYYY-MM-DD",
			Short: "List settlements recorded during one day",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				j, err := a.sqliteJournal()
				if err != nil {
					return err
				}
				defer j.Close()

				entries, err := j.ListDay(args[0])
				if err != nil {
					return err
				}
				return printJSON(entries)
			},
		},
		&cobra.Command{
			Use:   "agent SIGNATURE DATE",
			Short: "List an agent's settlements for one trading date",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				j, err := a.sqliteJournal()
				if err != nil {
					return err
				}
				defer j.Close()

				entries, err := j.ListByAgentDate(args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(entries)
			},
		},
	)

	return cmd
}

func (a *app) sqliteJournal() (*journal.SQLite, error) {
	if a.cfg.Journal.Type != "sqlite" || a.cfg.Journal.Path == "" {
		return nil, fmt.Errorf("journal queries need journal.type 'sqlite' in the config")
	}
	return journal.NewSQLite(a.cfg.Journal.Path)
}
