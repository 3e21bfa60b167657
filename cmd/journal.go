package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/mevboost-aa/storage"
	"github.com/AvaProtocol/mevboost-aa/storage/schema"
)

var (
	journalStatus string

	journalCmd = &cobra.Command{
		Use:   "journal",
		Short: "Inspect the journal of submitted operations",
	}

	journalListCmd = &cobra.Command{
		Use:   "list",
		Short: "List journaled operations by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := schema.ParseOpStatus(journalStatus)
			if err != nil {
				return err
			}
			return withJournal(cmd.Context(), func(j *storage.Journal) error {
				return listJournal(cmd.OutOrStdout(), j, status)
			})
		},
	}

	journalCountCmd = &cobra.Command{
		Use:   "count",
		Short: "Count journaled operations per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(cmd.Context(), func(j *storage.Journal) error {
				return countJournal(cmd.OutOrStdout(), j)
			})
		},
	}

	journalForgetCmd = &cobra.Command{
		Use:   "forget <id>",
		Short: "Remove an operation from the journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(cmd.Context(), func(j *storage.Journal) error {
				return j.Forget(args[0])
			})
		},
	}
)

func withJournal(ctx context.Context, fn func(j *storage.Journal) error) error {
	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(s.journal)
}

func listJournal(out io.Writer, j *storage.Journal, status schema.OpStatus) error {
	records, err := j.List(status)
	if err != nil {
		return err
	}

	for _, r := range records {
		kind := "plain"
		if r.IsBoost() {
			kind = "boost"
		}
		fmt.Fprintf(out, "%s  %-5s  %s  %s\n", r.ID, kind, r.UserOpHash.Hex(),
			time.Unix(r.SubmittedAt, 0).UTC().Format(time.RFC3339))
		if verbose {
			pp.Fprintln(out, r)
		}
	}
	return nil
}

func countJournal(out io.Writer, j *storage.Journal) error {
	for _, status := range schema.AllOpStatuses {
		total, err := j.Count(status)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-8s %d\n", status, total)
	}
	return nil
}

func init() {
	journalListCmd.Flags().StringVar(&journalStatus, "status", string(schema.OpPending), "pending, settled, boosted or expired")

	journalCmd.AddCommand(journalListCmd, journalCountCmd, journalForgetCmd)
	rootCmd.AddCommand(journalCmd)
}
