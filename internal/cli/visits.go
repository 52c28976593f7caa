package cli

import (
	"fmt"
	"time"

	"github.com/isdelr/punchy-be/internal/services"
	"github.com/spf13/cobra"
)

var visitAt string

var visitsCmd = &cobra.Command{
	Use:   "visits",
	Short: "Manage site visit records",
}

var visitsAddCmd = &cobra.Command{
	Use:   "add <username> <site>",
	Short: "Record a site visit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		at := time.Now()
		if visitAt != "" {
			var err error
			at, err = services.ParseInstant(visitAt, time.UTC)
			if err != nil {
				return err
			}
		}

		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		visit, err := services.NewVisitService(db).RecordVisit(cmd.Context(), args[0], args[1], at)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Visit %s recorded for '%s' at %s\n", visit.ID, visit.Username, visit.Timestamp.Format(time.RFC3339))
		return nil
	},
}

func init() {
	visitsAddCmd.Flags().StringVar(&visitAt, "at", "", "visit time, RFC 3339 (defaults to now)")

	visitsCmd.AddCommand(visitsAddCmd)
	rootCmd.AddCommand(visitsCmd)
}
