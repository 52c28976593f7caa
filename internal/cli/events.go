package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/isdelr/punchy-be/internal/services"
	"github.com/spf13/cobra"
)

var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recent operational events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		events, err := services.NewEventService(db).GetRecentEvents(cmd.Context(), eventsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tTYPE\tLEVEL\tUSER\tMESSAGE")
		for _, e := range events {
			user := "-"
			if e.Username != nil {
				user = *e.Username
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.CreatedAt.Format(time.RFC3339), e.Type, e.Level, user, e.Message)
		}
		return w.Flush()
	},
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "maximum number of events to show")
	rootCmd.AddCommand(eventsCmd)
}
