package alerts

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/datastore"
)

// Command creates the alerts command for reporting recent alerts.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		limit     int
		alertType string
	)

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show recent alerts",
		Long:  "Print the most recent alerts from the store, newest first, optionally filtered by type.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(settings, limit, alertType)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of alerts to show")
	cmd.Flags().StringVarP(&alertType, "type", "t", "", "Only show alerts of this type (weapon, fire, vehicle, aggression)")

	return cmd
}

func runReport(settings *conf.Settings, limit int, alertType string) error {
	store, err := datastore.New(settings)
	if err != nil {
		return err
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	var rows []datastore.Alert
	if alertType != "" {
		rows, err = store.GetAlertsByType(alertType, limit)
	} else {
		rows, err = store.GetLastAlerts(limit)
	}
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Println("no alerts recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIMESTAMP\tTYPE\tCONFIDENCE\tLOCATION\tLABEL")
	for i := range rows {
		a := &rows[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\t%s\n",
			a.ID, a.Timestamp.Format("2006-01-02 15:04:05"),
			a.Type, a.Confidence, a.Location, a.Label)
	}
	return w.Flush()
}
