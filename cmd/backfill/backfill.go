package backfill

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guardiavista/guardia-go/internal/classify"
	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/datastore"
	"github.com/guardiavista/guardia-go/internal/detection"
)

// Command creates the backfill command, a one-shot repair tool that infers
// missing alert types from their labels. It never touches rows that
// already carry a type.
func Command(settings *conf.Settings) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Infer missing alert types from labels",
		Long:  "Assign a type to historical alert rows stored before the type column existed, using the live classifier vocabularies.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfill(settings, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")

	return cmd
}

func runBackfill(settings *conf.Settings, dryRun bool) error {
	store, err := datastore.New(settings)
	if err != nil {
		return err
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.GetAlertsWithoutType()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("no alerts without a type")
		return nil
	}

	updated := 0
	skipped := 0
	for i := range rows {
		a := &rows[i]
		inferred := classify.InferTypeFromLabel(a.Label)
		if inferred == detection.TypeOther {
			skipped++
			continue
		}
		if dryRun {
			fmt.Printf("alert %d: %q -> %s\n", a.ID, a.Label, inferred)
			updated++
			continue
		}
		if err := store.SetAlertType(a.ID, string(inferred)); err != nil {
			return err
		}
		updated++
	}

	verb := "updated"
	if dryRun {
		verb = "would update"
	}
	fmt.Printf("%s %d of %d alerts (%d labels not recognized)\n",
		verb, updated, len(rows), skipped)
	return nil
}
