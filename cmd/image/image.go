package image

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/guardiavista/guardia-go/internal/annotate"
	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/pipeline"
)

// Command creates the image command for analyzing still image files.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		location  string
		annotated bool
	)

	cmd := &cobra.Command{
		Use:   "image [file...]",
		Short: "Analyze still images for threats",
		Long:  "Run each image through the detection pipeline, persisting and escalating any alerts.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImageAnalysis(cmd, settings, args, location, annotated)
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", viper.GetString("realtime.location"), "Location tag recorded on alerts")
	cmd.Flags().BoolVarP(&annotated, "annotate", "a", false, "Write an annotated copy next to each image")

	return cmd
}

func runImageAnalysis(cmd *cobra.Command, settings *conf.Settings, paths []string, location string, annotated bool) error {
	ctx := cmd.Context()

	system, err := pipeline.NewSystem(ctx, settings, pipeline.SystemOptions{})
	if err != nil {
		return err
	}
	defer system.Close()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading image %s: %w", path, err)
		}

		result, err := system.Pipeline.Analyze(ctx, data, path, location, pipeline.Options{})
		if err != nil {
			return err
		}

		if len(result.Detections) == 0 {
			fmt.Printf("%s: no threats detected\n", path)
			continue
		}
		for i := range result.Detections {
			d := &result.Detections[i]
			fmt.Printf("%s: %s %q confidence %.2f\n", path, d.Type, d.Label, d.Confidence)
		}

		if annotated {
			outPath, err := annotate.Save(path, result.Detections)
			if err != nil {
				return err
			}
			fmt.Printf("%s: annotated copy written to %s\n", path, outPath)
		}
	}
	return nil
}
