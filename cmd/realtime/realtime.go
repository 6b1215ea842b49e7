package realtime

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/guardiavista/guardia-go/internal/camera"
	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/observability"
	"github.com/guardiavista/guardia-go/internal/pipeline"
)

// Command creates the realtime command for the live camera loop.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Analyze a live camera feed",
		Long:  "Capture frames from a camera device and run them through the detection pipeline at the configured interval.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRealtime(cmd, settings)
		},
	}

	cmd.Flags().IntVar(&settings.Realtime.Device, "device", viper.GetInt("realtime.device"), "Capture device index")
	cmd.Flags().Float64Var(&settings.Realtime.IntervalSeconds, "interval", viper.GetFloat64("realtime.intervalseconds"), "Seconds between analyzed frames")
	cmd.Flags().StringVar(&settings.Realtime.SavePath, "savepath", viper.GetString("realtime.savepath"), "Directory for frames that raised critical alerts")
	cmd.Flags().StringVar(&settings.Realtime.Location, "location", viper.GetString("realtime.location"), "Location tag recorded on alerts")
	cmd.Flags().IntVar(&settings.Realtime.MetricsPort, "metricsport", viper.GetInt("realtime.metricsport"), "Port for the Prometheus /metrics endpoint, 0 disables")

	return cmd
}

func runRealtime(cmd *cobra.Command, settings *conf.Settings) error {
	ctx := cmd.Context()

	system, err := pipeline.NewSystem(ctx, settings, pipeline.SystemOptions{EnableMetrics: true})
	if err != nil {
		return err
	}
	defer system.Close()

	if settings.Realtime.MetricsPort > 0 {
		endpoint := observability.NewEndpoint(settings.Realtime.MetricsPort, system.Metrics)
		endpoint.Start(ctx)
	}

	loop := camera.NewLoop(settings.Realtime,
		settings.Classifier.FireLabelThresholdLive, system.Pipeline)
	return loop.Run(ctx)
}
