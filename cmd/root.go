package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/guardiavista/guardia-go/cmd/alerts"
	"github.com/guardiavista/guardia-go/cmd/backfill"
	"github.com/guardiavista/guardia-go/cmd/image"
	"github.com/guardiavista/guardia-go/cmd/realtime"
	"github.com/guardiavista/guardia-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "guardia",
		Short: "Guardia physical security monitoring CLI",
		Long:  "Analyze still images or a live camera feed for weapons, fire, vehicles and aggression, persisting and escalating alerts.",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(
		image.Command(settings),
		realtime.Command(settings),
		alerts.Command(settings),
		backfill.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return settings.Validate()
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	// The config file is read in main before command construction; the
	// flag is declared here so cobra accepts it.
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Vision.CredentialsFile, "credentials", viper.GetString("vision.credentialsfile"), "Path to vision service account credentials")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
