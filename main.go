package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/guardiavista/guardia-go/cmd"
	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/logging"
)

func main() {
	// .env holds GOOGLE_APPLICATION_CREDENTIALS and database credentials
	// in development. Missing file is fine.
	_ = godotenv.Load()

	settings, err := conf.Load(configPathArg())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	logging.Init(level)
	if settings.Main.Log.Enabled && settings.Main.Log.Path != "" {
		closeLog, err := logging.InitFile(settings.Main.Log.Path, level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer closeLog()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.RootCommand(settings).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// configPathArg extracts a --config value before cobra parsing so the
// settings are loaded ahead of command construction.
func configPathArg() string {
	args := os.Args[1:]
	for i, arg := range args {
		switch {
		case arg == "--config" && i+1 < len(args):
			return args[i+1]
		case len(arg) > len("--config=") && arg[:len("--config=")] == "--config=":
			return arg[len("--config="):]
		}
	}
	return ""
}
