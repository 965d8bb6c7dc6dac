package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/yungbote/vaultvoice-backend/internal/app"
	"github.com/yungbote/vaultvoice-backend/internal/config"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
)

var (
	configPath string
	logMode    string
	timeout    time.Duration

	log *logger.Logger
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vaultvoice",
	Short: "Voice-agent router with a per-user CSV/Markdown vault",
	Long: `vaultvoice routes each spoken turn to one specialist agent, logs what the
user reports into their cloud vault, and answers in a short spoken style.

Configuration comes from defaults, then the YAML file, then environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFrom(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		mode := logMode
		if mode == "" {
			mode = cfg.Env
		}
		log, err = logger.New(mode)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $VAULTVOICE_CONFIG_PATH or ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "development or production (default: config env)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Timeout for one-shot commands")

	askCmd.Flags().StringVarP(&userID, "user", "u", "", "Vault owner id")
	provisionCmd.Flags().StringVarP(&userID, "user", "u", "", "Vault owner id (required)")
	_ = provisionCmd.MarkFlagRequired("user")
	trainCmd.Flags().StringVar(&trainAgent, "agent", "", "Agent id (required)")
	trainCmd.Flags().StringVar(&trainFile, "file", "", "Guidance text file; \"-\" reads stdin (required)")
	_ = trainCmd.MarkFlagRequired("agent")
	_ = trainCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(trainCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withApp builds the application for a one-shot command and always closes it.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
