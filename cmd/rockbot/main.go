// Package main provides the entry point for the Rock & Bot radio bot.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/darkanthem21/Rock-Bot/internal/config"
	"github.com/darkanthem21/Rock-Bot/internal/discord"
	"github.com/darkanthem21/Rock-Bot/internal/session"
	"github.com/darkanthem21/Rock-Bot/internal/shutdown"
	"github.com/darkanthem21/Rock-Bot/internal/station"
	"github.com/darkanthem21/Rock-Bot/internal/storage"
)

const shutdownTimeout = 30 * time.Second

var (
	envPath  string
	logLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rockbot",
	Short: "Discord radio bot with a persistent control panel",
	Long:  "Rock & Bot streams internet radio into a voice channel, controlled through a persistent panel message and prefix commands.",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&envPath, "env", "e", "", "Path to .env file (default: .env in working directory)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL from the environment")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	log.Info("Starting Rock & Bot...")

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}

	stations := station.DefaultStations()
	if cfg.StationsPath != "" {
		stations, err = station.LoadFile(cfg.StationsPath)
		if err != nil {
			return err
		}
		log.WithField("path", cfg.StationsPath).Info("Loaded station catalog from file")
	}

	catalog, err := station.NewCatalog(stations)
	if err != nil {
		return fmt.Errorf("invalid station catalog: %w", err)
	}

	state := session.NewManager()

	client, err := discord.NewClient(log, cfg, state, catalog, store)
	if err != nil {
		store.Close()
		return err
	}

	shutdownManager := shutdown.NewManager(log)
	shutdownManager.Register(store)
	shutdownManager.Register(client)

	if err := client.Connect(); err != nil {
		store.Close()
		return err
	}

	log.WithField("prefix", cfg.Prefix).Info("Bot is now running. Press Ctrl+C to exit.")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutdown signal received")

	if err := shutdownManager.Shutdown(shutdownTimeout); err != nil {
		log.WithError(err).Error("Shutdown finished with errors")
		return err
	}

	log.Info("Shutdown complete")
	return nil
}
