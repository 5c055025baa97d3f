// Paradox2mqtt bridges a Paradox Spectra SP or Magellan MG alarm panel to an
// MQTT broker.
//
// Usage:
//
//	paradox2mqtt run --config config.yml
//
// See 'paradox2mqtt --help' for the other commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/daemonp/paradox2mqtt/internal/cache"
	"github.com/daemonp/paradox2mqtt/internal/config"
	"github.com/daemonp/paradox2mqtt/internal/log"
	"github.com/daemonp/paradox2mqtt/internal/metrics"
	"github.com/daemonp/paradox2mqtt/internal/mqtt"
	"github.com/daemonp/paradox2mqtt/internal/panel"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var configFile string

var rootCmd = &cobra.Command{
	Use:   "paradox2mqtt",
	Short: "Paradox alarm panel to MQTT bridge",
	Long: `Paradox2mqtt logs in to a Paradox Spectra SP or Magellan MG panel over a
serial line or an IP module, reads its labels and mirrors labels, connection
status and live events to an MQTT broker.`,
	SilenceUsage: true,
	RunE:         runBridge,
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yml", "Path to configuration file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(versionCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the panel and the broker and keep both in sync",
	Example: `  # Run with the default config.yml
  paradox2mqtt run

  # Run with a specific configuration
  paradox2mqtt run --config /etc/paradox2mqtt/config.yml`,
	RunE: runBridge,
}

func runBridge(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.New(cfg.Log.Level, log.FileOptions{
		Filename:   cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})

	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	if cfg.Metrics.Enable {
		srv := serveMetrics(cfg.Metrics, metrics.Handler(reg), logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := panel.NewPanel(cfg, logger, m)
	mqttClient := mqtt.NewMQTT(&cfg.MQTT, p, logger)

	if err := p.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		p.Disconnect(disconnectCtx)
	}()

	if err := p.Login(ctx); err != nil {
		return err
	}

	cacheDir := ""
	if cfg.Cache {
		cacheDir = loadCache(p, logger)
	}

	if err := mqttClient.Connect(); err != nil {
		return err
	}
	defer mqttClient.Close()

	if err := p.Start(ctx); err != nil {
		return fmt.Errorf("failed to start panel operations: %w", err)
	}
	mqttClient.PublishLabels()

	if cacheDir != "" {
		if err := cache.SaveCache(cacheDir, p.GetCacheableData()); err != nil {
			logger.Warning("Failed to save cache: %v", err)
		} else {
			logger.Info("Saved data to cache")
		}
	}

	<-ctx.Done()
	logger.Info("Shutting down...")
	return nil
}

// loadCache restores cached labels for the connected panel and returns the
// cache directory, or "" when caching is unavailable.
func loadCache(p *panel.Panel, logger *log.Logger) string {
	dir, err := cache.Dir()
	if err != nil {
		logger.Warning("Cache disabled: %v", err)
		return ""
	}
	cacheData, err := cache.LoadCache(dir)
	switch {
	case err != nil:
		logger.Warning("Failed to load cache: %v", err)
	case cacheData == nil:
	case p.SetCachedData(cacheData):
		logger.Info("Loaded data from cache (%s)", cacheData.LastUpdate.Format(time.RFC3339))
	default:
		logger.Info("Cache belongs to another panel, ignoring it")
	}
	return dir
}

func serveMetrics(cfg config.MetricsConfig, handler http.Handler, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, handler)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("Serving metrics on %s%s", cfg.Addr, cfg.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed: %v", err)
		}
	}()
	return srv
}
