package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/gridlhq/flapjack/pkg/config"
	"github.com/gridlhq/flapjack/pkg/log"
	"github.com/gridlhq/flapjack/pkg/manager"
	"github.com/gridlhq/flapjack/pkg/metrics"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flapjack",
	Short: "flapjack - multi-tenant full-text search engine",
	Long: `flapjack indexes and serves search requests for many tenants from a
single node, replicating writes to peers over its internal HTTP
protocol.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"flapjack version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(createTenantCmd)
	rootCmd.AddCommand(migrateCmd)

	config.BindFlags(serveCmd)
	config.BindFlags(createTenantCmd)
	config.BindFlags(migrateCmd)

	migrateCmd.Flags().Bool("dry-run", false, "Show what would be migrated without making changes")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	cfg = config.Overlay(cfg, cmd)
	cfg.InitLogging()
	return cfg, nil
}

func newManager(cfg config.Config) (*manager.Manager, error) {
	return manager.NewManager(manager.Config{
		DataDir:        cfg.DataDir,
		Node:           cfg.ReplicationNodeConfig(),
		Budget:         cfg.MemoryBudgetConfig(),
		CoalesceWindow: cfg.CoalesceWindow,
		CoalesceMaxOps: cfg.CoalesceMaxOps,
		TaskLRUCap:     cfg.TaskLRUCap,
		FacetCacheCap:  cfg.FacetCacheCap,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a flapjack node: reload tenants, serve metrics, and replicate writes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		mgr, err := newManager(cfg)
		if err != nil {
			return fmt.Errorf("failed to create manager: %v", err)
		}

		collector := metrics.NewCollector(mgr)
		collector.Start()
		defer collector.Stop()

		log.Logger.Info().
			Str("node_id", cfg.NodeID).
			Str("data_dir", cfg.DataDir).
			Strs("tenants", mgr.ListTenants()).
			Msg("flapjack node started")

		metrics.SetVersion(Version)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/health", metrics.HealthHandler())
		mux.Handle("/ready", metrics.ReadyHandler())
		mux.Handle("/live", metrics.LivenessHandler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("metrics server error: %v", err)
			}
		}()
		log.Logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics endpoint listening")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Logger.Info().Msg("shutting down")
		case err := <-errCh:
			log.Logger.Error().Err(err).Msg("shutting down after server error")
		}

		_ = srv.Close()
		if err := mgr.Shutdown(); err != nil {
			return fmt.Errorf("failed to shutdown: %v", err)
		}
		log.Logger.Info().Msg("shutdown complete")
		return nil
	},
}

var createTenantCmd = &cobra.Command{
	Use:   "create-tenant <name>",
	Short: "Create a tenant's index, oplog, and write-queue worker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		mgr, err := newManager(cfg)
		if err != nil {
			return fmt.Errorf("failed to create manager: %v", err)
		}
		defer mgr.Shutdown()

		if err := mgr.CreateTenant(args[0]); err != nil {
			return fmt.Errorf("failed to create tenant: %v", err)
		}
		fmt.Printf("tenant %q created under %s\n", args[0], cfg.DataDir)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Normalize every tenant's on-disk settings file to the current schema",
	Long: `migrate walks every tenant directory under the configured data
directory and rewrites its settings.json so every field the current
schema expects is present, defaulting whatever the file predates.
Existing files are backed up to settings.json.bak before being
overwritten; --dry-run reports what would change without writing
anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return runMigrate(cfg.DataDir, dryRun)
	},
}
