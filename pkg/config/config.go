// Package config loads flapjack's on-disk configuration file and
// overlays command-line flags on top of it, the way the teacher's
// cobra commands read persistent flags but layered with a yaml.v3 file
// as the base so a deployment doesn't have to pass every peer and
// tuning knob on the command line.
package config

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gridlhq/flapjack/pkg/log"
	"github.com/gridlhq/flapjack/pkg/memorybudget"
	"github.com/gridlhq/flapjack/pkg/replication"
)

// Peer names one other node in the cluster, as stored in the config
// file; it converts 1:1 into a replication.PeerConfig.
type Peer struct {
	NodeID string `yaml:"nodeId"`
	Addr   string `yaml:"addr"`
}

// Config is the full set of knobs a flapjack node reads at startup:
// where its data lives, its replication identity, how its write-queue
// workers and memory budget are tuned, and how it logs and serves
// metrics.
type Config struct {
	DataDir    string `yaml:"dataDir"`
	NodeID     string `yaml:"nodeId"`
	Peers      []Peer `yaml:"peers"`
	MetricsAddr string `yaml:"metricsAddr"`

	LogLevel string `yaml:"logLevel"`
	LogJSON  bool   `yaml:"logJson"`

	CoalesceWindow time.Duration `yaml:"coalesceWindow"`
	CoalesceMaxOps int           `yaml:"coalesceMaxOps"`
	TaskLRUCap     int           `yaml:"taskLruCap"`
	FacetCacheCap  int           `yaml:"facetCacheCap"`

	MaxConcurrentWriters int           `yaml:"maxConcurrentWriters"`
	BufferSizeCeiling    int64         `yaml:"bufferSizeCeilingBytes"`
	DocumentSizeCeiling  int64         `yaml:"documentSizeCeilingBytes"`
	BatchDocCeiling      int           `yaml:"batchDocCeiling"`
	AcquireTimeout       time.Duration `yaml:"acquireTimeout"`
}

// Default returns the configuration a bare `flapjack serve` runs with
// when no config file and no overriding flags are given.
func Default() Config {
	return Config{
		DataDir:     "./flapjack-data",
		NodeID:      "node-1",
		MetricsAddr: "127.0.0.1:9090",
		LogLevel:    "info",
	}
}

// Load reads a yaml config file at path, starting from Default() so
// any field the file omits keeps its default rather than zeroing out.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// BindFlags registers every overlay flag serve/create-tenant/migrate
// accept, each defaulting to the zero value so Overlay can tell an
// explicit flag apart from one the user didn't pass.
func BindFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", "", "Data directory (overrides config file)")
	cmd.Flags().String("node-id", "", "This node's replication identity (overrides config file)")
	cmd.Flags().String("metrics-addr", "", "Address the metrics/health HTTP server listens on")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().Bool("log-json", false, "Output logs as JSON")
	cmd.Flags().String("config", "", "Path to a yaml config file")
}

// Overlay applies any flags the caller actually set on top of cfg,
// cobra flags winning over the file the way the teacher's
// rootCmd.PersistentFlags() always win over nothing.
func Overlay(cfg Config, cmd *cobra.Command) Config {
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("node-id"); v != "" {
		cfg.NodeID = v
	}
	if v, _ := cmd.Flags().GetString("metrics-addr"); v != "" {
		cfg.MetricsAddr = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetBool("log-json"); v {
		cfg.LogJSON = v
	}
	return cfg
}

// InitLogging configures the global logger from cfg, mirroring the
// teacher's cobra.OnInitialize(initLogging) hook.
func (c Config) InitLogging() {
	log.Init(log.Config{Level: log.Level(c.LogLevel), JSONOutput: c.LogJSON})
}

// ReplicationNodeConfig converts the config file's flat peer list into
// the replication.NodeConfig the manager wires into its replication
// fanout.
func (c Config) ReplicationNodeConfig() replication.NodeConfig {
	peers := make([]replication.PeerConfig, len(c.Peers))
	for i, p := range c.Peers {
		peers[i] = replication.PeerConfig{NodeID: p.NodeID, Addr: p.Addr}
	}
	return replication.NodeConfig{NodeID: c.NodeID, Peers: peers}
}

// MemoryBudgetConfig converts the config file's tuning knobs into the
// memorybudget.Config the manager wires into its shared write-admission
// gate.
func (c Config) MemoryBudgetConfig() memorybudget.Config {
	return memorybudget.Config{
		MaxConcurrentWriters: c.MaxConcurrentWriters,
		BufferSizeCeiling:    c.BufferSizeCeiling,
		DocumentSizeCeiling:  c.DocumentSizeCeiling,
		BatchDocCeiling:      c.BatchDocCeiling,
		AcquireTimeout:       c.AcquireTimeout,
	}
}
