package cmd

import (
	"fmt"
	"io"
	"os"

	cfgpkg "github.com/KaramelBytes/skelaudit-cli/internal/config"
	"github.com/cyclopcam/logs"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
	// Shared logger, created on first use
	logger logs.Log
)

var rootCmd = &cobra.Command{
	Use:   "skelaudit",
	Short: "skelaudit: integrity and statistics checks for skeleton action datasets",
	Long: `skelaudit scans raw annotation trees for corrupted files and audits preprocessed
splits (joints, bounding boxes, crowd features and labels) for alignment,
value-range anomalies and class bias before training.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	err := rootCmd.Execute()
	if logger != nil {
		logger.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.skelaudit/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "include per-file error detail in scan output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// settings returns the loaded configuration, or the defaults when loading failed.
func settings() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	return cfgpkg.Defaults()
}

// getLogger returns the shared logger, creating it on first use. Log lines go
// to w (stderr in practice) so stdout carries only reports.
func getLogger(w io.Writer) logs.Log {
	if logger == nil {
		logger = &logs.Logger{Output: w}
	}
	return logger
}
