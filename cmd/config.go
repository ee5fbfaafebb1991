package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/skelaudit-cli/internal/config"
	"github.com/KaramelBytes/skelaudit-cli/internal/dataset"
	"github.com/KaramelBytes/skelaudit-cli/internal/utils"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set skelaudit configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mode: %s\n", cfg.Mode)
		fmt.Fprintf(out, "data_dir: %s\n", cfg.DataDir)
		fmt.Fprintf(out, "root_dir: %s\n", cfg.RootDir)
		fmt.Fprintf(out, "noise_threshold: %.3f\n", cfg.NoiseThreshold)
		fmt.Fprintf(out, "imbalance_threshold: %.3f\n", cfg.ImbalanceThreshold)
		fmt.Fprintf(out, "sentinel: %.3f\n", cfg.Sentinel)
		fmt.Fprintf(out, "progress_every: %d\n", cfg.ProgressEvery)
		fmt.Fprintf(out, "corrupted_log: %s\n", cfg.CorruptedLog)
		fmt.Fprintf(out, "scan_extensions: %s\n", strings.Join(cfg.ScanExtensions, ","))
		fmt.Fprintf(out, "report_format: %s\n", cfg.ReportFormat)
		if cfg.PlotsDir != "" {
			fmt.Fprintf(out, "plots_dir: %s\n", cfg.PlotsDir)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "mode":
			modes := utils.SplitList(val)
			if len(modes) == 0 {
				return fmt.Errorf("invalid mode: %q", val)
			}
			for _, m := range modes {
				if _, err := dataset.ParseSplit(m); err != nil {
					return err
				}
			}
			cfg.Mode = strings.Join(modes, ",")
		case "data_dir":
			cfg.DataDir = val
		case "root_dir":
			cfg.RootDir = val
		case "noise_threshold":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 || f > 1 {
				return fmt.Errorf("invalid float for noise_threshold: %v (use 0..1)", val)
			}
			cfg.NoiseThreshold = f
		case "imbalance_threshold":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid float for imbalance_threshold: %v", val)
			}
			cfg.ImbalanceThreshold = f
		case "corrupted_log":
			cfg.CorruptedLog = val
		case "scan_extensions":
			exts := utils.SplitList(val)
			if len(exts) == 0 {
				return fmt.Errorf("invalid scan_extensions: %q", val)
			}
			cfg.ScanExtensions = exts
		case "report_format":
			switch strings.ToLower(val) {
			case "md", "markdown":
				cfg.ReportFormat = "md"
			case "json":
				cfg.ReportFormat = "json"
			default:
				return fmt.Errorf("invalid report_format: %s (use md or json)", val)
			}
		case "plots_dir":
			cfg.PlotsDir = val
		case "sentinel", "progress_every":
			return fmt.Errorf("%s is fixed by the preprocessing pipeline and cannot be changed", key)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
