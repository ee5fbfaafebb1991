package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	Mode               string   `mapstructure:"mode" yaml:"mode"`
	DataDir            string   `mapstructure:"data_dir" yaml:"data_dir"`
	RootDir            string   `mapstructure:"root_dir" yaml:"root_dir"`
	NoiseThreshold     float64  `mapstructure:"noise_threshold" yaml:"noise_threshold"`
	ImbalanceThreshold float64  `mapstructure:"imbalance_threshold" yaml:"imbalance_threshold"`
	Sentinel           float64  `mapstructure:"sentinel" yaml:"sentinel"`
	ProgressEvery      int      `mapstructure:"progress_every" yaml:"progress_every"`
	CorruptedLog       string   `mapstructure:"corrupted_log" yaml:"corrupted_log"`
	ScanExtensions     []string `mapstructure:"scan_extensions" yaml:"scan_extensions"`

	// Output
	ReportFormat string `mapstructure:"report_format" yaml:"report_format"`
	PlotsDir     string `mapstructure:"plots_dir" yaml:"plots_dir"`
}

const dirName = ".skelaudit"

// Values fixed by the preprocessing pipeline. They are reported by
// `config show` but cannot be changed.
const (
	FixedSentinel      = 0.15
	FixedProgressEvery = 100
)

// Defaults returns the built-in configuration.
func Defaults() *Global {
	return &Global{
		Mode:               "train",
		DataDir:            "../data/output/",
		RootDir:            "../raw_data/",
		NoiseThreshold:     0.2,
		ImbalanceThreshold: 0.1,
		Sentinel:           FixedSentinel,
		ProgressEvery:      FixedProgressEvery,
		CorruptedLog:       "corrupted_json_list.txt",
		ScanExtensions:     []string{".json"},
		ReportFormat:       "md",
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.skelaudit/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, dirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SKELAUDIT")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("mode", d.Mode)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("root_dir", d.RootDir)
	v.SetDefault("noise_threshold", d.NoiseThreshold)
	v.SetDefault("imbalance_threshold", d.ImbalanceThreshold)
	v.SetDefault("sentinel", d.Sentinel)
	v.SetDefault("progress_every", d.ProgressEvery)
	v.SetDefault("corrupted_log", d.CorruptedLog)
	v.SetDefault("scan_extensions", d.ScanExtensions)
	v.SetDefault("report_format", d.ReportFormat)
	v.SetDefault("plots_dir", d.PlotsDir)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values no component can run with.
func (c *Global) Validate() error {
	if c.NoiseThreshold < 0 || c.NoiseThreshold > 1 {
		return fmt.Errorf("noise_threshold must be within [0,1], got %v", c.NoiseThreshold)
	}
	if c.ImbalanceThreshold < 0 {
		return fmt.Errorf("imbalance_threshold must be non-negative, got %v", c.ImbalanceThreshold)
	}
	if c.Sentinel != FixedSentinel {
		return fmt.Errorf("sentinel is fixed at %v, got %v", FixedSentinel, c.Sentinel)
	}
	if c.ProgressEvery != FixedProgressEvery {
		return fmt.Errorf("progress_every is fixed at %d, got %d", FixedProgressEvery, c.ProgressEvery)
	}
	switch c.ReportFormat {
	case "md", "json":
	default:
		return fmt.Errorf("report_format must be md or json, got %q", c.ReportFormat)
	}
	return nil
}
