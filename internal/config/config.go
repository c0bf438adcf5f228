// Package config handles YAML configuration parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"shadowbench/internal/report"
)

// Config is the root configuration structure.
type Config struct {
	Channel ChannelConfig `yaml:"channel"`
	Modules ModulesConfig `yaml:"modules"`
	Trials  TrialsConfig  `yaml:"trials"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
}

// ChannelConfig locates the controller's command channel.
type ChannelConfig struct {
	Socket   string `yaml:"socket"`
	HTTPAddr string `yaml:"http_addr"`
	ProcPath string `yaml:"proc_path"` // created by the fault injection module once ready
}

// ModulesConfig names the kernel components loaded around a run.
type ModulesConfig struct {
	Skip           bool          `yaml:"skip"`
	Dir            string        `yaml:"dir"`
	Recovery       string        `yaml:"recovery"`
	FaultInjection string        `yaml:"fault_injection"`
	NetworkShadow  string        `yaml:"network_shadow"`
	Device         string        `yaml:"device"`
	ReadyTimeout   time.Duration `yaml:"ready_timeout"`
}

// TrialsConfig controls the replay.
type TrialsConfig struct {
	Delay    time.Duration `yaml:"delay"`
	Table    string        `yaml:"table,omitempty"` // empty = built-in benchmark table
	Simulate bool          `yaml:"simulate"`
}

// OutputConfig controls where and how results are persisted.
type OutputConfig struct {
	Results string `yaml:"results"`
	Format  string `yaml:"format"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Channel: ChannelConfig{
			Socket:   "/run/shadowbench.sock",
			ProcPath: "/proc/fault_injection",
		},
		Modules: ModulesConfig{
			Dir:            ".",
			Recovery:       "recovery_evaluator.ko",
			FaultInjection: "fault_injection.ko",
			NetworkShadow:  "network_shadow.ko",
			Device:         "eth0",
			ReadyTimeout:   5 * time.Second,
		},
		Trials: TrialsConfig{
			Delay: 10 * time.Millisecond,
		},
		Output: OutputConfig{
			Results: "results.txt",
			Format:  string(report.Text),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks values that would otherwise fail late in a run.
func (c *Config) Validate() error {
	if c.Trials.Delay < 0 {
		return fmt.Errorf("trials.delay must be >= 0, got %v", c.Trials.Delay)
	}
	if c.Modules.ReadyTimeout <= 0 {
		return fmt.Errorf("modules.ready_timeout must be > 0, got %v", c.Modules.ReadyTimeout)
	}
	if _, err := report.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if !c.Modules.Skip && (c.Modules.Recovery == "" || c.Modules.FaultInjection == "" || c.Modules.NetworkShadow == "") {
		return fmt.Errorf("modules: recovery, fault_injection and network_shadow are required unless skip is set")
	}
	return nil
}

// LoadConfig reads a YAML configuration file over the defaults. An empty
// path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return cfg, nil
}
