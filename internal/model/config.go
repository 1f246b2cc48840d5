// Package model defines deskflow's configuration, workflows and the closed set of commands.
package model

import "fmt"

type Config struct {
	Engine        EngineConfig       `yaml:"engine"`
	Notifications NotificationConfig `yaml:"notifications"`
	Triggers      TriggerConfig      `yaml:"triggers"`
	History       HistoryConfig      `yaml:"history"`
	Daemon        DaemonConfig       `yaml:"daemon"`
	Logging       LoggingConfig      `yaml:"logging"`
	Workflows     []Workflow         `yaml:"workflows"`
}

type EngineConfig struct {
	SettleDelayMs               int    `yaml:"settle_delay_ms"`
	KeyGapMs                    int    `yaml:"key_gap_ms"`
	ApplicationLaunchTimeoutSec int    `yaml:"application_launch_timeout_sec"`
	LaunchPollMs                int    `yaml:"launch_poll_ms"`
	ClipboardRestoreMs          int    `yaml:"clipboard_restore_ms"`
	Shell                       string `yaml:"shell"`
}

type NotificationConfig struct {
	Enabled bool   `yaml:"enabled"`
	Title   string `yaml:"title"`
	Sound   string `yaml:"sound"`
}

type TriggerConfig struct {
	ApplicationPollMs int `yaml:"application_poll_ms"`
}

type HistoryConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxEntries int  `yaml:"max_entries"`
}

type DaemonConfig struct {
	ShutdownTimeoutSec int `yaml:"shutdown_timeout_sec"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	MaxRunLogMB int    `yaml:"max_run_log_mb"`
}

// ApplyDefaults fills zero values with the built-in defaults.
func ApplyDefaults(cfg Config) Config {
	if cfg.Engine.SettleDelayMs <= 0 {
		cfg.Engine.SettleDelayMs = 50
	}
	if cfg.Engine.KeyGapMs <= 0 {
		cfg.Engine.KeyGapMs = 1
	}
	if cfg.Engine.ApplicationLaunchTimeoutSec <= 0 {
		cfg.Engine.ApplicationLaunchTimeoutSec = 10
	}
	if cfg.Engine.LaunchPollMs <= 0 {
		cfg.Engine.LaunchPollMs = 100
	}
	if cfg.Engine.ClipboardRestoreMs <= 0 {
		cfg.Engine.ClipboardRestoreMs = 250
	}
	if cfg.Engine.Shell == "" {
		cfg.Engine.Shell = "/bin/zsh"
	}
	if cfg.Notifications.Title == "" {
		cfg.Notifications.Title = "deskflow"
	}
	if cfg.Triggers.ApplicationPollMs <= 0 {
		cfg.Triggers.ApplicationPollMs = 500
	}
	if cfg.History.MaxEntries <= 0 {
		cfg.History.MaxEntries = 1000
	}
	if cfg.Daemon.ShutdownTimeoutSec <= 0 {
		cfg.Daemon.ShutdownTimeoutSec = 5
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxRunLogMB <= 0 {
		cfg.Logging.MaxRunLogMB = 20
	}
	for i := range cfg.Workflows {
		if cfg.Workflows[i].Execution == "" {
			cfg.Workflows[i].Execution = ExecutionSerial
		}
	}
	return cfg
}

// Validate checks every workflow and that workflow ids are unique.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Workflows))
	for _, w := range c.Workflows {
		if err := w.Validate(); err != nil {
			return err
		}
		if seen[w.ID] {
			return fmt.Errorf("duplicate workflow id %q", w.ID)
		}
		seen[w.ID] = true
	}
	return nil
}
