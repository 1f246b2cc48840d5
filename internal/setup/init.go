// Package setup locates the deskflow state directory, installs the
// default configuration and loads config.yaml.
package setup

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/msageha/deskflow/internal/model"
	atomicyaml "github.com/msageha/deskflow/internal/yaml"
	"github.com/msageha/deskflow/templates"
)

// DirEnv overrides the state directory.
const DirEnv = "DESKFLOW_DIR"

const defaultDirName = ".deskflow"

// ErrExists is returned by Run when config.yaml is already present.
var ErrExists = errors.New("already initialized")

// ErrEmptyConfig is returned by LoadConfig for a blank config.yaml, as
// seen mid-save when an editor truncates the file before writing it.
var ErrEmptyConfig = errors.New("config.yaml is empty")

// Layout names every file under the state directory.
type Layout struct {
	Base string
}

// DefaultLayout returns $DESKFLOW_DIR or ~/.deskflow.
func DefaultLayout() (Layout, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return Layout{}, fmt.Errorf("resolve %s: %w", DirEnv, err)
		}
		return Layout{Base: abs}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, fmt.Errorf("resolve home directory: %w", err)
	}
	return Layout{Base: filepath.Join(home, defaultDirName)}, nil
}

func (l Layout) Config() string    { return filepath.Join(l.Base, "config.yaml") }
func (l Layout) Socket() string    { return filepath.Join(l.Base, "daemon.sock") }
func (l Layout) Lock() string      { return filepath.Join(l.Base, "daemon.lock") }
func (l Layout) History() string   { return filepath.Join(l.Base, "history.db") }
func (l Layout) LogsDir() string   { return filepath.Join(l.Base, "logs") }
func (l Layout) RunLog() string    { return filepath.Join(l.LogsDir(), "runs.jsonl") }
func (l Layout) DaemonLog() string { return filepath.Join(l.LogsDir(), "daemon.log") }
func (l Layout) StateDir() string  { return filepath.Join(l.Base, "state") }

// LastRun is where the daemon keeps the summary of the last finished
// session.
func (l Layout) LastRun() string { return filepath.Join(l.StateDir(), "last_run.yaml") }

// Run creates the directory tree and writes the default config.yaml.
// An existing config is only replaced when force is set; the previous
// file is kept as config.yaml.bak.
func Run(l Layout, force bool) error {
	for _, d := range []string{l.Base, l.LogsDir(), filepath.Join(l.LogsDir(), "archive"), l.StateDir()} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", d, err)
		}
	}

	if _, err := os.Stat(l.Config()); err == nil && !force {
		return fmt.Errorf("%s: %w", l.Config(), ErrExists)
	}

	data, err := DefaultConfig()
	if err != nil {
		return err
	}
	if _, err := DecodeConfig(data); err != nil {
		return fmt.Errorf("default config: %w", err)
	}
	if err := atomicyaml.AtomicWriteRaw(l.Config(), data); err != nil {
		return fmt.Errorf("write config.yaml: %w", err)
	}
	return nil
}

// DefaultConfig returns the embedded config.yaml.
func DefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(templates.FS, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("read config template: %w", err)
	}
	return data, nil
}

// LoadConfig reads, defaults and validates the config at path.
func LoadConfig(path string) (model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Config{}, fmt.Errorf("read config.yaml: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return model.Config{}, fmt.Errorf("%s: %w", path, ErrEmptyConfig)
	}
	cfg, err := DecodeConfig(data)
	if err != nil {
		return model.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func DecodeConfig(data []byte) (model.Config, error) {
	var cfg model.Config
	if err := yamlv3.Unmarshal(data, &cfg); err != nil {
		return model.Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg = model.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return model.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// DecodeBatch parses a YAML command list, as sent by `deskflow run
// --file`, validates each command and drops disabled ones.
func DecodeBatch(data []byte) ([]model.Command, error) {
	var cmds model.Commands
	if err := yamlv3.Unmarshal(data, &cmds); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}
	for _, c := range cmds {
		if err := model.ValidateCommand(c); err != nil {
			return nil, err
		}
	}
	return model.Workflow{Commands: cmds}.Resolve(), nil
}
