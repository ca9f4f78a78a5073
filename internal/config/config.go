package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the immutable run configuration shared by every component.
type Config struct {
	// Launcher is the ns-3 wrapper script, invoked as `<launcher> run "<program> --k=v ..."`.
	Launcher string `yaml:"launcher"`
	// WorkDir is the simulator checkout; empty means the current directory.
	WorkDir string `yaml:"work_dir"`

	SingleProgram string `yaml:"single_program"`
	DualProgram   string `yaml:"dual_program"`

	OutputDir string `yaml:"output_dir"`
	// TracePath is the cwnd trace written by the single-topology program,
	// relative to WorkDir unless absolute.
	TracePath string `yaml:"trace_path"`

	// Runs is the number of seeded repetitions per Part 2 combination.
	Runs int `yaml:"runs"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// Environment overrides, applied after the YAML file.
const (
	EnvLauncher  = "NS3_LAUNCHER"
	EnvWorkDir   = "NS3_DIR"
	EnvOutputDir = "LAB_OUTPUT_DIR"
	EnvRuns      = "LAB_RUNS"
	EnvLogLevel  = "LAB_LOG_LEVEL"
)

func Default() Config {
	return Config{
		Launcher:      "./ns3",
		SingleProgram: "lab2-part1",
		DualProgram:   "lab2-part2",
		OutputDir:     "Lab2_Sobrenome_Nome",
		TracePath:     filepath.Join("scratch", "resultados", "Congestion_Control-cwnd.data"),
		Runs:          10,
		LogLevel:      "info",
	}
}

// Load reads the YAML file at path (a missing file yields the defaults),
// fills zero fields from Default, then applies the environment, including a
// .env file in the current directory when one exists.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
			mergeWithDefaults(&cfg)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func mergeWithDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Launcher == "" {
		cfg.Launcher = defaults.Launcher
	}
	if cfg.SingleProgram == "" {
		cfg.SingleProgram = defaults.SingleProgram
	}
	if cfg.DualProgram == "" {
		cfg.DualProgram = defaults.DualProgram
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaults.OutputDir
	}
	if cfg.TracePath == "" {
		cfg.TracePath = defaults.TracePath
	}
	if cfg.Runs == 0 {
		cfg.Runs = defaults.Runs
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvLauncher); v != "" {
		cfg.Launcher = v
	}
	if v := os.Getenv(EnvWorkDir); v != "" {
		cfg.WorkDir = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvRuns); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvRuns, v, err)
		}
		cfg.Runs = n
	}
	return nil
}

func (c Config) Validate() error {
	switch {
	case c.Launcher == "":
		return errors.New("launcher must not be empty")
	case c.SingleProgram == "" || c.DualProgram == "":
		return errors.New("both simulator programs must be named")
	case c.OutputDir == "":
		return errors.New("output_dir must not be empty")
	case c.TracePath == "":
		return errors.New("trace_path must not be empty")
	case c.Runs <= 0:
		return fmt.Errorf("runs must be positive, got %d", c.Runs)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// TraceSource is the scratch location of the cwnd trace as seen from this process.
func (c Config) TraceSource() string {
	if filepath.IsAbs(c.TracePath) || c.WorkDir == "" {
		return c.TracePath
	}
	return filepath.Join(c.WorkDir, c.TracePath)
}

// WithLogLevel returns a copy with the level replaced; empty keeps the current one.
func (c Config) WithLogLevel(level string) Config {
	if level != "" {
		c.LogLevel = level
	}
	return c
}
