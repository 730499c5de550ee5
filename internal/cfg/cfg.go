// Package cfg loads service configuration from a YAML file or environment
// variables. A CONFIG_FILE env var selects the YAML path; otherwise every
// setting falls back to an individual env var with a sane default.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Column declares one dataset column for ingestion: its CSV header name and
// kind ("numeric" or "categorical").
type Column struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// Settings is the resolved runtime configuration.
type Settings struct {
	// Scorer
	ScorerURL     string
	ScorerTimeout time.Duration
	ModelTag      string

	// Dataset (batch tool)
	DatasetPath  string
	TargetColumn string
	Columns      []Column

	// Engines
	Seed           int64
	Repeats        int
	GridResolution int
	Workers        int

	// System
	DataPath    string
	ListenPort  int
	MetricsPort int
}

type configFile struct {
	Scorer struct {
		URL      string `yaml:"url"`
		Timeout  string `yaml:"timeout"`
		ModelTag string `yaml:"modelTag"`
	} `yaml:"scorer"`

	Dataset struct {
		Path    string   `yaml:"path"`
		Target  string   `yaml:"target"`
		Columns []Column `yaml:"columns"`
	} `yaml:"dataset"`

	Explain struct {
		Seed           int64 `yaml:"seed"`
		Repeats        int   `yaml:"repeats"`
		GridResolution int   `yaml:"gridResolution"`
		Workers        int   `yaml:"workers"`
	} `yaml:"explain"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		ListenPort  int    `yaml:"listenPort"`
		MetricsPort int    `yaml:"metricsPort"`
	} `yaml:"system"`
}

// Load resolves settings from CONFIG_FILE YAML when set, environment
// variables otherwise. A .env file in the working directory is applied
// first if present.
func Load() (Settings, error) {
	_ = godotenv.Load() // optional; missing .env is fine

	var (
		s   Settings
		err error
	)
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		s, err = loadFromYAML(configPath)
	} else {
		s, err = loadFromEnv()
	}
	if err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	timeout := 5 * time.Second
	if cf.Scorer.Timeout != "" {
		timeout, err = time.ParseDuration(cf.Scorer.Timeout)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid scorer timeout %q: %w", cf.Scorer.Timeout, err)
		}
	}

	s := Settings{
		ScorerURL:      cf.Scorer.URL,
		ScorerTimeout:  timeout,
		ModelTag:       cf.Scorer.ModelTag,
		DatasetPath:    cf.Dataset.Path,
		TargetColumn:   cf.Dataset.Target,
		Columns:        cf.Dataset.Columns,
		Seed:           cf.Explain.Seed,
		Repeats:        cf.Explain.Repeats,
		GridResolution: cf.Explain.GridResolution,
		Workers:        cf.Explain.Workers,
		DataPath:       cf.System.DataPath,
		ListenPort:     cf.System.ListenPort,
		MetricsPort:    cf.System.MetricsPort,
	}
	s.applyDefaults()
	return s, nil
}

func loadFromEnv() (Settings, error) {
	s := Settings{
		ScorerURL:      getEnv("SCORER_URL", ""),
		ScorerTimeout:  getEnvAsDuration("SCORER_TIMEOUT", 5*time.Second),
		ModelTag:       getEnv("MODEL_TAG", "default"),
		DatasetPath:    getEnv("DATASET_PATH", ""),
		TargetColumn:   getEnv("TARGET_COLUMN", ""),
		Seed:           int64(getEnvAsInt("SEED", 42)),
		Repeats:        getEnvAsInt("REPEATS", 10),
		GridResolution: getEnvAsInt("GRID_RESOLUTION", 20),
		Workers:        getEnvAsInt("WORKERS", 4),
		DataPath:       getEnv("DATA_PATH", "data"),
		ListenPort:     getEnvAsInt("LISTEN_PORT", 8080),
		MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
	}

	// FEATURE_COLUMNS: comma-separated name:kind pairs, e.g.
	// "age:numeric,purpose:categorical".
	if raw := getEnv("FEATURE_COLUMNS", ""); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			name, kind, found := strings.Cut(strings.TrimSpace(part), ":")
			if !found {
				return Settings{}, fmt.Errorf("invalid FEATURE_COLUMNS entry %q, want name:kind", part)
			}
			s.Columns = append(s.Columns, Column{Name: name, Kind: kind})
		}
	}

	s.applyDefaults()
	return s, nil
}

func (s *Settings) applyDefaults() {
	if s.ModelTag == "" {
		s.ModelTag = "default"
	}
	if s.Repeats == 0 {
		s.Repeats = 10
	}
	if s.GridResolution == 0 {
		s.GridResolution = 20
	}
	if s.Workers == 0 {
		s.Workers = 4
	}
	if s.DataPath == "" {
		s.DataPath = "data"
	}
	if s.ListenPort == 0 {
		s.ListenPort = 8080
	}
	if s.MetricsPort == 0 {
		s.MetricsPort = 9090
	}
	if s.ScorerTimeout == 0 {
		s.ScorerTimeout = 5 * time.Second
	}
}

// Validate enforces parameter bounds before anything starts up.
func (s *Settings) Validate() error {
	if s.Repeats < 1 {
		return fmt.Errorf("repeats must be at least 1, got %d", s.Repeats)
	}
	if s.GridResolution < 2 {
		return fmt.Errorf("grid resolution must be at least 2, got %d", s.GridResolution)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	if s.ListenPort < 1 || s.ListenPort > 65535 {
		return fmt.Errorf("listen port %d out of range", s.ListenPort)
	}
	if s.MetricsPort < 1 || s.MetricsPort > 65535 {
		return fmt.Errorf("metrics port %d out of range", s.MetricsPort)
	}
	for _, c := range s.Columns {
		if c.Kind != "numeric" && c.Kind != "categorical" {
			return fmt.Errorf("column %q has unknown kind %q", c.Name, c.Kind)
		}
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	if v, err := strconv.Atoi(getEnv(name, "")); err == nil {
		return v
	}
	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(name, "")); err == nil {
		return v
	}
	return defaultVal
}
