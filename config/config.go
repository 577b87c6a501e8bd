package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"filesig/version"
)

type Config struct {
	Paths          []string `json:"paths"`
	ComparePaths   []string `json:"compare_paths"`
	OutputFormat   string   `json:"output_format"`
	OutputFileName string   `json:"output_file_name"`
	LogLevel       string   `json:"log_level"`
	ConfigFile     string   `json:"config_file"`
	SnapshotFile   string   `json:"snapshot_file"`
	RecordSnapshot bool     `json:"record_snapshot"`
	CheckSnapshot  bool     `json:"check_snapshot"`
	VolumeInfo     bool     `json:"volume_info"`
	MaxIOPerSecond int      `json:"max_io_per_second"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Paths:          []string{},
		ComparePaths:   []string{},
		OutputFormat:   "json",
		OutputFileName: "-",
		LogLevel:       "info",
		SnapshotFile:   ".filesig_snapshot.json",
		MaxIOPerSecond: 0,
	}

	paths := flag.String("path", "", "Comma-separated list of files to resolve (default: none).")
	compare := flag.String("compare", "", "Two comma-separated paths to compare for identity (default: none).")
	format := flag.String("format", cfg.OutputFormat, fmt.Sprintf("Output format: json or ndjson (default: %s).", cfg.OutputFormat))
	output := flag.String("output", cfg.OutputFileName, "Output file name, or - for stdout (default: -).")
	logLevel := flag.String("log-level", cfg.LogLevel, fmt.Sprintf("Log level: debug, info, warn, error, fatal, or panic (default: %s).", cfg.LogLevel))
	configFile := flag.String("config", "", "Path to JSON configuration file (default: none).")
	snapshotFile := flag.String("snapshot-file", cfg.SnapshotFile, fmt.Sprintf("Path to the signature snapshot file (default: %s).", cfg.SnapshotFile))
	record := flag.Bool("record", cfg.RecordSnapshot, fmt.Sprintf("Record resolved signatures into the snapshot file (default: %t).", cfg.RecordSnapshot))
	check := flag.Bool("check", cfg.CheckSnapshot, fmt.Sprintf("Check recorded paths against their live signatures (default: %t).", cfg.CheckSnapshot))
	volumeInfo := flag.Bool("volume-info", cfg.VolumeInfo, fmt.Sprintf("Include mount and filesystem details per path (default: %t).", cfg.VolumeInfo))
	maxIO := flag.Int("max-io-per-second", cfg.MaxIOPerSecond, "Maximum resolutions per second, 0 for unlimited (default: 0).")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = displayHelp
	flag.Parse()

	if *showVersion {
		fmt.Printf("filesig version %s\n", version.Version)
		os.Exit(0)
	}

	if *configFile != "" {
		cfg.ConfigFile = *configFile
		if err := cfg.loadFromFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path":
			cfg.Paths = parseCommaSeparated(*paths)
		case "compare":
			cfg.ComparePaths = parseCommaSeparated(*compare)
		case "format":
			cfg.OutputFormat = strings.ToLower(*format)
		case "output":
			cfg.OutputFileName = *output
		case "log-level":
			cfg.LogLevel = *logLevel
		case "snapshot-file":
			cfg.SnapshotFile = *snapshotFile
		case "record":
			cfg.RecordSnapshot = *record
		case "check":
			cfg.CheckSnapshot = *check
		case "volume-info":
			cfg.VolumeInfo = *volumeInfo
		case "max-io-per-second":
			cfg.MaxIOPerSecond = *maxIO
		}
	})

	// Bare arguments are also paths, so `filesig FILE...` works without
	// flags.
	if args := flag.Args(); len(args) > 0 {
		cfg.Paths = append(cfg.Paths, args...)
	}

	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "json"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func displayHelp() {
	fmt.Println("Filesig - File Identity Resolver")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  filesig [options] [path ...]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  filesig /var/log/syslog")
	fmt.Println("  filesig --compare \"/var/log/app.log,/backup/app.log\"")
	fmt.Println("  filesig --path \"/var/log/app.log\" --record")
	fmt.Println("  filesig --check --format ndjson")
}

func (cfg *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %v", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	return nil
}

func (cfg *Config) validate() error {
	if len(cfg.Paths) == 0 && len(cfg.ComparePaths) == 0 && !cfg.CheckSnapshot {
		return fmt.Errorf("at least one path, --compare, or --check must be given")
	}
	if len(cfg.ComparePaths) != 0 && len(cfg.ComparePaths) != 2 {
		return fmt.Errorf("--compare takes exactly two comma-separated paths, got %d", len(cfg.ComparePaths))
	}
	if cfg.OutputFormat != "json" && cfg.OutputFormat != "ndjson" {
		return fmt.Errorf("invalid output format: %s (json or ndjson)", cfg.OutputFormat)
	}
	if cfg.RecordSnapshot && len(cfg.Paths) == 0 {
		return fmt.Errorf("--record requires at least one path")
	}
	if cfg.MaxIOPerSecond < 0 {
		return fmt.Errorf("max-io-per-second must be zero or positive")
	}
	if strings.TrimSpace(cfg.SnapshotFile) == "" && (cfg.RecordSnapshot || cfg.CheckSnapshot) {
		return fmt.Errorf("snapshot-file must not be empty when --record or --check is used")
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	return nil
}

func parseCommaSeparated(input string) []string {
	if strings.TrimSpace(input) == "" {
		return []string{}
	}
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
