package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thatsimonsguy/enose-collector/internal/model"
)

// Config holds everything the collector binary needs for one run.
type Config struct {
	ProfileFile  string
	ListProfiles bool
	Cycles       int
	SkipCycles   int
	DwellSec     float64
	Meta         string
	OutputRoot   string
	RunlogDB     string

	I2CBus    string
	BridgeExe string

	LogLevel zerolog.Level
	LogFile  string

	DDAgentAddr string
	DDNamespace string
	DDTags      []string

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
}

// Load parses command-line flags.
func Load() Config {
	var cfg Config
	var logLevel, ddTags string

	flag.StringVar(&cfg.ProfileFile, "profile", "", "Path to heater profile JSON (empty: last used or built-in default)")
	flag.BoolVar(&cfg.ListProfiles, "list-profiles", false, "List the built-in profiles and exit")
	flag.IntVar(&cfg.Cycles, "cycles", 10, "Capture cycles to log")
	flag.IntVar(&cfg.SkipCycles, "skip-cycles", 3, "Pre-conditioning cycles to run but not log")
	flag.Float64Var(&cfg.DwellSec, "dwell", -1, "Override inter-cycle dwell seconds (negative: use profile value)")
	flag.StringVar(&cfg.Meta, "meta", "", "Sample metadata: inline JSON object or path to a JSON file")
	flag.StringVar(&cfg.OutputRoot, "output-root", "logs", "Root directory for CSV output")
	flag.StringVar(&cfg.RunlogDB, "runlog-db", "data/runs.db", "Path to the run registry database")
	flag.StringVar(&cfg.I2CBus, "i2c-bus", "", "I2C bus name (empty: first available)")
	flag.StringVar(&cfg.BridgeExe, "bridge-exe", "", "Path to the native bridge executable")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFile, "log-file", "", "Log file path (empty: stderr)")
	flag.StringVar(&cfg.DDAgentAddr, "dd-addr", "", "DogStatsD agent address (empty: metrics disabled)")
	flag.StringVar(&cfg.DDNamespace, "dd-namespace", "enose.", "Metric namespace prefix")
	flag.StringVar(&ddTags, "dd-tags", "", "Comma-separated metric tags")
	flag.StringVar(&cfg.MQTTBroker, "mqtt-broker", "", "MQTT broker URL (empty: status publishing disabled)")
	flag.StringVar(&cfg.MQTTTopic, "mqtt-topic", "enose/run", "MQTT topic root for status messages")
	flag.StringVar(&cfg.MQTTClientID, "mqtt-client-id", "enose-collector", "MQTT client id")
	flag.Parse()

	cfg.LogLevel = parseLogLevel(logLevel)
	if ddTags != "" {
		cfg.DDTags = strings.Split(ddTags, ",")
	}
	return cfg
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Validate checks the flag combinations that cannot be defaulted away.
func (cfg *Config) Validate() error {
	if cfg.Cycles <= 0 {
		return fmt.Errorf("cycles must be positive, got %d", cfg.Cycles)
	}
	if cfg.SkipCycles < 0 {
		return fmt.Errorf("skip-cycles must be non-negative, got %d", cfg.SkipCycles)
	}
	if cfg.Meta == "" {
		return fmt.Errorf("sample metadata is required; pass -meta with a JSON object or file path")
	}
	return nil
}

// ResolveMetadata turns the -meta flag into validated sample metadata.
// A value starting with '{' is parsed inline; anything else is read as a
// JSON file.
func ResolveMetadata(meta string) (model.Metadata, error) {
	var md model.Metadata
	raw := []byte(meta)
	if !strings.HasPrefix(strings.TrimSpace(meta), "{") {
		var err error
		raw, err = os.ReadFile(meta)
		if err != nil {
			return md, fmt.Errorf("read metadata file: %w", err)
		}
	}
	if err := json.Unmarshal(raw, &md); err != nil {
		return md, fmt.Errorf("parse metadata: %w", err)
	}
	if err := md.Validate(); err != nil {
		return md, err
	}
	return md, nil
}
