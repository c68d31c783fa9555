package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidTranscriberNames lists the transcriber backends shipped with the
// server. [Validate] warns about unrecognised names instead of failing so
// that third-party builds can register their own.
var ValidTranscriberNames = []string{"whisper", "whisper-native"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if name := cfg.Transcriber.Name; name != "" {
		if !slices.Contains(ValidTranscriberNames, name) {
			slog.Warn("unknown transcriber name — may be a typo or third-party backend",
				"name", name,
				"known", ValidTranscriberNames,
			)
		}
		switch name {
		case "whisper":
			if cfg.Transcriber.BaseURL == "" {
				errs = append(errs, errors.New(`transcriber.base_url is required when transcriber.name is "whisper"`))
			}
		case "whisper-native":
			if cfg.Transcriber.ModelPath == "" {
				errs = append(errs, errors.New(`transcriber.model_path is required when transcriber.name is "whisper-native"`))
			}
		}
	} else {
		slog.Warn("no transcriber configured; audio uploads will be rejected, text commands still work")
	}

	if cfg.Transcriber.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("transcriber.timeout_seconds %d must not be negative", cfg.Transcriber.TimeoutSeconds))
	}

	if p := cfg.Roster.USNPrefix; p != "" && strings.ContainsAny(p, " \t") {
		errs = append(errs, fmt.Errorf("roster.usn_prefix %q must not contain whitespace", p))
	}
	if c := cfg.Roster.MatchCutoff; c < 0 || c > 100 {
		errs = append(errs, fmt.Errorf("roster.match_cutoff %d is out of range [0, 100]", c))
	}

	if cfg.Database.PostgresDSN == "" {
		slog.Warn("database.postgres_dsn is empty; falling back to the in-memory store, records are lost on restart")
	}

	return errors.Join(errs...)
}
