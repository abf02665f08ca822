// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Pointer fields
// distinguish unset values from zero values.
type FileConfig struct {
	Import   ImportConfig   `toml:"import"`
	Report   ReportConfig   `toml:"report"`
	Analysis AnalysisConfig `toml:"analysis"`
	Log      LogConfig      `toml:"log"`
}

// ImportConfig maps import-related settings.
type ImportConfig struct {
	Format   *string `toml:"format"`
	Location *string `toml:"location"`
	Strict   *bool   `toml:"strict"`
}

// ReportConfig maps report-related settings.
type ReportConfig struct {
	Lang      *string `toml:"lang"`
	Format    *string `toml:"format"`
	Plot      *bool   `toml:"plot"`
	SinceDays *int    `toml:"since-days"`
}

// AnalysisConfig maps analysis tuning knobs.
type AnalysisConfig struct {
	Timeout         *Duration `toml:"timeout"`
	TrendThreshold  *float64  `toml:"trend-threshold"`
	ZScoreThreshold *float64  `toml:"zscore-threshold"`
	IQRMultiplier   *float64  `toml:"iqr-multiplier"`
	QuartileMethod  *string   `toml:"quartile-method"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

// Duration decodes TOML strings such as "30s" or "2m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that TOML typing cannot express.
func (c FileConfig) Validate() error {
	if c.Import.Format != nil && !oneOf(*c.Import.Format, "auto", "text", "csv") {
		return fmt.Errorf("import.format must be auto, text or csv")
	}
	if c.Import.Location != nil {
		if _, err := time.LoadLocation(*c.Import.Location); err != nil {
			return fmt.Errorf("import.location: %w", err)
		}
	}
	if c.Report.Lang != nil && !oneOf(*c.Report.Lang, "en", "ja") {
		return fmt.Errorf("report.lang must be en or ja")
	}
	if c.Report.Format != nil && !oneOf(*c.Report.Format, "text", "json") {
		return fmt.Errorf("report.format must be text or json")
	}
	if c.Report.SinceDays != nil && *c.Report.SinceDays < 0 {
		return fmt.Errorf("report.since-days must be >= 0")
	}
	if c.Analysis.Timeout != nil && c.Analysis.Timeout.Duration <= 0 {
		return fmt.Errorf("analysis.timeout must be > 0")
	}
	if c.Analysis.TrendThreshold != nil && *c.Analysis.TrendThreshold < 0 {
		return fmt.Errorf("analysis.trend-threshold must be >= 0")
	}
	if c.Analysis.ZScoreThreshold != nil && *c.Analysis.ZScoreThreshold <= 0 {
		return fmt.Errorf("analysis.zscore-threshold must be > 0")
	}
	if c.Analysis.IQRMultiplier != nil && *c.Analysis.IQRMultiplier <= 0 {
		return fmt.Errorf("analysis.iqr-multiplier must be > 0")
	}
	if c.Analysis.QuartileMethod != nil && !oneOf(*c.Analysis.QuartileMethod, "interpolated", "floor") {
		return fmt.Errorf("analysis.quartile-method must be interpolated or floor")
	}
	if c.Log.Format != nil && !oneOf(*c.Log.Format, "text", "json") {
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
