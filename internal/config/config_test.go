package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Report.Lang)
	assert.Nil(t, cfg.Analysis.Timeout)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	require.Error(t, err)
}

func TestLoadConfigAllSections(t *testing.T) {
	path := writeConfig(t, `
[import]
format = "csv"
location = "UTC"
strict = true

[report]
lang = "ja"
format = "json"
plot = true
since-days = 30

[analysis]
timeout = "5s"
trend-threshold = 0.05
zscore-threshold = 2.5
iqr-multiplier = 3.0
quartile-method = "floor"

[log]
level = "debug"
format = "json"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Import.Format)
	assert.Equal(t, "csv", *cfg.Import.Format)
	assert.Equal(t, "UTC", *cfg.Import.Location)
	assert.True(t, *cfg.Import.Strict)
	assert.Equal(t, "ja", *cfg.Report.Lang)
	assert.Equal(t, "json", *cfg.Report.Format)
	assert.True(t, *cfg.Report.Plot)
	assert.Equal(t, 30, *cfg.Report.SinceDays)
	assert.Equal(t, 5*time.Second, cfg.Analysis.Timeout.Duration)
	assert.InDelta(t, 0.05, *cfg.Analysis.TrendThreshold, 1e-12)
	assert.InDelta(t, 2.5, *cfg.Analysis.ZScoreThreshold, 1e-12)
	assert.InDelta(t, 3.0, *cfg.Analysis.IQRMultiplier, 1e-12)
	assert.Equal(t, "floor", *cfg.Analysis.QuartileMethod)
	assert.Equal(t, "debug", *cfg.Log.Level)
	assert.Equal(t, "json", *cfg.Log.Format)
}

func TestLoadConfigPartialLeavesOthersUnset(t *testing.T) {
	path := writeConfig(t, "[report]\nplot = false\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Report.Plot)
	assert.False(t, *cfg.Report.Plot)
	assert.Nil(t, cfg.Report.Lang)
	assert.Nil(t, cfg.Import.Strict)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "syntax", body: "[report\n", want: "failed to decode config"},
		{name: "unknown key", body: "[report]\ncolour = true\n", want: "unknown config keys: report.colour"},
		{name: "format", body: "[import]\nformat = \"xml\"\n", want: "import.format"},
		{name: "location", body: "[import]\nlocation = \"Mars/Base\"\n", want: "import.location"},
		{name: "lang", body: "[report]\nlang = \"fr\"\n", want: "report.lang"},
		{name: "timeout", body: "[analysis]\ntimeout = \"soon\"\n", want: "invalid duration"},
		{name: "negative timeout", body: "[analysis]\ntimeout = \"-1s\"\n", want: "analysis.timeout"},
		{name: "quartile", body: "[analysis]\nquartile-method = \"median\"\n", want: "analysis.quartile-method"},
		{name: "zscore", body: "[analysis]\nzscore-threshold = 0.0\n", want: "analysis.zscore-threshold"},
		{name: "log format", body: "[log]\nformat = \"xml\"\n", want: "log.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	assert.Equal(t, filepath.Join("/tmp/cfg", "babylog", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/tmp/data", "babylog", "babylog.db"), DefaultDBPath())
}
