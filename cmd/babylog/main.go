// Package main provides the CLI entrypoint for babylog.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/babylog/internal/analysis"
	"github.com/verte-zerg/babylog/internal/config"
	"github.com/verte-zerg/babylog/internal/correlation"
	"github.com/verte-zerg/babylog/internal/generator"
	"github.com/verte-zerg/babylog/internal/importer"
	"github.com/verte-zerg/babylog/internal/logger"
	"github.com/verte-zerg/babylog/internal/model"
	"github.com/verte-zerg/babylog/internal/parser"
	"github.com/verte-zerg/babylog/internal/report"
	"github.com/verte-zerg/babylog/internal/statsui"
	"github.com/verte-zerg/babylog/internal/store"
	"github.com/verte-zerg/babylog/internal/trend"
)

const (
	defaultLang         = "en"
	defaultReportFormat = "text"
	defaultLogLevel     = "warn"
	defaultLogFormat    = "text"
	dateLayout          = "2006-01-02"
	defaultSampleDays   = 30
)

var (
	dbPath    string
	logLevel  string
	logFormat string

	importFormat   string
	importLocation string
	importStrict   bool
	importDryRun   bool

	reportSince     string
	reportUntil     string
	reportActivity  string
	reportFormat    string
	reportLang      string
	reportPlot      bool
	reportSinceDays int

	statsSince    string
	statsUntil    string
	statsActivity string
	statsLang     string

	analysisTimeout time.Duration

	sampleDays  int
	sampleSeed  int64
	sampleStart string
	sampleName  string
	sampleOut   string

	fileCfg config.FileConfig
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "babylog",
		Short:             "Import baby-tracking logs and analyse them",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: $XDG_DATA_HOME/babylog/babylog.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", defaultLogFormat, "log format (text, json)")

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newImportsCmd())
	rootCmd.AddCommand(newErrorsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSampleCmd())

	return rootCmd
}

// setup loads the config file and installs the process logger.
func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "config" {
		return nil
	}
	loaded, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg = loaded
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-format", &logFormat, fileCfg.Log.Format)
	logger.SetDefault(logger.NewSlogLogger(logger.Config{
		Level:  logger.ParseLevel(logLevel),
		Format: logFormat,
	}))
	return nil
}

func openStore() (*store.Store, error) {
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Parse an export file and store its records",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importFormat, "format", string(importer.FormatAuto), "input format (auto, text, csv)")
	cmd.Flags().StringVar(&importLocation, "location", "", "time zone for timestamps (default: local)")
	cmd.Flags().BoolVar(&importStrict, "strict", false, "report event lines before the first date header as errors")
	cmd.Flags().BoolVar(&importDryRun, "dry-run", false, "parse without storing")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	applyStringConfig(cmd, "format", &importFormat, fileCfg.Import.Format)
	applyStringConfig(cmd, "location", &importLocation, fileCfg.Import.Location)
	applyBoolConfig(cmd, "strict", &importStrict, fileCfg.Import.Strict)

	format, err := importer.ParseFormat(importFormat)
	if err != nil {
		return err
	}
	loc := time.Local
	if importLocation != "" {
		loc, err = time.LoadLocation(importLocation)
		if err != nil {
			return fmt.Errorf("invalid --location value: %w", err)
		}
	}

	var rec importer.Recorder
	if !importDryRun {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(st)
		rec = st
	}

	im := importer.New(rec, importer.Options{
		Format:   format,
		Strict:   importStrict,
		Location: loc,
		DryRun:   importDryRun,
	})
	res, err := im.ImportFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if msg := parser.FormatErrors(res.Parse.Errors); msg != "" {
		logErrln(msg)
	}
	out := cmd.OutOrStdout()
	s := res.Summary
	if res.DryRun {
		_, err = fmt.Fprintf(out, "Parsed %d records from %d lines (%d errors, not stored)\n",
			s.RecordCount, s.TotalLines, s.ErrorCount)
	} else {
		_, err = fmt.Fprintf(out, "Import %d: %d records (%d new) from %d lines, %d errors\n",
			s.ID, s.RecordCount, s.Inserted, s.TotalLines, s.ErrorCount)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print statistics, trends, correlations and outliers",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVar(&reportSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&reportUntil, "until", "", "end date, inclusive (YYYY-MM-DD)")
	cmd.Flags().IntVar(&reportSinceDays, "since-days", 0, "limit to the last N days when --since is not set")
	cmd.Flags().StringVar(&reportActivity, "activity", "", "activity type filter")
	cmd.Flags().StringVar(&reportFormat, "format", defaultReportFormat, "output format (text, json)")
	cmd.Flags().StringVar(&reportLang, "lang", defaultLang, "output language (en, ja)")
	cmd.Flags().BoolVar(&reportPlot, "plot", false, "draw daily plots")
	cmd.Flags().DurationVar(&analysisTimeout, "timeout", analysis.DefaultTimeout, "analysis timeout")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "format", &reportFormat, fileCfg.Report.Format)
	applyStringConfig(cmd, "lang", &reportLang, fileCfg.Report.Lang)
	applyBoolConfig(cmd, "plot", &reportPlot, fileCfg.Report.Plot)
	applyIntConfig(cmd, "since-days", &reportSinceDays, fileCfg.Report.SinceDays)

	if reportFormat != "text" && reportFormat != "json" {
		return fmt.Errorf("--format must be text or json")
	}
	cfg, err := buildReportConfig(reportSince, reportUntil, reportActivity, reportLang, reportSinceDays, time.Now())
	if err != nil {
		return err
	}
	cfg.Plot = reportPlot

	opts, err := analysisOptions(cmd)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	rep, err := report.BuildReport(cmd.Context(), st, cfg, opts)
	if err != nil {
		if errors.Is(err, analysis.ErrTimeout) {
			return fmt.Errorf("%w (raise --timeout or [analysis] timeout)", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if reportFormat == "json" {
		return report.RenderJSON(out, rep)
	}
	return report.RenderText(out, rep, report.TextOptions{
		Lang:  cfg.Lang,
		Plot:  cfg.Plot,
		Width: report.TerminalWidth(),
	})
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Browse statistics interactively",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&statsUntil, "until", "", "end date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&statsActivity, "activity", "", "activity type filter")
	cmd.Flags().StringVar(&statsLang, "lang", defaultLang, "display language (en, ja)")
	cmd.Flags().DurationVar(&analysisTimeout, "timeout", analysis.DefaultTimeout, "analysis timeout")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "lang", &statsLang, fileCfg.Report.Lang)
	cfg, err := buildReportConfig(statsSince, statsUntil, statsActivity, statsLang, 0, time.Now())
	if err != nil {
		return err
	}
	opts, err := analysisOptions(cmd)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	load := func(ctx context.Context, cfg model.ReportConfig) (*report.Report, error) {
		return report.BuildReport(ctx, st, cfg, opts)
	}
	ui := statsui.NewModel(load, cfg)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newImportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "imports",
		Short: "List import history",
		Args:  cobra.NoArgs,
		RunE:  runImportsCmd,
	}
}

func runImportsCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	imports, err := st.ListImports(cmd.Context())
	if err != nil {
		return err
	}
	return report.RenderImports(cmd.OutOrStdout(), imports, time.Now())
}

func newErrorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "errors <import-id>",
		Short: "Show parse errors stored for an import",
		Args:  cobra.ExactArgs(1),
		RunE:  runErrorsCmd,
	}
}

func runErrorsCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid import id %q", args[0])
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	errs, err := st.ListParseErrors(cmd.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrImportNotFound) {
			return fmt.Errorf("no import with id %d (see: babylog imports)", id)
		}
		return err
	}
	return report.RenderParseErrors(cmd.OutOrStdout(), errs)
}

func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic text export for trying out babylog",
		Args:  cobra.NoArgs,
		RunE:  runSampleCmd,
	}
	cmd.Flags().IntVar(&sampleDays, "days", defaultSampleDays, "number of days to generate")
	cmd.Flags().Int64Var(&sampleSeed, "seed", 0, "random seed (0: time based)")
	cmd.Flags().StringVar(&sampleStart, "start", "", "first day (YYYY-MM-DD, default: --days before today)")
	cmd.Flags().StringVar(&sampleName, "name", "", "child name")
	cmd.Flags().StringVarP(&sampleOut, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func runSampleCmd(cmd *cobra.Command, _ []string) error {
	if sampleDays <= 0 {
		return fmt.Errorf("--days must be > 0")
	}
	start, err := parseDateFlag("start", sampleStart)
	if err != nil {
		return err
	}
	if start == nil {
		first := time.Now().AddDate(0, 0, -sampleDays)
		start = &first
	}
	text := generator.New(sampleSeed).Generate(generator.Options{
		Start:     *start,
		Days:      sampleDays,
		ChildName: sampleName,
	})
	if sampleOut == "" {
		if _, err := fmt.Fprint(cmd.OutOrStdout(), text); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(sampleOut, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write sample: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeConfigTemplate(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeConfigTemplate creates path with the commented template unless it exists.
func writeConfigTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// buildReportConfig validates the shared filter flags. sinceDays applies only
// when since is empty.
func buildReportConfig(since, until, activity, lang string, sinceDays int, now time.Time) (model.ReportConfig, error) {
	cfg := model.ReportConfig{Lang: lang}
	if lang != "en" && lang != "ja" {
		return cfg, fmt.Errorf("--lang must be en or ja")
	}
	sinceTime, err := parseDateFlag("since", since)
	if err != nil {
		return cfg, err
	}
	if sinceTime == nil && sinceDays > 0 {
		start := time.Date(now.Year(), now.Month(), now.Day()-sinceDays, 0, 0, 0, 0, now.Location())
		sinceTime = &start
	}
	untilTime, err := parseDateFlag("until", until)
	if err != nil {
		return cfg, err
	}
	if sinceTime != nil && untilTime != nil && untilTime.Before(*sinceTime) {
		return cfg, fmt.Errorf("--until must not be before --since")
	}
	if activity != "" {
		a, err := model.ParseActivityType(strings.ToLower(activity))
		if err != nil {
			return cfg, fmt.Errorf("invalid --activity value: %w", err)
		}
		cfg.Activity = a
	}
	cfg.Since = sinceTime
	cfg.Until = untilTime
	return cfg, nil
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s value: %w", name, err)
	}
	return &parsed, nil
}

func analysisOptions(cmd *cobra.Command) (analysis.Options, error) {
	a := fileCfg.Analysis
	if a.Timeout != nil && !cmd.Flags().Changed("timeout") {
		analysisTimeout = a.Timeout.Duration
	}
	opts := analysis.Options{
		Timeout:  analysisTimeout,
		Detector: correlation.DefaultDetector(),
		Logger:   logger.Default(),
	}
	if a.TrendThreshold != nil {
		opts.TrendThreshold = *a.TrendThreshold
	} else {
		opts.TrendThreshold = trend.DefaultThreshold
	}
	if a.ZScoreThreshold != nil {
		opts.Detector.ZScoreThreshold = *a.ZScoreThreshold
	}
	if a.IQRMultiplier != nil {
		opts.Detector.IQRMultiplier = *a.IQRMultiplier
	}
	if a.QuartileMethod != nil {
		method, err := correlation.ParseQuartileMethod(*a.QuartileMethod)
		if err != nil {
			return opts, err
		}
		opts.Detector.QuartileMethod = method
	}
	return opts, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# babylog configuration
# Uncomment a value to enable it. CLI flags override config values.

[import]
# format = "auto"               # auto, text or csv
# location = "Asia/Tokyo"       # Time zone of the exported timestamps (default: local)
# strict = false                # Report event lines before the first date header

[report]
# lang = %q                   # en or ja
# format = %q               # text or json
# plot = false                  # Draw daily plots
# since-days = 30               # Limit reports to the last N days

[analysis]
# timeout = %q                 # Give up on analysis after this long
# trend-threshold = %.2f         # Slope per day below which a trend is stable
# zscore-threshold = %.1f        # |z| above which a value is an outlier
# iqr-multiplier = %.1f          # Tukey fence multiplier
# quartile-method = "interpolated"  # interpolated or floor

[log]
# level = %q                  # debug, info, warn or error
# format = %q               # text or json
`,
		defaultLang,
		defaultReportFormat,
		analysis.DefaultTimeout.String(),
		trend.DefaultThreshold,
		correlation.DefaultZScoreThreshold,
		correlation.DefaultIQRMultiplier,
		defaultLogLevel,
		defaultLogFormat,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
