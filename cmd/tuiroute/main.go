// Package main provides the CLI entrypoint for tuiroute.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuiroute/internal/config"
	"github.com/verte-zerg/tuiroute/internal/generator"
	"github.com/verte-zerg/tuiroute/internal/logging"
	"github.com/verte-zerg/tuiroute/internal/model"
	"github.com/verte-zerg/tuiroute/internal/route"
	"github.com/verte-zerg/tuiroute/internal/session"
	"github.com/verte-zerg/tuiroute/internal/stats"
	"github.com/verte-zerg/tuiroute/internal/statsui"
	"github.com/verte-zerg/tuiroute/internal/store"
	"github.com/verte-zerg/tuiroute/internal/tui"
	"github.com/verte-zerg/tuiroute/internal/wordpool"
)

const (
	defaultRoute       = route.TokyoKyotoID
	defaultFPS         = 30
	maxFPS             = 240
	defaultCurveWindow = 5
)

var (
	playRoute    string
	playRestart  string
	playFPS      int
	playHistory  int
	playLogLevel string

	statsRoute       string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuiroute",
		Short:         "Route-based typing game",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playRoute, "route", defaultRoute, "route id (empty plays a 60s free run)")
	rootCmd.Flags().StringVar(&playRestart, "restart", string(session.RestartDiscard), "restart while running: discard or reject")
	rootCmd.Flags().IntVar(&playFPS, "fps", defaultFPS, "frames per second driving the timer")
	rootCmd.Flags().IntVar(&playHistory, "history", store.DefaultHistoryLimit, "recent results kept per route")
	rootCmd.PersistentFlags().StringVar(&playLogLevel, "log-level", logging.DefaultLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newRoutesCmd())
	rootCmd.AddCommand(newPoolsCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func loadFileConfig(cmd *cobra.Command) (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &playLogLevel, fileCfg.Log.Level)
	return fileCfg, nil
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "route", &playRoute, fileCfg.Play.Route)
	applyStringConfig(cmd, "restart", &playRestart, fileCfg.Play.RestartPolicy)
	applyIntConfig(cmd, "fps", &playFPS, fileCfg.Play.FPS)
	applyIntConfig(cmd, "history", &playHistory, fileCfg.Play.HistoryLimit)

	cfg := model.Config{
		RouteID:       strings.TrimSpace(playRoute),
		RestartPolicy: playRestart,
		FPS:           playFPS,
		HistoryLimit:  playHistory,
	}
	policy, err := validateConfig(cfg)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.OpenFile(config.DefaultLogPath(), playLogLevel)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLog(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	pools, routes, err := loadRegistries(logger)
	if err != nil {
		return err
	}

	var rt *model.Route
	if cfg.RouteID != "" {
		found, ok := routes.Get(cfg.RouteID)
		if !ok {
			return fmt.Errorf("unknown route %q (run: tuiroute routes)", cfg.RouteID)
		}
		rt = &found
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	sess := session.New(pools, generator.New(), session.WithRestartPolicy(policy))
	m := tui.NewModel(cfg, rt, sess, st, logger)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func loadRegistries(logger zerolog.Logger) (*wordpool.Registry, *route.Registry, error) {
	pools := wordpool.NewRegistry()
	loadedPools, err := pools.LoadDir(config.DefaultPoolDir())
	if err != nil {
		return nil, nil, err
	}
	for _, id := range loadedPools {
		logger.Debug().Str("pool", id).Str("source", pools.Source(id)).Msg("loaded word pool")
	}

	routes := route.NewRegistry()
	loadedRoutes, err := routes.LoadDir(config.DefaultRouteDir())
	if err != nil {
		return nil, nil, err
	}
	for _, id := range loadedRoutes {
		logger.Debug().Str("route", id).Msg("loaded route")
	}
	return pools, routes, nil
}

func stderrLogger() (zerolog.Logger, error) {
	return logging.New(os.Stderr, playLogLevel)
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
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List available routes",
		Args:  cobra.NoArgs,
		RunE:  runRoutesCmd,
	}
}

func runRoutesCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadFileConfig(cmd); err != nil {
		return err
	}
	logger, err := stderrLogger()
	if err != nil {
		return err
	}
	_, routes, err := loadRegistries(logger)
	if err != nil {
		return err
	}
	return writeRoutes(cmd.OutOrStdout(), routes.List(), stats.TerminalWidth())
}

func writeRoutes(w io.Writer, routes []model.Route, width int) error {
	headers := []string{"ID", "Name", "Total", "Segments", "Description"}
	rows := make([][]string, 0, len(routes))
	for _, rt := range routes {
		segs := make([]string, 0, len(rt.Segments))
		for _, seg := range rt.Segments {
			label := fmt.Sprintf("%s:%s", seg.WordPoolID, strconv.FormatFloat(seg.DurationSec, 'f', -1, 64))
			if seg.SpeedHint != "" {
				label += "(" + seg.SpeedHint + ")"
			}
			segs = append(segs, label)
		}
		rows = append(rows, []string{
			rt.ID,
			rt.Name,
			rt.TotalDuration().String(),
			strings.Join(segs, " "),
			rt.Description,
		})
	}
	for _, line := range stats.FormatTable(headers, rows, map[int]bool{2: true}) {
		if _, err := fmt.Fprintln(w, truncate(line, width)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newPoolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pools",
		Short: "List available word pools",
		Args:  cobra.NoArgs,
		RunE:  runPoolsCmd,
	}
}

func runPoolsCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadFileConfig(cmd); err != nil {
		return err
	}
	logger, err := stderrLogger()
	if err != nil {
		return err
	}
	pools, _, err := loadRegistries(logger)
	if err != nil {
		return err
	}
	return writePools(cmd.OutOrStdout(), pools, stats.TerminalWidth())
}

func writePools(w io.Writer, pools *wordpool.Registry, width int) error {
	headers := []string{"ID", "Words", "Source", "Sample"}
	var rows [][]string
	for _, id := range pools.IDs() {
		words, _ := pools.Lookup(id)
		sample := words
		if len(sample) > 4 {
			sample = sample[:4]
		}
		rows = append(rows, []string{id, strconv.Itoa(len(words)), pools.Source(id), strings.Join(sample, " ")})
	}
	for _, line := range stats.FormatTable(headers, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, truncate(line, width)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsRoute, "route", "", "route filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print to stdout instead of opening the stats UI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadFileConfig(cmd); err != nil {
		return err
	}
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	cfg := model.StatsConfig{
		RouteID:     statsRoute,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain {
		report, err := stats.BuildReport(cmd.Context(), st, cfg)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		out := cmd.OutOrStdout()
		if err := stats.RenderSummary(out, report.Sessions); err != nil {
			return err
		}
		if err := stats.RenderBests(out, report); err != nil {
			return err
		}
		if err := stats.RenderCurves(out, report.Sessions, cfg.CurveWindow, stats.TerminalWidth()); err != nil {
			return err
		}
		return stats.RenderHistory(out, report.Sessions)
	}

	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuiroute configuration
# Uncomment a value to enable it. CLI flags override config values.
# Routes live in %s/*.toml, word pools in %s/<id>.txt.

[play]
# route = %q       # Route id; "" plays a 60s free run on the default pool
# restart = %q       # Restart while running: "discard" or "reject"
# fps = %d                # Frames per second driving the timer
# history = %d             # Recent results kept per route

[log]
# level = %q           # debug, info, warn, error
`,
		config.DefaultRouteDir(),
		config.DefaultPoolDir(),
		defaultRoute,
		session.RestartDiscard,
		defaultFPS,
		store.DefaultHistoryLimit,
		logging.DefaultLevel,
	)
}

func validateConfig(cfg model.Config) (session.RestartPolicy, error) {
	if cfg.FPS < 1 || cfg.FPS > maxFPS {
		return "", fmt.Errorf("--fps must be between 1 and %d", maxFPS)
	}
	if cfg.HistoryLimit < 1 {
		return "", fmt.Errorf("--history must be >= 1")
	}
	policy, err := session.ParseRestartPolicy(cfg.RestartPolicy)
	if err != nil {
		return "", fmt.Errorf("--restart: %w", err)
	}
	if _, err := logging.ParseLevel(playLogLevel); err != nil {
		return "", fmt.Errorf("--log-level: %w", err)
	}
	return policy, nil
}

// truncate cuts line to width terminal cells. A non-positive width keeps it.
func truncate(line string, width int) string {
	if width <= 0 {
		return line
	}
	return runewidth.Truncate(line, width, "")
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
