package cmd

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"tabula/internal/config"
	"tabula/internal/db"
	"tabula/internal/logger"
	"tabula/internal/ui"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const (
	configEnv = "TABULA_CONFIG"
	dbEnv     = "TABULA_DB"
)

var errNoTerminal = errors.New("the table UI needs a terminal (use `tabula export` for scripts)")

var (
	configFile string
	dbFile     string
	dialogID   string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:           "tabula",
	Short:         "Sortable table dialogs in the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Load .env files first so env-based defaults apply to every command.
		loadDotEnv(".env")
		loadDotEnv(".env.local")
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTUI(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print tabula version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), "tabula "+Version)
		return nil
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to the dialogs file (default: $"+configEnv+" or ~/.tabula/dialogs.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbFile, "db", "", "path to the SQLite database (default: $"+dbEnv+" or the config's database)")
	rootCmd.Flags().StringVar(&dialogID, "dialog", "", "id of the dialog to show first")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("tabula {{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(initCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runTUI(cmd *cobra.Command) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNoTerminal
	}

	rt, err := openSession()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := logger.WithLogger(cmd.Context(), rt.log.Logger)
	m, err := ui.New(ctx, ui.Options{
		Config:    rt.cfg,
		DB:        rt.db,
		Log:       rt.log.Logger,
		PrefsPath: filepath.Join(filepath.Dir(rt.configPath), "ui_prefs.json"),
		Dialog:    dialogID,
	})
	if err != nil {
		return err
	}

	rt.log.Info("starting", "config", rt.configPath, "dialogs", len(rt.cfg.Dialogs))
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}

// session bundles what every command that reads dialogs needs.
type session struct {
	configPath string
	cfg        *config.Config
	db         *sql.DB
	log        *logger.Logger
}

func (rt *session) Close() {
	if rt.db != nil {
		_ = rt.db.Close()
	}
	_ = rt.log.Close()
}

func openSession() (*session, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no dialogs file at %s (run `tabula init`): %w", path, err)
	}
	if err != nil {
		return nil, err
	}
	if override := firstNonEmpty(dbFile, os.Getenv(dbEnv)); override != "" {
		cfg.Database = config.ExpandHome(override)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if debug {
		level = zapcore.DebugLevel
	}
	log, err := logger.Open(cfg.LogFile, level, Version)
	if err != nil {
		return nil, err
	}

	rt := &session{configPath: path, cfg: cfg, log: log}
	if cfg.Database != "" {
		database, err := db.Open(cfg.Database)
		if err != nil {
			_ = log.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		rt.db = database
	}
	return rt, nil
}

// resolveConfigPath returns --config, then $TABULA_CONFIG, then
// ~/.tabula/dialogs.yaml.
func resolveConfigPath() (string, error) {
	if p := firstNonEmpty(configFile, os.Getenv(configEnv)); p != "" {
		return config.ExpandHome(p), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".tabula", "dialogs.yaml"), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		if key == "" {
			continue
		}

		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}
