package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/upstreamed/forksync/internal/config"
	"github.com/upstreamed/forksync/internal/gitx"
	"github.com/upstreamed/forksync/internal/report"
	"github.com/upstreamed/forksync/internal/syncer"
	"github.com/upstreamed/forksync/internal/utils"
	"github.com/upstreamed/forksync/internal/version"
)

const configFileName = "config"

var (
	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:           "forksync",
	Short:         "Keep GitHub forks in sync with their upstream repositories",
	Version:       version.Detailed(),
	SilenceErrors: true,
	RunE:          runSync,
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "config file")
	rootCmd.PersistentFlags().StringP("owner", "o", "", "account whose forks are synced (default: token owner)")
	rootCmd.PersistentFlags().StringP("repo", "r", "", "sync a single repository instead of discovering all forks")
	rootCmd.PersistentFlags().StringP("token", "t", "", "access token (or GITHUB_TOKEN)")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "glob patterns of forks to skip")

	rootCmd.Flags().BoolP("force", "f", false, "hard reset forks whose merges fail")
	rootCmd.Flags().BoolP("dry-run", "n", false, "report diverging forks without cloning or pushing")
	rootCmd.Flags().Int("batch-size", config.DefaultBatchSize, "forks per batch")
	rootCmd.Flags().IntP("max-parallel", "p", config.DefaultMaxParallel, "batches processed concurrently")
	rootCmd.Flags().String("workdir", config.DefaultWorkDir, "work area for clones and logs")
	rootCmd.Flags().Bool("keep-work", false, "keep clone directories after the run")
	rootCmd.Flags().String("readme", config.DefaultReadmePath, "status document path (empty disables)")
	rootCmd.Flags().Bool("commit-readme", false, "commit and push the status document when it changed")
	rootCmd.Flags().String("json", "", "write the machine-readable run report to this path")
	rootCmd.Flags().Duration("timeout", config.DefaultTimeout, "bound on the whole run")
}

func main() {
	slog.SetDefault(slog.New(terminalLogHandler()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, red("error:"), err)
		os.Exit(1)
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cmd.SilenceUsage = true
	showForkSyncHeader()

	ws, err := syncer.NewWorkspace(cfg.WorkDir)
	if err != nil {
		return err
	}

	logFile, err := setupFileLogging(ws.LogFile())
	if err != nil {
		return err
	}
	defer logFile.Close()

	slog.Info("forksync", "version", version.Short(), "owner", cfg.Owner, "token", cfg.MaskedToken(), "dry_run", cfg.DryRun)

	s, err := syncer.New(cfg, ws)
	if err != nil {
		return err
	}
	defer s.Close()

	// held for the report commit; wiped before exit like the config copy
	token := cfg.Token
	defer func() { token = "" }()

	rep, runErr := s.Run(cmd.Context())
	if rep == nil {
		return runErr
	}

	fmt.Print(report.Summary(rep))

	if err := persistReport(cmd.Context(), cfg, rep, token); err != nil {
		if runErr == nil {
			runErr = err
		} else {
			slog.Error("persist report", "error", err)
		}
	}
	return runErr
}

// persistReport writes the status document and optional JSON artifact,
// and commits the document back when asked to.
func persistReport(ctx context.Context, cfg *config.Config, rep *syncer.RunReport, token string) error {
	if cfg.JSONPath != "" {
		if err := report.WriteJSON(cfg.JSONPath, rep); err != nil {
			return err
		}
		slog.Info("run report written", "path", cfg.JSONPath)
	}

	if cfg.ReadmePath == "" {
		return nil
	}

	changed, err := report.WriteMarkdown(cfg.ReadmePath, rep)
	if err != nil {
		return err
	}
	if !changed {
		slog.Info("status document unchanged", "path", cfg.ReadmePath)
		return nil
	}
	slog.Info("status document written", "path", cfg.ReadmePath)

	if !cfg.CommitReadme || cfg.DryRun {
		return nil
	}
	sig := gitx.Signature{Name: cfg.CommitName, Email: cfg.CommitEmail}
	return report.CommitReadme(ctx, cfg.ReadmePath, sig, token)
}

// loadConfig resolves the run configuration: flags over environment
// (FORKSYNC_*, plus GITHUB_TOKEN for the credential) over the optional
// JSON config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	// a local .env is a convenience for development; missing is fine
	_ = godotenv.Load()

	if f := cmd.Flag("config"); f != nil && f.Changed {
		viper.SetConfigFile(f.Value.String())
	} else {
		viper.AddConfigPath(filepath.Dir(config.DefaultConfigPath))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return nil, fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	// not every command defines every flag; bind the ones present
	bind := func(key, name string) {
		if f := cmd.Flag(name); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
	bind("owner", "owner")
	bind("repo", "repo")
	bind("token", "token")
	bind("exclude", "exclude")
	bind("force", "force")
	bind("dry_run", "dry-run")
	bind("batch_size", "batch-size")
	bind("max_parallel", "max-parallel")
	bind("work_dir", "workdir")
	bind("keep_work", "keep-work")
	bind("readme_path", "readme")
	bind("commit_readme", "commit-readme")
	bind("json_path", "json")
	bind("timeout", "timeout")

	viper.SetEnvPrefix("FORKSYNC")
	viper.AutomaticEnv()

	viper.SetDefault("api_base_url", config.DefaultAPIBaseURL)
	viper.SetDefault("batch_size", config.DefaultBatchSize)
	viper.SetDefault("max_parallel", config.DefaultMaxParallel)
	viper.SetDefault("batch_pause", config.DefaultBatchPause)
	viper.SetDefault("work_dir", config.DefaultWorkDir)
	viper.SetDefault("readme_path", config.DefaultReadmePath)
	viper.SetDefault("commit_name", config.DefaultCommitName)
	viper.SetDefault("commit_email", config.DefaultCommitEmail)
	viper.SetDefault("timeout", config.DefaultTimeout)
	// conventional fallback credential
	viper.SetDefault("token", os.Getenv("GITHUB_TOKEN"))

	cfg := config.Default()
	cfg.Owner = viper.GetString("owner")
	cfg.Repo = viper.GetString("repo")
	cfg.Token = viper.GetString("token")
	cfg.APIBaseURL = viper.GetString("api_base_url")
	cfg.Force = viper.GetBool("force")
	cfg.DryRun = viper.GetBool("dry_run")
	cfg.BatchSize = viper.GetInt("batch_size")
	cfg.MaxParallel = viper.GetInt("max_parallel")
	cfg.BatchPause = viper.GetDuration("batch_pause")
	cfg.Exclude = viper.GetStringSlice("exclude")
	cfg.WorkDir = viper.GetString("work_dir")
	cfg.KeepWork = viper.GetBool("keep_work")
	cfg.ReadmePath = viper.GetString("readme_path")
	cfg.CommitReadme = viper.GetBool("commit_readme")
	cfg.JSONPath = viper.GetString("json_path")
	cfg.CommitName = viper.GetString("commit_name")
	cfg.CommitEmail = viper.GetString("commit_email")
	cfg.Timeout = viper.GetDuration("timeout")
	cfg.Path = viper.ConfigFileUsed()

	return cfg, nil
}

func terminalLogHandler() slog.Handler {
	return tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
}

// setupFileLogging mirrors terminal logs into the work area's log file,
// with full debug detail. The caller closes the returned file.
func setupFileLogging(logPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logInterceptor := utils.NewLogInterceptor(file)
	fileHandler := slog.NewTextHandler(logInterceptor, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		// The interceptor stamps each line; drop slog's own time.
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})

	slog.SetDefault(slog.New(utils.NewMultiLogHandler(terminalLogHandler(), fileHandler)))
	return file, nil
}

func showForkSyncHeader() {
	color.New(color.FgHiCyan, color.Bold).
		Print(utils.ForkSyncArt + "\n")
}
