package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/deeptext/internal/config"
	"github.com/nao1215/deeptext/internal/fetch"
	applog "github.com/nao1215/deeptext/internal/log"
	"github.com/nao1215/deeptext/internal/model"
	"github.com/nao1215/deeptext/internal/pipeline"
	"github.com/nao1215/deeptext/internal/report"
	"github.com/spf13/cobra"
)

// addFetchFlags registers the flags that control how documents are
// fetched and analyzed.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("strategy", "s", config.NewConfig().Strategy,
		"Depth strategy: counter or levels")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request (default for --tor: 2m)")
	cmd.Flags().StringP("user-agent", "A", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("max-body-size", humanize.IBytes(uint64(config.DefaultMaxBodySize)),
		"Maximum response body size to read (e.g. 512KiB, 10MB)")
	cmd.Flags().StringP("proxy", "x", "",
		"Fetch through a SOCKS5 proxy at host:port (e.g. 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and fetch through it")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .deeptext in current or home directory)")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")
	cmd.Flags().Bool("no-history", false,
		"Do not store analyses in the history database")
}

// addReportFlags registers the output format flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output the full analysis as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the full analysis as Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the specified file path (creates directories if needed)")
}

// runAnalyzeCmd analyzes the single URL given to the root command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)

	ctx, cancel := withSignals(cmd.Context(), logger)
	defer cancel()

	target, err := fetch.NormalizeURL(cfg.Targets[0])
	if err != nil {
		return err
	}

	s, err := openSession(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	strategy, err := s.strategyFor(fetch.Host(target))
	if err != nil {
		return err
	}

	p := pipeline.DefaultPipeline(s.fetcher(), strategy, pipeline.WithLogger(logger))
	analysis, runErr := p.Analyze(ctx, target)

	s.save(ctx, analysis)

	if err := outputReport(cmd, cfg, analysis); err != nil {
		return err
	}
	return runErr
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the defaults, the configuration file
// and the command line flags, in that order of precedence.
func buildConfig(cmd *cobra.Command, targets []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// The config file may set these, so only explicit flags override them.
	if cmd.Flags().Changed("strategy") {
		cfg.Strategy, err = cmd.Flags().GetString("strategy")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("user-agent") {
		cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
		if err != nil {
			return nil, err
		}
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	maxBodySize, err := cmd.Flags().GetString("max-body-size")
	if err != nil {
		return nil, err
	}
	size, err := humanize.ParseBytes(maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("invalid --max-body-size %q: %w", maxBodySize, err)
	}
	cfg.MaxBodySize = int64(size) //nolint:gosec // sizes beyond int64 are not realistic

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.UseTor, err = cmd.Flags().GetBool("tor")
	if err != nil {
		return nil, err
	}
	if cfg.UseTor && !cmd.Flags().Changed("timeout") {
		cfg.Timeout = config.DefaultOnionTimeout
	}

	cfg.TorStartupTimeout, err = cmd.Flags().GetDuration("tor-timeout")
	if err != nil {
		return nil, err
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = targets

	return cfg, nil
}

// setupLogger creates the sanitizing logger and makes it the default.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	logger := applog.NewSecureLogger(cmd.ErrOrStderr(), verbose)
	slog.SetDefault(logger)
	return logger
}

// withSignals returns a context that is cancelled on SIGINT or SIGTERM.
func withSignals(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// reportFormat maps the report flags to a report.Format.
func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// openOutput returns the report destination and a function that closes it.
func openOutput(cmd *cobra.Command, cfg *config.Config) (io.Writer, func(), error) {
	if cfg.ReportFile == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	// Create directories if they don't exist
	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports quote page content, so only the owner may read them.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil //nolint:errcheck // write errors are reported by the writer
}

// outputReport writes analysis in the requested format. Plain text output
// is skipped when nothing was found, so no empty file is created.
func outputReport(cmd *cobra.Command, cfg *config.Config, analysis *model.Analysis) error {
	format := reportFormat(cfg)
	if format == report.FormatText && analysis.Outcome != model.OutcomeFound {
		return nil
	}

	out, closeOutput, err := openOutput(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeOutput()

	if _, err := report.New(format, out, getVersion()).Write(analysis); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
