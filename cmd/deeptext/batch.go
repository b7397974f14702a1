package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/deeptext/internal/config"
	"github.com/nao1215/deeptext/internal/model"
	"github.com/nao1215/deeptext/internal/pipeline"
	"github.com/nao1215/deeptext/internal/report"
	"github.com/spf13/cobra"
)

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [url...]",
		Short: "Analyze many documents concurrently",
		Long: `Batch analyzes several documents at once and prints one result per URL.

URLs come from the arguments and from a file given with --file, one URL
per line. Blank lines and lines starting with # are ignored. Results are
printed in input order. The command exits with status 1 if any document
yielded no text.

Examples:
  # Analyze three pages with the default concurrency
  deeptext batch https://a.example https://b.example https://c.example

  # Read URLs from a file, eight at a time, at most two new requests per second
  deeptext batch -f urls.txt -n 8 -r 2

  # Markdown summary of all results
  deeptext batch -f urls.txt --markdown -o report.md`,
		Args: cobra.ArbitraryArgs,
		RunE: runBatchCmd,
	}

	addFetchFlags(cmd)
	addReportFlags(cmd)

	cmd.Flags().StringP("file", "f", "",
		"Read URLs from the specified file, one per line")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of concurrent analyses")
	cmd.Flags().Float64P("rate", "r", 0,
		"Maximum number of analyses started per second (0 means unlimited)")

	return cmd
}

// runBatchCmd executes the batch command.
func runBatchCmd(cmd *cobra.Command, args []string) error {
	targets := append([]string(nil), args...)

	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}
	if file != "" {
		fromFile, err := readTargetsFile(file)
		if err != nil {
			return err
		}
		targets = append(targets, fromFile...)
	}

	cfg, err := buildConfig(cmd, targets)
	if err != nil {
		return err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return err
	}
	cfg.RateLimit, err = cmd.Flags().GetFloat64("rate")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)

	ctx, cancel := withSignals(cmd.Context(), logger)
	defer cancel()

	s, err := openSession(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	strategy, err := cfg.DepthStrategy()
	if err != nil {
		return err
	}
	if hasSiteStrategies(cfg) && !s.strategyFlag {
		logger.Warn("batch mode uses one depth strategy for all URLs; per-site strategies are ignored",
			"strategy", strategy)
	}

	fetcher := s.fetcher()
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(fetcher, strategy, pipeline.WithLogger(logger))
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithRateLimit(cfg.RateLimit),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	results := make([]*model.Analysis, len(cfg.Targets))

	var mu sync.Mutex
	batchErr := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(analysis *model.Analysis, index int) {
		mu.Lock()
		defer mu.Unlock()

		results[index] = analysis
		s.save(ctx, analysis)
		logger.Debug("analysis completed",
			"index", index+1,
			"total", len(cfg.Targets),
			"url", analysis.URL,
			"outcome", analysis.Outcome,
		)
	})

	logger.Info("batch completed", "elapsed", time.Since(startTime).Round(time.Millisecond))

	if err := outputBatchReport(cmd, cfg, results); err != nil {
		return err
	}
	if batchErr != nil {
		return batchErr
	}
	return batchFailure(results)
}

// readTargetsFile reads one URL per line, skipping blank lines and
// # comments.
func readTargetsFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided URL list is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return targets, nil
}

// hasSiteStrategies reports whether the config file sets a strategy for
// any specific host.
func hasSiteStrategies(cfg *config.Config) bool {
	if cfg.SiteConfigs == nil {
		return false
	}
	for _, site := range cfg.SiteConfigs.Sites {
		if site.Strategy != "" {
			return true
		}
	}
	return false
}

// outputBatchReport writes every analysis in the requested format.
func outputBatchReport(cmd *cobra.Command, cfg *config.Config, analyses []*model.Analysis) error {
	out, closeOutput, err := openOutput(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeOutput()

	if _, err := report.New(reportFormat(cfg), out, getVersion()).WriteBatch(analyses); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// errBatchFailed is returned when at least one document yielded no text.
var errBatchFailed = errors.New("some analyses did not find text")

// batchFailure returns errBatchFailed with a count, or nil when every
// analysis found text.
func batchFailure(analyses []*model.Analysis) error {
	failed := 0
	for _, a := range analyses {
		if a == nil || a.Outcome != model.OutcomeFound {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d", errBatchFailed, failed, len(analyses))
}
