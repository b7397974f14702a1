package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/deeptext/internal/config"
	"github.com/nao1215/deeptext/internal/database"
	"github.com/nao1215/deeptext/internal/fetch"
	"github.com/nao1215/deeptext/internal/model"
	"github.com/nao1215/deeptext/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of rows listed without a URL.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// It reads the analyses stored by previous runs.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show stored analyses",
		Long: `History lists analyses stored in the history database.

Without a URL the most recent analyses of all URLs are listed. With a URL
every analysis of that URL is listed, newest first. The body digest column
shows whether the document changed between runs.

Examples:
  # Most recent analyses
  deeptext history

  # All analyses of one page
  deeptext history https://example.com

  # Full record of the latest analysis of a page
  deeptext history --latest https://example.com

  # Full record of one analysis by ID
  deeptext history --id 0b9f4d9e-3a43-4c8e-9a0e-4f4b1d3f2a11

  # Every analyzed URL
  deeptext history --list-urls`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-urls", "L", false,
		"List every analyzed URL")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of analyses listed without a URL (0 means all)")
	cmd.Flags().StringP("id", "i", "",
		"Show the full record of the analysis with this ID")
	cmd.Flags().BoolP("latest", "l", false,
		"Show the full record of the latest analysis of the URL")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listURLs, err := cmd.Flags().GetBool("list-urls")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	id, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var url string
	if len(args) == 1 {
		url, err = fetch.NormalizeURL(args[0])
		if err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}
	}
	if latest && url == "" {
		return errors.New("--latest requires a URL")
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case listURLs:
		urls, err := db.ListURLs(ctx)
		if err != nil {
			return err
		}
		return printURLs(out, urls, jsonOutput)

	case id != "":
		analysis, err := db.GetAnalysisByID(ctx, id)
		if err != nil {
			return historyLookupError(err, "no analysis with ID "+id)
		}
		return printAnalysis(out, analysis, jsonOutput)

	case latest:
		analysis, err := db.LatestByURL(ctx, url)
		if err != nil {
			return historyLookupError(err, "no analysis of "+url)
		}
		return printAnalysis(out, analysis, jsonOutput)

	case url != "":
		summaries, err := db.GetHistory(ctx, url)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			return fmt.Errorf("no analysis of %s (use 'deeptext %s' to analyze it)", url, url)
		}
		return printSummaries(out, summaries, jsonOutput)

	default:
		summaries, err := db.ListRecent(ctx, limit)
		if err != nil {
			return err
		}
		return printSummaries(out, summaries, jsonOutput)
	}
}

// historyLookupError replaces database.ErrNotFound with msg.
func historyLookupError(err error, msg string) error {
	if errors.Is(err, database.ErrNotFound) {
		return errors.New(msg)
	}
	return err
}

// printURLs prints one URL per line, or a JSON array.
func printURLs(w io.Writer, urls []string, jsonOutput bool) error {
	if jsonOutput {
		if urls == nil {
			urls = []string{}
		}
		return writeJSON(w, urls)
	}
	if len(urls) == 0 {
		_, err := fmt.Fprintln(w, "No analyses stored.")
		return err
	}
	for _, u := range urls {
		if _, err := fmt.Fprintln(w, u); err != nil {
			return err
		}
	}
	return nil
}

// printAnalysis prints one full record.
func printAnalysis(w io.Writer, analysis *model.Analysis, jsonOutput bool) error {
	var writer report.Writer
	if jsonOutput {
		writer = report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	} else {
		writer = report.NewTextWriter(w, report.WithVerbose(true))
	}
	_, err := writer.Write(analysis)
	return err
}

// summaryJSON is the JSON form of one history row.
type summaryJSON struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	AnalyzedAt  string `json:"analyzed_at"`
	Strategy    string `json:"strategy"`
	Outcome     string `json:"outcome"`
	DeepestText string `json:"deepest_text,omitempty"`
	Depth       int    `json:"depth,omitempty"`
	BodyDigest  string `json:"body_digest,omitempty"`
}

// printSummaries prints history rows as a table or JSON.
func printSummaries(w io.Writer, summaries []database.Summary, jsonOutput bool) error {
	if jsonOutput {
		rows := make([]summaryJSON, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, summaryJSON{
				ID:          s.ID,
				URL:         s.URL,
				AnalyzedAt:  s.AnalyzedAt.Format("2006-01-02T15:04:05Z07:00"),
				Strategy:    s.Strategy,
				Outcome:     s.Outcome.String(),
				DeepestText: s.DeepestText,
				Depth:       s.Depth,
				BodyDigest:  s.BodyDigest,
			})
		}
		return writeJSON(w, rows)
	}

	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No analyses stored.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tANALYZED\tURL\tOUTCOME\tDEPTH\tDIGEST\tTEXT")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID,
			humanize.Time(s.AnalyzedAt),
			s.URL,
			s.Outcome,
			s.Depth,
			shortDigest(s.BodyDigest),
			truncate(s.DeepestText, 40),
		)
	}
	return tw.Flush()
}

// shortDigest returns the first 12 hex digits of a body digest.
func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	if digest == "" {
		return "-"
	}
	return digest
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
