package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errUsage is returned when the root command does not get exactly one URL.
var errUsage = errors.New("usage: deeptext <url>")

// NewRootCmd creates the root command. Run with one URL it analyzes that
// document; the subcommands cover batches, history and setup.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deeptext <url>",
		Short: "Print the most deeply nested text of an HTML document",
		Long: `deeptext fetches an HTML document and prints the text found at the
deepest level of tag nesting.

The document is checked for balanced tags first. A malformed document or
one without nested text is reported on stderr and exits with status 1.

Examples:
  # Print the deepest text of a page
  deeptext https://example.com

  # Use the level stack strategy instead of the depth counter
  deeptext --strategy levels https://example.com

  # Print the full analysis as JSON
  deeptext --json https://example.com

  # Fetch a hidden service through an embedded Tor daemon
  deeptext --tor http://exampleonion.onion`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			return nil
		},
		RunE: runAnalyzeCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	addFetchFlags(cmd)
	addReportFlags(cmd)

	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
