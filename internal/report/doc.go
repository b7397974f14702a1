// Package report renders analyses.
//
//   - TextWriter prints the deepest text alone, or one line per URL for a
//     batch, so output can be piped into other tools.
//   - JSONWriter prints the full analysis records.
//   - MarkdownWriter prints a document with tables and alerts.
//
// All writers implement Writer and can be combined with MultiWriter.
package report
