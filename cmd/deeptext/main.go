// Package main provides the entry point for the deeptext CLI.
//
// deeptext fetches an HTML document and prints the text found at the
// deepest level of tag nesting.
//
// Usage:
//
//	deeptext <url>
//	deeptext batch <url>... [-f file]
//
// See --help for all available options.
package main

func main() {
	Execute()
}
