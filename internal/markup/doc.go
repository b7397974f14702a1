// Package markup finds the text nested deepest inside an HTML document.
//
// It has two parts that run over the same document:
//
//   - Validate scans the raw text character by character and checks that
//     every opening tag is closed by a tag of the same name, in order.
//   - Tracker scans the document line by line, follows the nesting depth and
//     remembers the text line seen at the deepest point.
//
// Neither part is a real HTML parser. Attributes, comments, CDATA and
// script bodies get no special treatment, and a line that starts with '<'
// is treated as a tag line as a whole, so text that follows a tag on the
// same line is never reported.
//
// # Usage
//
//	if !markup.IsValid(body) {
//		return ErrMalformed
//	}
//	res := markup.NewTracker(markup.StrategyCounter).Track(markup.SplitLines(body))
//	fmt.Println(res.Text)
//
// Everything in this package is pure: no I/O, no logging and no state that
// outlives a single call.
package markup
