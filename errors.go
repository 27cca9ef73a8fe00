// errors.go: user-facing error wrapping and caret-snippet rendering.
//
// Turns lexer/parser diagnostics into readable snippets with a caret
// pointing at the offending column:
//
//	PARSE ERROR in prog.mi at 2:16: expected ')' after condition, found "{"
//
//	   1 | $i = 1
//	   2 | while ($i <= 5 {
//	     |                ^
//	   3 |     printf($i)
//
// `*LexError` (lexer.go) and `*ParseError` (parser.go) carry 1-based
// lines and 0-based columns; anything else passes through unchanged.
// Runtime diagnostics never reach this path: they are one-line stderr
// prints and execution continues.
package minilux

import (
	"fmt"
	"strings"
)

// WrapErrorWithSource renders err with a caret-annotated snippet of src.
// Non lex/parse errors are returned untouched.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource plus a source name (usually
// the file path) in the header.
func WrapErrorWithName(err error, srcName string, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", snippet(src, "LEXICAL ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *ParseError:
		return fmt.Errorf("%s", snippet(src, "PARSE ERROR", srcName, e.Line, e.Col+1, e.Msg))
	default:
		return err
	}
}

// snippet builds the header plus a caret line, with at most one line of
// context before and after. Coordinates are clamped to the source.
func snippet(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad > len(lineTxt) {
		caretPad = len(lineTxt)
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
