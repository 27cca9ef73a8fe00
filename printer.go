// printer.go: the source formatter.
//
// Format re-emits a canonical textual form line by line: 4-space
// indentation per open brace, one space around binary operators and
// after commas, canonical keyword spellings ("function" becomes "func",
// "&&" and "||" become AND and OR), comments preserved verbatim on
// their line, and at most one consecutive blank line.
// String literals keep their original lexeme, so quote style (and with
// it interpolability) survives formatting.
//
// The formatter does not validate semantics, but syntactically
// malformed input is rejected with the parse error before any text is
// produced.
package minilux

import (
	"strings"
)

// Format returns the canonical form of src, or the lex/parse error for
// malformed input.
func Format(src string) (string, error) {
	if _, err := ParseProgram(src); err != nil {
		return "", err
	}

	lines := strings.Split(src, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	indents := buildIndentMap(lines)

	var out []string
	blanks := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			blanks++
			if blanks <= 1 {
				out = append(out, "")
			}
			continue
		}
		blanks = 0

		indent := strings.Repeat("    ", indents[i])

		if strings.HasPrefix(trimmed, "#") {
			out = append(out, indent+trimmed)
			continue
		}

		code, comment := splitComment(trimmed)
		code = strings.TrimSpace(code)

		formatted := ""
		if code != "" {
			formatted = formatCode(code)
		}

		switch {
		case comment != "" && formatted == "":
			out = append(out, indent+comment)
		case comment != "":
			out = append(out, indent+formatted+"  "+comment)
		default:
			out = append(out, strings.TrimRight(indent+formatted, " "))
		}
	}

	result := strings.Join(out, "\n")
	if !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result, nil
}

// scanOutsideStrings walks a line tracking quote context and calls
// visit for every byte outside string literals. A non-negative return
// stops the walk.
func scanOutsideStrings(line string, visit func(i int, ch byte) int) int {
	inDouble := false
	inSingle := false
	escape := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		if escape {
			escape = false
			continue
		}
		if ch == '\\' && (inDouble || inSingle) {
			escape = true
			continue
		}
		switch {
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case !inDouble && !inSingle:
			if r := visit(i, ch); r >= 0 {
				return r
			}
		}
	}
	return -1
}

// splitComment separates the code part of a line from a trailing "#"
// comment, ignoring hashes inside string literals.
func splitComment(line string) (code, comment string) {
	pos := scanOutsideStrings(line, func(i int, ch byte) int {
		if ch == '#' {
			return i
		}
		return -1
	})
	if pos < 0 {
		return line, ""
	}
	return line[:pos], strings.TrimSpace(line[pos:])
}

// buildIndentMap assigns a brace-depth indent level to every line.
func buildIndentMap(lines []string) []int {
	indents := make([]int, len(lines))
	depth := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		code, _ := splitComment(trimmed)
		code = strings.TrimSpace(code)

		if code == "" {
			indents[i] = maxInt(depth, 0)
			continue
		}
		if strings.HasPrefix(code, "}") {
			depth--
		}
		indents[i] = maxInt(depth, 0)
		if strings.HasSuffix(code, "{") {
			depth++
		}
	}
	return indents
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ----- token re-emission -----

func isBinaryOp(tt TokenType) bool {
	switch tt {
	case PLUS, MINUS, STAR, SLASH, PERCENT, ASSIGN,
		EQ, NEQ, LESS, LESS_EQ, GREATER, GREATER_EQ, AND, OR:
		return true
	default:
		return false
	}
}

func isOpening(tt TokenType) bool {
	return tt == LPAREN || tt == LBRACKET || tt == LBRACE
}

func isClosing(tt TokenType) bool {
	return tt == RPAREN || tt == RBRACKET || tt == RBRACE
}

// isCallable reports tokens that glue directly to a following "(".
func isCallable(tt TokenType) bool {
	return tt == IDENT || tt == VARIABLE
}

// isOperandEnd reports tokens a binary operator could legally follow;
// a "-" after anything else is unary.
func isOperandEnd(tt TokenType) bool {
	switch tt {
	case INT, STRING, RAWSTRING, VARIABLE, IDENT, RPAREN, RBRACKET:
		return true
	default:
		return false
	}
}

// fmtText renders one token canonically: "&&" and "||" come out as
// "AND" and "OR", "function" as "func". Identifiers, variables, and
// literals keep their lexeme: in a program that parses, a mixed-case
// "If" can only be an identifier, and rewriting it would change the
// program.
func fmtText(t Token) string {
	switch t.Type {
	case IDENT, VARIABLE, INT, STRING, RAWSTRING:
		return t.Lexeme
	default:
		return tokenText(t.Type)
	}
}

// formatCode re-tokenizes one line's code part and reconstructs it with
// canonical spacing.
func formatCode(code string) string {
	toks, err := NewLexer(code).Scan()
	if err != nil {
		return code
	}

	kept := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Type == NEWLINE || t.Type == COMMENT || t.Type == EOF {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return ""
	}

	unary := make([]bool, len(kept))
	for i, t := range kept {
		if t.Type == MINUS {
			unary[i] = i == 0 || !isOperandEnd(kept[i-1].Type)
		}
	}

	var b strings.Builder
	for i, t := range kept {
		if i > 0 && needsSpaceBefore(kept, unary, i) {
			b.WriteByte(' ')
		}
		b.WriteString(fmtText(t))
	}
	return b.String()
}

func needsSpaceBefore(toks []Token, unary []bool, i int) bool {
	cur := toks[i]
	prev := toks[i-1]

	if isClosing(cur.Type) {
		return false
	}
	if cur.Type == LBRACKET {
		// "$a[0]" stays tight; "[1, 2]" after "=" or "," gets its space.
		return (isBinaryOp(prev.Type) && !unary[i-1]) || prev.Type == COMMA
	}
	if cur.Type == LPAREN {
		return !isCallable(prev.Type) && !isOpening(prev.Type) && prev.Type != BANG
	}
	if cur.Type == COMMA || cur.Type == SEMI {
		return false
	}
	if cur.Type == MINUS && !unary[i] || cur.Type != MINUS && isBinaryOp(cur.Type) {
		return true
	}
	if isOpening(prev.Type) || prev.Type == BANG {
		return false
	}
	if prev.Type == MINUS && unary[i-1] {
		return false
	}
	return true
}
