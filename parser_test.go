// parser_test.go
package minilux

import (
	"strings"
	"testing"
)

func parse(t *testing.T, src string) []Stmt {
	t.Helper()
	stmts, err := ParseProgram(src)
	if err != nil {
		t.Fatalf("ParseProgram error: %v\nsource:\n%s", err, src)
	}
	return stmts
}

func parseErr(t *testing.T, src, fragment string) {
	t.Helper()
	_, err := ParseProgram(src)
	if err == nil {
		t.Fatalf("want parse error for:\n%s", src)
	}
	if !strings.Contains(err.Error(), fragment) {
		t.Fatalf("error %q should mention %q", err, fragment)
	}
}

func Test_Parser_Assignment(t *testing.T) {
	stmts := parse(t, "$x = 1 + 2")
	if len(stmts) != 1 {
		t.Fatalf("want 1 statement, got %d", len(stmts))
	}
	as, ok := stmts[0].(*AssignStmt)
	if !ok || as.Name != "$x" {
		t.Fatalf("want AssignStmt for $x, got %#v", stmts[0])
	}
	if _, ok := as.Value.(*BinaryExpr); !ok {
		t.Fatalf("want BinaryExpr value, got %#v", as.Value)
	}
}

func Test_Parser_Precedence(t *testing.T) {
	stmts := parse(t, "$x = 1 + 2 * 3")
	as := stmts[0].(*AssignStmt)
	top := as.Value.(*BinaryExpr)
	if top.Op != PLUS {
		t.Fatalf("top operator: want PLUS, got %v", top.Op)
	}
	right, ok := top.Right.(*BinaryExpr)
	if !ok || right.Op != STAR {
		t.Fatalf("multiplication should bind tighter, got %#v", top.Right)
	}
}

func Test_Parser_LogicalPrecedenceAndGrouping(t *testing.T) {
	// The documented double-parentheses pattern parses, as does the
	// bare form.
	stmts := parse(t, "$ok = (($a >= 18) AND ($b == 1)) OR ($c)")
	top := stmts[0].(*AssignStmt).Value.(*BinaryExpr)
	if top.Op != OR {
		t.Fatalf("OR binds loosest, got %v", top.Op)
	}
	if left := top.Left.(*BinaryExpr); left.Op != AND {
		t.Fatalf("want AND under OR, got %v", left.Op)
	}
	parse(t, "$ok = $a AND $b OR $c")
}

func Test_Parser_IfChain(t *testing.T) {
	src := `
if ($x > 0) {
    printf("pos")
} elseif ($x < 0) {
    printf("neg")
} elseif ($x == 0) {
    printf("zero")
} else {
    printf("unreachable")
}
`
	stmts := parse(t, src)
	st := stmts[0].(*IfStmt)
	if len(st.Elseifs) != 2 || st.Else == nil {
		t.Fatalf("want 2 elseif arms and an else, got %d / %v", len(st.Elseifs), st.Else != nil)
	}
}

func Test_Parser_While(t *testing.T) {
	stmts := parse(t, "while ($i <= 5) { inc $i + 1 }")
	st := stmts[0].(*WhileStmt)
	if len(st.Body) != 1 {
		t.Fatalf("want 1 body statement, got %d", len(st.Body))
	}
	if _, ok := st.Body[0].(*IncDecStmt); !ok {
		t.Fatalf("want IncDecStmt, got %#v", st.Body[0])
	}
}

func Test_Parser_FuncDefAndCall(t *testing.T) {
	stmts := parse(t, "func greet {\n    printf(\"hi\")\n}\ngreet\ngreet()")
	if _, ok := stmts[0].(*FuncDefStmt); !ok {
		t.Fatalf("want FuncDefStmt, got %#v", stmts[0])
	}
	for _, s := range stmts[1:] {
		if _, ok := s.(*CallStmt); !ok {
			t.Fatalf("want CallStmt, got %#v", s)
		}
	}
	// "function" is an accepted spelling, with or without "()".
	parse(t, "function greet() {\n    return\n}")
}

func Test_Parser_IncDecPairing(t *testing.T) {
	parse(t, "inc $i + 1")
	parse(t, "dec $i - 1")
	parseErr(t, "inc $i - 1", "inc pairs with '+'")
	parseErr(t, "dec $i + 1", "dec pairs with '-'")
}

func Test_Parser_ArrayMutators(t *testing.T) {
	stmts := parse(t, "push $a, 1\npop $a\nshift $a\nunshift $a, 0")
	if _, ok := stmts[0].(*PushStmt); !ok {
		t.Fatalf("push: got %#v", stmts[0])
	}
	if _, ok := stmts[1].(*PopStmt); !ok {
		t.Fatalf("pop: got %#v", stmts[1])
	}
	if _, ok := stmts[2].(*ShiftStmt); !ok {
		t.Fatalf("shift: got %#v", stmts[2])
	}
	if _, ok := stmts[3].(*UnshiftStmt); !ok {
		t.Fatalf("unshift: got %#v", stmts[3])
	}
}

func Test_Parser_IndexedAssignment(t *testing.T) {
	stmts := parse(t, "$a[2] = 99")
	st := stmts[0].(*IndexAssignStmt)
	if st.Name != "$a" {
		t.Fatalf("target: got %q", st.Name)
	}
}

func Test_Parser_SocketStatements(t *testing.T) {
	src := `
sockopen("irc", "example.com", 6667)
sockwrite("irc", "NICK mini\r\n")
sockread("irc", $reply)
sockclose("irc")
`
	stmts := parse(t, src)
	open := stmts[0].(*SockOpenStmt)
	if open.Name != "irc" {
		t.Fatalf("socket name: got %q", open.Name)
	}
	rd := stmts[2].(*SockReadStmt)
	if rd.Var != "$reply" {
		t.Fatalf("sockread variable: got %q", rd.Var)
	}
}

func Test_Parser_Include(t *testing.T) {
	stmts := parse(t, `include "lib.mi"`)
	st := stmts[0].(*IncludeStmt)
	if st.Path != "lib.mi" {
		t.Fatalf("include path: got %q", st.Path)
	}
	parseErr(t, "include 42", "string literal")
}

func Test_Parser_StatementTerminators(t *testing.T) {
	// Semicolons and newlines both terminate; either is optional
	// before "}".
	parse(t, "$a = 1; $b = 2\n$c = 3")
	parse(t, "if (1) { $a = 1 }")
	parseErr(t, "$a = 1 $b = 2", "end of statement")
}

func Test_Parser_Errors(t *testing.T) {
	parseErr(t, "if ($x { printf(1) }", "')'")
	parseErr(t, "while (1) { printf(1)", "'}'")
	parseErr(t, "$x = ", "expression")
	parseErr(t, "push $a 1", "','")
	parseErr(t, "func { }", "function name")
}

func Test_Parser_UnaryAndIndex(t *testing.T) {
	stmts := parse(t, "$x = -$y[0]")
	un := stmts[0].(*AssignStmt).Value.(*UnaryExpr)
	if un.Op != MINUS {
		t.Fatalf("want unary minus, got %v", un.Op)
	}
	if _, ok := un.Operand.(*IndexExpr); !ok {
		t.Fatalf("index binds tighter than unary minus, got %#v", un.Operand)
	}
}

func Test_Parser_CommentsAreTrivia(t *testing.T) {
	stmts := parse(t, "# leading\n$a = 1 # trailing\n# only\n")
	if len(stmts) != 1 {
		t.Fatalf("comments must not become statements, got %d", len(stmts))
	}
}
